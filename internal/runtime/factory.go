package runtime

import (
	"fmt"

	"github.com/strohel/locations-imgtest/internal/config"
)

// NewRuntimeFromConfig creates a ContainerRuntime based on the configured
// runtime type. "docker" (the default) talks to the local daemon; "memory"
// keeps everything in process and is meant for tests.
func NewRuntimeFromConfig(runtimeType string) (ContainerRuntime, error) {
	switch runtimeType {
	case config.RuntimeTypeMemory:
		return NewMemoryRuntime(), nil
	case config.RuntimeTypeDocker, "":
		return NewDockerRuntime()
	default:
		return nil, fmt.Errorf("unknown runtime type: %s (supported: %s, %s)",
			runtimeType, config.RuntimeTypeDocker, config.RuntimeTypeMemory)
	}
}
