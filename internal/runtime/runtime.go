package runtime

import "context"

// RunSpec describes the container to run: the image under test, forwarded
// environment and the production-like resource policy.
type RunSpec struct {
	Image string
	// Env entries in "KEY=value" form, forwarded into the container.
	Env []string
	// Port is published host:container with the same number on both sides.
	Port int

	NanoCPUs    int64
	MemoryBytes int64
	// MemoryBytes is also applied as the swap limit, which disables swap.
	CPUSet string
}

// Sample is one point-in-time resource reading of a running container.
type Sample struct {
	CPUTotalMs    float64
	MemUsageMB    float64
	MemMaxUsageMB float64
}

// StatsStream yields resource samples at the engine's own delivery interval
// until closed.
type StatsStream interface {
	Next() (Sample, error)
	Close() error
}

// ContainerRuntime abstracts container lifecycle operations needed by the
// harness: run under constraints, read back logs and stats, force-kill.
type ContainerRuntime interface {
	Run(ctx context.Context, spec RunSpec) (string, error)
	Kill(ctx context.Context, containerID string) error
	Logs(ctx context.Context, containerID string) (string, error)
	Stats(ctx context.Context, containerID string) (StatsStream, error)
	Close() error
}
