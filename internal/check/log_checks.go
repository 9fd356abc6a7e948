package check

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/strohel/locations-imgtest/internal/runtime"
)

// CanaryPath is requested by the per-request log check; its only purpose is
// to be greppable in the container log output.
const CanaryPath = "/blablaGOGOthisIsCanaryValue"

// LogsOnStartupDesc returns the progress label of the startup-log check.
func LogsOnStartupDesc(port int) string {
	return fmt.Sprintf("Service logs a message containing %d (used port) on startup", port)
}

// LogsEachRequestDesc is the progress label of the per-request log check.
const LogsEachRequestDesc = "Service logs every request, message contains url path"

// LogsOnStartup verifies the service logged a message containing the
// listening port during startup.
func LogsOnStartup(ctx context.Context, rt runtime.ContainerRuntime, containerID string, port int) (*Failure, error) {
	out, err := rt.Logs(ctx, containerID)
	if err != nil {
		return nil, err
	}
	want := strconv.Itoa(port)
	if !strings.Contains(out, want) {
		return failf(fmt.Sprintf("startup log contains %s", want),
			"got %d lines of log:\n%s", lineCount(out), out), nil
	}
	return nil, nil
}

// LogsEachRequest issues a canary request and verifies its path shows up in
// the container logs afterwards.
func LogsEachRequest(ctx context.Context, rt runtime.ContainerRuntime, containerID string, s *Session) (*Failure, error) {
	resp, err := s.Get(CanaryPath)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	out, err := rt.Logs(ctx, containerID)
	if err != nil {
		return nil, err
	}
	if !strings.Contains(out, CanaryPath) {
		return failf("request log contains url path",
			"got %d lines of log:\n%s", lineCount(out), out), nil
	}
	return nil, nil
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}
