// Package probe waits for the service under test to start accepting traffic.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/strohel/locations-imgtest/internal/check"
	"github.com/strohel/locations-imgtest/internal/logger"
)

// WaitReady blocks until the session's base URL completes an HTTP round trip,
// or timeout elapses. Any response counts as ready, whatever its status:
// readiness means the service accepts connections, not that it returns
// success. Connection errors are treated as "not yet listening" and retried
// every interval. Returns the elapsed time to readiness.
func WaitReady(ctx context.Context, s *check.Session, timeout, interval time.Duration) (time.Duration, error) {
	start := time.Now()
	deadline := start.Add(timeout)

	var lastErr error
	attempts := 0
	for time.Now().Before(deadline) {
		resp, err := s.Get("/")
		if err == nil {
			resp.Body.Close()
			elapsed := time.Since(start)
			logger.WithComponent("probe").Debugf("ready after %d attempts in %v", attempts+1, elapsed)
			return elapsed, nil
		}
		lastErr = err
		attempts++

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(interval):
		}
	}

	return 0, fmt.Errorf("failed to connect to %s in %v: %v. Does it listen on 0.0.0.0?",
		s.BaseURL, timeout, lastErr)
}
