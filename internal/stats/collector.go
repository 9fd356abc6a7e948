// Package stats collects container resource usage in the background while a
// test phase runs.
package stats

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/strohel/locations-imgtest/internal/logger"
	"github.com/strohel/locations-imgtest/internal/runtime"
)

// Collector streams resource samples from a running container on a single
// background goroutine. Start and Stop delimit a scope: Stop must run on
// every exit path of the scope. It signals the worker, waits up to Wait for
// it to finish, and returns any error the worker captured, so a background
// failure is never silently lost.
//
// The worker checks the stop signal after each sample, so stopping is
// bounded by the stream's own delivery interval rather than instantaneous.
type Collector struct {
	// Out receives one line per sample; defaults to stdout.
	Out io.Writer
	// Wait bounds how long Stop blocks for the worker to finish.
	Wait time.Duration

	stop chan struct{}
	done chan struct{}
	err  error
}

func NewCollector(wait time.Duration) *Collector {
	return &Collector{Out: os.Stdout, Wait: wait}
}

// Start opens the stats stream and launches the worker. It must be paired
// with Stop.
func (c *Collector) Start(ctx context.Context, rt runtime.ContainerRuntime, containerID string) error {
	stream, err := rt.Stats(ctx, containerID)
	if err != nil {
		return err
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(stream)
	logger.WithComponent("stats").Debugf("collector started for container %s", containerID)
	return nil
}

// Stop signals the worker and waits for it, bounded by Wait. It returns the
// worker's captured error, or an error if the worker did not finish in time.
// Calling Stop again is harmless.
func (c *Collector) Stop() error {
	if c.stop == nil {
		return nil
	}
	select {
	case <-c.stop:
		// already signaled by an earlier Stop
	default:
		close(c.stop)
	}
	select {
	case <-c.done:
		logger.WithComponent("stats").Debug("collector stopped")
		return c.err
	case <-time.After(c.Wait):
		return fmt.Errorf("stats collector did not stop within %v", c.Wait)
	}
}

func (c *Collector) loop(stream runtime.StatsStream) {
	defer close(c.done)
	defer stream.Close()

	for {
		sample, err := stream.Next()
		if err != nil {
			// An error after the stop signal is the stream winding down,
			// not a collector failure.
			select {
			case <-c.stop:
			default:
				c.err = err
			}
			return
		}

		fmt.Fprintf(c.Out, "cpu_total_ms: %v mem_usage_mb: %v mem_max_usage_mb: %v\n",
			sample.CPUTotalMs, sample.MemUsageMB, sample.MemMaxUsageMB)

		select {
		case <-c.stop:
			return
		default:
		}
	}
}
