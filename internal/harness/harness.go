// Package harness composes container lifecycle, readiness polling, checks
// and stats collection into one image test run.
package harness

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/strohel/locations-imgtest/internal/check"
	"github.com/strohel/locations-imgtest/internal/config"
	"github.com/strohel/locations-imgtest/internal/logger"
	"github.com/strohel/locations-imgtest/internal/probe"
	"github.com/strohel/locations-imgtest/internal/runtime"
	"github.com/strohel/locations-imgtest/internal/stats"
)

// Harness owns one test run. The runtime may be nil for local-only runs.
type Harness struct {
	Runner *check.Runner
	// Out receives progress lines (log-tail hint, startup duration);
	// defaults to stdout like the check protocol output.
	Out io.Writer

	cfg *config.Config
	rt  runtime.ContainerRuntime
}

func New(cfg *config.Config, rt runtime.ContainerRuntime) *Harness {
	return &Harness{
		Runner: check.NewRunner(),
		Out:    os.Stdout,
		cfg:    cfg,
		rt:     rt,
	}
}

// TestImage runs the full container-based suite against the given image:
// start under the production-like resource policy, wait for readiness, run
// log and HTTP checks, then a stats-collection phase. The container is torn
// down on every exit path. Returns the number of failed checks; a non-nil
// error means the run itself broke (which is a harness or environment
// problem, not a verdict about the image).
func (h *Harness) TestImage(ctx context.Context, image string) (failed int, err error) {
	env, err := h.passEnv()
	if err != nil {
		// Fatal precondition, detected before any container is created.
		return 0, err
	}

	id, err := h.rt.Run(ctx, runtime.RunSpec{
		Image:       image,
		Env:         env,
		Port:        h.cfg.Service.Port,
		NanoCPUs:    h.cfg.Container.NanoCPUs,
		MemoryBytes: h.cfg.Container.MemoryLimitMB << 20,
		CPUSet:      h.cfg.Container.CPUSet,
	})
	if err != nil {
		return 0, err
	}
	defer func() {
		// Teardown must happen even when the surrounding context is gone.
		if killErr := h.rt.Kill(context.WithoutCancel(ctx), id); killErr != nil {
			logger.WithComponent("harness").Errorf("teardown: %v", killErr)
			if err == nil {
				err = killErr
			}
		}
	}()

	fmt.Fprintf(h.Out, "Container started, to tail its logs: docker logs -f -t %s\n", id)

	session := check.NewSession(h.cfg.Service.BaseURL)
	elapsed, err := probe.WaitReady(ctx, session, h.cfg.Ready.Timeout, h.cfg.Ready.Interval)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(h.Out, "Service has started responding in %v.\n", elapsed)

	ok, err := h.Runner.RunOne(check.LogsOnStartupDesc(h.cfg.Service.Port), func() (*check.Failure, error) {
		return check.LogsOnStartup(ctx, h.rt, id, h.cfg.Service.Port)
	})
	if err != nil {
		return failed, err
	}
	if !ok {
		failed++
	}

	ok, err = h.Runner.RunOne(check.LogsEachRequestDesc, func() (*check.Failure, error) {
		return check.LogsEachRequest(ctx, h.rt, id, session)
	})
	if err != nil {
		return failed, err
	}
	if !ok {
		failed++
	}

	n, err := h.Runner.RunHTTP(check.DefaultChecks(), session)
	failed += n
	if err != nil {
		return failed, err
	}

	// Stats-collection phase. Stress tests would run inside this scope once
	// they exist; today the scope is empty and we only exercise the
	// collector's lifecycle.
	collector := stats.NewCollector(h.cfg.Stats.Wait)
	collector.Out = h.Out
	if err := collector.Start(ctx, h.rt, id); err != nil {
		return failed, err
	}
	if err := collector.Stop(); err != nil {
		return failed, err
	}

	return failed, nil
}

// TestLocal runs only the HTTP checks against whatever already listens on the
// configured base URL.
func (h *Harness) TestLocal(ctx context.Context) (int, error) {
	_ = ctx
	session := check.NewSession(h.cfg.Service.BaseURL)
	return h.Runner.RunHTTP(check.DefaultChecks(), session)
}

// passEnv resolves the forwarded environment variables from the process
// environment. Any missing variable is a fatal precondition failure.
func (h *Harness) passEnv() ([]string, error) {
	env := make([]string, 0, len(h.cfg.Container.PassEnv))
	for _, key := range h.cfg.Container.PassEnv {
		value, ok := os.LookupEnv(key)
		if !ok {
			return nil, fmt.Errorf("required environment variable %s is not set", key)
		}
		env = append(env, key+"="+value)
	}
	return env, nil
}
