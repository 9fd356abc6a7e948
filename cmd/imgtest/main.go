// Command imgtest verifies a built container image of the locations service:
// it starts the image under production-like resource constraints, waits for
// it to accept traffic, and runs the fixed behavioral and log checks while
// collecting runtime stats.
//
//	imgtest docker-image/with-optional:tag
//	imgtest --local
//
// With --local only the HTTP checks run, against whatever already listens on
// the configured base URL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/strohel/locations-imgtest/internal/config"
	"github.com/strohel/locations-imgtest/internal/harness"
	"github.com/strohel/locations-imgtest/internal/logger"
	"github.com/strohel/locations-imgtest/internal/report"
	"github.com/strohel/locations-imgtest/internal/runtime"
)

const (
	exitFatal        = 1
	exitUsage        = 2
	exitChecksFailed = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s (docker-image/with-optional:tag | --local)\n", os.Args[0])
		return exitUsage
	}
	arg := os.Args[1]

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Errorf("configuration error: %v", err)
		return exitFatal
	}

	// Ctrl+C cancels the run; container teardown still happens because the
	// harness detaches teardown from the cancelled context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var failed int
	if arg == "--local" {
		failed, err = harness.New(cfg, nil).TestLocal(ctx)
	} else {
		var rt runtime.ContainerRuntime
		rt, err = runtime.NewRuntimeFromConfig(cfg.Misc.RuntimeType)
		if err != nil {
			logger.WithComponent("main").Errorf("cannot init runtime: %v", err)
			return exitFatal
		}
		defer rt.Close()
		failed, err = harness.New(cfg, rt).TestImage(ctx, arg)
	}

	if err != nil {
		logger.WithComponent("main").Errorf("fatal: %v", err)
		report.NotifyFatal(err)
		return exitFatal
	}
	if failed > 0 {
		logger.WithComponent("main").Errorf("%d check(s) failed", failed)
		return exitChecksFailed
	}
	return 0
}
