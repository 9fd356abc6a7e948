// Package report forwards fatal harness errors to Honeybadger.
package report

import (
	"os"

	honeybadger "github.com/honeybadger-io/honeybadger-go"

	"github.com/strohel/locations-imgtest/internal/logger"
)

// NotifyFatal reports a fatal harness error. Without HONEYBADGER_API_KEY in
// the environment it is a no-op, so local and CI runs without error
// reporting configured behave identically.
func NotifyFatal(err error) {
	apiKey := os.Getenv("HONEYBADGER_API_KEY")
	if apiKey == "" {
		logger.WithComponent("report").Debug("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
		return
	}

	honeybadger.Configure(honeybadger.Configuration{
		APIKey: apiKey,
		Env:    os.Getenv("GO_ENV"),
	})

	if _, nerr := honeybadger.Notify(err); nerr != nil {
		logger.WithComponent("report").Warnf("cannot notify Honeybadger: %v", nerr)
		return
	}
	honeybadger.Flush()
}
