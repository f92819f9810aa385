// Package wearguard provides a supervision daemon for wearable medical
// monitors: bounded-queue sample evaluation, watchdog supervision, and
// staged firmware updates with integrity validation.
//
// Example usage:
//
//	cfg := wearguard.DefaultConfig()
//	cfg.DeviceName = "ward-7"
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := wearguard.Run(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
package wearguard

import (
	"context"

	"github.com/nisc-labs/wearguard/internal/app"
	"github.com/nisc-labs/wearguard/internal/cliconfig"
	"github.com/nisc-labs/wearguard/pkg/log"
)

// Config holds the daemon configuration.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// DefaultConfig returns a Config with sensible default values.
// At minimum, set DeviceName before calling Run; call Validate to fill
// in derived values such as topics and the staging directory.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Run starts the daemon with the given configuration and blocks until
// the context is cancelled. The configuration must have been validated.
func Run(ctx context.Context, cfg Config) error {
	a, err := app.New(cfg, app.WithLogger(log.NewZerologAdapter()))
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return a.Stop()
}
