package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/nisc-labs/wearguard/internal/adapters/fs"
	"github.com/nisc-labs/wearguard/internal/adapters/mqtt"
	"github.com/nisc-labs/wearguard/internal/app"
	"github.com/nisc-labs/wearguard/internal/cliconfig"
	wlog "github.com/nisc-labs/wearguard/pkg/log"
)

const helpDescription = `
Supervision daemon for wearable monitors: threshold alerting over MQTT
and staged firmware updates with integrity validation.

Highlights:
  - Bounded queues between acquisition and alerting; sampling never blocks.
  - Firmware transfers staged and CRC-checked before anything is persisted.
  - Per-worker watchdogs report stalls without killing the pipeline.
  - Configure via file, environment (WEARGUARD_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  wearguard --device-name ward-7 --broker-url tcp://broker.local:1883
  wearguard --config $HOME/.wearguard/config.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "wearguard",
		Short:   "Supervision daemon for wearable monitors",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides file config but is overridden by flags
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log.Info().Interface("config", cfg).Msg("configuration")

			logger := wlog.NewZerologAdapterWithLogger(log)

			a, err := app.New(cfg,
				app.WithLogger(logger),
				app.WithImageRepository(fs.NewImageFileRepository(cfg.StagingDir)),
			)
			if err != nil {
				return fmt.Errorf("create app: %w", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			var transport *mqtt.Transport
			if cfg.BrokerURL != "" {
				transport, err = mqtt.NewTransport(mqtt.Config{
					BrokerURL:    cfg.BrokerURL,
					ClientID:     cfg.DeviceName,
					CommandTopic: cfg.CommandTopic,
					StatusTopic:  cfg.StatusTopic,
					AlertTopic:   cfg.AlertTopic,
				}, a.Controller(), logger)
				if err != nil {
					return fmt.Errorf("create transport: %w", err)
				}
				a.BindTransport(transport, transport)
				if err := transport.Connect(ctx); err != nil {
					return fmt.Errorf("connect broker: %w", err)
				}
				defer transport.Close()
			} else {
				log.Warn().Msg("no broker configured, alerts will only be logged")
			}

			if err := a.Start(ctx); err != nil {
				return fmt.Errorf("start app: %w", err)
			}

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				watcher := app.NewConfigWatcher(cfgFile, a, logger)
				go watcher.Run(ctx)
			}

			doneCh := make(chan struct{})
			go func() {
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := a.State()
						if status == app.StateStopped || status == app.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
			case <-doneCh:
				if a.State() == app.StateCrashed {
					log.Error().Msg("wearguard crashed")
				}
			}

			if err := a.Stop(); err != nil {
				return fmt.Errorf("stop app: %w", err)
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.wearguard/config.toml)")
	root.Flags().StringVar(&cfg.DeviceName, "device-name", cfg.DeviceName, "device identity used in topics and staging paths")
	root.Flags().StringVar(&cfg.StagingDir, "staging-dir", cfg.StagingDir, "directory for validated firmware images")

	root.Flags().StringVar(&cfg.BrokerURL, "broker-url", cfg.BrokerURL, "MQTT broker URL (empty disables transport)")
	root.Flags().StringVar(&cfg.CommandTopic, "command-topic", cfg.CommandTopic, "topic carrying inbound update packets")
	root.Flags().StringVar(&cfg.StatusTopic, "status-topic", cfg.StatusTopic, "topic for update status replies")
	root.Flags().StringVar(&cfg.AlertTopic, "alert-topic", cfg.AlertTopic, "topic for raised alerts")

	root.Flags().IntVar(&cfg.SensorQueueCap, "sensor-queue-cap", cfg.SensorQueueCap, "sensor sample queue capacity")
	root.Flags().IntVar(&cfg.AlertQueueCap, "alert-queue-cap", cfg.AlertQueueCap, "alert outbox capacity")
	root.Flags().IntVar(&cfg.StagingBytes, "staging-bytes", cfg.StagingBytes, "staging buffer capacity in bytes")
	if err := root.Flags().MarkHidden("staging-bytes"); err != nil {
		log.Info().Err(err).Msg("failed to hide staging-bytes flag")
	}

	root.Flags().DurationVar(&cfg.WatchdogInterval, "watchdog-interval", cfg.WatchdogInterval, "interval between watchdog scans")
	root.Flags().DurationVar(&cfg.WorkerTimeout, "worker-timeout", cfg.WorkerTimeout, "per-worker heartbeat deadline")

	root.Flags().Float64Var(&cfg.HeartRateMax, "heart-rate-max", cfg.HeartRateMax, "heart rate alert threshold in bpm (0 disables)")
	root.Flags().Float64Var(&cfg.TemperatureMax, "temperature-max", cfg.TemperatureMax, "temperature alert threshold in celsius (0 disables)")
	root.Flags().Float64Var(&cfg.MotionMax, "motion-max", cfg.MotionMax, "motion alert threshold in g (0 disables)")

	root.Flags().IntVar(&cfg.MinBattery, "min-battery", cfg.MinBattery, "minimum battery percent for the safety check")
	root.Flags().IntVar(&cfg.MinSignal, "min-signal", cfg.MinSignal, "minimum signal quality percent for the safety check")
	root.Flags().Float64Var(&cfg.QueueHighWater, "queue-high-water", cfg.QueueHighWater, "sensor queue load fraction that fails the safety check")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("wearguard")
		os.Exit(1)
	}
}
