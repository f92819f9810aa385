package app

import (
	"context"
	"time"

	"github.com/nisc-labs/wearguard/internal/cliconfig"
	"github.com/nisc-labs/wearguard/internal/device"
	"github.com/nisc-labs/wearguard/internal/dfu"
	"github.com/nisc-labs/wearguard/internal/domain"
	"github.com/nisc-labs/wearguard/internal/ports"
	"github.com/nisc-labs/wearguard/internal/queue"
	"github.com/nisc-labs/wearguard/internal/supervisor"
	"github.com/nisc-labs/wearguard/pkg/log"
)

const alertPollInterval = 100 * time.Millisecond

// Option configures optional App collaborators.
type Option func(*App)

// WithLogger sets the logger for the app and its components.
func WithLogger(logger log.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithNotifier sets the DFU status notifier.
func WithNotifier(n ports.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithAlertSink sets the destination for raised alerts.
func WithAlertSink(s ports.AlertSink) Option {
	return func(a *App) { a.alerts = s }
}

// WithImageRepository sets the store for validated firmware images.
func WithImageRepository(r ports.ImageRepository) Option {
	return func(a *App) { a.images = r }
}

// App wires the device, update controller, and supervisor together and
// runs the background workers.
type App struct {
	cfg    cliconfig.Config
	logger log.Logger

	lifecycle *Lifecycle
	sup       *supervisor.Supervisor
	dev       *device.Device
	ctrl      *dfu.Controller
	stager    *dfu.BufferStager

	notifier ports.Notifier
	alerts   ports.AlertSink
	images   ports.ImageRepository
}

// New builds an App from the given configuration. Collaborators that
// reach external systems (broker, filesystem) are injected via options;
// absent ones are replaced with no-ops.
func New(cfg cliconfig.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		logger:   log.NewNoopLogger(),
		notifier: ports.NotifyFunc(func(byte) {}),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.lifecycle = NewLifecycle(a.logger, nil)
	a.sup = supervisor.New(a.logger)

	sensorQ, err := queue.New(cfg.SensorQueueCap)
	if err != nil {
		return nil, err
	}
	alertQ, err := queue.New(cfg.AlertQueueCap)
	if err != nil {
		return nil, err
	}

	devCfg := device.Config{
		Thresholds:     cfg.Thresholds(),
		MinBattery:     uint8(cfg.MinBattery),
		MinSignal:      uint8(cfg.MinSignal),
		QueueHighWater: cfg.QueueHighWater,
	}
	a.dev, err = device.New(devCfg, sensorQ, alertQ, a.logger)
	if err != nil {
		return nil, err
	}

	a.stager, err = dfu.NewBufferStager(cfg.StagingBytes)
	if err != nil {
		return nil, err
	}
	a.ctrl = dfu.NewController(a.stager, a.notifier, a.logger)
	a.ctrl.OnComplete(a.handleImage)

	return a, nil
}

// BindTransport attaches the DFU status notifier and the alert sink.
// The transport needs the controller to exist before it can be built,
// so binding happens after New and before Start.
func (a *App) BindTransport(n ports.Notifier, s ports.AlertSink) {
	if n != nil {
		a.notifier = n
		a.ctrl.SetNotifier(n)
	}
	if s != nil {
		a.alerts = s
	}
}

// Controller returns the DFU packet handler for transport wiring.
func (a *App) Controller() *dfu.Controller {
	return a.ctrl
}

// Device returns the supervised device.
func (a *App) Device() *device.Device {
	return a.dev
}

// State returns the current lifecycle state.
func (a *App) State() State {
	return a.lifecycle.State()
}

// Start transitions the app to running and spawns the background
// workers. It returns once the workers are up; Stop tears them down.
func (a *App) Start(ctx context.Context) error {
	if !a.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := a.lifecycle.TransitionTo(StateStarting, "start requested"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.lifecycle.SetCancel(cancel)

	if err := a.dev.StartMonitoring(); err != nil {
		cancel()
		_ = a.lifecycle.TransitionTo(StateCrashed, "device start failed")
		return err
	}

	evalHandle, err := a.sup.Register("evaluator", a.cfg.WorkerTimeout)
	if err != nil {
		cancel()
		return err
	}
	dispatchHandle, err := a.sup.Register("alert_dispatch", a.cfg.WorkerTimeout)
	if err != nil {
		cancel()
		return err
	}

	a.lifecycle.AddWorker()
	go func() {
		defer a.lifecycle.WorkerDone()
		if err := a.dev.Run(runCtx, func() { _ = a.sup.Heartbeat(evalHandle) }); err != nil {
			a.logger.Error("evaluator stopped", log.Err(err))
		}
	}()

	a.lifecycle.AddWorker()
	go func() {
		defer a.lifecycle.WorkerDone()
		a.dispatchAlerts(runCtx, dispatchHandle)
	}()

	a.lifecycle.AddWorker()
	go func() {
		defer a.lifecycle.WorkerDone()
		a.watchdogLoop(runCtx)
	}()

	if err := a.lifecycle.TransitionTo(StateRunning, "workers started"); err != nil {
		cancel()
		return err
	}
	a.logger.Info("app running",
		log.String("device", a.cfg.DeviceName),
		log.Duration("watchdog_interval", a.cfg.WatchdogInterval),
	)
	return nil
}

// Stop cancels the workers and waits for them to drain.
func (a *App) Stop() error {
	if !a.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}
	if err := a.lifecycle.TransitionTo(StateStopping, "stop requested"); err != nil {
		return err
	}

	a.lifecycle.Cancel()
	waitErr := a.lifecycle.WaitWithTimeout(ShutdownTimeout)

	a.dev.StopMonitoring()

	if waitErr != nil {
		_ = a.lifecycle.TransitionTo(StateCrashed, "worker drain timed out")
		return waitErr
	}
	return a.lifecycle.TransitionTo(StateStopped, "workers drained")
}

// dispatchAlerts drains raised alerts and publishes them to the sink.
func (a *App) dispatchAlerts(ctx context.Context, h supervisor.Handle) {
	for {
		_ = a.sup.Heartbeat(h)
		select {
		case <-ctx.Done():
			return
		default:
		}

		alert, ok := a.dev.NextAlert()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(alertPollInterval):
			}
			continue
		}

		if a.alerts == nil {
			a.logger.Info("alert raised",
				log.String("level", alert.Level.String()),
				log.String("sensor", alert.Sensor.String()),
				log.String("message", alert.Message),
			)
			continue
		}
		if err := a.alerts.Publish(ctx, alert); err != nil {
			a.logger.Error("alert publish failed",
				log.Uint32("id", alert.ID),
				log.Err(err),
			)
		}
	}
}

// watchdogLoop periodically scans supervised workers for missed
// heartbeats. Timeouts are reported, never fatal.
func (a *App) watchdogLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sup.CheckWatchdogs()
		}
	}
}

// handleImage runs after a transfer passes integrity validation.
func (a *App) handleImage(image []byte) {
	if len(image) >= dfu.HeaderSize {
		header, err := dfu.DecodeImageHeader(image[:dfu.HeaderSize])
		if err == nil {
			if verr := header.Validate(); verr != nil {
				a.logger.Warn("image header rejected", log.Err(verr))
			} else {
				a.logger.Info("firmware image received",
					log.String("version", header.Version()),
					log.Uint32("size", header.ImageSize),
				)
			}
		}
	}

	if a.images == nil {
		return
	}
	if err := a.images.Save(context.Background(), image); err != nil {
		a.logger.Error("image persist failed",
			log.String("path", a.images.Path()),
			log.Err(err),
		)
		return
	}
	a.logger.Info("firmware image staged",
		log.String("path", a.images.Path()),
		log.Int("bytes", len(image)),
	)
}
