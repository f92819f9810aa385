// Package device implements the wearable's monitoring core: the device
// state machine, threshold-based alert evaluation, and safety checks.
//
// Sensor samples arrive on a bounded queue fed by acquisition
// callbacks; raised alerts leave on a second bounded queue. The
// sampling path never blocks: a full outbox drops the alert and
// increments a counter instead of stalling acquisition.
package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/nisc-labs/wearguard/internal/domain"
	"github.com/nisc-labs/wearguard/internal/queue"
	"github.com/nisc-labs/wearguard/pkg/log"
)

// Nominal payload sizes recorded on queue items.
const (
	sampleSize = 24
	alertSize  = 48
)

// Config holds the monitoring parameters.
type Config struct {
	// Thresholds maps each sensor type to its alert threshold in the
	// sensor's unit. A zero threshold disables alerts for that type.
	Thresholds map[domain.SensorType]float64

	// MinBattery is the minimum battery level in percent below which
	// the safety check fails.
	MinBattery uint8

	// MinSignal is the minimum aggregate signal quality in percent.
	MinSignal uint8

	// QueueHighWater is the sensor queue occupancy fraction above
	// which the safety check fails (0 disables the check).
	QueueHighWater float64
}

// DefaultConfig returns monitoring parameters matching the device's
// factory configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds: map[domain.SensorType]float64{
			domain.SensorHeartRate:   120,
			domain.SensorTemperature: 38.5,
			domain.SensorMotion:      2.5,
		},
		MinBattery:     10,
		MinSignal:      30,
		QueueHighWater: 0.8,
	}
}

// SafetyError enumerates which safety checks failed.
type SafetyError struct {
	LowBattery bool
	PoorSignal bool
	QueueLoad  bool
}

// Error implements error.
func (e *SafetyError) Error() string {
	return fmt.Sprintf("safety check failed (battery=%t signal=%t queue=%t)",
		e.LowBattery, e.PoorSignal, e.QueueLoad)
}

// Device is the monitoring core. It owns the device state machine and
// the alert id counter; the sensor and alert queues are injected so
// acquisition and delivery tasks can share them.
type Device struct {
	mu     sync.Mutex
	state  domain.DeviceState
	cfg    Config
	nextID uint32

	battery uint8
	signal  uint8

	samplesProcessed uint64
	alertsRaised     uint64
	alertsDropped    uint64
	errorCount       uint64
	startedAt        time.Time

	sensorQ *queue.Queue
	alertQ  *queue.Queue
	logger  log.Logger
}

// New creates a device in the Initializing state.
func New(cfg Config, sensorQ, alertQ *queue.Queue, logger log.Logger) (*Device, error) {
	if sensorQ == nil || alertQ == nil {
		return nil, domain.ErrInvalidArgument
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if cfg.Thresholds == nil {
		cfg.Thresholds = map[domain.SensorType]float64{}
	}
	return &Device{
		state:     domain.DeviceInitializing,
		cfg:       cfg,
		nextID:    1,
		battery:   100,
		signal:    80,
		startedAt: time.Now(),
		sensorQ:   sensorQ,
		alertQ:    alertQ,
		logger:    logger,
	}, nil
}

// State returns the current device state.
func (d *Device) State() domain.DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// StartMonitoring calibrates, runs the safety check, and enters the
// Monitoring state. A failed safety check moves the device to Error.
func (d *Device) StartMonitoring() error {
	d.mu.Lock()
	switch d.state {
	case domain.DeviceError:
		d.mu.Unlock()
		return domain.ErrNotReady
	case domain.DeviceOff:
		d.mu.Unlock()
		return domain.ErrNotReady
	case domain.DeviceMonitoring:
		d.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	d.state = domain.DeviceCalibrating
	d.mu.Unlock()

	d.logger.Info("calibrating sensors")

	if err := d.SafetyCheck(); err != nil {
		d.mu.Lock()
		d.state = domain.DeviceError
		d.errorCount++
		d.mu.Unlock()
		d.logger.Error("safety check failed, monitoring not started", log.Err(err))
		return err
	}

	d.mu.Lock()
	d.state = domain.DeviceMonitoring
	d.startedAt = time.Now()
	d.mu.Unlock()

	d.logger.Info("monitoring started")
	return nil
}

// StopMonitoring turns monitoring off and discards queued samples and
// alerts.
func (d *Device) StopMonitoring() {
	d.mu.Lock()
	d.state = domain.DeviceOff
	d.mu.Unlock()

	d.sensorQ.Clear()
	d.alertQ.Clear()
	d.logger.Info("monitoring stopped")
}

// EnterMaintenance pauses monitoring for servicing.
func (d *Device) EnterMaintenance() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != domain.DeviceMonitoring {
		return domain.ErrNotReady
	}
	d.state = domain.DeviceMaintenance
	return nil
}

// ExitMaintenance resumes monitoring.
func (d *Device) ExitMaintenance() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != domain.DeviceMaintenance {
		return domain.ErrNotReady
	}
	d.state = domain.DeviceMonitoring
	return nil
}

// AddSample enqueues a sensor reading for evaluation. Only the
// non-blocking enqueue path is used, so this is safe from acquisition
// callback contexts. A full queue drops the sample.
func (d *Device) AddSample(s domain.SensorSample) error {
	if d.State() != domain.DeviceMonitoring {
		return domain.ErrNotReady
	}
	if err := d.sensorQ.TryEnqueue(s, sampleSize); err != nil {
		return err
	}
	return nil
}

// SetVitals updates battery level and aggregate signal quality, both
// in percent. These feed the safety check.
func (d *Device) SetVitals(battery, signal uint8) {
	d.mu.Lock()
	d.battery = battery
	d.signal = signal
	d.mu.Unlock()
}

// UpdateThresholds replaces the per-sensor alert thresholds. Used by
// the config reload path.
func (d *Device) UpdateThresholds(thresholds map[domain.SensorType]float64) {
	d.mu.Lock()
	d.cfg.Thresholds = make(map[domain.SensorType]float64, len(thresholds))
	for k, v := range thresholds {
		d.cfg.Thresholds[k] = v
	}
	d.mu.Unlock()
	d.logger.Info("alert thresholds updated", log.Int("count", len(thresholds)))
}

// SafetyCheck aggregates battery level, signal quality, and sensor
// queue occupancy against the configured minimums. Returns nil when
// all checks pass, or a SafetyError naming the failed checks.
func (d *Device) SafetyCheck() error {
	d.mu.Lock()
	battery, signal := d.battery, d.signal
	minBattery, minSignal := d.cfg.MinBattery, d.cfg.MinSignal
	highWater := d.cfg.QueueHighWater
	d.mu.Unlock()

	var se SafetyError
	if battery < minBattery {
		se.LowBattery = true
	}
	if signal < minSignal {
		se.PoorSignal = true
	}
	if highWater > 0 {
		occupancy := float64(d.sensorQ.Len()) / float64(d.sensorQ.Cap())
		if occupancy > highWater {
			se.QueueLoad = true
		}
	}

	if se.LowBattery || se.PoorSignal || se.QueueLoad {
		return &se
	}
	return nil
}

// EmergencyShutdown forces the device into the Error state, discards
// all queued data, and emits a single emergency alert.
func (d *Device) EmergencyShutdown() {
	d.logger.Error("emergency shutdown initiated")

	d.mu.Lock()
	d.state = domain.DeviceError
	d.errorCount++
	id := d.nextID
	d.nextID++
	d.mu.Unlock()

	d.sensorQ.Clear()
	d.alertQ.Clear()

	alert := domain.Alert{
		ID:        id,
		Level:     domain.AlertEmergency,
		Sensor:    domain.SensorSystem,
		Message:   "emergency shutdown",
		Timestamp: time.Now(),
	}
	if err := d.alertQ.TryEnqueue(alert, alertSize); err == nil {
		d.mu.Lock()
		d.alertsRaised++
		d.mu.Unlock()
	}
}

// Stats returns a snapshot of device counters and health values.
func (d *Device) Stats() domain.DeviceStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return domain.DeviceStats{
		State:            d.state,
		Uptime:           time.Since(d.startedAt),
		SamplesProcessed: d.samplesProcessed,
		AlertsRaised:     d.alertsRaised,
		AlertsDropped:    d.alertsDropped,
		ErrorCount:       d.errorCount,
		BatteryLevel:     d.battery,
		SignalQuality:    d.signal,
	}
}
