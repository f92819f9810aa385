package domain

import "time"

// DeviceState is the operational state of the wearable.
type DeviceState int

// Device operational states.
const (
	DeviceOff DeviceState = iota
	DeviceInitializing
	DeviceCalibrating
	DeviceMonitoring
	DeviceMaintenance
	DeviceError
)

// String returns a human-readable representation of the state.
func (s DeviceState) String() string {
	switch s {
	case DeviceOff:
		return "Off"
	case DeviceInitializing:
		return "Initializing"
	case DeviceCalibrating:
		return "Calibrating"
	case DeviceMonitoring:
		return "Monitoring"
	case DeviceMaintenance:
		return "Maintenance"
	case DeviceError:
		return "Error"
	default:
		return "Unknown"
	}
}

// DeviceStats is a snapshot of device counters and health values.
type DeviceStats struct {
	State            DeviceState
	Uptime           time.Duration
	SamplesProcessed uint64
	AlertsRaised     uint64
	AlertsDropped    uint64
	ErrorCount       uint64

	// BatteryLevel is the remaining battery charge in percent.
	BatteryLevel uint8

	// SignalQuality is the aggregate sensor signal quality in percent.
	SignalQuality uint8
}
