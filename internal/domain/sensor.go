package domain

import "time"

// SensorType identifies one of the wearable's on-board sensors.
type SensorType int

// Sensor types monitored by the device.
const (
	SensorHeartRate SensorType = iota
	SensorTemperature
	SensorMotion
	SensorBloodOxygen

	// SensorSystem is used for alerts that are not tied to a physical
	// sensor (e.g. emergency shutdown).
	SensorSystem
)

// NumSensorTypes is the number of physical sensor types.
const NumSensorTypes = 4

// String returns a human-readable name for the sensor type.
func (s SensorType) String() string {
	switch s {
	case SensorHeartRate:
		return "heart_rate"
	case SensorTemperature:
		return "temperature"
	case SensorMotion:
		return "motion"
	case SensorBloodOxygen:
		return "blood_oxygen"
	case SensorSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Unit returns the measurement unit for the sensor type.
func (s SensorType) Unit() string {
	switch s {
	case SensorHeartRate:
		return "bpm"
	case SensorTemperature:
		return "degC"
	case SensorMotion:
		return "g"
	case SensorBloodOxygen:
		return "%"
	default:
		return ""
	}
}

// SensorSample is a single reading from one sensor.
type SensorSample struct {
	// Type identifies the originating sensor.
	Type SensorType

	// Value is the measured value in the sensor's unit.
	Value float64

	// Quality is the signal quality of the reading in percent (0-100).
	Quality uint8

	// Timestamp is when the reading was taken.
	Timestamp time.Time
}
