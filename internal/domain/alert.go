package domain

import "time"

// AlertLevel classifies the severity of an alert.
type AlertLevel int

// Alert severity levels, ordered from least to most severe.
const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
	AlertEmergency
)

// String returns a human-readable name for the alert level.
func (l AlertLevel) String() string {
	switch l {
	case AlertInfo:
		return "info"
	case AlertWarning:
		return "warning"
	case AlertCritical:
		return "critical"
	case AlertEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Alert is a raised medical alert. Alert ids increase monotonically per
// device instance so downstream consumers can detect loss or reordering.
type Alert struct {
	// ID is the unique, monotonically increasing alert identifier.
	ID uint32 `json:"id"`

	// Level is the alert severity.
	Level AlertLevel `json:"level"`

	// Sensor is the sensor that triggered the alert, or SensorSystem.
	Sensor SensorType `json:"sensor"`

	// Message is a short operator-facing description.
	Message string `json:"message"`

	// Timestamp is when the triggering condition was observed.
	Timestamp time.Time `json:"timestamp"`
}
