package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSensorType_String(t *testing.T) {
	tests := []struct {
		typ  SensorType
		want string
	}{
		{SensorHeartRate, "heart_rate"},
		{SensorTemperature, "temperature"},
		{SensorMotion, "motion"},
		{SensorBloodOxygen, "blood_oxygen"},
		{SensorSystem, "system"},
		{SensorType(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("SensorType(%d).String() = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestSensorType_Unit(t *testing.T) {
	if got := SensorHeartRate.Unit(); got != "bpm" {
		t.Errorf("heart rate unit = %s, want bpm", got)
	}
	if got := SensorSystem.Unit(); got != "" {
		t.Errorf("system unit = %q, want empty", got)
	}
}

func TestAlertLevel_String(t *testing.T) {
	tests := []struct {
		level AlertLevel
		want  string
	}{
		{AlertInfo, "info"},
		{AlertWarning, "warning"},
		{AlertCritical, "critical"},
		{AlertEmergency, "emergency"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("AlertLevel(%d).String() = %s, want %s", tt.level, got, tt.want)
		}
	}
}

func TestAlert_JSONFields(t *testing.T) {
	alert := Alert{
		ID:        7,
		Level:     AlertCritical,
		Sensor:    SensorTemperature,
		Message:   "threshold exceeded",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(alert)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"id", "level", "sensor", "message", "timestamp"} {
		if _, ok := m[key]; !ok {
			t.Errorf("marshalled alert missing %q field", key)
		}
	}
}

func TestSentinelErrors_Distinct(t *testing.T) {
	sentinels := []error{
		ErrInvalidArgument, ErrFull, ErrEmpty, ErrTimedOut,
		ErrSizeExceeded, ErrIncompleteTransfer, ErrIntegrityMismatch,
		ErrWatchdogTimeout, ErrNotReady, ErrAlreadyRunning, ErrNotRunning,
		ErrShutdownTimeout, ErrInvalidConfig,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v unexpectedly matches %v", a, b)
			}
		}
	}
}
