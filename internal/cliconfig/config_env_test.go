package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("WEARGUARD_DEVICE_NAME", "ward-7")
	t.Setenv("WEARGUARD_BROKER_URL", "tcp://broker.local:1883")
	t.Setenv("WEARGUARD_SENSOR_QUEUE_CAP", "64")
	t.Setenv("WEARGUARD_WORKER_TIMEOUT", "45s")
	t.Setenv("WEARGUARD_TEMPERATURE_MAX", "39.2")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, nil); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}

	if cfg.DeviceName != "ward-7" {
		t.Errorf("device name = %s", cfg.DeviceName)
	}
	if cfg.BrokerURL != "tcp://broker.local:1883" {
		t.Errorf("broker url = %s", cfg.BrokerURL)
	}
	if cfg.SensorQueueCap != 64 {
		t.Errorf("sensor queue cap = %d", cfg.SensorQueueCap)
	}
	if cfg.WorkerTimeout != 45*time.Second {
		t.Errorf("worker timeout = %v", cfg.WorkerTimeout)
	}
	if cfg.TemperatureMax != 39.2 {
		t.Errorf("temperature max = %v", cfg.TemperatureMax)
	}
}

func TestApplyEnvConfig_FlagWins(t *testing.T) {
	t.Setenv("WEARGUARD_DEVICE_NAME", "from-env")

	cfg := DefaultConfig()
	cfg.DeviceName = "from-flag"
	changed := map[string]bool{"device-name": true}

	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}
	if cfg.DeviceName != "from-flag" {
		t.Errorf("device name = %s, flag value must win", cfg.DeviceName)
	}
}

func TestApplyEnvConfig_BadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad int", "WEARGUARD_SENSOR_QUEUE_CAP", "many"},
		{"bad duration", "WEARGUARD_WATCHDOG_INTERVAL", "soon"},
		{"bad float", "WEARGUARD_HEART_RATE_MAX", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg := DefaultConfig()
			if err := ApplyEnvConfig(&cfg, nil); err == nil {
				t.Error("expected error for invalid environment value")
			}
		})
	}
}

func TestApplyEnvConfig_EmptyEnvKeepsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	want := cfg

	if err := ApplyEnvConfig(&cfg, nil); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}
	if cfg != want {
		t.Errorf("config changed with no environment set: %+v", cfg)
	}
}
