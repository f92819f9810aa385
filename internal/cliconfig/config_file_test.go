package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfigFile(t, `
device_name = "ward-7"
broker_url = "tcp://broker.local:1883"
sensor_queue_cap = 32
watchdog_interval = "2s"
heart_rate_max = 110.0
min_battery = 15
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.DeviceName != "ward-7" {
		t.Errorf("device name = %s", fc.DeviceName)
	}
	if fc.BrokerURL != "tcp://broker.local:1883" {
		t.Errorf("broker url = %s", fc.BrokerURL)
	}
	if fc.SensorQueueCap != 32 {
		t.Errorf("sensor queue cap = %d", fc.SensorQueueCap)
	}
	if fc.WatchdogInterval != "2s" {
		t.Errorf("watchdog interval = %s", fc.WatchdogInterval)
	}
}

func TestLoadFileConfig_Missing(t *testing.T) {
	_, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFileConfig_Malformed(t *testing.T) {
	path := writeConfigFile(t, `device_name = [broken`)

	_, err := LoadFileConfig(path)
	if err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestApplyFileConfig(t *testing.T) {
	cfg := DefaultConfig()
	fc := fileConfig{
		DeviceName:       "ward-7",
		WatchdogInterval: "2s",
		HeartRateMax:     110,
	}

	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		t.Fatalf("ApplyFileConfig() error = %v", err)
	}

	if cfg.DeviceName != "ward-7" {
		t.Errorf("device name = %s", cfg.DeviceName)
	}
	if cfg.WatchdogInterval != 2*time.Second {
		t.Errorf("watchdog interval = %v", cfg.WatchdogInterval)
	}
	if cfg.HeartRateMax != 110 {
		t.Errorf("heart rate max = %v", cfg.HeartRateMax)
	}
	// Unset file fields keep their defaults
	if cfg.SensorQueueCap != 16 {
		t.Errorf("sensor queue cap = %d, want default 16", cfg.SensorQueueCap)
	}
}

func TestApplyFileConfig_BadDuration(t *testing.T) {
	cfg := DefaultConfig()
	fc := fileConfig{WatchdogInterval: "not-a-duration"}

	if err := ApplyFileConfig(&cfg, fc, nil); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestApplyFileConfig_FlagWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeviceName = "from-flag"
	fc := fileConfig{DeviceName: "from-file"}

	changed := map[string]bool{"device-name": true}
	if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
		t.Fatalf("ApplyFileConfig() error = %v", err)
	}

	if cfg.DeviceName != "from-flag" {
		t.Errorf("device name = %s, flag value must win", cfg.DeviceName)
	}
}
