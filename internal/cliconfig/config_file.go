package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config but uses strings for durations to make
// TOML friendly.
type fileConfig struct {
	DeviceName string `toml:"device_name"`
	StagingDir string `toml:"staging_dir"`

	BrokerURL    string `toml:"broker_url"`
	CommandTopic string `toml:"command_topic"`
	StatusTopic  string `toml:"status_topic"`
	AlertTopic   string `toml:"alert_topic"`

	SensorQueueCap int `toml:"sensor_queue_cap"`
	AlertQueueCap  int `toml:"alert_queue_cap"`
	StagingBytes   int `toml:"staging_bytes"`

	WatchdogInterval string `toml:"watchdog_interval"`
	WorkerTimeout    string `toml:"worker_timeout"`

	HeartRateMax   float64 `toml:"heart_rate_max"`
	TemperatureMax float64 `toml:"temperature_max"`
	MotionMax      float64 `toml:"motion_max"`

	MinBattery     int     `toml:"min_battery"`
	MinSignal      int     `toml:"min_signal"`
	QueueHighWater float64 `toml:"queue_high_water"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.wearguard/config.toml if the home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".wearguard", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc fileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device-name", fc.DeviceName, &cfg.DeviceName)
	s.setString("staging-dir", fc.StagingDir, &cfg.StagingDir)
	s.setString("broker-url", fc.BrokerURL, &cfg.BrokerURL)
	s.setString("command-topic", fc.CommandTopic, &cfg.CommandTopic)
	s.setString("status-topic", fc.StatusTopic, &cfg.StatusTopic)
	s.setString("alert-topic", fc.AlertTopic, &cfg.AlertTopic)

	s.setInt("sensor-queue-cap", fc.SensorQueueCap, &cfg.SensorQueueCap)
	s.setInt("alert-queue-cap", fc.AlertQueueCap, &cfg.AlertQueueCap)
	s.setInt("staging-bytes", fc.StagingBytes, &cfg.StagingBytes)

	if err := s.setDurationString("watchdog-interval", fc.WatchdogInterval, &cfg.WatchdogInterval); err != nil {
		return err
	}
	if err := s.setDurationString("worker-timeout", fc.WorkerTimeout, &cfg.WorkerTimeout); err != nil {
		return err
	}

	s.setFloat("heart-rate-max", fc.HeartRateMax, &cfg.HeartRateMax)
	s.setFloat("temperature-max", fc.TemperatureMax, &cfg.TemperatureMax)
	s.setFloat("motion-max", fc.MotionMax, &cfg.MotionMax)

	s.setInt("min-battery", fc.MinBattery, &cfg.MinBattery)
	s.setInt("min-signal", fc.MinSignal, &cfg.MinSignal)
	s.setFloat("queue-high-water", fc.QueueHighWater, &cfg.QueueHighWater)

	return nil
}
