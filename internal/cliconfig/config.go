// Package cliconfig loads and layers daemon configuration from
// defaults, a TOML file, environment variables, and command-line
// flags, in increasing order of precedence.
package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nisc-labs/wearguard/internal/domain"
)

// Config holds CLI configuration for the wearguard daemon.
type Config struct {
	DeviceName string
	StagingDir string

	BrokerURL    string
	CommandTopic string
	StatusTopic  string
	AlertTopic   string

	SensorQueueCap int
	AlertQueueCap  int
	StagingBytes   int

	WatchdogInterval time.Duration
	WorkerTimeout    time.Duration

	HeartRateMax   float64
	TemperatureMax float64
	MotionMax      float64

	MinBattery     int
	MinSignal      int
	QueueHighWater float64
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DeviceName:       "wearguard",
		SensorQueueCap:   16,
		AlertQueueCap:    8,
		StagingBytes:     256<<10 + 92, // max image payload plus header
		WatchdogInterval: 5 * time.Second,
		WorkerTimeout:    30 * time.Second,
		HeartRateMax:     120,
		TemperatureMax:   38.5,
		MotionMax:        2.5,
		MinBattery:       10,
		MinSignal:        30,
		QueueHighWater:   0.8,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.DeviceName == "" {
		return fmt.Errorf("%w: device-name is required", domain.ErrInvalidConfig)
	}
	if c.StagingDir == "" {
		c.StagingDir = fmt.Sprintf("/var/lib/wearguard/%s", c.DeviceName)
	}
	if c.CommandTopic == "" {
		c.CommandTopic = fmt.Sprintf("wearguard/%s/dfu/rx", c.DeviceName)
	}
	if c.StatusTopic == "" {
		c.StatusTopic = fmt.Sprintf("wearguard/%s/dfu/status", c.DeviceName)
	}
	if c.AlertTopic == "" {
		c.AlertTopic = fmt.Sprintf("wearguard/%s/alerts", c.DeviceName)
	}

	if c.SensorQueueCap <= 0 {
		return fmt.Errorf("%w: sensor queue capacity must be positive", domain.ErrInvalidConfig)
	}
	if c.AlertQueueCap <= 0 {
		return fmt.Errorf("%w: alert queue capacity must be positive", domain.ErrInvalidConfig)
	}
	if c.StagingBytes <= 0 {
		return fmt.Errorf("%w: staging capacity must be positive", domain.ErrInvalidConfig)
	}
	if c.WatchdogInterval <= 0 {
		return fmt.Errorf("%w: watchdog interval must be positive", domain.ErrInvalidConfig)
	}
	if c.WorkerTimeout <= 0 {
		return fmt.Errorf("%w: worker timeout must be positive", domain.ErrInvalidConfig)
	}
	if c.QueueHighWater < 0 || c.QueueHighWater > 1 {
		return fmt.Errorf("%w: queue high-water must be within [0,1]", domain.ErrInvalidConfig)
	}
	return nil
}

// Thresholds returns the per-sensor alert thresholds as a map keyed by
// sensor type. A zero value disables alerts for that sensor.
func (c *Config) Thresholds() map[domain.SensorType]float64 {
	return map[domain.SensorType]float64{
		domain.SensorHeartRate:   c.HeartRateMax,
		domain.SensorTemperature: c.TemperatureMax,
		domain.SensorMotion:      c.MotionMax,
	}
}

// Logger returns the console zerolog logger used by the CLI.
func Logger() zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't
// been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDurationString parses and sets a duration from its string form.
func (s *configSetter) setDurationString(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %w", flag, err)
	}
	if d > 0 {
		*dst = d
	}
	return nil
}

// setIntString parses and sets an int from its string form.
func (s *configSetter) setIntString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer for %s: %w", flag, err)
	}
	if n > 0 {
		*dst = n
	}
	return nil
}

// setFloatString parses and sets a float from its string form.
func (s *configSetter) setFloatString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid float for %s: %w", flag, err)
	}
	if f > 0 {
		*dst = f
	}
	return nil
}
