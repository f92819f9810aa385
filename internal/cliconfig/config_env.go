package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (WEARGUARD_*). It respects flags that have been explicitly set
// (changed map). Returns an error if any environment variable has an
// invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device-name", os.Getenv("WEARGUARD_DEVICE_NAME"), &cfg.DeviceName)
	s.setString("staging-dir", os.Getenv("WEARGUARD_STAGING_DIR"), &cfg.StagingDir)
	s.setString("broker-url", os.Getenv("WEARGUARD_BROKER_URL"), &cfg.BrokerURL)
	s.setString("command-topic", os.Getenv("WEARGUARD_COMMAND_TOPIC"), &cfg.CommandTopic)
	s.setString("status-topic", os.Getenv("WEARGUARD_STATUS_TOPIC"), &cfg.StatusTopic)
	s.setString("alert-topic", os.Getenv("WEARGUARD_ALERT_TOPIC"), &cfg.AlertTopic)

	if err := s.setIntString("sensor-queue-cap", os.Getenv("WEARGUARD_SENSOR_QUEUE_CAP"), &cfg.SensorQueueCap); err != nil {
		return err
	}
	if err := s.setIntString("alert-queue-cap", os.Getenv("WEARGUARD_ALERT_QUEUE_CAP"), &cfg.AlertQueueCap); err != nil {
		return err
	}
	if err := s.setIntString("staging-bytes", os.Getenv("WEARGUARD_STAGING_BYTES"), &cfg.StagingBytes); err != nil {
		return err
	}

	if err := s.setDurationString("watchdog-interval", os.Getenv("WEARGUARD_WATCHDOG_INTERVAL"), &cfg.WatchdogInterval); err != nil {
		return err
	}
	if err := s.setDurationString("worker-timeout", os.Getenv("WEARGUARD_WORKER_TIMEOUT"), &cfg.WorkerTimeout); err != nil {
		return err
	}

	if err := s.setFloatString("heart-rate-max", os.Getenv("WEARGUARD_HEART_RATE_MAX"), &cfg.HeartRateMax); err != nil {
		return err
	}
	if err := s.setFloatString("temperature-max", os.Getenv("WEARGUARD_TEMPERATURE_MAX"), &cfg.TemperatureMax); err != nil {
		return err
	}
	if err := s.setFloatString("motion-max", os.Getenv("WEARGUARD_MOTION_MAX"), &cfg.MotionMax); err != nil {
		return err
	}

	if err := s.setIntString("min-battery", os.Getenv("WEARGUARD_MIN_BATTERY"), &cfg.MinBattery); err != nil {
		return err
	}
	if err := s.setIntString("min-signal", os.Getenv("WEARGUARD_MIN_SIGNAL"), &cfg.MinSignal); err != nil {
		return err
	}
	return s.setFloatString("queue-high-water", os.Getenv("WEARGUARD_QUEUE_HIGH_WATER"), &cfg.QueueHighWater)
}
