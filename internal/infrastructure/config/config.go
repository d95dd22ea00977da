package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Fleet Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Roster    RosterConfig    `yaml:"roster"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Poll      PollConfig      `yaml:"poll"`
	Liveness  LivenessConfig  `yaml:"liveness"`
	API       APIConfig       `yaml:"api"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains deployment-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// RosterConfig locates the static robot roster file.
type RosterConfig struct {
	// Path is the filesystem path to the roster JSON file.
	// A missing or malformed roster degrades to an empty registry.
	Path string `yaml:"path"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// StateTopic is the subscription pattern for robot telemetry.
	// The single-level wildcard position carries the robot ID.
	StateTopic string `yaml:"state_topic"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// PollConfig contains HTTP status polling settings.
type PollConfig struct {
	// Interval is the time between poll ticks, in milliseconds.
	Interval int `yaml:"interval_ms"`

	// RequestTimeout is the per-request timeout, in milliseconds.
	// Must be strictly shorter than Interval so a hung target can
	// never delay the next tick.
	RequestTimeout int `yaml:"request_timeout_ms"`
}

// LivenessConfig contains staleness detection settings.
type LivenessConfig struct {
	// SweepInterval is the time between liveness sweeps, in milliseconds.
	SweepInterval int `yaml:"sweep_interval_ms"`

	// OfflineThreshold is the maximum silence before a robot is forced
	// OFFLINE, in milliseconds.
	OfflineThreshold int `yaml:"offline_threshold_ms"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig contains SQLite database settings for task records.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// SchedulerConfig contains task planning settings.
type SchedulerConfig struct {
	// MaxSteps caps the number of steps extracted from one instruction.
	MaxSteps int `yaml:"max_steps"`

	// DefaultStepDuration is the fallback step duration in seconds when
	// an extracted step carries no usable estimate.
	DefaultStepDuration int `yaml:"default_step_duration"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FLEETCORE_SECTION_KEY
// For example: FLEETCORE_ROSTER_PATH, FLEETCORE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Fleet Core",
		},
		Roster: RosterConfig{
			Path: "./data/robots.json",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "fleetcore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			StateTopic: "robots/+/state",
		},
		Poll: PollConfig{
			Interval:       2000,
			RequestTimeout: 1500,
		},
		Liveness: LivenessConfig{
			SweepInterval:    1000,
			OfflineThreshold: 30000,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/fleetcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Scheduler: SchedulerConfig{
			MaxSteps:            8,
			DefaultStepDuration: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FLEETCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Roster
	if v := os.Getenv("FLEETCORE_ROSTER_PATH"); v != "" {
		cfg.Roster.Path = v
	}

	// MQTT
	if v := os.Getenv("FLEETCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FLEETCORE_MQTT_TOPIC"); v != "" {
		cfg.MQTT.StateTopic = v
	}
	if v := os.Getenv("FLEETCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FLEETCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Poll / liveness
	if v, ok := envInt("FLEETCORE_POLL_INTERVAL_MS"); ok {
		cfg.Poll.Interval = v
	}
	if v, ok := envInt("FLEETCORE_POLL_TIMEOUT_MS"); ok {
		cfg.Poll.RequestTimeout = v
	}
	if v, ok := envInt("FLEETCORE_OFFLINE_THRESHOLD_MS"); ok {
		cfg.Liveness.OfflineThreshold = v
	}

	// API
	if v := os.Getenv("FLEETCORE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v, ok := envInt("FLEETCORE_API_PORT"); ok {
		cfg.API.Port = v
	}

	// Database
	if v := os.Getenv("FLEETCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
}

// envInt reads an integer environment variable.
// Unset or unparsable values are ignored.
func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port <= 0 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.StateTopic == "" {
		errs = append(errs, "mqtt.state_topic is required")
	}

	if c.Poll.Interval <= 0 {
		errs = append(errs, "poll.interval_ms must be positive")
	}
	if c.Poll.RequestTimeout <= 0 {
		errs = append(errs, "poll.request_timeout_ms must be positive")
	}
	// A hung request must never outlive its tick.
	if c.Poll.RequestTimeout > 0 && c.Poll.Interval > 0 && c.Poll.RequestTimeout >= c.Poll.Interval {
		errs = append(errs, "poll.request_timeout_ms must be strictly less than poll.interval_ms")
	}

	if c.Liveness.SweepInterval <= 0 {
		errs = append(errs, "liveness.sweep_interval_ms must be positive")
	}
	if c.Liveness.OfflineThreshold <= 0 {
		errs = append(errs, "liveness.offline_threshold_ms must be positive")
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Scheduler.MaxSteps <= 0 {
		errs = append(errs, "scheduler.max_steps must be positive")
	}
	if c.Scheduler.DefaultStepDuration <= 0 {
		errs = append(errs, "scheduler.default_step_duration must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PollInterval returns the poll tick interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.Interval) * time.Millisecond
}

// PollRequestTimeout returns the per-request poll timeout as a duration.
func (c *Config) PollRequestTimeout() time.Duration {
	return time.Duration(c.Poll.RequestTimeout) * time.Millisecond
}

// SweepInterval returns the liveness sweep interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Liveness.SweepInterval) * time.Millisecond
}

// OfflineThreshold returns the offline threshold as a duration.
func (c *Config) OfflineThreshold() time.Duration {
	return time.Duration(c.Liveness.OfflineThreshold) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
