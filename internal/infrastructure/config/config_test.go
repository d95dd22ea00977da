package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "site:\n  id: test-site\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.StateTopic != "robots/+/state" {
		t.Errorf("state topic = %q, want robots/+/state", cfg.MQTT.StateTopic)
	}
	if cfg.Poll.Interval != 2000 {
		t.Errorf("poll interval = %d, want 2000", cfg.Poll.Interval)
	}
	if cfg.Liveness.OfflineThreshold != 30000 {
		t.Errorf("offline threshold = %d, want 30000", cfg.Liveness.OfflineThreshold)
	}
	if cfg.Scheduler.MaxSteps != 8 {
		t.Errorf("max steps = %d, want 8", cfg.Scheduler.MaxSteps)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
site:
  id: warehouse-a
poll:
  interval_ms: 5000
  request_timeout_ms: 2500
liveness:
  sweep_interval_ms: 500
  offline_threshold_ms: 10000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Site.ID != "warehouse-a" {
		t.Errorf("site id = %q, want warehouse-a", cfg.Site.ID)
	}
	if cfg.Poll.Interval != 5000 || cfg.Poll.RequestTimeout != 2500 {
		t.Errorf("poll = %+v, want 5000/2500", cfg.Poll)
	}
	if cfg.Liveness.OfflineThreshold != 10000 {
		t.Errorf("offline threshold = %d, want 10000", cfg.Liveness.OfflineThreshold)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FLEETCORE_ROSTER_PATH", "/etc/fleet/robots.json")
	t.Setenv("FLEETCORE_MQTT_HOST", "broker.internal")
	t.Setenv("FLEETCORE_POLL_INTERVAL_MS", "4000")
	t.Setenv("FLEETCORE_POLL_TIMEOUT_MS", "1000")

	path := writeConfig(t, "site:\n  id: test-site\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Roster.Path != "/etc/fleet/robots.json" {
		t.Errorf("roster path = %q", cfg.Roster.Path)
	}
	if cfg.MQTT.Broker.Host != "broker.internal" {
		t.Errorf("mqtt host = %q", cfg.MQTT.Broker.Host)
	}
	if cfg.Poll.Interval != 4000 || cfg.Poll.RequestTimeout != 1000 {
		t.Errorf("poll = %+v, want 4000/1000", cfg.Poll)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() should fail for missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "site: [not a mapping")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing site id",
			mutate:  func(c *Config) { c.Site.ID = "" },
			wantErr: "site.id",
		},
		{
			name:    "timeout not below interval",
			mutate:  func(c *Config) { c.Poll.RequestTimeout = c.Poll.Interval },
			wantErr: "strictly less",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "zero offline threshold",
			mutate:  func(c *Config) { c.Liveness.OfflineThreshold = 0 },
			wantErr: "offline_threshold_ms",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "zero max steps",
			mutate:  func(c *Config) { c.Scheduler.MaxSteps = 0 },
			wantErr: "max_steps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() should have failed")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.PollInterval().Milliseconds(); got != 2000 {
		t.Errorf("PollInterval() = %dms, want 2000", got)
	}
	if got := cfg.PollRequestTimeout().Milliseconds(); got != 1500 {
		t.Errorf("PollRequestTimeout() = %dms, want 1500", got)
	}
	if got := cfg.OfflineThreshold().Seconds(); got != 30 {
		t.Errorf("OfflineThreshold() = %vs, want 30", got)
	}
	if got := cfg.SweepInterval().Milliseconds(); got != 1000 {
		t.Errorf("SweepInterval() = %dms, want 1000", got)
	}
}
