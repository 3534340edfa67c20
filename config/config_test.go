package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `server:
  ingest_addr: ":9191"
relay:
  chip: "gpiochip1"
  outputs:
    start: 5
    end: 6
monitor:
  poll_interval_ms: 50
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  topic: "race/events"
metrics:
  prometheus_enabled: true
  prometheus_port: ":2112"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"ingest_addr", cfg.Server.IngestAddr, ":9191"},
		{"control_addr default", cfg.Server.ControlAddr, ":9090"},
		{"chip", cfg.Relay.Chip, "gpiochip1"},
		{"start line", cfg.Relay.Outputs["start"], 5},
		{"poll interval", cfg.Monitor.PollIntervalMS, 50},
		{"pulse path default", cfg.Pulse.Path, "trackrelay_pulse.json"},
		{"mqtt enabled", cfg.MQTT.Enabled, true},
		{"mqtt topic", cfg.MQTT.Topic, "race/events"},
		{"prometheus", cfg.Metrics.PrometheusEnabled, true},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Relay.Outputs["start"] != 18 || cfg.Relay.Outputs["end"] != 23 {
		t.Fatalf("default pins wrong: %#v", cfg.Relay.Outputs)
	}
	if cfg.Monitor.PollIntervalMS != 100 {
		t.Fatalf("default poll interval: %d", cfg.Monitor.PollIntervalMS)
	}
	if cfg.Metrics.PrometheusPort != ":2112" {
		t.Fatalf("default prom port: %q", cfg.Metrics.PrometheusPort)
	}
}

func TestLoadMissingOutputMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `relay:
  outputs:
    start: 18
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for missing end output")
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
