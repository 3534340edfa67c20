package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pitwall/trackrelay/core/metrics"
	"github.com/pitwall/trackrelay/infra/mqtt"
)

// ServerConfig holds the listen addresses. Event ingest and the control
// surface run on separate listeners, as the original controller did.
type ServerConfig struct {
	IngestAddr  string `json:"ingest_addr"`
	ControlAddr string `json:"control_addr"`
}

// SetDefaults applies the SmartRace data-interface defaults.
func (c *ServerConfig) SetDefaults() {
	if c.IngestAddr == "" {
		c.IngestAddr = ":9091"
	}
	if c.ControlAddr == "" {
		c.ControlAddr = ":9090"
	}
}

// RelayConfig maps logical outputs to GPIO lines.
type RelayConfig struct {
	Chip    string         `json:"chip"`
	Outputs map[string]int `json:"outputs"`
}

// SetDefaults applies the original controller's pin assignment.
func (c *RelayConfig) SetDefaults() {
	if c.Chip == "" {
		c.Chip = "gpiochip0"
	}
	if len(c.Outputs) == 0 {
		c.Outputs = map[string]int{"start": 18, "end": 23}
	}
}

// Validate checks that the required outputs are mapped.
func (c RelayConfig) Validate() error {
	for _, name := range []string{"start", "end"} {
		if _, ok := c.Outputs[name]; !ok {
			return fmt.Errorf("relay output %q is not mapped to a line", name)
		}
	}
	return nil
}

// PulseStoreConfig locates the persisted pulse settings.
type PulseStoreConfig struct {
	Path string `json:"path"`
}

// SetDefaults applies the default store location.
func (c *PulseStoreConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "trackrelay_pulse.json"
	}
}

// MonitorConfig tunes the countdown poll loop.
type MonitorConfig struct {
	PollIntervalMS int `json:"poll_interval_ms"`
}

// SetDefaults applies the 100ms poll interval.
func (c *MonitorConfig) SetDefaults() {
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = 100
	}
}

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig     `json:"server"`
	Relay   RelayConfig      `json:"relay"`
	Pulse   PulseStoreConfig `json:"pulse"`
	Monitor MonitorConfig    `json:"monitor"`
	MQTT    mqtt.Config      `json:"mqtt"`
	Metrics metrics.Config   `json:"metrics"`
}

// Load reads the configuration file (yaml or json by extension) and applies
// TR_ environment overrides, then defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("TR_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "tr_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Relay.SetDefaults()
	cfg.Pulse.SetDefaults()
	cfg.Monitor.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Relay.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
