// Package confstore persists the runtime pulse configuration across restarts.
// The on-disk format keeps the original controller's field names so existing
// config files keep working.
package confstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pitwall/trackrelay/core/logger"
	"github.com/pitwall/trackrelay/core/signal"
)

// record uses pointer fields so keys absent from the file are told apart from
// explicit zeroes and fall through to the defaults.
type record struct {
	PulseDuration *float64 `json:"pulse_duration"`
	Relay1Delay   *float64 `json:"relay1_delay"`
}

// Store loads and saves the pulse configuration at a fixed path.
type Store struct {
	path string
	log  logger.Logger
}

// New creates a Store for the given path.
func New(path string, log logger.Logger) *Store {
	return &Store{path: path, log: log}
}

// Load reads the persisted configuration. Any failure, or an out-of-bounds
// stored value, falls back to the documented defaults with a warning.
func (s *Store) Load() signal.PulseConfig {
	cfg := signal.DefaultPulseConfig()
	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), koanfjson.Parser()); err != nil {
		s.log.Warnf("config load error: %v, using defaults", err)
		return cfg
	}
	var rec record
	if err := k.UnmarshalWithConf("", &rec, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		s.log.Warnf("config decode error: %v, using defaults", err)
		return cfg
	}
	if rec.PulseDuration != nil {
		if d := secondsToDuration(*rec.PulseDuration); d >= signal.MinPulseDuration && d <= signal.MaxPulseDuration {
			cfg.Duration = d
		}
	}
	if rec.Relay1Delay != nil {
		if d := secondsToDuration(*rec.Relay1Delay); d >= signal.MinStartDelay && d <= signal.MaxStartDelay {
			cfg.StartDelay = d
		}
	}
	s.log.Infof("loaded config: pulse duration = %s, start delay = %s", cfg.Duration, cfg.StartDelay)
	return cfg
}

// Save writes the configuration atomically via a temp-file rename.
func (s *Store) Save(cfg signal.PulseConfig) error {
	duration := cfg.Duration.Seconds()
	delay := cfg.StartDelay.Seconds()
	rec := record{
		PulseDuration: &duration,
		Relay1Delay:   &delay,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
