// Package metrics defines the observability sink contract for actuation.
package metrics

import "time"

// Config selects which sinks are active.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":2112"
	}
}

// PulseRecord describes one completed pulse attempt.
type PulseRecord struct {
	Output   string
	Source   string
	Duration time.Duration
	Failed   bool
	Time     time.Time
}

// RaceEventRecord describes one ingested race-timing event.
type RaceEventRecord struct {
	Kind string
	Type string
	Time time.Time
}

// ActuationSink records pulses and race events for observability.
type ActuationSink interface {
	RecordPulse(rec PulseRecord) error
	RecordRaceEvent(rec RaceEventRecord) error
}

// WindowRecorder is implemented by sinks tracking the countdown window state.
type WindowRecorder interface {
	RecordWindowActive(active bool) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordPulse(PulseRecord) error         { return nil }
func (NopSink) RecordRaceEvent(RaceEventRecord) error { return nil }
