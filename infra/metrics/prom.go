package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/pitwall/trackrelay/core/metrics"
)

// PromSink records actuation events in Prometheus metrics.
type PromSink struct {
	events   *prometheus.CounterVec
	pulses   *prometheus.CounterVec
	failures *prometheus.CounterVec
	window   prometheus.Gauge
}

// NewPromSink registers the relay metrics on the default Prometheus
// registerer. The HTTP server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_total",
		Help: "Total number of race-timing events received, by classification",
	}, []string{"kind"})
	pulses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_pulses_total",
		Help: "Total number of relay pulses fired",
	}, []string{"output", "source", "failed"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_pulse_failures_total",
		Help: "Total number of pulses where the driver reported an error",
	}, []string{"output"})
	window := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vsc_window_active",
		Help: "Whether a VSC countdown window is currently open",
	})

	if err := reg.Register(events); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			events = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(pulses); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			pulses = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(failures); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			failures = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(window); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			window = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{events: events, pulses: pulses, failures: failures, window: window}, nil
}

// RecordPulse increments the pulse counters.
func (s *PromSink) RecordPulse(rec coremetrics.PulseRecord) error {
	s.pulses.WithLabelValues(rec.Output, rec.Source, strconv.FormatBool(rec.Failed)).Inc()
	if rec.Failed {
		s.failures.WithLabelValues(rec.Output).Inc()
	}
	return nil
}

// RecordRaceEvent increments the event counter for the classification.
func (s *PromSink) RecordRaceEvent(rec coremetrics.RaceEventRecord) error {
	s.events.WithLabelValues(rec.Kind).Inc()
	return nil
}

// RecordWindowActive sets the window gauge.
func (s *PromSink) RecordWindowActive(active bool) error {
	if active {
		s.window.Set(1)
	} else {
		s.window.Set(0)
	}
	return nil
}
