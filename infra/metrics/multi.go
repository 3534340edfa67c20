package metrics

import coremetrics "github.com/pitwall/trackrelay/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.ActuationSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.ActuationSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPulse forwards the record to all sinks, returning the first error.
func (m *MultiSink) RecordPulse(rec coremetrics.PulseRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordPulse(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordRaceEvent forwards the record to all sinks, returning the first error.
func (m *MultiSink) RecordRaceEvent(rec coremetrics.RaceEventRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRaceEvent(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordWindowActive forwards the window state to sinks that track it.
func (m *MultiSink) RecordWindowActive(active bool) error {
	for _, s := range m.Sinks {
		if wr, ok := s.(coremetrics.WindowRecorder); ok {
			if err := wr.RecordWindowActive(active); err != nil {
				return err
			}
		}
	}
	return nil
}
