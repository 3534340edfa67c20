// Package signal owns all shared mutable state of the controller: output
// flags, pulse configuration, the countdown window and the event ring. Every
// access goes through one mutex so window open/clear/expiry checks are
// linearizable; nothing here blocks while holding the lock.
package signal

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/pitwall/trackrelay/core/model"
)

// Pulse configuration bounds. Updates outside these ranges are rejected and
// the prior value retained.
const (
	MinPulseDuration = 100 * time.Millisecond
	MaxPulseDuration = 5 * time.Second
	MinStartDelay    = time.Duration(0)
	MaxStartDelay    = 30 * time.Second

	DefaultPulseDuration = 500 * time.Millisecond
	DefaultStartDelay    = 5 * time.Second
)

// ringCapacity bounds the observability event log; the oldest entry is
// evicted beyond it.
const ringCapacity = 100

var (
	// ErrUnknownOutput is returned for output names not configured at startup.
	ErrUnknownOutput = errors.New("unknown output")
	// ErrPulseInFlight is returned when a pulse is already executing on the
	// requested output.
	ErrPulseInFlight = errors.New("pulse already in flight")
)

// PulseConfig holds the actuation timing parameters.
type PulseConfig struct {
	Duration   time.Duration
	StartDelay time.Duration
}

// DefaultPulseConfig returns the documented fallback configuration.
func DefaultPulseConfig() PulseConfig {
	return PulseConfig{Duration: DefaultPulseDuration, StartDelay: DefaultStartDelay}
}

// ConfigUpdate is a partial configuration change; nil fields are untouched.
// Each field is validated independently, matching the original controller
// where an out-of-range value left only that setting unchanged.
type ConfigUpdate struct {
	Duration   *time.Duration
	StartDelay *time.Duration
}

// OutputStatus is a display copy of one output's flags.
type OutputStatus struct {
	Name      string `json:"name"`
	Energized bool   `json:"energized"`
	InFlight  bool   `json:"in_flight"`
}

// Snapshot is an immutable copy of the controller state for display. It must
// not be used for actuation decisions.
type Snapshot struct {
	Outputs        []OutputStatus
	Config         PulseConfig
	WindowActive   bool
	Deadline       time.Time
	LastEvent      *model.EventRecord
	EventsReceived int
	Recent         []model.EventRecord // newest first
	StartedAt      time.Time
}

type outputState struct {
	energized bool
	inFlight  bool
}

// State is the process-wide synchronized controller state.
type State struct {
	mu        sync.Mutex
	outputs   map[string]*outputState
	cfg       PulseConfig
	active    bool
	deadline  time.Time
	ring      []model.EventRecord
	received  int
	startedAt time.Time
}

// NewState creates a State owning the named outputs with the given pulse
// configuration. The configuration is assumed validated by the caller
// (confstore clamps load failures to defaults).
func NewState(outputs []string, cfg PulseConfig) *State {
	s := &State{
		outputs:   make(map[string]*outputState, len(outputs)),
		cfg:       cfg,
		startedAt: time.Now(),
	}
	for _, name := range outputs {
		s.outputs[name] = &outputState{}
	}
	return s
}

// HasOutput reports whether the named output was configured at startup.
func (s *State) HasOutput(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.outputs[name]
	return ok
}

// AcquirePulse marks the output in flight. It fails with ErrPulseInFlight if
// a pulse is already executing on it, so two pulses never interleave on the
// same output.
func (s *State) AcquirePulse(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.outputs[name]
	if !ok {
		return ErrUnknownOutput
	}
	if out.inFlight {
		return ErrPulseInFlight
	}
	out.inFlight = true
	return nil
}

// ReleasePulse clears the in-flight and energized flags. Called on every exit
// path of a pulse so an output is never left marked energized.
func (s *State) ReleasePulse(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if out, ok := s.outputs[name]; ok {
		out.inFlight = false
		out.energized = false
	}
}

// SetEnergized records the logical output level during a pulse.
func (s *State) SetEnergized(name string, energized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if out, ok := s.outputs[name]; ok {
		out.energized = energized
	}
}

// OpenCountdown opens (or re-arms) the countdown window with a deadline d
// from now. A new start event always supersedes a prior window.
func (s *State) OpenCountdown(d time.Duration) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.deadline = time.Now().Add(d)
	return s.deadline
}

// ClearCountdownIfActive atomically reads and clears the window, reporting
// whether one was actually open. Callers fire the end pulse only on true, so
// a monitor tick racing a withdraw event yields exactly one pulse.
func (s *State) ClearCountdownIfActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	s.active = false
	s.deadline = time.Time{}
	return true
}

// ClearIfExpired clears the window only if it is open and its deadline has
// passed at now. The check and clear share the critical section.
func (s *State) ClearIfExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || now.Before(s.deadline) {
		return false
	}
	s.active = false
	s.deadline = time.Time{}
	return true
}

// Config returns the current pulse configuration.
func (s *State) Config() PulseConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// UpdateConfig applies the in-bounds fields of the update and reports whether
// anything was accepted. Out-of-range fields are silently dropped.
func (s *State) UpdateConfig(upd ConfigUpdate) (PulseConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accepted := false
	if upd.Duration != nil && *upd.Duration >= MinPulseDuration && *upd.Duration <= MaxPulseDuration {
		s.cfg.Duration = *upd.Duration
		accepted = true
	}
	if upd.StartDelay != nil && *upd.StartDelay >= MinStartDelay && *upd.StartDelay <= MaxStartDelay {
		s.cfg.StartDelay = *upd.StartDelay
		accepted = true
	}
	return s.cfg, accepted
}

// AppendEvent adds a record to the bounded event ring.
func (s *State) AppendEvent(rec model.EventRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring = append(s.ring, rec)
	if len(s.ring) > ringCapacity {
		s.ring = s.ring[1:]
	}
	s.received++
}

// Snapshot returns a copy of the current state for display.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Config:         s.cfg,
		WindowActive:   s.active,
		Deadline:       s.deadline,
		EventsReceived: s.received,
		StartedAt:      s.startedAt,
	}
	for name, out := range s.outputs {
		snap.Outputs = append(snap.Outputs, OutputStatus{Name: name, Energized: out.energized, InFlight: out.inFlight})
	}
	sort.Slice(snap.Outputs, func(i, j int) bool { return snap.Outputs[i].Name < snap.Outputs[j].Name })
	if n := len(s.ring); n > 0 {
		last := s.ring[n-1]
		snap.LastEvent = &last
		for i := n - 1; i >= 0; i-- {
			snap.Recent = append(snap.Recent, s.ring[i])
		}
	}
	return snap
}
