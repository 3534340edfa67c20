package signal

import (
	"fmt"
	"testing"
	"time"

	"github.com/pitwall/trackrelay/core/model"
)

func newTestState() *State {
	return NewState([]string{"start", "end"}, DefaultPulseConfig())
}

func TestClearCountdownIfActiveIdempotent(t *testing.T) {
	s := newTestState()
	s.OpenCountdown(time.Minute)
	if !s.ClearCountdownIfActive() {
		t.Fatalf("first clear should report active")
	}
	if s.ClearCountdownIfActive() {
		t.Fatalf("second clear should be a no-op")
	}
}

func TestOpenCountdownReArms(t *testing.T) {
	s := newTestState()
	first := s.OpenCountdown(10 * time.Second)
	second := s.OpenCountdown(60 * time.Second)
	if !second.After(first) {
		t.Fatalf("re-arm did not supersede deadline: %v vs %v", first, second)
	}
	snap := s.Snapshot()
	if !snap.WindowActive || !snap.Deadline.Equal(second) {
		t.Fatalf("snapshot window mismatch: %#v", snap)
	}
}

func TestClearIfExpired(t *testing.T) {
	s := newTestState()
	deadline := s.OpenCountdown(time.Hour)
	if s.ClearIfExpired(deadline.Add(-time.Second)) {
		t.Fatalf("cleared before deadline")
	}
	if !s.ClearIfExpired(deadline) {
		t.Fatalf("not cleared at deadline")
	}
	if s.ClearIfExpired(deadline.Add(time.Second)) {
		t.Fatalf("cleared twice")
	}
}

func TestUpdateConfigBounds(t *testing.T) {
	s := newTestState()
	tooLong := 10 * time.Second
	if _, accepted := s.UpdateConfig(ConfigUpdate{Duration: &tooLong}); accepted {
		t.Fatalf("out-of-bounds duration accepted")
	}
	if got := s.Config().Duration; got != DefaultPulseDuration {
		t.Fatalf("prior duration not retained: %v", got)
	}

	ok := 2 * time.Second
	bad := -time.Second
	cfg, accepted := s.UpdateConfig(ConfigUpdate{Duration: &ok, StartDelay: &bad})
	if !accepted {
		t.Fatalf("in-range field of mixed update rejected")
	}
	if cfg.Duration != ok || cfg.StartDelay != DefaultStartDelay {
		t.Fatalf("mixed update applied wrong fields: %+v", cfg)
	}
}

func TestAcquirePulseGuard(t *testing.T) {
	s := newTestState()
	if err := s.AcquirePulse("start"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := s.AcquirePulse("start"); err != ErrPulseInFlight {
		t.Fatalf("expected ErrPulseInFlight, got %v", err)
	}
	// different outputs may pulse concurrently
	if err := s.AcquirePulse("end"); err != nil {
		t.Fatalf("independent output blocked: %v", err)
	}
	s.SetEnergized("start", true)
	s.ReleasePulse("start")
	snap := s.Snapshot()
	for _, out := range snap.Outputs {
		if out.Name == "start" && (out.Energized || out.InFlight) {
			t.Fatalf("release left flags set: %+v", out)
		}
	}
	if err := s.AcquirePulse("start"); err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	if err := s.AcquirePulse("bogus"); err != ErrUnknownOutput {
		t.Fatalf("expected ErrUnknownOutput, got %v", err)
	}
}

func TestEventRingEviction(t *testing.T) {
	s := newTestState()
	for i := 0; i < 105; i++ {
		s.AppendEvent(model.EventRecord{ID: fmt.Sprintf("ev-%d", i), Type: "vsc_deployed"})
	}
	snap := s.Snapshot()
	if snap.EventsReceived != 105 {
		t.Fatalf("received count %d", snap.EventsReceived)
	}
	if len(snap.Recent) != 100 {
		t.Fatalf("ring size %d", len(snap.Recent))
	}
	if snap.Recent[0].ID != "ev-104" || snap.LastEvent.ID != "ev-104" {
		t.Fatalf("newest first ordering broken: %s", snap.Recent[0].ID)
	}
	if snap.Recent[99].ID != "ev-5" {
		t.Fatalf("oldest not evicted: %s", snap.Recent[99].ID)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestState()
	s.AppendEvent(model.EventRecord{ID: "a"})
	snap := s.Snapshot()
	snap.Recent[0].ID = "mutated"
	snap.Outputs[0].Energized = true
	fresh := s.Snapshot()
	if fresh.Recent[0].ID != "a" || fresh.Outputs[0].Energized {
		t.Fatalf("snapshot aliases internal state")
	}
}
