package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pitwall/trackrelay/core/signal"
	"github.com/pitwall/trackrelay/infra/gpio"
	"github.com/pitwall/trackrelay/infra/logger"
)

func newTestActuator(driver Driver) (*Actuator, *signal.State) {
	st := signal.NewState([]string{OutputStart, OutputEnd}, signal.DefaultPulseConfig())
	return New(st, driver, nil, logger.NopLogger{}), st
}

func TestPulseOnOffSequence(t *testing.T) {
	drv := gpio.NewFakeDriver()
	act, st := newTestActuator(drv)
	if err := act.Pulse(context.Background(), OutputStart, 10*time.Millisecond, "test"); err != nil {
		t.Fatalf("pulse: %v", err)
	}
	ops := drv.Ops()
	if len(ops) != 2 || !ops[0].Energized || ops[1].Energized {
		t.Fatalf("expected on then off, got %#v", ops)
	}
	for _, out := range st.Snapshot().Outputs {
		if out.Energized || out.InFlight {
			t.Fatalf("flags not cleared: %+v", out)
		}
	}
}

func TestPulseDriverFailureStillTurnsOff(t *testing.T) {
	drv := gpio.NewFakeDriver()
	drv.OnError[OutputStart] = errors.New("driver boom")
	act, st := newTestActuator(drv)
	err := act.Pulse(context.Background(), OutputStart, 10*time.Millisecond, "test")
	if err == nil {
		t.Fatalf("expected failure")
	}
	last, ok := drv.Last()
	if !ok || last.Energized {
		t.Fatalf("off action not attempted after failed on: %#v", drv.Ops())
	}
	for _, out := range st.Snapshot().Outputs {
		if out.Energized {
			t.Fatalf("output left energized after failure")
		}
	}
}

func TestPulseInFlightRejected(t *testing.T) {
	drv := gpio.NewFakeDriver()
	act, _ := newTestActuator(drv)
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		close(started)
		if err := act.Pulse(context.Background(), OutputStart, 200*time.Millisecond, "first"); err != nil {
			t.Errorf("first pulse: %v", err)
		}
	}()
	<-started
	time.Sleep(20 * time.Millisecond) // let the first pulse acquire
	if err := act.Pulse(context.Background(), OutputStart, time.Millisecond, "second"); !errors.Is(err, signal.ErrPulseInFlight) {
		t.Fatalf("expected ErrPulseInFlight, got %v", err)
	}
	// a different output is not blocked
	if err := act.Pulse(context.Background(), OutputEnd, time.Millisecond, "other"); err != nil {
		t.Fatalf("independent output blocked: %v", err)
	}
	wg.Wait()
}

func TestPulseUnknownOutput(t *testing.T) {
	act, _ := newTestActuator(gpio.NewFakeDriver())
	if err := act.Pulse(context.Background(), "bogus", time.Millisecond, "test"); !errors.Is(err, signal.ErrUnknownOutput) {
		t.Fatalf("expected ErrUnknownOutput, got %v", err)
	}
}

func TestPulseContextCancelTurnsOff(t *testing.T) {
	drv := gpio.NewFakeDriver()
	act, _ := newTestActuator(drv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := act.Pulse(ctx, OutputStart, time.Hour, "test"); err != nil {
		t.Fatalf("pulse: %v", err)
	}
	last, _ := drv.Last()
	if last.Energized {
		t.Fatalf("cancelled pulse left output on")
	}
}
