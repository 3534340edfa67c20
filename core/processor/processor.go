// Package processor turns inbound race-timing events into relay actuation.
package processor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pitwall/trackrelay/core/events"
	"github.com/pitwall/trackrelay/core/logger"
	"github.com/pitwall/trackrelay/core/model"
	"github.com/pitwall/trackrelay/core/relay"
	"github.com/pitwall/trackrelay/core/signal"
	"github.com/pitwall/trackrelay/internal/eventbus"
)

// Processor classifies events and drives SignalState and the Actuator. It is
// safe for concurrent use; all shared state lives in SignalState.
type Processor struct {
	state    *signal.State
	actuator *relay.Actuator
	bus      *eventbus.Bus
	log      logger.Logger
}

// New creates a Processor. The bus may be nil.
func New(state *signal.State, actuator *relay.Actuator, bus *eventbus.Bus, log logger.Logger) *Processor {
	return &Processor{state: state, actuator: actuator, bus: bus, log: log}
}

// HandlePayload ingests one raw event payload. Malformed JSON is the only
// error; every structurally-valid payload is recorded and acknowledged, even
// when its kind is unrecognized.
func (p *Processor) HandlePayload(payload []byte) error {
	ev, err := model.Decode(payload, time.Now())
	if err != nil {
		return err
	}
	rec := model.EventRecord{
		ID:       uuid.NewString(),
		Received: ev.Received,
		Kind:     ev.Kind.String(),
		Type:     ev.Type,
		Payload:  append([]byte(nil), payload...),
	}
	p.state.AppendEvent(rec)
	if p.bus != nil {
		p.bus.Publish(events.RaceEventReceived{Record: rec})
	}

	switch ev.Kind {
	case model.KindStart:
		p.handleStart(ev)
	case model.KindEnd:
		p.handleEnd()
	default:
		p.log.Warnf("unknown event type %q - no action taken", ev.Type)
	}
	return nil
}

// handleStart opens the countdown window immediately and fires the start
// pulse after the configured delay. The window deadline accounts for the
// delay so the end pulse lands startDelay+duration after acceptance. The
// delay runs on its own goroutine: it never blocks ingestion, and a withdraw
// arriving mid-delay cannot cancel it - the start pulse always fires.
func (p *Processor) handleStart(ev model.RaceEvent) {
	cfg := p.state.Config()
	deadline := p.state.OpenCountdown(cfg.StartDelay + ev.Duration)
	if p.bus != nil {
		p.bus.Publish(events.WindowChanged{Active: true, Deadline: deadline})
	}
	p.log.Infow("VSC deployed", map[string]any{
		"duration_s": ev.Duration.Seconds(),
		"delay_s":    cfg.StartDelay.Seconds(),
		"deadline":   deadline,
	})
	go func() {
		if cfg.StartDelay > 0 {
			time.Sleep(cfg.StartDelay)
		}
		if err := p.actuator.Pulse(context.Background(), relay.OutputStart, cfg.Duration, "vsc-deployed"); err != nil {
			p.log.Errorf("start pulse: %v", err)
		}
	}()
}

// handleEnd cancels an open window and fires the end pulse immediately. The
// atomic read-and-clear makes expiry and withdraw mutually exclusive: a
// window that already fired is a no-op here.
func (p *Processor) handleEnd() {
	if !p.state.ClearCountdownIfActive() {
		p.log.Infof("VSC withdrawn with no open window - ignored")
		return
	}
	if p.bus != nil {
		p.bus.Publish(events.WindowChanged{Active: false})
	}
	p.log.Infof("VSC withdrawn - cancelling window")
	cfg := p.state.Config()
	go func() {
		if err := p.actuator.Pulse(context.Background(), relay.OutputEnd, cfg.Duration, "vsc-withdrawn"); err != nil {
			p.log.Errorf("end pulse: %v", err)
		}
	}()
}
