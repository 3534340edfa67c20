// Package relay performs timed on/off pulses on physical outputs.
package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/pitwall/trackrelay/core/events"
	"github.com/pitwall/trackrelay/core/logger"
	"github.com/pitwall/trackrelay/core/signal"
	"github.com/pitwall/trackrelay/internal/eventbus"
)

// Well-known output names. The GPIO lines behind them come from configuration.
const (
	OutputStart = "start"
	OutputEnd   = "end"
)

// Driver sets the level of a physical output. Implementations live in
// infra/gpio; the nop driver logs intended actuation when no hardware is
// present.
type Driver interface {
	SetOutput(name string, energized bool) error
}

// Actuator pulses outputs through a Driver. Per-output exclusion comes from
// SignalState's in-flight flag: a second pulse on a busy output is rejected
// with signal.ErrPulseInFlight, never interleaved.
type Actuator struct {
	state  *signal.State
	driver Driver
	bus    *eventbus.Bus
	log    logger.Logger
}

// New creates an Actuator. The bus may be nil when no observers are wired.
func New(state *signal.State, driver Driver, bus *eventbus.Bus, log logger.Logger) *Actuator {
	return &Actuator{state: state, driver: driver, bus: bus, log: log}
}

// Pulse energizes the output, waits d, and de-energizes it. A driver failure
// on the on-phase still attempts the off action so the output is not left
// stuck energized; the energized flag is cleared on every exit path.
func (a *Actuator) Pulse(ctx context.Context, output string, d time.Duration, source string) error {
	if err := a.state.AcquirePulse(output); err != nil {
		return err
	}
	defer a.state.ReleasePulse(output)

	a.state.SetEnergized(output, true)
	a.log.Infof("%s ON (pulse start) by %s", output, source)
	if err := a.driver.SetOutput(output, true); err != nil {
		if offErr := a.driver.SetOutput(output, false); offErr != nil {
			a.log.Errorf("force de-energize %s: %v", output, offErr)
		}
		a.state.SetEnergized(output, false)
		a.publish(output, source, d, true)
		return fmt.Errorf("energize %s: %w", output, err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(d):
	}

	a.state.SetEnergized(output, false)
	a.log.Infof("%s OFF (pulse end) by %s", output, source)
	if err := a.driver.SetOutput(output, false); err != nil {
		a.publish(output, source, d, true)
		return fmt.Errorf("de-energize %s: %w", output, err)
	}
	a.publish(output, source, d, false)
	return nil
}

func (a *Actuator) publish(output, source string, d time.Duration, failed bool) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(events.PulseFired{
		Output:   output,
		Source:   source,
		Duration: d,
		Failed:   failed,
		Time:     time.Now(),
	})
}
