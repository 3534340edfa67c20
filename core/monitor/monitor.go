// Package monitor watches the countdown window and fires the end pulse when
// it expires.
package monitor

import (
	"context"
	"time"

	"github.com/pitwall/trackrelay/core/events"
	"github.com/pitwall/trackrelay/core/logger"
	"github.com/pitwall/trackrelay/core/relay"
	"github.com/pitwall/trackrelay/core/signal"
	"github.com/pitwall/trackrelay/internal/eventbus"
)

// DefaultPollInterval keeps end-pulse latency within ~100ms of the deadline.
const DefaultPollInterval = 100 * time.Millisecond

// Monitor is the single perpetual loop polling for an expired window. The
// expiry check and the clear happen atomically inside SignalState, so a tick
// racing a concurrent withdraw fires at most one end pulse per window.
type Monitor struct {
	state    *signal.State
	actuator *relay.Actuator
	bus      *eventbus.Bus
	interval time.Duration
	log      logger.Logger
}

// New creates a Monitor. A non-positive interval falls back to
// DefaultPollInterval.
func New(state *signal.State, actuator *relay.Actuator, bus *eventbus.Bus, interval time.Duration, log logger.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{state: state, actuator: actuator, bus: bus, interval: interval, log: log}
}

// Run polls until the context is cancelled. Iteration failures are logged and
// the loop continues; it is never fatal.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !m.state.ClearIfExpired(now) {
				continue
			}
			m.log.Infof("VSC window expired - firing end pulse")
			if m.bus != nil {
				m.bus.Publish(events.WindowChanged{Active: false})
			}
			cfg := m.state.Config()
			go func() {
				if err := m.actuator.Pulse(ctx, relay.OutputEnd, cfg.Duration, "window-expired"); err != nil {
					m.log.Errorf("end pulse: %v", err)
				}
			}()
		}
	}
}
