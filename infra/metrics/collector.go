package metrics

import (
	"context"

	"github.com/pitwall/trackrelay/core/events"
	coremetrics "github.com/pitwall/trackrelay/core/metrics"
	"github.com/pitwall/trackrelay/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// actuation events. It stops when the context is canceled or the bus closes.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus, sink coremetrics.ActuationSink) {
	if bus == nil || sink == nil {
		return
	}
	raceEvents, stopRace := eventbus.SubscribeTo[events.RaceEventReceived](bus)
	pulses, stopPulses := eventbus.SubscribeTo[events.PulseFired](bus)
	windows, stopWindows := eventbus.SubscribeTo[events.WindowChanged](bus)
	go func() {
		defer stopRace()
		defer stopPulses()
		defer stopWindows()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-raceEvents:
				if !ok {
					return
				}
				_ = sink.RecordRaceEvent(coremetrics.RaceEventRecord{
					Kind: e.Record.Kind,
					Type: e.Record.Type,
					Time: e.Record.Received,
				})
			case e, ok := <-pulses:
				if !ok {
					return
				}
				_ = sink.RecordPulse(coremetrics.PulseRecord{
					Output:   e.Output,
					Source:   e.Source,
					Duration: e.Duration,
					Failed:   e.Failed,
					Time:     e.Time,
				})
			case e, ok := <-windows:
				if !ok {
					return
				}
				if wr, isRec := sink.(coremetrics.WindowRecorder); isRec {
					_ = wr.RecordWindowActive(e.Active)
				}
			}
		}
	}()
}
