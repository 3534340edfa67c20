package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// EventKind classifies a race-timing event.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindStart
	KindEnd
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case KindStart:
		return "vsc_start"
	case KindEnd:
		return "vsc_end"
	default:
		return "unknown"
	}
}

// DefaultWindow is the VSC window length used when the payload carries no
// usable duration.
const DefaultWindow = 60 * time.Second

// Classification is an exact-match allow-list. SmartRace builds have shipped
// several spellings for the same pair of events, so unknown names are ignored
// rather than rejected.
var (
	startAliases = map[string]struct{}{
		"race.vsc_deployed": {},
		"vscDeployed":       {},
		"vsc_deployed":      {},
		"vsc_started":       {},
		"VSC_DEPLOYED":      {},
	}
	endAliases = map[string]struct{}{
		"race.vsc_retracted": {},
		"vsc_Withdrawn":      {},
		"vsc_withdrawn":      {},
		"vscEnded":           {},
		"vsc_ended":          {},
		"VSC_WITHDRAWN":      {},
	}
)

// Classify maps a raw event-type string to its kind. Matching is
// case-sensitive string membership, not pattern matching.
func Classify(eventType string) EventKind {
	if _, ok := startAliases[eventType]; ok {
		return KindStart
	}
	if _, ok := endAliases[eventType]; ok {
		return KindEnd
	}
	return KindUnknown
}

// RaceEvent is a classified race-timing event.
type RaceEvent struct {
	Kind     EventKind
	Type     string        // raw event-type string from the payload
	Duration time.Duration // VSC window length, meaningful for start events
	Received time.Time
}

// EventRecord is an immutable observability entry kept in the event ring.
type EventRecord struct {
	ID       string          `json:"id"`
	Received time.Time       `json:"received"`
	Kind     string          `json:"kind"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type wireData struct {
	Duration any `json:"duration"`
}

type wirePayload struct {
	EventType string `json:"event_type"`
	Type      string `json:"type"`
	Event     struct {
		Data wireData `json:"data"`
	} `json:"event"`
	Data wireData `json:"data"`
}

// Decode parses a raw ingestion payload into a RaceEvent. The classification
// field is event_type, falling back to type. The duration may live under
// event.data or data and arrive as a number or a numeric string; anything
// else falls back to DefaultWindow.
func Decode(payload []byte, now time.Time) (RaceEvent, error) {
	var wire wirePayload
	if err := json.Unmarshal(payload, &wire); err != nil {
		return RaceEvent{}, err
	}
	eventType := wire.EventType
	if eventType == "" {
		eventType = wire.Type
	}
	dur := durationFrom(wire.Event.Data.Duration)
	if dur <= 0 {
		dur = durationFrom(wire.Data.Duration)
	}
	if dur <= 0 {
		dur = DefaultWindow
	}
	return RaceEvent{
		Kind:     Classify(eventType),
		Type:     eventType,
		Duration: dur,
		Received: now,
	}, nil
}

func durationFrom(v any) time.Duration {
	switch d := v.(type) {
	case float64:
		return time.Duration(d * float64(time.Second))
	case string:
		if f, err := strconv.ParseFloat(d, 64); err == nil {
			return time.Duration(f * float64(time.Second))
		}
	}
	return 0
}
