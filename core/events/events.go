// Package events defines the payloads published on the internal event bus.
package events

import (
	"time"

	"github.com/pitwall/trackrelay/core/model"
)

// RaceEventReceived is published for every ingested payload, whatever its
// classification.
type RaceEventReceived struct {
	Record model.EventRecord
}

// PulseFired is published after a pulse attempt completes.
type PulseFired struct {
	Output   string
	Source   string
	Duration time.Duration
	Failed   bool
	Time     time.Time
}

// WindowChanged is published when the countdown window opens or clears.
type WindowChanged struct {
	Active   bool
	Deadline time.Time
}
