package eventbus

import (
	"testing"
	"time"
)

func TestPublishFanOut(t *testing.T) {
	b := New()
	a := b.Subscribe()
	c := b.Subscribe()
	b.Publish("ev")
	if got := <-a; got != "ev" {
		t.Fatalf("sub a got %v", got)
	}
	if got := <-c; got != "ev" {
		t.Fatalf("sub c got %v", got)
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	for i := 0; i < subBuffer+5; i++ {
		b.Publish(i)
	}
	// buffer holds subBuffer events, the rest were dropped without blocking
	count := 0
	for {
		select {
		case <-sub:
			count++
			continue
		default:
		}
		break
	}
	if count != subBuffer {
		t.Fatalf("buffered %d events", count)
	}
}

func TestSubscribeToFiltersByType(t *testing.T) {
	b := New()
	defer b.Close()
	ints, stop := SubscribeTo[int](b)
	defer stop()
	b.Publish("skipped")
	b.Publish(7)
	select {
	case got := <-ints:
		if got != 7 {
			t.Fatalf("got %d", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("typed event never delivered")
	}
	select {
	case got := <-ints:
		t.Fatalf("unexpected extra event %v", got)
	default:
	}
}

func TestSubscribeToClosesWithBus(t *testing.T) {
	b := New()
	ints, stop := SubscribeTo[int](b)
	defer stop()
	b.Close()
	select {
	case _, ok := <-ints:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("typed channel not closed after bus close")
	}
}

func TestUnsubscribeAndClose(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatalf("unsubscribed channel not closed")
	}
	other := b.Subscribe()
	b.Close()
	if _, ok := <-other; ok {
		t.Fatalf("close did not close subscriber")
	}
	b.Publish("dropped") // must not panic after close
	if late := b.Subscribe(); late == nil {
		t.Fatalf("nil channel after close")
	}
}
