package event

import (
	"testing"
	"time"
)

func TestLeavingTimestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 6, 1, 8, 30, 0, 500_000_000, time.UTC)
	ev := Leaving(ts)

	if ev.Type != TypeLeaving {
		t.Errorf("Type = %q, want %q", ev.Type, TypeLeaving)
	}
	want := float64(ts.Unix()) + 0.5
	if diff := ev.TS - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("TS = %f, want %f", ev.TS, want)
	}
}

func TestBrokerFanOut(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()

	if got := b.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}

	ev := Leaving(time.Now())
	if got := b.Publish(ev); got != 2 {
		t.Fatalf("Publish delivered = %d, want 2", got)
	}

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			if got != ev {
				t.Errorf("subscriber %d received %+v, want %+v", i, got, ev)
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

func TestBrokerDropsWhenFull(t *testing.T) {
	t.Parallel()

	b := NewBroker(WithBuffer(1))
	_, ch := b.Subscribe()

	ev := Leaving(time.Now())
	if got := b.Publish(ev); got != 1 {
		t.Fatalf("first Publish delivered = %d, want 1", got)
	}
	// Buffer is full now; the slow subscriber misses this one.
	if got := b.Publish(ev); got != 0 {
		t.Errorf("second Publish delivered = %d, want 0", got)
	}

	<-ch
	if got := b.Publish(ev); got != 1 {
		t.Errorf("Publish after drain delivered = %d, want 1", got)
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroker()
	id, ch := b.Subscribe()

	b.Unsubscribe(id)
	if got := b.Len(); got != 0 {
		t.Fatalf("Len after Unsubscribe = %d, want 0", got)
	}
	if _, open := <-ch; open {
		t.Error("channel still open after Unsubscribe")
	}

	// Double unsubscribe must not panic.
	b.Unsubscribe(id)

	if got := b.Publish(Leaving(time.Now())); got != 0 {
		t.Errorf("Publish with no subscribers delivered = %d, want 0", got)
	}
}
