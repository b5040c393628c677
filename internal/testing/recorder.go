package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/frontdesk/internal/events"
	"github.com/desertthunder/frontdesk/internal/models"
)

// EventRecorder captures every event published on a hub.
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
	notify chan struct{}
}

// RecordHub subscribes a new recorder to every kind of hub.
func RecordHub[R models.Record](hub *events.Hub[R]) *EventRecorder {
	r := &EventRecorder{notify: make(chan struct{}, 1)}
	for _, k := range events.Kinds() {
		hub.Subscribe(k, func(_ context.Context, e events.Event) error {
			r.mu.Lock()
			r.events = append(r.events, e)
			r.mu.Unlock()
			select {
			case r.notify <- struct{}{}:
			default:
			}
			return nil
		})
	}
	return r
}

// Events returns a copy of everything recorded so far.
func (r *EventRecorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// Kinds returns the kinds recorded so far, in order.
func (r *EventRecorder) Kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind()
	}
	return out
}

// Count returns how many events of kind were recorded.
func (r *EventRecorder) Count(kind events.Kind) int {
	n := 0
	for _, k := range r.Kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

// Last returns the most recent event of kind, or nil.
func (r *EventRecorder) Last(kind events.Kind) events.Event {
	evs := r.Events()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Kind() == kind {
			return evs[i]
		}
	}
	return nil
}

// WaitFor blocks until at least n events of kind were recorded, failing t after two seconds.
func (r *EventRecorder) WaitFor(t *testing.T, kind events.Kind, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for r.Count(kind) < n {
		select {
		case <-r.notify:
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatalf("timed out waiting for %d %s events, got %d", n, kind, r.Count(kind))
		}
	}
}
