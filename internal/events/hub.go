package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// Handler reacts to an event. A returned error is logged; it never stops delivery.
type Handler func(ctx context.Context, e Event) error

// Subscription identifies one registration on a [Hub]. The zero value matches nothing.
type Subscription struct {
	kind Kind
	id   uint64
}

type subscriber struct {
	id      uint64
	handler Handler
}

type pending struct {
	ctx   context.Context
	event Event
}

// dispatchKey marks contexts handed to handlers with the token of their dispatch.
type dispatchKey struct{ hub any }

// Detached returns ctx without the marks hubs put on contexts handed to
// handlers. Publishing with it never joins a running dispatch; it waits for it.
func Detached(ctx context.Context) context.Context {
	return detached{ctx}
}

type detached struct{ context.Context }

func (d detached) Value(key any) any {
	if _, ok := key.(dispatchKey); ok {
		return nil
	}
	return d.Context.Value(key)
}

// Hub routes events of one entity to their subscribers.
type Hub[R models.Record] struct {
	entity  models.Entity
	logger  *log.Logger
	metrics *shared.Metrics

	mu     sync.Mutex // guards everything below
	subs   map[Kind][]subscriber
	nextID uint64
	closed bool
	// active is the token of the running dispatch, zero when idle.
	active uint64
	tokens uint64
	queue  []pending

	// delivery is held by the goroutine currently running handlers.
	delivery sync.Mutex
}

// NewHub creates a hub for entity. A nil logger discards diagnostics and nil metrics record nothing.
func NewHub[R models.Record](entity models.Entity, logger *log.Logger, metrics *shared.Metrics) *Hub[R] {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Hub[R]{
		entity:  entity,
		logger:  shared.WithLogger(logger, "component", "events.hub", "entity", entity.Name),
		metrics: metrics,
		subs:    make(map[Kind][]subscriber),
	}
}

// Entity returns the descriptor the hub was created for.
func (h *Hub[R]) Entity() models.Entity { return h.entity }

// Subscribe appends handler to the subscribers of kind.
//
// An undeclared kind, a nil handler or a closed hub yields the zero [Subscription].
func (h *Hub[R]) Subscribe(kind Kind, handler Handler) Subscription {
	if !kind.Valid() {
		h.logger.Warn("ignoring subscription to unknown event kind", "kind", int(kind))
		return Subscription{}
	}
	if handler == nil {
		h.logger.Warn("ignoring nil handler", "kind", kind)
		return Subscription{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return Subscription{}
	}

	h.nextID++
	h.subs[kind] = append(h.subs[kind], subscriber{id: h.nextID, handler: handler})
	return Subscription{kind: kind, id: h.nextID}
}

// Unsubscribe removes the registration identified by sub. Unknown subscriptions are ignored.
func (h *Hub[R]) Unsubscribe(sub Subscription) {
	if sub.id == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.subs[sub.kind]
	for i, s := range list {
		if s.id == sub.id {
			next := make([]subscriber, 0, len(list)-1)
			next = append(next, list[:i]...)
			h.subs[sub.kind] = append(next, list[i+1:]...)
			return
		}
	}
}

// Count returns the number of handlers subscribed to kind.
func (h *Hub[R]) Count(kind Kind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[kind])
}

// Publish delivers e to every handler of its kind in subscription order.
//
// Called with the context a handler of the running dispatch received, the
// event is queued and delivered after that handler returns, before the
// dispatch ends. Any other call waits for the dispatch in progress and returns
// once every handler has seen e. A handler must not wait for a publish made
// with a [Detached] context.
func (h *Hub[R]) Publish(ctx context.Context, e Event) {
	if e == nil || !e.Kind().Valid() {
		h.logger.Warn("ignoring invalid event", "event", fmt.Sprintf("%T", e))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.metrics.EventPublished(h.entity.Name, e.Kind().String())
	if tok, _ := ctx.Value(dispatchKey{h}).(uint64); tok != 0 && tok == h.active {
		h.queue = append(h.queue, pending{ctx: ctx, event: e})
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	h.delivery.Lock()
	defer h.delivery.Unlock()

	tok := h.begin()
	next := pending{ctx: ctx, event: e}
	for {
		h.deliver(next.ctx, next.event, tok)

		h.mu.Lock()
		if len(h.queue) == 0 || h.closed {
			h.active = 0
			h.queue = nil
			h.mu.Unlock()
			return
		}
		next = h.queue[0]
		h.queue = h.queue[1:]
		h.mu.Unlock()
	}
}

// Close drops every subscription. Later publishes and subscriptions are no-ops.
func (h *Hub[R]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = make(map[Kind][]subscriber)
	h.queue = nil
}

func (h *Hub[R]) begin() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tokens++
	h.active = h.tokens
	return h.active
}

func (h *Hub[R]) deliver(ctx context.Context, e Event, tok uint64) {
	h.mu.Lock()
	handlers := h.subs[e.Kind()]
	h.mu.Unlock()

	hctx := context.WithValue(ctx, dispatchKey{h}, tok)
	for _, s := range handlers {
		h.invoke(hctx, s, e)
	}
}

func (h *Hub[R]) invoke(ctx context.Context, s subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			h.metrics.HandlerFailed(h.entity.Name, e.Kind().String())
			h.logger.Error("event handler panicked", "kind", e.Kind(), "subscription", s.id, "panic", r)
		}
	}()

	if err := s.handler(ctx, e); err != nil {
		h.metrics.HandlerFailed(h.entity.Name, e.Kind().String())
		h.logger.Error("event handler failed", "kind", e.Kind(), "subscription", s.id, "error", err)
	}
}
