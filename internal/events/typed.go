package events

import (
	"context"

	"github.com/desertthunder/frontdesk/internal/models"
)

// OnListLoaded subscribes fn to [ListLoaded].
func (h *Hub[R]) OnListLoaded(fn func(ctx context.Context, result models.ListResult[R]) error) Subscription {
	return h.Subscribe(ListLoaded, func(ctx context.Context, e Event) error {
		if ev, ok := e.(ListLoadedEvent[R]); ok {
			return fn(ctx, ev.Result)
		}
		return nil
	})
}

// OnDetailLoaded subscribes fn to [DetailLoaded].
func (h *Hub[R]) OnDetailLoaded(fn func(ctx context.Context, record R) error) Subscription {
	return h.Subscribe(DetailLoaded, func(ctx context.Context, e Event) error {
		if ev, ok := e.(DetailLoadedEvent[R]); ok {
			return fn(ctx, ev.Record)
		}
		return nil
	})
}

// OnDeleted subscribes fn to [Deleted].
func (h *Hub[R]) OnDeleted(fn func(ctx context.Context, ev DeletedEvent) error) Subscription {
	return h.Subscribe(Deleted, func(ctx context.Context, e Event) error {
		if ev, ok := e.(DeletedEvent); ok {
			return fn(ctx, ev)
		}
		return nil
	})
}

// OnFiltersChanged subscribes fn to [FiltersChanged].
func (h *Hub[R]) OnFiltersChanged(fn func(ctx context.Context, state models.FilterState) error) Subscription {
	return h.Subscribe(FiltersChanged, func(ctx context.Context, e Event) error {
		if ev, ok := e.(FiltersChangedEvent); ok {
			return fn(ctx, ev.State)
		}
		return nil
	})
}

// OnErrorRaised subscribes fn to [ErrorRaised].
func (h *Hub[R]) OnErrorRaised(fn func(ctx context.Context, ev ErrorRaisedEvent) error) Subscription {
	return h.Subscribe(ErrorRaised, func(ctx context.Context, e Event) error {
		if ev, ok := e.(ErrorRaisedEvent); ok {
			return fn(ctx, ev)
		}
		return nil
	})
}

// OnExternalRefresh subscribes fn to [ExternalRefreshRequested].
func (h *Hub[R]) OnExternalRefresh(fn func(ctx context.Context, ev ExternalRefreshRequestedEvent) error) Subscription {
	return h.Subscribe(ExternalRefreshRequested, func(ctx context.Context, e Event) error {
		if ev, ok := e.(ExternalRefreshRequestedEvent); ok {
			return fn(ctx, ev)
		}
		return nil
	})
}
