package records

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/frontdesk/internal/events"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/repositories"
	"github.com/desertthunder/frontdesk/internal/services"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// Options configures a [Repository]. Nil fields get sensible defaults.
type Options struct {
	// Filters persists filter state; nil keeps it in memory only.
	Filters *repositories.FilterStateStore
	Logger  *log.Logger
	// PageSize is sent with every list request when non-zero.
	PageSize int
}

// Repository owns one list view's query and turns record-store calls into events.
type Repository[R models.Record] struct {
	entity  models.Entity
	service services.RecordService[R]
	hub     *events.Hub[R]
	filters *repositories.FilterStateStore
	logger  *log.Logger

	mu    sync.Mutex // guards query
	query models.QuerySpec

	base     context.Context
	shutdown context.CancelFunc
	inflight sync.WaitGroup
}

// New creates a repository that calls service and publishes on hub.
func New[R models.Record](service services.RecordService[R], hub *events.Hub[R], opts Options) *Repository[R] {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	entity := service.Entity()

	q := models.DefaultQuery()
	q.PageSize = max(opts.PageSize, 0)

	base, cancel := context.WithCancel(context.Background())
	return &Repository[R]{
		entity:   entity,
		service:  service,
		hub:      hub,
		filters:  opts.Filters,
		logger:   shared.WithLogger(opts.Logger, "component", "records.repository", "entity", entity.Name),
		query:    q,
		base:     base,
		shutdown: cancel,
	}
}

// Entity returns the descriptor of the records this repository loads.
func (r *Repository[R]) Entity() models.Entity { return r.entity }

// Hub returns the hub the repository publishes on.
func (r *Repository[R]) Hub() *events.Hub[R] { return r.hub }

// Query returns a snapshot of the current query.
func (r *Repository[R]) Query() models.QuerySpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query.Clone()
}

// LoadList fetches page using the current query after applying opts.
//
// The options permanently change the query; parts not mentioned keep their
// previous value. Publishes [events.ListLoaded] or [events.ErrorRaised].
func (r *Repository[R]) LoadList(ctx context.Context, page int, opts ...ListOption) *Pending {
	r.mu.Lock()
	for _, opt := range opts {
		opt(&r.query)
	}
	r.query.Page = max(page, 1)
	snapshot := r.query.Clone()
	r.mu.Unlock()

	return r.run(ctx, "list", func(ctx context.Context) error {
		result, err := r.service.List(ctx, snapshot)
		if err != nil {
			r.raise(ctx, serverMessage(err, fmt.Sprintf("Failed to load %s", r.entity.Plural)), err)
			return err
		}
		r.publish(ctx, events.NewListLoaded(result))
		return nil
	})
}

// LoadDetail fetches one record. A missing record gets its own message.
func (r *Repository[R]) LoadDetail(ctx context.Context, id int64) *Pending {
	return r.run(ctx, "detail", func(ctx context.Context) error {
		record, err := r.service.Get(ctx, id)
		if err != nil {
			msg := fmt.Sprintf("Failed to load %s", r.entity.Name)
			if errors.Is(err, shared.ErrNotFound) {
				msg = fmt.Sprintf("%s not found", r.entity.Label)
			}
			r.raise(ctx, msg, err)
			return err
		}
		r.publish(ctx, events.NewDetailLoaded(record))
		return nil
	})
}

// Delete removes a record and publishes [events.Deleted] with the server's payload.
func (r *Repository[R]) Delete(ctx context.Context, id int64) *Pending {
	return r.run(ctx, "delete", func(ctx context.Context) error {
		result, err := r.service.Delete(ctx, id)
		if err != nil {
			r.raise(ctx, serverMessage(err, fmt.Sprintf("Failed to delete %s", r.entity.Name)), err)
			return err
		}
		r.publish(ctx, events.NewDeleted(id, result))
		return nil
	})
}

// ApplyFilters replaces filters, sort field and sort order as a whole and reloads page 1.
//
// Unlike [Repository.LoadList], an empty argument resets that part.
func (r *Repository[R]) ApplyFilters(ctx context.Context, filters models.Filters, sort, order string) *Pending {
	r.mu.Lock()
	r.query.Filters = filters.Prune()
	r.query.SortField = sort
	r.query.SortOrder = models.NormalizeSortOrder(order)
	state := r.query.State()
	r.mu.Unlock()

	if r.filters != nil {
		if err := r.filters.Save(ctx, state); err != nil {
			r.logger.Warn("failed to persist filters", "error", err)
		}
	}

	r.hub.Publish(ctx, events.NewFiltersChanged(state))
	return r.LoadList(ctx, 1)
}

// ResetFilters restores the default query, forgets the persisted state and reloads page 1.
func (r *Repository[R]) ResetFilters(ctx context.Context) *Pending {
	r.mu.Lock()
	r.query.Filters = models.Filters{}
	r.query.SortField = ""
	r.query.SortOrder = models.Asc
	state := r.query.State()
	r.mu.Unlock()

	if r.filters != nil {
		if err := r.filters.Clear(ctx); err != nil {
			r.logger.Warn("failed to clear persisted filters", "error", err)
		}
	}

	r.hub.Publish(ctx, events.NewFiltersChanged(state))
	return r.LoadList(ctx, 1)
}

// Restore loads the persisted filter state into the query without loading a page.
//
// It reports the restored state and whether one was found.
func (r *Repository[R]) Restore(ctx context.Context) (models.FilterState, bool) {
	if r.filters == nil {
		return models.FilterState{}, false
	}
	state, ok := r.filters.Load(ctx)
	if !ok {
		return models.FilterState{}, false
	}

	r.mu.Lock()
	r.query.Filters = state.Filters.Prune()
	r.query.SortField = state.SortField
	r.query.SortOrder = models.NormalizeSortOrder(string(state.SortOrder))
	restored := r.query.State()
	r.mu.Unlock()

	r.logger.Debug("restored filters", "filters", restored.Filters, "sort", restored.SortField, "order", restored.SortOrder)
	return restored, true
}

// Close cancels in-flight requests and waits for their events to publish.
func (r *Repository[R]) Close() {
	r.shutdown()
	r.inflight.Wait()
}

// run executes op on its own goroutine, tied to both ctx and the repository's lifetime.
func (r *Repository[R]) run(ctx context.Context, name string, op func(ctx context.Context) error) *Pending {
	if r.base.Err() != nil {
		return resolved(shared.ErrClosed)
	}

	p := newPending()
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		opCtx, cancel := context.WithCancel(ctx)
		stop := context.AfterFunc(r.base, cancel)
		defer stop()
		defer cancel()

		err := op(opCtx)
		if err != nil {
			r.logger.Debug("operation failed", "op", name, "error", err)
		}
		p.resolve(err)
	}()
	return p
}

func (r *Repository[R]) raise(ctx context.Context, msg string, err error) {
	r.publish(ctx, events.NewErrorRaised(msg, err))
}

// publish hands handlers a context that stays live after the operation returns.
// The context is detached so the event is delivered before the operation resolves,
// even when the operation was started by a handler.
func (r *Repository[R]) publish(ctx context.Context, e events.Event) {
	r.hub.Publish(events.Detached(context.WithoutCancel(ctx)), e)
}

// serverMessage prefers the message the record-store put in an error body.
func serverMessage(err error, fallback string) string {
	if apiErr, ok := services.AsAPIError(err); ok && apiErr.Status != 0 && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
