package console

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/frontdesk/internal/events"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/records"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// RefreshedMessage is shown after a reload the user or the system asked for.
const RefreshedMessage = "Data refreshed"

// SignalChecker consumes a persisted refresh signal. See [refresh.SignalWatcher].
type SignalChecker interface {
	Check(ctx context.Context) bool
}

// Orchestrator reacts to a repository's events by driving a [View].
type Orchestrator[R models.Record] struct {
	repo   *records.Repository[R]
	view   View[R]
	signal SignalChecker
	logger *log.Logger

	// refreshRequested is set by reloads that should be confirmed and
	// consumed by the next rendered list.
	refreshRequested atomic.Bool

	mu   sync.Mutex
	subs []events.Subscription
	last *records.Pending
}

// NewOrchestrator creates an orchestrator. signal may be nil.
func NewOrchestrator[R models.Record](repo *records.Repository[R], view View[R], signal SignalChecker, logger *log.Logger) *Orchestrator[R] {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Orchestrator[R]{
		repo:   repo,
		view:   view,
		signal: signal,
		logger: shared.WithLogger(logger, "component", "console.orchestrator", "entity", repo.Entity().Name),
	}
}

// Init subscribes to the hub, restores persisted filters and loads page 1.
//
// A pending refresh signal replaces the initial load rather than adding a second one.
// The initial load is silent. The returned handle resolves when that load has published.
func (o *Orchestrator[R]) Init(ctx context.Context) *records.Pending {
	o.Bind(ctx)

	if o.signal != nil && o.signal.Check(ctx) {
		if p := o.lastLoad(); p != nil {
			return p
		}
	}

	o.view.ShowLoading()
	return o.load(ctx, 1)
}

// Bind subscribes the view to the hub and restores persisted filters without loading.
// Calling it more than once is a no-op.
func (o *Orchestrator[R]) Bind(ctx context.Context) (models.FilterState, bool) {
	hub := o.repo.Hub()

	o.mu.Lock()
	if o.subs != nil {
		o.mu.Unlock()
		return o.repo.Query().State(), false
	}
	o.subs = append(o.subs,
		hub.OnListLoaded(o.onListLoaded),
		hub.OnDetailLoaded(o.onDetailLoaded),
		hub.OnDeleted(o.onDeleted),
		hub.OnErrorRaised(o.onErrorRaised),
		hub.OnExternalRefresh(o.onExternalRefresh),
		hub.OnFiltersChanged(o.onFiltersChanged),
	)
	o.mu.Unlock()

	state, ok := o.repo.Restore(ctx)
	if ok {
		o.view.ShowFilterStatus(state)
	}
	return state, ok
}

// ApplyFilters replaces the filters and sort and reloads page 1 with confirmation.
func (o *Orchestrator[R]) ApplyFilters(ctx context.Context, filters models.Filters, sort, order string) *records.Pending {
	o.refreshRequested.Store(true)
	o.view.ShowLoading()
	return o.track(o.repo.ApplyFilters(ctx, filters, sort, order))
}

// ResetFilters clears the filters and sort and reloads page 1 with confirmation.
func (o *Orchestrator[R]) ResetFilters(ctx context.Context) *records.Pending {
	o.refreshRequested.Store(true)
	o.view.ShowLoading()
	return o.track(o.repo.ResetFilters(ctx))
}

// Refresh reloads page 1 with confirmation.
func (o *Orchestrator[R]) Refresh(ctx context.Context) *records.Pending {
	o.refreshRequested.Store(true)
	o.view.ShowLoading()
	return o.load(ctx, 1)
}

// LoadPage moves to page without confirmation.
func (o *Orchestrator[R]) LoadPage(ctx context.Context, page int) *records.Pending {
	o.view.ShowLoading()
	return o.load(ctx, page)
}

func (o *Orchestrator[R]) ShowDetail(ctx context.Context, id int64) *records.Pending {
	return o.repo.LoadDetail(ctx, id)
}

func (o *Orchestrator[R]) Delete(ctx context.Context, id int64) *records.Pending {
	return o.repo.Delete(ctx, id)
}

// Close removes the orchestrator's subscriptions.
func (o *Orchestrator[R]) Close() {
	o.mu.Lock()
	subs := o.subs
	o.subs = nil
	o.mu.Unlock()

	hub := o.repo.Hub()
	for _, s := range subs {
		hub.Unsubscribe(s)
	}
}

func (o *Orchestrator[R]) onListLoaded(_ context.Context, result models.ListResult[R]) error {
	o.view.RenderList(result)
	if o.refreshRequested.CompareAndSwap(true, false) {
		o.view.ShowSuccess(RefreshedMessage)
	}
	return nil
}

func (o *Orchestrator[R]) onDetailLoaded(_ context.Context, record R) error {
	o.view.ShowDetail(record)
	return nil
}

func (o *Orchestrator[R]) onDeleted(ctx context.Context, ev events.DeletedEvent) error {
	msg := ev.Message
	if msg == "" {
		msg = fmt.Sprintf("%s deleted", o.repo.Entity().Label)
	}
	o.view.ShowSuccess(msg)
	o.load(ctx, 1)
	return nil
}

func (o *Orchestrator[R]) onErrorRaised(_ context.Context, ev events.ErrorRaisedEvent) error {
	o.logger.Debug("error raised", "message", ev.Message, "error", ev.Err)
	o.view.ShowError(ev.Message)
	return nil
}

func (o *Orchestrator[R]) onExternalRefresh(ctx context.Context, ev events.ExternalRefreshRequestedEvent) error {
	o.logger.Debug("external refresh", "source", ev.Source, "message_id", ev.MessageID)
	o.load(ctx, 1)
	return nil
}

func (o *Orchestrator[R]) onFiltersChanged(_ context.Context, state models.FilterState) error {
	o.view.ShowFilterStatus(state)
	return nil
}

func (o *Orchestrator[R]) load(ctx context.Context, page int) *records.Pending {
	return o.track(o.repo.LoadList(ctx, page))
}

func (o *Orchestrator[R]) track(p *records.Pending) *records.Pending {
	o.mu.Lock()
	o.last = p
	o.mu.Unlock()
	return p
}

// lastLoad returns the most recent list load started through the orchestrator.
func (o *Orchestrator[R]) lastLoad() *records.Pending {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}
