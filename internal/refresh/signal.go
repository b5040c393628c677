package refresh

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/frontdesk/internal/events"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/repositories"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// SignalWatcher consumes the persisted refresh signal of one entity.
type SignalWatcher struct {
	store   repositories.Store
	entity  models.Entity
	hub     Publisher
	logger  *log.Logger
	metrics *shared.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSignalWatcher(store repositories.Store, entity models.Entity, hub Publisher, opts Options) *SignalWatcher {
	return &SignalWatcher{
		store:   store,
		entity:  entity,
		hub:     hub,
		logger:  opts.logger("refresh.signal", entity),
		metrics: opts.Metrics,
	}
}

// Check consumes the signal if it is set and publishes one refresh request.
//
// It reports whether a refresh was requested. Store failures count as no signal.
func (w *SignalWatcher) Check(ctx context.Context) bool {
	key := w.entity.RefreshKey()
	v, ok, err := w.store.Get(ctx, key)
	if err != nil {
		w.logger.Warn("failed to read refresh signal", "key", key, "error", err)
		return false
	}
	if !ok || v == "" {
		return false
	}
	if err := w.store.Delete(ctx, key); err != nil {
		w.logger.Warn("failed to clear refresh signal", "key", key, "error", err)
	}

	w.metrics.RefreshSignal(w.entity.Name, "signal", "accepted")
	w.logger.Debug("refresh signal consumed", "value", v)
	w.hub.Publish(ctx, events.NewExternalRefreshRequested("signal", ""))
	return true
}

// Poll checks the signal every interval until ctx is done or [SignalWatcher.Close] is called.
// A non-positive interval does nothing.
func (w *SignalWatcher) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Check(ctx)
			}
		}
	}()
}

// Close stops polling.
func (w *SignalWatcher) Close() {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

// Raise sets the signal for entity on store, as a form does when it has no opener.
func Raise(ctx context.Context, store repositories.Store, entity models.Entity) error {
	return store.Set(ctx, entity.RefreshKey(), strconv.FormatInt(time.Now().UnixMilli(), 10))
}
