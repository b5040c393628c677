package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/desertthunder/frontdesk/internal/events"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
)

const defaultDedupeSize = 256

// Publisher is the side of an event hub the refresh protocol writes to.
type Publisher interface {
	Publish(ctx context.Context, e events.Event)
}

// Options configures a [Coordinator] or [SignalWatcher].
type Options struct {
	Logger  *log.Logger
	Metrics *shared.Metrics
	// DedupeSize bounds the number of remembered message ids.
	DedupeSize int
}

func (o Options) logger(component string, entity models.Entity) *log.Logger {
	l := o.Logger
	if l == nil {
		l = shared.DiscardLogger()
	}
	return shared.WithLogger(l, "component", component, "entity", entity.Name)
}

// Coordinator turns accepted form-closed messages into ExternalRefreshRequested events.
type Coordinator struct {
	origin  string
	entity  models.Entity
	hub     Publisher
	seen    *lru.Cache[string, struct{}]
	logger  *log.Logger
	metrics *shared.Metrics

	mu      sync.Mutex
	inboxes []Inbox
	closed  bool
	wg      sync.WaitGroup
}

// NewCoordinator creates a coordinator that accepts messages declaring origin.
func NewCoordinator(origin string, entity models.Entity, hub Publisher, opts Options) (*Coordinator, error) {
	size := opts.DedupeSize
	if size <= 0 {
		size = defaultDedupeSize
	}
	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create dedupe cache: %w", err)
	}
	return &Coordinator{
		origin:  origin,
		entity:  entity,
		hub:     hub,
		seen:    seen,
		logger:  opts.logger("refresh.coordinator", entity),
		metrics: opts.Metrics,
	}, nil
}

// Accept validates env and publishes one refresh request for it.
//
// Rejections wrap [shared.ErrForeignOrigin], [shared.ErrInvalidMessage] or
// [shared.ErrDuplicateMessage]. Messages without a message id are never treated as duplicates.
func (c *Coordinator) Accept(ctx context.Context, env Envelope) error {
	err := c.check(env)
	c.metrics.RefreshSignal(c.entity.Name, transportName(env), outcome(err))
	if err != nil {
		return err
	}

	c.logger.Debug("form closed", "action", env.Message.Action, "id", env.Message.ID, "transport", env.Transport)
	c.hub.Publish(ctx, events.NewExternalRefreshRequested(transportName(env), env.Message.MessageID))
	return nil
}

func (c *Coordinator) check(env Envelope) error {
	if env.Origin != c.origin {
		return fmt.Errorf("%w: %q", shared.ErrForeignOrigin, env.Origin)
	}
	if err := env.Message.Validate(c.entity); err != nil {
		return err
	}
	if id := env.Message.MessageID; id != "" {
		if found, _ := c.seen.ContainsOrAdd(id, struct{}{}); found {
			return fmt.Errorf("%w: %s", shared.ErrDuplicateMessage, id)
		}
	}
	return nil
}

// Attach consumes inbox until it is closed or ctx is done. The coordinator closes it on [Coordinator.Close].
func (c *Coordinator) Attach(ctx context.Context, inbox Inbox) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return shared.ErrClosed
	}
	c.inboxes = append(c.inboxes, inbox)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-inbox.Messages():
				if !ok {
					return
				}
				if err := c.Accept(ctx, env); err != nil {
					c.logger.Debug("ignoring message", "transport", env.Transport, "error", err)
				}
			}
		}
	}()
	return nil
}

// Close closes every attached inbox and waits for their consumers to stop.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	inboxes := c.inboxes
	c.inboxes = nil
	c.mu.Unlock()

	var errs []error
	for _, in := range inboxes {
		if err := in.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.wg.Wait()
	return errors.Join(errs...)
}

func transportName(env Envelope) string {
	if env.Transport == "" {
		return "unknown"
	}
	return env.Transport
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, shared.ErrForeignOrigin):
		return "foreign_origin"
	case errors.Is(err, shared.ErrDuplicateMessage):
		return "duplicate"
	default:
		return "invalid"
	}
}
