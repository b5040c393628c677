package refresh

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/repositories"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// Notifier tells the list view of one entity that a form closed.
//
// It sends through the opener when one is set and falls back to the persisted signal.
type Notifier struct {
	entity  models.Entity
	opener  Opener
	store   repositories.Store
	logger  *log.Logger
	metrics *shared.Metrics
}

// NewNotifier creates a Notifier. opener may be nil; store may be nil when an opener is always reachable.
func NewNotifier(entity models.Entity, opener Opener, store repositories.Store, opts Options) *Notifier {
	return &Notifier{
		entity:  entity,
		opener:  opener,
		store:   store,
		logger:  opts.logger("refresh.notifier", entity),
		metrics: opts.Metrics,
	}
}

// FormClosed reports a successful add or edit of the record with id.
func (n *Notifier) FormClosed(ctx context.Context, action Action, id int64) error {
	m := NewFormClosed(n.entity, action, id)

	if n.opener != nil {
		err := n.opener.Send(ctx, m)
		if err == nil {
			n.logger.Debug("notified opener", "action", action, "id", id, "message_id", m.MessageID)
			return nil
		}
		n.logger.Warn("opener unreachable, falling back to refresh signal", "error", err)
	}

	if n.store == nil {
		return shared.ErrNoOpener
	}
	if err := Raise(ctx, n.store, n.entity); err != nil {
		return fmt.Errorf("failed to raise refresh signal: %w", err)
	}
	n.metrics.RefreshSignal(n.entity.Name, "signal", "raised")
	return nil
}
