package console

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/frontdesk/internal/events"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/records"
	"github.com/desertthunder/frontdesk/internal/refresh"
	"github.com/desertthunder/frontdesk/internal/repositories"
	"github.com/desertthunder/frontdesk/internal/services"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// Config holds everything a [Module] needs besides its view.
type Config[R models.Record] struct {
	Service services.RecordService[R]
	// Store backs filter persistence and the refresh signal. Nil keeps both in memory.
	Store repositories.Store
	// Origin is the origin form-closed messages must declare.
	Origin string
	// Inboxes deliver form-closed messages. The module closes them.
	Inboxes      []refresh.Inbox
	PollInterval time.Duration
	DedupeSize   int
	PageSize     int
	Logger       *log.Logger
	Metrics      *shared.Metrics
}

// Module is one list view of one entity with everything wired behind it.
type Module[R models.Record] struct {
	hub     *events.Hub[R]
	repo    *records.Repository[R]
	coord   *refresh.Coordinator
	watcher *refresh.SignalWatcher
	orch    *Orchestrator[R]

	inboxes      []refresh.Inbox
	pollInterval time.Duration
	logger       *log.Logger
}

// NewModule builds the module. Nothing is loaded until [Module.Init].
func NewModule[R models.Record](cfg Config[R], view View[R]) (*Module[R], error) {
	if cfg.Service == nil {
		return nil, errors.New("console: nil record service")
	}
	if cfg.Logger == nil {
		cfg.Logger = shared.DiscardLogger()
	}
	if cfg.Store == nil {
		cfg.Store = repositories.NewMemoryStore()
	}
	entity := cfg.Service.Entity()

	hub := events.NewHub[R](entity, cfg.Logger, cfg.Metrics)
	repo := records.New(cfg.Service, hub, records.Options{
		Filters:  repositories.NewFilterStateStore(cfg.Store, entity, cfg.Logger),
		Logger:   cfg.Logger,
		PageSize: cfg.PageSize,
	})

	opts := refresh.Options{Logger: cfg.Logger, Metrics: cfg.Metrics, DedupeSize: cfg.DedupeSize}
	coord, err := refresh.NewCoordinator(cfg.Origin, entity, hub, opts)
	if err != nil {
		repo.Close()
		hub.Close()
		return nil, err
	}
	watcher := refresh.NewSignalWatcher(cfg.Store, entity, hub, opts)

	return &Module[R]{
		hub:          hub,
		repo:         repo,
		coord:        coord,
		watcher:      watcher,
		orch:         NewOrchestrator(repo, view, watcher, cfg.Logger),
		inboxes:      cfg.Inboxes,
		pollInterval: cfg.PollInterval,
		logger:       shared.WithLogger(cfg.Logger, "component", "console.module", "entity", entity.Name),
	}, nil
}

// Init starts listening for form-closed messages, loads page 1, then polls
// the persisted signal. Polling starts only once the view is subscribed.
func (m *Module[R]) Init(ctx context.Context) *records.Pending {
	for _, in := range m.inboxes {
		if err := m.coord.Attach(ctx, in); err != nil {
			m.logger.Warn("failed to attach inbox", "error", err)
		}
	}
	p := m.orch.Init(ctx)
	m.watcher.Poll(ctx, m.pollInterval)
	return p
}

func (m *Module[R]) Orchestrator() *Orchestrator[R] { return m.orch }

func (m *Module[R]) Repository() *records.Repository[R] { return m.repo }

func (m *Module[R]) Hub() *events.Hub[R] { return m.hub }

// Close releases the poll timer, inbox subscriptions, in-flight requests and the hub.
func (m *Module[R]) Close() error {
	err := m.coord.Close()
	m.watcher.Close()
	m.orch.Close()
	m.repo.Close()
	m.hub.Close()
	return err
}
