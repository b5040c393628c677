package tasks

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// Lister is the part of [services.RecordService] an export needs.
type Lister[R models.Record] interface {
	Entity() models.Entity
	List(ctx context.Context, q models.QuerySpec) (models.ListResult[R], error)
}

// Exporter writes an entity's records to disk.
type Exporter[R models.Record] struct {
	lister Lister[R]
	cols   formatter.Columns[R]
	logger *log.Logger
}

// NewExporter creates an Exporter that renders records with cols.
func NewExporter[R models.Record](lister Lister[R], cols formatter.Columns[R], logger *log.Logger) *Exporter[R] {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Exporter[R]{
		lister: lister,
		cols:   cols,
		logger: shared.WithLogger(logger, "component", "tasks.exporter", "entity", lister.Entity().Name),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
