package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/frontdesk/internal/console"
	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
)

var _ console.View[models.Room] = (*writerView[models.Room])(nil)

// writerView renders the orchestrator's output as text on a writer.
//
// Status lines are written only for human-readable formats so csv and json
// output stays machine-readable.
type writerView[R models.Record] struct {
	mu     sync.Mutex
	out    io.Writer
	logger *log.Logger
	format formatter.Format
	entity models.Entity
	cols   formatter.Columns[R]

	lists  bool
	last   *models.ListResult[R]
	errors []string
}

func newWriterView[R models.Record](out io.Writer, logger *log.Logger, format formatter.Format, entity models.Entity, cols formatter.Columns[R]) *writerView[R] {
	return &writerView[R]{out: out, logger: logger, format: format, entity: entity, cols: cols, lists: true}
}

func (v *writerView[R]) decorated() bool {
	return v.format != formatter.CSV && v.format != formatter.JSON
}

func (v *writerView[R]) RenderList(result models.ListResult[R]) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.last = &result
	if !v.lists {
		return
	}
	data, err := formatter.Export(v.format, v.entity, v.cols, result)
	if err != nil {
		v.logger.Error("failed to render list", "error", err)
		return
	}
	v.out.Write(data)
}

func (v *writerView[R]) ShowDetail(record R) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.format == formatter.JSON {
		data, err := formatter.ToJSON(record)
		if err != nil {
			v.logger.Error("failed to render record", "error", err)
			return
		}
		v.out.Write(append(data, '\n'))
		return
	}
	v.out.Write(formatter.ExportDetail(v.cols, record))
}

func (v *writerView[R]) ShowSuccess(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.decorated() {
		fmt.Fprintf(v.out, "✓ %s\n", message)
	}
}

func (v *writerView[R]) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, message)
	v.logger.Error(message)
}

func (v *writerView[R]) ShowLoading() {
	v.logger.Debug("loading", "entity", v.entity.Plural)
}

func (v *writerView[R]) ShowFilterStatus(state models.FilterState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.decorated() {
		fmt.Fprintln(v.out, formatter.FilterStatus(v.entity, state))
	}
}

// lastResult returns the most recently rendered page.
func (v *writerView[R]) lastResult() (models.ListResult[R], bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last == nil {
		return models.ListResult[R]{}, false
	}
	return *v.last, true
}

func (v *writerView[R]) shownErrors() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.errors...)
}
