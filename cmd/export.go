package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/repositories"
	"github.com/desertthunder/frontdesk/internal/shared"
	"github.com/desertthunder/frontdesk/internal/tasks"
)

// Export writes every page using the saved filters, overridden by any filter flags.
func (k *kit[R]) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	filters, err := parseFilters(k.entity, cmd.StringSlice("filter"))
	if err != nil {
		return err
	}

	query := models.DefaultQuery()
	query.PageSize = k.r.config.API.PageSize
	if store, err := k.r.openStore(); err == nil {
		if state, ok := repositories.NewFilterStateStore(store, k.entity, k.r.logger).Load(ctx); ok {
			query.Filters = state.Filters
			query.SortField = state.SortField
			query.SortOrder = state.SortOrder
		}
	} else {
		k.r.logger.Warn("saved filters unavailable", "error", err)
	}
	if len(filters) > 0 {
		query.Filters = filters
	}
	if s := cmd.String("sort"); s != "" {
		if !k.entity.HasSort(s) {
			return fmt.Errorf("%w: unknown %s sort %q", shared.ErrInvalidFlag, k.entity.Name, s)
		}
		query.SortField = s
	}
	if o := cmd.String("order"); o != "" {
		query.SortOrder = models.NormalizeSortOrder(o)
	}

	prog := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			k.r.writePlain("%s\n", u.Message)
		}
	}()

	exporter := tasks.NewExporter(k.service(), k.cols, k.r.logger)
	result, err := exporter.BulkExport(ctx, prog, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Query:      query,
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	k.r.writePlainln("✓ Exported %d of %d pages to %s", result.SuccessfulPages, result.TotalPages, result.OutputDirectory)
	if result.FailedPages > 0 {
		k.r.writePlain("✗ %d pages failed, see %s\n", result.FailedPages, result.ManifestPath)
	}
	return nil
}
