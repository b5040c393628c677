package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/frontdesk/internal/console"
	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/records"
	"github.com/desertthunder/frontdesk/internal/refresh"
	"github.com/desertthunder/frontdesk/internal/services"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// kit binds the runner to one entity so the generic actions can be used as [cli.ActionFunc]s.
type kit[R models.Record] struct {
	r      *Runner
	entity models.Entity
	cols   formatter.Columns[R]
}

func clientsCommand(r *Runner) *cli.Command {
	return entityCommand(&kit[models.Client]{r: r, entity: models.Clients, cols: formatter.ClientColumns})
}

func roomsCommand(r *Runner) *cli.Command {
	return entityCommand(&kit[models.Room]{r: r, entity: models.Rooms, cols: formatter.RoomColumns})
}

func bookingsCommand(r *Runner) *cli.Command {
	return entityCommand(&kit[models.Booking]{r: r, entity: models.Bookings, cols: formatter.BookingColumns})
}

func entityCommand[R models.Record](k *kit[R]) *cli.Command {
	idArg := []cli.Argument{&cli.StringArg{Name: "id"}}

	return &cli.Command{
		Name:  k.entity.Plural,
		Usage: fmt.Sprintf("Browse and manage %s", k.entity.Plural),
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   fmt.Sprintf("List %s using the saved filters", k.entity.Plural),
				Flags: append(queryFlags(k.entity),
					&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Usage: "Page to show", Value: 1},
					formatFlag(),
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the page to a file instead of stdout"},
				),
				Action: k.List,
			},
			{
				Name:      "show",
				Usage:     fmt.Sprintf("Show one %s", k.entity.Name),
				Arguments: idArg,
				Flags:     []cli.Flag{formatFlag()},
				Action:    k.Show,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     fmt.Sprintf("Delete a %s", k.entity.Name),
				Arguments: idArg,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
				},
				Action: k.Delete,
			},
			{
				Name:   "filter",
				Usage:  "Save filters and sort for later listings, or show the saved ones",
				Flags:  append(queryFlags(k.entity), formatFlag()),
				Action: k.Filter,
			},
			{
				Name:   "reset",
				Usage:  "Clear the saved filters and sort",
				Flags:  []cli.Flag{formatFlag()},
				Action: k.Reset,
			},
			{
				Name:   "add",
				Usage:  fmt.Sprintf("Create a %s and refresh open list views", k.entity.Name),
				Flags:  formFlags(),
				Action: k.Add,
			},
			{
				Name:      "edit",
				Usage:     fmt.Sprintf("Update a %s, or print its current values when no fields are given", k.entity.Name),
				Arguments: idArg,
				Flags:     formFlags(),
				Action:    k.Edit,
			},
			{
				Name:  "export",
				Usage: fmt.Sprintf("Write every page of %s to a directory", k.entity.Plural),
				Flags: append(queryFlags(k.entity),
					&cli.StringFlag{Name: "format", Usage: "File format (csv, markdown, text, json, table)", Value: string(formatter.JSON)},
					&cli.StringFlag{Name: "dir", Aliases: []string{"o"}, Usage: "Output directory (default: <entity>_export_<epoch>)"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent writers", Value: 4},
					&cli.FloatFlag{Name: "rate", Usage: "Page requests per second", Value: 5},
				),
				Action: k.Export,
			},
			{
				Name:   "watch",
				Usage:  "Keep a list on screen and reload it whenever a form reports a change",
				Flags:  []cli.Flag{formatFlag()},
				Action: k.Watch,
			},
			{
				Name:   "tui",
				Usage:  fmt.Sprintf("Browse %s interactively", k.entity.Plural),
				Action: k.TUI,
			},
		},
	}
}

func queryFlags(entity models.Entity) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   fmt.Sprintf("Filter as key=value (%s)", optionKeys(entity.Filters)),
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   fmt.Sprintf("Sort field (%s)", optionKeys(entity.Sorts)),
		},
		&cli.StringFlag{
			Name:  "order",
			Usage: "Sort order (asc or desc)",
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "Output format (table, csv, markdown, text, json)",
		Value: string(formatter.Table),
	}
}

func formFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "field", Aliases: []string{"F"}, Usage: "Field as key=value"},
		&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "Fields as a JSON object"},
		&cli.StringFlag{Name: "opener", Usage: "Base URL of the list view to notify (defaults to refresh.opener_url)"},
	}
}

func optionKeys(opts []models.Option) string {
	keys := make([]string, 0, len(opts))
	for _, o := range opts {
		keys = append(keys, o.Key)
	}
	return strings.Join(keys, ", ")
}

// parseFilters reads key=value pairs, rejecting keys outside the entity's filter catalog.
func parseFilters(entity models.Entity, pairs []string) (models.Filters, error) {
	filters := models.Filters{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", shared.ErrInvalidFlag, pair)
		}
		if !entity.HasFilter(k) {
			return nil, fmt.Errorf("%w: unknown %s filter %q", shared.ErrInvalidFlag, entity.Name, k)
		}
		filters[k] = v
	}
	return filters.Prune(), nil
}

func parseID(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: id is required", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func (k *kit[R]) service() *services.RecordClient[R] {
	return services.NewRecordClient[R](k.r.api, k.entity, k.r.metrics).WithPageSize(k.r.config.API.PageSize)
}

// module builds the console module for this entity around view.
func (k *kit[R]) module(view console.View[R], inboxes []refresh.Inbox) (*console.Module[R], error) {
	store, err := k.r.openStore()
	if err != nil {
		return nil, err
	}
	cfg := k.r.config.Refresh
	return console.NewModule(console.Config[R]{
		Service:      k.service(),
		Store:        store,
		Origin:       cfg.Origin,
		Inboxes:      inboxes,
		PollInterval: cfg.PollInterval.Duration,
		DedupeSize:   cfg.DedupeSize,
		PageSize:     k.r.config.API.PageSize,
		Logger:       k.r.logger,
		Metrics:      k.r.metrics,
	}, view)
}

// oneShot builds a bound module whose view writes to the runner's output.
func (k *kit[R]) oneShot(ctx context.Context, cmd *cli.Command) (*console.Module[R], *writerView[R], error) {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return nil, nil, err
	}
	view := newWriterView(k.r.output, k.r.logger, format, k.entity, k.cols)
	mod, err := k.module(view, nil)
	if err != nil {
		return nil, nil, err
	}
	return mod, view, nil
}

// List prints one page. Filter flags apply to this listing only.
func (k *kit[R]) List(ctx context.Context, cmd *cli.Command) error {
	filters, err := parseFilters(k.entity, cmd.StringSlice("filter"))
	if err != nil {
		return err
	}

	mod, view, err := k.oneShot(ctx, cmd)
	if err != nil {
		return err
	}
	defer mod.Close()

	path := cmd.String("output")
	if path != "" {
		view.lists = false
	}
	mod.Orchestrator().Bind(ctx)

	var opts []records.ListOption
	if len(filters) > 0 {
		opts = append(opts, records.WithFilters(filters))
	}
	if s := cmd.String("sort"); s != "" {
		if !k.entity.HasSort(s) {
			return fmt.Errorf("%w: unknown %s sort %q", shared.ErrInvalidFlag, k.entity.Name, s)
		}
		opts = append(opts, records.WithSort(s))
	}
	if o := cmd.String("order"); o != "" {
		opts = append(opts, records.WithSortOrder(o))
	}

	if err := mod.Repository().LoadList(ctx, cmd.Int("page"), opts...).Wait(ctx); err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	result, _ := view.lastResult()
	written, err := formatter.WriteExport(path, view.format, k.entity, k.cols, result)
	if err != nil {
		return err
	}
	return k.r.writePlain("✓ Exported %d %s to %s\n", len(result.Items), k.entity.Plural, written)
}

func (k *kit[R]) Show(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	mod, _, err := k.oneShot(ctx, cmd)
	if err != nil {
		return err
	}
	defer mod.Close()

	mod.Orchestrator().Bind(ctx)
	return mod.Orchestrator().ShowDetail(ctx, id).Wait(ctx)
}

func (k *kit[R]) Delete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") && !k.r.confirm(fmt.Sprintf("Delete %s #%d?", strings.ToLower(k.entity.Label), id)) {
		return k.r.writePlain("Cancelled\n")
	}

	mod, view, err := k.oneShot(ctx, cmd)
	if err != nil {
		return err
	}
	defer mod.Close()

	// The reload that follows a delete is for long-lived views.
	view.lists = false
	mod.Orchestrator().Bind(ctx)
	return mod.Orchestrator().Delete(ctx, id).Wait(ctx)
}

// Filter saves the given filters and sort and prints page 1. Without flags it prints the saved state.
func (k *kit[R]) Filter(ctx context.Context, cmd *cli.Command) error {
	filters, err := parseFilters(k.entity, cmd.StringSlice("filter"))
	if err != nil {
		return err
	}
	sort := cmd.String("sort")
	if sort != "" && !k.entity.HasSort(sort) {
		return fmt.Errorf("%w: unknown %s sort %q", shared.ErrInvalidFlag, k.entity.Name, sort)
	}

	mod, _, err := k.oneShot(ctx, cmd)
	if err != nil {
		return err
	}
	defer mod.Close()

	state, restored := mod.Orchestrator().Bind(ctx)
	if len(filters) == 0 && sort == "" && cmd.String("order") == "" {
		if !restored {
			return k.r.writePlain("%s\n", formatter.FilterStatus(k.entity, state))
		}
		return nil
	}
	return mod.Orchestrator().ApplyFilters(ctx, filters, sort, cmd.String("order")).Wait(ctx)
}

func (k *kit[R]) Reset(ctx context.Context, cmd *cli.Command) error {
	mod, _, err := k.oneShot(ctx, cmd)
	if err != nil {
		return err
	}
	defer mod.Close()

	mod.Orchestrator().Bind(ctx)
	return mod.Orchestrator().ResetFilters(ctx).Wait(ctx)
}

// confirm asks a yes/no question on the runner's input.
func (r *Runner) confirm(question string) bool {
	r.writePlain("%s [y/N] ", question)
	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
