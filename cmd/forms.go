package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/refresh"
	"github.com/desertthunder/frontdesk/internal/services"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// Add creates a record, then tells the list view that opened the form to reload.
func (k *kit[R]) Add(ctx context.Context, cmd *cli.Command) error {
	fields, err := parseFields(cmd.StringSlice("field"), cmd.String("data"))
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: at least one --field or --data is required", shared.ErrMissingArgument)
	}

	result, err := k.service().Create(ctx, fields)
	if err != nil {
		return k.formError(err)
	}
	k.r.writePlain("✓ %s\n", mutationMessage(result, k.entity.Label+" created"))
	return k.notify(ctx, cmd, refresh.ActionAdd, result.ID)
}

// Edit updates a record. Without fields it prints the values the edit form would start from.
func (k *kit[R]) Edit(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	fields, err := parseFields(cmd.StringSlice("field"), cmd.String("data"))
	if err != nil {
		return err
	}

	if len(fields) == 0 {
		record, err := k.service().EditForm(ctx, id)
		if err != nil {
			return err
		}
		return k.r.writeJSON(record, true)
	}

	result, err := k.service().Update(ctx, id, fields)
	if err != nil {
		return k.formError(err)
	}
	k.r.writePlain("✓ %s\n", mutationMessage(result, k.entity.Label+" updated"))
	return k.notify(ctx, cmd, refresh.ActionEdit, id)
}

// notify delivers the form-closed message to the opener, falling back to the persisted signal.
func (k *kit[R]) notify(ctx context.Context, cmd *cli.Command, action refresh.Action, id int64) error {
	opener := k.opener(cmd)

	store, err := k.r.openStore()
	if err != nil {
		k.r.logger.Warn("refresh signal unavailable", "error", err)
		store = nil
	}

	n := refresh.NewNotifier(k.entity, opener, store, refresh.Options{Logger: k.r.logger, Metrics: k.r.metrics})
	if err := n.FormClosed(ctx, action, id); err != nil {
		k.r.logger.Warn("list view was not notified", "error", err)
		return nil
	}
	return nil
}

// opener picks the HTTP opener from --opener or refresh.opener_url, then NATS. It returns nil when neither is set.
func (k *kit[R]) opener(cmd *cli.Command) refresh.Opener {
	cfg := k.r.config.Refresh

	url := cmd.String("opener")
	if url == "" {
		url = cfg.OpenerURL
	}
	if url != "" {
		return refresh.NewHTTPOpener(url, cfg.Origin, k.entity, k.r.httpClient)
	}

	conn, err := k.r.natsConn()
	if err != nil {
		k.r.logger.Warn("nats unavailable", "error", err)
		return nil
	}
	if conn == nil {
		return nil
	}
	return refresh.NewNATSOpener(conn, cfg.Origin, k.entity)
}

// formError prints per-field validation messages before returning err.
func (k *kit[R]) formError(err error) error {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		k.r.writePlain("✗ %s\n", mutationMessage(models.MutationResult{Message: apiErr.Message}, "Please fix the highlighted fields"))
		for _, field := range slices.Sorted(maps.Keys(apiErr.Fields)) {
			k.r.writePlain("  %s: %s\n", field, apiErr.Fields[field])
		}
	}
	return err
}

func mutationMessage(result models.MutationResult, fallback string) string {
	if result.Message != "" {
		return result.Message
	}
	return fallback
}

// parseFields merges a JSON object with key=value pairs; pairs win.
//
// Pair values become bools, integers or floats when they read as one.
func parseFields(pairs []string, data string) (map[string]any, error) {
	fields := map[string]any{}
	if strings.TrimSpace(data) != "" {
		if err := json.Unmarshal([]byte(data), &fields); err != nil {
			return nil, fmt.Errorf("%w: --data must be a JSON object: %v", shared.ErrInvalidFlag, err)
		}
	}

	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", shared.ErrInvalidFlag, pair)
		}
		fields[k] = fieldValue(v)
	}
	return fields, nil
}

func fieldValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if !numeric(v) {
		return v
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

// numeric accepts plain decimals such as 12, -3 and 4.50. Leading zeros and signs other
// than "-" keep values like phone numbers and room "007" as strings.
func numeric(v string) bool {
	whole, frac, dot := strings.Cut(strings.TrimPrefix(v, "-"), ".")
	if whole == "" || (dot && frac == "") {
		return false
	}
	if len(whole) > 1 && whole[0] == '0' {
		return false
	}
	return strings.Trim(whole+frac, "0123456789") == ""
}
