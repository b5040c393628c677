package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/services"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// APIGet makes a direct GET request to the record-store
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	r.logger.Debug("GET request", "path", path)
	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetworkFailure, err)
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request with a JSON body
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Debug("POST request", "path", path)
	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetworkFailure, err)
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIDelete makes a direct DELETE request
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	r.logger.Debug("DELETE request", "path", path)
	resp, err := r.api.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetworkFailure, err)
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIDump fetches the first page of every entity and prints them as one JSON document.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	dump := struct {
		BaseURL  string              `json:"base_url"`
		Pages    map[string]any      `json:"pages"`
		Errors   []map[string]string `json:"errors,omitempty"`
		Filters  map[string]string   `json:"saved_filters,omitempty"`
		Requests int                 `json:"requests"`
	}{
		BaseURL: r.api.BaseURL(),
		Pages:   map[string]any{},
		Filters: map[string]string{},
	}

	for _, entity := range models.Entities() {
		r.writePlain("Fetching %s...\n", entity.Plural)
		dump.Requests++

		resp, err := r.api.Get(ctx, entity.Endpoint())
		switch {
		case err != nil:
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": entity.Endpoint(), "error": err.Error()})
			r.logger.Warn("failed to fetch", "entity", entity.Plural, "error", err)
		case !resp.OK():
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": entity.Endpoint(), "error": fmt.Sprintf("status %d", resp.StatusCode)})
		default:
			dump.Pages[entity.Plural] = resp.JSONData
		}
	}

	if store, err := r.openStore(); err == nil {
		for _, entity := range models.Entities() {
			if raw, ok, _ := store.Get(ctx, entity.FiltersKey()); ok {
				dump.Filters[entity.Plural] = raw
			}
		}
	}

	r.writePlain("\n✓ Dump complete\n\n")

	if cmd.Bool("save") {
		saveFile := "api_dump.json"
		data, err := formatter.ToJSON(dump)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.writePlain("✓ Dump saved to %s\n\n", saveFile)
		}
	}

	return r.writeJSON(dump, cmd.Bool("pretty"))
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrServerError, resp.StatusCode, string(resp.Body))
	}
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// apiCommand handles direct record-store calls
func apiCommand(r *Runner) *cli.Command {
	pathArg := []cli.Argument{&cli.StringArg{Name: "path"}}
	pretty := &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true}

	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the record-store",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the JSON response",
				Arguments: pathArg,
				Flags:     []cli.Flag{pretty},
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: pathArg,
				Flags: []cli.Flag{
					pretty,
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:      "delete",
				Usage:     "Direct DELETE",
				Arguments: pathArg,
				Flags:     []cli.Flag{pretty},
				Action:    r.APIDelete,
			},
			{
				Name:  "dump",
				Usage: "First page of every entity plus saved filters",
				Flags: []cli.Flag{
					pretty,
					&cli.BoolFlag{Name: "save", Usage: "Also write api_dump.json"},
				},
				Action: r.APIDump,
			},
		},
	}
}
