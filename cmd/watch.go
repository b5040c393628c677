package main

import (
	"context"
	"errors"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/frontdesk/internal/formatter"
	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/refresh"
	"github.com/desertthunder/frontdesk/internal/server"
	"github.com/desertthunder/frontdesk/internal/shared"
)

const shutdownTimeout = 5 * time.Second

// inboxes opens every configured form-closed transport for entity.
//
// The HTTP inbox shares refresh.listen with /metrics. The returned listener is nil
// when refresh.listen is empty and must be shut down before the inboxes are closed.
func (r *Runner) inboxes(entity models.Entity) ([]refresh.Inbox, *server.Listener, error) {
	var inboxes []refresh.Inbox
	cfg := r.config.Refresh

	var ln *server.Listener
	if cfg.Listen != "" {
		httpInbox := refresh.NewHTTPInbox(entity)

		router := server.NewBasicRouter()
		router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
		router.Handler(httpInbox)
		if r.metrics != nil {
			router.Handler(server.NewMetricsHandler(r.metrics.Handler()))
		}

		var err error
		ln, err = server.Listen(cfg.Listen, shared.TracedHandler(router, "frontdesk.inbox"), r.logger)
		if err != nil {
			httpInbox.Close()
			return nil, nil, err
		}
		inboxes = append(inboxes, httpInbox)
	}

	conn, err := r.natsConn()
	switch {
	case err != nil:
		r.logger.Warn("nats unavailable, continuing without it", "error", err)
	case conn != nil:
		natsInbox, err := refresh.NewNATSInbox(conn, cfg.Origin, entity, r.logger)
		if err != nil {
			r.logger.Warn("failed to subscribe to nats", "error", err)
			break
		}
		inboxes = append(inboxes, natsInbox)
	}

	return inboxes, ln, nil
}

// shutdown stops ln if it is running.
func (r *Runner) shutdown(ln *server.Listener) {
	if ln == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := ln.Shutdown(ctx); err != nil {
		r.logger.Warn("failed to shut down listener", "error", err)
	}
}

// Watch keeps the list on screen and reloads it whenever a form reports a change.
func (k *kit[R]) Watch(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	view := newWriterView(k.r.output, k.r.logger, format, k.entity, k.cols)

	inboxes, ln, err := k.r.inboxes(k.entity)
	if err != nil {
		return err
	}
	mod, err := k.module(view, inboxes)
	if err != nil {
		k.r.shutdown(ln)
		for _, in := range inboxes {
			in.Close()
		}
		return err
	}
	defer mod.Close()
	defer k.r.shutdown(ln)

	if err := mod.Init(ctx).Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		k.r.logger.Warn("initial load failed, waiting for the next refresh", "error", err)
	}
	if ln != nil {
		k.r.logger.Info("waiting for form-closed messages", "url", ln.URL()+refresh.FormClosedPath(k.entity))
	}

	var errs <-chan error
	if ln != nil {
		errs = ln.Errors()
	}
	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-errs:
		if !ok {
			return nil
		}
		return err
	}
}
