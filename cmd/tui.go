package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/frontdesk/internal/shared"
	"github.com/desertthunder/frontdesk/internal/ui"
)

// TUI launches the interactive list for the entity.
func (k *kit[R]) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/frontdesk-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(k.r.config.LogLevel))
	k.r.SetLogger(fileLogger)

	inboxes, ln, err := k.r.inboxes(k.entity)
	if err != nil {
		return err
	}

	sender := &ui.ProgramSender{}
	mod, err := k.module(ui.NewProgramView[R](sender), inboxes)
	if err != nil {
		k.r.shutdown(ln)
		for _, in := range inboxes {
			in.Close()
		}
		return err
	}
	defer mod.Close()
	defer k.r.shutdown(ln)

	model := ui.NewModel(ctx, k.entity, k.cols, mod.Orchestrator(), func(ctx context.Context) {
		mod.Init(ctx)
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	sender.Attach(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
