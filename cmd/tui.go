package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/comptaflow/compta/internal/shared"
	"github.com/comptaflow/compta/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: local store not initialized", shared.ErrServiceUnavailable)
	}
	if r.workflow == nil {
		return fmt.Errorf("%w: upload workflow not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.TUI.LogPath
	if logPath == "" {
		logPath = "./tmp/compta-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	r.store.RefreshUser(ctx)

	model := ui.NewModel(ctx, r.store, r.backend, r.workflow, r.gate, r.config.TUI.DownloadDir)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
