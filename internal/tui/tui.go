// Package tui is the operator console for the sync engine: a terminal UI
// that lists queued conflicts and lets an operator inspect both snapshots
// and apply a resolution strategy.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dkotelnikov/go-sync-ledger/internal/adapter"
	"github.com/dkotelnikov/go-sync-ledger/internal/logger"
)

var ErrUserQuit = errors.New("user quit the console")

type TUI struct {
	client adapter.EngineClient

	resolvedBy string
}

func New(client adapter.EngineClient, resolvedBy string, _ *logger.Logger) *TUI {
	return &TUI{client: client, resolvedBy: resolvedBy}
}

// Run drives the conflict console until the operator quits.
func (t *TUI) Run(ctx context.Context) error {
	model := newConsoleModel(ctx, t.client, t.resolvedBy)
	finalModel, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(consoleModel)
	if !ok {
		return tea.ErrProgramKilled
	}
	if result.quitByUser {
		return ErrUserQuit
	}

	return nil
}
