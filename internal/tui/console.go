package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dkotelnikov/go-sync-ledger/internal/adapter"
	"github.com/dkotelnikov/go-sync-ledger/models"
)

type screen int

const (
	screenList screen = iota
	screenDetail
	screenStrategy
)

var strategies = []models.ResolutionStrategy{
	models.StrategyServerWins,
	models.StrategyClientWins,
	models.StrategyLastWriteWins,
	models.StrategyMerge,
}

type consoleModel struct {
	ctx        context.Context
	client     adapter.EngineClient
	resolvedBy string

	screen      screen
	conflicts   []models.PendingConflict
	idx         int
	strategyIdx int

	loading   bool
	resolving bool
	spinner   spinner.Model

	version    string
	status     string
	lastErr    error
	quitByUser bool
}

func newConsoleModel(ctx context.Context, client adapter.EngineClient, resolvedBy string) consoleModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot

	return consoleModel{
		ctx:        ctx,
		client:     client,
		resolvedBy: resolvedBy,
		spinner:    s,
		loading:    true,
	}
}

func (m consoleModel) current() (models.PendingConflict, bool) {
	if len(m.conflicts) == 0 || m.idx < 0 || m.idx >= len(m.conflicts) {
		return models.PendingConflict{}, false
	}
	return m.conflicts[m.idx], true
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadConflicts(), m.loadVersion())
}

func (m consoleModel) loadConflicts() tea.Cmd {
	return func() tea.Msg {
		conflicts, err := m.client.ListConflicts(m.ctx, "")
		return conflictsLoadedMsg{conflicts: conflicts, err: err}
	}
}

func (m consoleModel) loadVersion() tea.Cmd {
	return func() tea.Msg {
		version, err := m.client.ServerVersion(m.ctx)
		if err != nil {
			version = "unknown"
		}
		return versionLoadedMsg{version: version}
	}
}

func (m consoleModel) resolve(conflictID int64, strategy models.ResolutionStrategy) tea.Cmd {
	return func() tea.Msg {
		result, err := m.client.ResolveConflict(m.ctx, conflictID, models.ResolveConflictRequest{
			Strategy:   strategy,
			ResolvedBy: m.resolvedBy,
		})
		return resolveDoneMsg{result: result, err: err}
	}
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case versionLoadedMsg:
		m.version = msg.version
		return m, nil

	case conflictsLoadedMsg:
		m.loading = false
		m.lastErr = msg.err
		if msg.err == nil {
			m.conflicts = msg.conflicts
			if m.idx >= len(m.conflicts) {
				m.idx = 0
			}
		}
		return m, nil

	case resolveDoneMsg:
		m.resolving = false
		m.lastErr = msg.err
		if msg.err == nil {
			m.status = fmt.Sprintf("resolved %s/%s, now at version %d",
				msg.result.Collection, msg.result.RecordID, msg.result.NewVersion)
			m.screen = screenList
			m.loading = true
			return m, m.loadConflicts()
		}
		m.screen = screenDetail
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m consoleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.resolving {
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitByUser = true
		return m, tea.Quit
	}

	switch m.screen {
	case screenList:
		return m.handleListKey(msg)
	case screenDetail:
		return m.handleDetailKey(msg)
	case screenStrategy:
		return m.handleStrategyKey(msg)
	}

	return m, nil
}

func (m consoleModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.idx > 0 {
			m.idx--
		}
	case "down", "j":
		if m.idx < len(m.conflicts)-1 {
			m.idx++
		}
	case "r":
		m.loading = true
		m.status = ""
		return m, m.loadConflicts()
	case "enter":
		if _, ok := m.current(); ok {
			m.screen = screenDetail
			m.status = ""
		}
	}

	return m, nil
}

func (m consoleModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenList
	case "enter":
		m.screen = screenStrategy
		m.strategyIdx = 0
	}

	return m, nil
}

func (m consoleModel) handleStrategyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenDetail
	case "up", "k":
		if m.strategyIdx > 0 {
			m.strategyIdx--
		}
	case "down", "j":
		if m.strategyIdx < len(strategies)-1 {
			m.strategyIdx++
		}
	case "enter":
		conflict, ok := m.current()
		if !ok {
			m.screen = screenList
			return m, nil
		}
		m.resolving = true
		return m, m.resolve(conflict.ID, strategies[m.strategyIdx])
	}

	return m, nil
}

func (m consoleModel) View() string {
	header := titleStyle.Render("Sync Conflict Console")
	if m.version != "" {
		header += helpStyle.Render("  engine " + m.version)
	}
	if m.loading || m.resolving {
		header += "  " + m.spinner.View()
	}

	var body string
	switch m.screen {
	case screenList:
		body = m.viewList()
	case screenDetail:
		body = m.viewDetail()
	case screenStrategy:
		body = m.viewStrategy()
	}

	out := header + "\n\n" + body

	if m.status != "" {
		out += "\n" + m.status + "\n"
	}
	if m.lastErr != nil {
		out += "\n" + errorStyle.Render("error: "+m.lastErr.Error()) + "\n"
	}

	return appStyle.Render(out)
}

func (m consoleModel) viewList() string {
	if m.loading {
		return "loading conflicts...\n"
	}
	if len(m.conflicts) == 0 {
		return "no pending conflicts\n\n" + helpStyle.Render("r refresh  q quit")
	}

	var b strings.Builder
	for i, conflict := range m.conflicts {
		cursor := "  "
		if i == m.idx {
			cursor = "> "
		}
		fmt.Fprintf(&b, "%s#%d  %s/%s  device %s  v%d vs v%d\n",
			cursor, conflict.ID, conflict.Collection, conflict.RecordID,
			conflict.DeviceID, conflict.SubmittedVersion, conflict.ServerVersion)
	}

	b.WriteString("\n" + helpStyle.Render("enter inspect  r refresh  q quit"))
	return b.String()
}

func (m consoleModel) viewDetail() string {
	conflict, ok := m.current()
	if !ok {
		return "conflict is gone\n"
	}

	client := snapshotStyle.Render("client (v" + fmt.Sprint(conflict.SubmittedVersion) + ")\n" + formatSnapshot(conflict.Payload))
	server := snapshotStyle.Render("server (v" + fmt.Sprint(conflict.ServerVersion) + ")\n" + formatSnapshot(conflict.ServerSnapshot))

	out := fmt.Sprintf("conflict #%d  %s/%s  device %s  %s\n\n",
		conflict.ID, conflict.Collection, conflict.RecordID,
		conflict.DeviceID, conflict.Operation)
	out += client + "\n" + server + "\n"
	out += "\n" + helpStyle.Render("enter choose strategy  esc back")

	return out
}

func (m consoleModel) viewStrategy() string {
	var b strings.Builder
	b.WriteString("resolution strategy:\n\n")
	for i, strategy := range strategies {
		cursor := "  "
		if i == m.strategyIdx {
			cursor = "> "
		}
		b.WriteString(cursor + string(strategy) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter apply  esc back"))

	return b.String()
}

func formatSnapshot(r models.Record) string {
	if r == nil {
		return "(deleted)"
	}

	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", r)
	}

	return string(raw)
}
