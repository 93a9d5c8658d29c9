package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/paylinehq/adminctl/internal/dashboard"
)

// DefaultWatchInterval is how often the live view re-fetches all sources.
const DefaultWatchInterval = 30 * time.Second

type slotMsg dashboard.Kind

type tickMsg time.Time

type refreshDoneMsg struct{}

// WatchModel is the bubbletea model behind `dashboard --watch`. It is driven
// solely by orchestrator snapshots: slot notifications repaint, a ticker
// re-fetches, and all fetching happens off the render loop.
type WatchModel struct {
	orch     *dashboard.Orchestrator
	styles   Styles
	interval time.Duration

	updates <-chan dashboard.Kind
	cancel  func()

	snap        dashboard.Snapshot
	refreshing  bool
	lastRefresh time.Time
	quitting    bool
}

// NewWatchModel creates the live dashboard view.
func NewWatchModel(orch *dashboard.Orchestrator, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	updates, cancel := orch.Subscribe()
	return WatchModel{
		orch:     orch,
		styles:   DefaultStyles(),
		interval: interval,
		updates:  updates,
		cancel:   cancel,
		snap:     orch.Snapshot(),
	}
}

// Init starts the update listener, the refresh ticker and the first fetch.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.waitForSlot(), m.tick(), m.refreshAll())
}

func (m WatchModel) waitForSlot() tea.Cmd {
	return func() tea.Msg {
		kind, ok := <-m.updates
		if !ok {
			return nil
		}
		return slotMsg(kind)
	}
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m WatchModel) refreshAll() tea.Cmd {
	return func() tea.Msg {
		m.orch.Initialize(context.Background())
		return refreshDoneMsg{}
	}
}

// Update handles key presses, slot notifications and the refresh ticker.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		case "r":
			if !m.refreshing {
				m.refreshing = true
				return m, m.refreshAll()
			}
		}

	case slotMsg:
		m.snap = m.orch.Snapshot()
		return m, m.waitForSlot()

	case tickMsg:
		cmds := []tea.Cmd{m.tick()}
		if !m.refreshing {
			m.refreshing = true
			cmds = append(cmds, m.refreshAll())
		}
		return m, tea.Batch(cmds...)

	case refreshDoneMsg:
		m.refreshing = false
		m.lastRefresh = time.Now()
		m.snap = m.orch.Snapshot()
	}

	return m, nil
}

// View renders the current snapshot.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	out := RenderDashboard(m.snap, m.orch.CombinedStatistics(), m.styles)

	status := "r refresh · q quit"
	if m.refreshing {
		status = "refreshing… · " + status
	} else if !m.lastRefresh.IsZero() {
		status = "updated " + m.lastRefresh.Format("15:04:05") + " · " + status
	}
	return out + "\n" + m.styles.Muted.Render(status) + "\n"
}
