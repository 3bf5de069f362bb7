package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thorbis/fieldsync/internal/version"
)

type tickMsg time.Time

type refreshMsg struct {
	snap snapshot
	err  error
}

type syncDoneMsg struct {
	err error
}

// Model is the live sync dashboard.
type Model struct {
	src      SyncSource
	interval time.Duration
	version  string

	width  int
	height int

	snap    snapshot
	spin    spinner.Model
	syncing bool
	lastErr error
	update  string
}

// NewModel builds a dashboard refreshing every interval.
func NewModel(src SyncSource, interval time.Duration, version string) Model {
	if interval < 500*time.Millisecond {
		interval = 500 * time.Millisecond
	}
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = syncingStyle
	return Model{
		src:      src,
		interval: interval,
		version:  version,
		spin:     sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.refreshCmd(), m.tickCmd(), version.CheckAsync(m.version))
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snap, err := loadSnapshot(ctx, src)
		return refreshMsg{snap: snap, err: err}
	}
}

func (m Model) syncCmd() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return syncDoneMsg{err: src.TriggerSync(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			if m.syncing {
				return m, nil
			}
			m.syncing = true
			m.lastErr = nil
			return m, m.syncCmd()
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), m.tickCmd())

	case refreshMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.snap = msg.snap
		m.lastErr = nil
		return m, nil

	case syncDoneMsg:
		m.syncing = false
		m.lastErr = msg.err
		return m, m.refreshCmd()

	case version.UpdateAvailableMsg:
		m.update = msg.LatestVersion
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}
