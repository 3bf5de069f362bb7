package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/thorbis/fieldsync/internal/models"
	"github.com/thorbis/fieldsync/internal/output"
)

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.pendingView())
	b.WriteString("\n")
	b.WriteString(m.recentView())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) headerView() string {
	title := titleStyle.Render("fieldsync monitor")
	if m.version != "" {
		title += " " + subtleStyle.Render(m.version)
	}

	var conn string
	switch {
	case m.syncing || m.snap.status.Syncing:
		conn = syncingStyle.Render(m.spin.View() + " syncing")
	case m.snap.status.Online:
		conn = onlineStyle.Render("● online")
	default:
		conn = offlineStyle.Render("○ offline")
	}

	last := "never"
	if m.snap.status.LastSync != nil {
		last = output.FormatTimeAgo(*m.snap.status.LastSync)
	}
	line := fmt.Sprintf("%s  %s  %s", title, conn, timestampStyle.Render("last sync "+last))
	return ansi.Truncate(line, m.width, "…")
}

func (m Model) pendingView() string {
	var rows []string
	for _, store := range models.Stores() {
		n := m.snap.status.PendingByStore[store]
		label := storeStyle(store).Render(string(store))
		count := clearStyle.Render("0")
		if n > 0 {
			count = pendingStyle.Render(fmt.Sprintf("%d", n))
		}
		rows = append(rows, fmt.Sprintf("%-12s %s", label, count))
	}
	body := strings.Join(rows, "\n")
	title := panelTitleStyle.Render(fmt.Sprintf("pending (%d)", m.snap.status.PendingSync))
	return m.panel(title, body)
}

func (m Model) recentView() string {
	if len(m.snap.recent) == 0 {
		return m.panel(panelTitleStyle.Render("queue"), subtleStyle.Render("nothing waiting to sync"))
	}

	var rows []string
	for _, rec := range m.snap.recent {
		row := fmt.Sprintf("%s %s %s",
			storeStyle(rec.Store).Render(fmt.Sprintf("%-11s", rec.Store)),
			rec.ID,
			timestampStyle.Render(rec.CreatedAt.Format(time.Kitchen)),
		)
		rows = append(rows, ansi.Truncate(row, m.width-6, "…"))
	}
	return m.panel(panelTitleStyle.Render("queue"), strings.Join(rows, "\n"))
}

func (m Model) footerView() string {
	help := helpStyle.Render("s sync · q quit")
	if m.update != "" {
		help += subtleStyle.Render("  · update available: " + m.update)
	}
	if m.lastErr != nil {
		return errStyle.Render("error: "+m.lastErr.Error()) + "\n" + help
	}
	return help
}

func (m Model) panel(title, body string) string {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}
