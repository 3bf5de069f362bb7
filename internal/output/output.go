// Package output provides styled terminal output helpers (success,
// error, record and sync-status formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/thorbis/fieldsync/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	storeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeOffline       = "offline"
	ErrCodeSyncInFlight  = "sync_in_flight"
	ErrCodeDatabaseError = "database_error"
	ErrCodeServerError   = "server_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	fmt.Printf(`{"error":{"code":"%s","message":"%s"}}`, code, message)
	fmt.Println()
}

// FormatStore formats a store name with color
func FormatStore(s models.Store) string {
	return storeStyle.Render(fmt.Sprintf("[%s]", s))
}

// ConnectivityBadge returns a colored online/offline indicator
// e.g., "● online", "○ offline"
func ConnectivityBadge(online bool) string {
	if online {
		return onlineStyle.Render("● online")
	}
	return offlineStyle.Render("○ offline")
}

// FormatRecordShort formats a record on one line:
// "rec-a1b2c3d4e5f6  [payments]  2m ago  pending"
func FormatRecordShort(rec *models.Record) string {
	parts := []string{
		titleStyle.Render(rec.ID),
		FormatStore(rec.Store),
		subtleStyle.Render(FormatTimeAgo(rec.CreatedAt)),
	}
	if rec.Synced {
		parts = append(parts, successStyle.Render("synced"))
	} else {
		parts = append(parts, pendingStyle.Render("pending"))
	}
	return strings.Join(parts, "  ")
}

// FormatSyncStatusLine renders the one-line status summary used by
// `fieldsync status`.
func FormatSyncStatusLine(st models.SyncStatus) string {
	parts := []string{ConnectivityBadge(st.Online)}
	if st.Syncing {
		parts = append(parts, warningStyle.Render("syncing"))
	}
	if st.PendingSync > 0 {
		parts = append(parts, pendingStyle.Render(fmt.Sprintf("%d pending", st.PendingSync)))
	} else {
		parts = append(parts, subtleStyle.Render("nothing pending"))
	}
	if st.LastSync != nil {
		parts = append(parts, subtleStyle.Render("last sync "+FormatTimeAgo(*st.LastSync)))
	} else {
		parts = append(parts, subtleStyle.Render("never synced"))
	}
	return strings.Join(parts, "  ")
}

// FormatPendingByStore renders per-store pending lines, skipping
// stores with nothing queued.
func FormatPendingByStore(counts map[models.Store]int) string {
	var sb strings.Builder
	for _, store := range models.Stores() {
		n := counts[store]
		if n == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-12s %s\n", store, pendingStyle.Render(fmt.Sprintf("%d", n))))
	}
	if sb.Len() == 0 {
		return subtleStyle.Render("  (all stores clear)") + "\n"
	}
	return sb.String()
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nPENDING:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentString indents each line in a string by the specified number of spaces
func IndentString(s string, spaces int) string {
	if s == "" {
		return ""
	}
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
