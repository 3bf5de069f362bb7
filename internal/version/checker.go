package version

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// UpdateAvailableMsg is delivered to a Bubble Tea program when a newer
// release exists.
type UpdateAvailableMsg struct {
	CurrentVersion string
	LatestVersion  string
	UpdateCommand  string
}

// CheckAsync returns a command that checks for updates in the
// background, consulting the on-disk cache before the network. Network
// errors are swallowed; the check is best effort.
func CheckAsync(currentVersion string) tea.Cmd {
	return func() tea.Msg {
		if cached, err := LoadCache(); err == nil && IsCacheValid(cached, currentVersion) {
			if cached.HasUpdate {
				return UpdateAvailableMsg{
					CurrentVersion: currentVersion,
					LatestVersion:  cached.LatestVersion,
					UpdateCommand:  UpdateCommand(cached.LatestVersion),
				}
			}
			return nil
		}

		result := Check(currentVersion)
		if result.Error != nil {
			return nil
		}

		_ = SaveCache(&CacheEntry{
			LatestVersion:  result.LatestVersion,
			CurrentVersion: currentVersion,
			CheckedAt:      time.Now(),
			HasUpdate:      result.HasUpdate,
		})

		if result.HasUpdate {
			return UpdateAvailableMsg{
				CurrentVersion: currentVersion,
				LatestVersion:  result.LatestVersion,
				UpdateCommand:  UpdateCommand(result.LatestVersion),
			}
		}
		return nil
	}
}
