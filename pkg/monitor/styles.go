package monitor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/thorbis/fieldsync/internal/models"
)

var (
	// Base colors
	primaryColor = lipgloss.Color("212")
	mutedColor   = lipgloss.Color("241")
	successColor = lipgloss.Color("42")
	warningColor = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	// Text styles
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	subtleStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	// Connectivity badges
	onlineStyle  = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	syncingStyle = lipgloss.NewStyle().Foreground(warningColor)
	errStyle     = lipgloss.NewStyle().Foreground(errorColor)

	pendingStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	clearStyle   = lipgloss.NewStyle().Foreground(mutedColor)

	// Store badge colors
	storeStyles = map[models.Store]lipgloss.Style{
		models.StorePayments:   lipgloss.NewStyle().Foreground(successColor),
		models.StoreCustomers:  lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.StoreInventory:  lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		models.StoreWorkOrders: lipgloss.NewStyle().Foreground(warningColor),
		models.StoreDocuments:  lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		models.StorePhotos:     lipgloss.NewStyle().Foreground(primaryColor),
		models.StoreAnalytics:  lipgloss.NewStyle().Foreground(mutedColor),
	}
)

func storeStyle(s models.Store) lipgloss.Style {
	if st, ok := storeStyles[s]; ok {
		return st
	}
	return subtleStyle
}
