package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/thorbis/fieldsync/pkg/monitor"
)

var monitorInterval time.Duration

var monitorCmd = &cobra.Command{
	Use:     "monitor",
	Short:   "Live dashboard of connectivity and the pending queue",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		if monitorInterval < 500*time.Millisecond {
			return fmt.Errorf("refresh interval must be at least 500ms")
		}

		m, cleanup, err := openManager(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		p := tea.NewProgram(
			monitor.NewModel(m, monitorInterval, versionStr),
			tea.WithAltScreen(),
		)
		_, err = p.Run()
		return err
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "refresh interval")
	rootCmd.AddCommand(monitorCmd)
}
