package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thorbis/fieldsync/internal/models"
	"github.com/thorbis/fieldsync/internal/output"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show connectivity and pending-sync state",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		asReport, _ := cmd.Flags().GetBool("report")

		ctx := context.Background()
		m, cleanup, err := openManager(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		st := m.Status()

		if asJSON {
			return output.JSON(st)
		}
		if asReport {
			fmt.Println(output.RenderReport(statusReport(st)))
			return nil
		}

		fmt.Println(output.FormatSyncStatusLine(st))
		if st.PendingSync > 0 {
			fmt.Print(output.SectionHeader("pending"))
			fmt.Print(output.FormatPendingByStore(st.PendingByStore))
		}
		return nil
	},
}

// statusReport builds the markdown body for --report.
func statusReport(st models.SyncStatus) string {
	var sb strings.Builder
	sb.WriteString("# Sync Status\n\n")

	if st.Online {
		sb.WriteString("- **Connectivity**: online\n")
	} else {
		sb.WriteString("- **Connectivity**: offline\n")
	}
	if st.LastSync != nil {
		sb.WriteString(fmt.Sprintf("- **Last sync**: %s (%s)\n",
			st.LastSync.Local().Format(time.RFC1123), output.FormatTimeAgo(*st.LastSync)))
	} else {
		sb.WriteString("- **Last sync**: never\n")
	}
	sb.WriteString(fmt.Sprintf("- **Pending records**: %d\n", st.PendingSync))

	if st.PendingSync > 0 {
		sb.WriteString("\n## Pending by store\n\n")
		sb.WriteString("| Store | Pending |\n|---|---|\n")
		for _, store := range models.Stores() {
			if n := st.PendingByStore[store]; n > 0 {
				sb.WriteString(fmt.Sprintf("| %s | %d |\n", store, n))
			}
		}
	}
	return sb.String()
}

func init() {
	statusCmd.Flags().Bool("json", false, "JSON output")
	statusCmd.Flags().Bool("report", false, "render a markdown report")
	rootCmd.AddCommand(statusCmd)
}
