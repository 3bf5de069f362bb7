package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/thorbis/fieldsync/internal/output"
	"github.com/thorbis/fieldsync/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Push queued records to the server now",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		m, cleanup, err := openManager(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		before := m.Status().PendingSync
		if before == 0 {
			output.Info("nothing to sync")
		}

		if err := m.TriggerSync(ctx); err != nil {
			switch {
			case errors.Is(err, syncer.ErrOffline):
				output.Error("server unreachable; records stay queued")
			case errors.Is(err, syncer.ErrSyncInFlight):
				output.Warning("a sync is already running")
			default:
				output.Error("sync failed: %v", err)
			}
			return err
		}

		st := m.Status()
		output.Success("synced %d records, %d still pending", before-st.PendingSync, st.PendingSync)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
