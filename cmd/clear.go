package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thorbis/fieldsync/internal/models"
	"github.com/thorbis/fieldsync/internal/output"
)

var clearCmd = &cobra.Command{
	Use:     "clear <store>",
	Short:   "Drop all locally stored records in a store",
	GroupID: "core",
	Long: `Removes every record in the given store and resets its pending
counter. Records that have not been synced yet are lost; pass --force
to clear a store that still has pending records.`,
	Example: `  fieldsync clear analytics
  fieldsync clear photos --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := models.ParseStore(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		ctx := context.Background()
		m, cleanup, err := openManager(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		if pending := m.Status().PendingByStore[store]; pending > 0 && !force {
			output.Error("%s has %d unsynced records; sync first or pass --force", store, pending)
			return fmt.Errorf("refusing to drop unsynced records")
		}

		if err := m.ClearOfflineData(ctx, store); err != nil {
			output.Error("clear %s: %v", store, err)
			return err
		}
		output.Success("cleared %s", store)
		return nil
	},
}

func init() {
	clearCmd.Flags().Bool("force", false, "clear even when unsynced records remain")
	rootCmd.AddCommand(clearCmd)
}
