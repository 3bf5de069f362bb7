package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thorbis/fieldsync/internal/db"
	"github.com/thorbis/fieldsync/internal/models"
	"github.com/thorbis/fieldsync/internal/output"
)

// storeValue is a pflag.Value constrained to known store names.
type storeValue struct {
	store models.Store
	set   bool
}

var _ pflag.Value = (*storeValue)(nil)

func (v *storeValue) String() string {
	if !v.set {
		return ""
	}
	return string(v.store)
}

func (v *storeValue) Set(s string) error {
	store, err := models.ParseStore(s)
	if err != nil {
		return err
	}
	v.store = store
	v.set = true
	return nil
}

func (v *storeValue) Type() string { return "store" }

var getStoreFlag storeValue

var getCmd = &cobra.Command{
	Use:     "get",
	Short:   "List locally stored records",
	GroupID: "core",
	Example: `  fieldsync get --store payments --pending
  fieldsync get --store photos --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !getStoreFlag.set {
			output.Error("--store is required (one of: %v)", models.Stores())
			return fmt.Errorf("missing store")
		}
		pendingOnly, _ := cmd.Flags().GetBool("pending")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := context.Background()
		m, cleanup, err := openManager(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		filters := db.RecordFilters{Limit: limit}
		if pendingOnly {
			unsynced := false
			filters.Synced = &unsynced
		}

		records, err := m.GetOfflineData(ctx, getStoreFlag.store, filters)
		if err != nil {
			output.Error("load records: %v", err)
			return err
		}

		if asJSON {
			return output.JSON(records)
		}
		if len(records) == 0 {
			output.Info("no records in %s", getStoreFlag.store)
			return nil
		}
		for i := range records {
			fmt.Println(output.FormatRecordShort(&records[i]))
		}
		return nil
	},
}

func init() {
	getCmd.Flags().Var(&getStoreFlag, "store", "store to read (payments, customers, inventory, work_orders, documents, photos, analytics)")
	getCmd.Flags().Bool("pending", false, "only records not yet synced")
	getCmd.Flags().Int("limit", 0, "max records to return (0 = all)")
	getCmd.Flags().Bool("json", false, "JSON output")
	rootCmd.AddCommand(getCmd)
}
