package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thorbis/fieldsync/internal/models"
	"github.com/thorbis/fieldsync/internal/output"
)

var storeCmd = &cobra.Command{
	Use:     "store <store> <json-payload>",
	Short:   "Queue a record in a local store",
	GroupID: "core",
	Example: `  fieldsync store work_orders '{"site":"plant-7","task":"replace filter"}'
  fieldsync store photos '{"path":"IMG_0042.jpg","work_order":"wo-19"}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := models.ParseStore(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		payload := json.RawMessage(args[1])
		if !json.Valid(payload) {
			output.Error("payload is not valid JSON")
			return fmt.Errorf("invalid payload")
		}

		ctx := context.Background()
		m, cleanup, err := openManager(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer cleanup()

		rec, err := m.StoreOfflineData(ctx, store, payload)
		if err != nil {
			output.Error("store record: %v", err)
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return output.JSON(rec)
		}
		output.Success("queued %s in %s", rec.ID, store)
		return nil
	},
}

func init() {
	storeCmd.Flags().Bool("json", false, "JSON output")
	rootCmd.AddCommand(storeCmd)
}
