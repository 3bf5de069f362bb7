package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/thorbis/fieldsync/internal/config"
	"github.com/thorbis/fieldsync/internal/db"
	"github.com/thorbis/fieldsync/internal/output"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize the local offline queue",
	Long:    `Creates the local .fieldsync directory and SQLite database.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		if _, err := os.Stat(filepath.Join(baseDir, ".fieldsync")); err == nil {
			output.Warning(".fieldsync/ already exists")
			return nil
		}

		database, err := db.Initialize(baseDir)
		if err != nil {
			output.Error("failed to initialize database: %v", err)
			return err
		}
		defer database.Close()

		fmt.Println("INITIALIZED .fieldsync/")

		dev, err := config.LoadDevice()
		if err != nil {
			output.Error("failed to create device identity: %v", err)
			return err
		}
		fmt.Printf("Device: %s\n", dev.DeviceID)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
