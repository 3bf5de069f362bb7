// Package cmd implements the fieldsync CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	versionStr string
	baseDir    string
)

// SetVersion sets the version string shown by `fieldsync version`.
func SetVersion(v string) {
	versionStr = v
}

var rootCmd = &cobra.Command{
	Use:   "fieldsync",
	Short: "Offline-first field operations sync client",
	Long: `fieldsync - Offline-first data capture and sync for field operations.

Payments, work orders, photos, and other field records are processed
immediately when the server is reachable and queued locally when it is
not. Queued records are pushed automatically on reconnect.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initBaseDir)

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

func initBaseDir() {
	var err error
	baseDir, err = os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		os.Exit(1)
	}
}

// getBaseDir returns the base directory holding the local queue.
func getBaseDir() string {
	return baseDir
}
