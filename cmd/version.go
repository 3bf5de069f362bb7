package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thorbis/fieldsync/internal/output"
	"github.com/thorbis/fieldsync/internal/version"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the fieldsync version",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("fieldsync %s\n", versionStr)
		if !versionCheck {
			return nil
		}

		if version.IsDevelopmentVersion(versionStr) {
			output.Info("development build, skipping update check")
			return nil
		}
		result := version.Check(versionStr)
		switch {
		case result.Error != nil:
			output.Warning("update check failed: %v", result.Error)
		case result.HasUpdate:
			output.Info("update available: %s", result.LatestVersion)
			if install := version.UpdateCommand(result.LatestVersion); install != "" {
				fmt.Printf("  %s\n", install)
			}
		default:
			output.Success("up to date")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check for a newer release")
	rootCmd.AddCommand(versionCmd)
}
