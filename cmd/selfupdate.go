package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"launchkit/internal/updater"
)

// newSelfUpdateCmd creates the Cobra command for the self-update functionality.
// The same update is available as the self-update command of the interactive console.
func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update launchkit to the latest version",
		Long: `Checks for the latest release of launchkit on GitHub and
updates the current binary if a newer version is found.`,
		RunE: runSelfUpdate,
	}
}

// runSelfUpdate checks the current version against the latest GitHub release
// and updates if necessary.
func runSelfUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out := rootCmd.OutOrStdout()
	if cmd != nil {
		if cmd.Context() != nil {
			ctx = cmd.Context()
		}
		out = cmd.OutOrStdout()
	}

	_, err := updater.New().Run(ctx, GetVersion(), out)
	return err
}
