package main

import (
	"fmt"

	"botcheck/pkg/twitter"
	"botcheck/pkg/ui"

	"github.com/spf13/cobra"
)

var restartSync bool

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync <account>",
	Short: "Add the account's new followers to its database",
	Long: `List every follower of <account> and store the ones not seen before.

Followers already in the database are left untouched, so running sync again
is always safe. An interrupted sync continues after the last stored page
unless --restart is given.`,
	Example: `  # Store new followers of @jack
  botcheck sync jack

  # Start the listing over from the first page
  botcheck sync jack --restart`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&restartSync, "restart", false, "ignore an interrupted listing and start from the first page")
}

func runSync(cmd *cobra.Command, args []string) error {
	account := twitter.SanitizeScreenName(args[0])

	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	display := ui.NewProgressDisplay(account, verbose)
	p, err := newPipeline(cfg, display)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ui.PrintInfo("Syncing followers of", "@"+account)
	report, err := p.Sync(ctx, account, restartSync)
	if err != nil {
		notifyResult(cfg, "Sync", "", err)
		return err
	}

	fmt.Fprintln(ui.Output)
	summary := fmt.Sprintf("@%s: %d new followers (%d seen over %d pages)", account, report.Added, report.Seen, report.Pages)
	ui.PrintSuccess(summary)
	if report.ExportPath != "" {
		ui.PrintInfo("Exported", fmt.Sprintf("%s (%d rows)", report.ExportPath, report.Rows))
	}
	notifyResult(cfg, "Sync", summary, nil)
	return nil
}
