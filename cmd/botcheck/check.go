package main

import (
	"errors"
	"fmt"

	"botcheck/internal/pipeline"
	errs "botcheck/pkg/errors"
	"botcheck/pkg/twitter"
	"botcheck/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	ttlDays  int
	dailyCap int
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <account>",
	Short: "Score followers whose last check is older than the TTL",
	Long: `Send each follower that was never checked, or was checked at least
--ttl-days ago, to the reputation service and store the scores.

Followers the service cannot score (protected, suspended or without tweets)
are marked blocked and never sent again. At most --cap followers are checked
per run; the rest wait for the next run.`,
	Example: `  # Check with the configured TTL and cap
  botcheck check jack

  # Recheck anything older than 30 days, at most 100 accounts
  botcheck check jack --ttl-days 30 --cap 100`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().IntVar(&ttlDays, "ttl-days", 180, "days before a checked follower is due again (0-360)")
	checkCmd.Flags().IntVar(&dailyCap, "cap", 480, "maximum followers to check in this run (0 checks none)")
	checkCmd.Flags().BoolVar(&useTUI, "tui", false, "show a full-screen dashboard while checking")
}

// checkFlags collects the check options the user set explicitly
func checkFlags(cmd *cobra.Command) map[string]interface{} {
	extra := make(map[string]interface{})
	if cmd.Flags().Changed("ttl-days") {
		extra["ttl-days"] = ttlDays
	}
	if cmd.Flags().Changed("cap") {
		extra["daily-cap"] = dailyCap
	}
	return extra
}

func runCheck(cmd *cobra.Command, args []string) error {
	account := twitter.SanitizeScreenName(args[0])

	cfg, err := loadConfig(cmd, checkFlags(cmd))
	if err != nil {
		return err
	}

	display, dash, progress := progressFor(account)
	p, err := newPipeline(cfg, progress)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	ui.PrintInfo("Checking followers of", "@"+account)
	var report pipeline.CheckReport
	err = runProgress(dash, cancel, func() error {
		var err error
		report, err = p.Check(ctx, account)
		return err
	})
	if err == nil || report.Processed > 0 {
		display.Complete(report.Report)
	}
	if err != nil {
		if errors.Is(err, errs.ErrQuotaExhausted) {
			ui.PrintWarning("The scoring quota is used up for today; run check again tomorrow")
		}
		notifyResult(cfg, "Check", "", err)
		return err
	}

	if report.ExportPath != "" {
		ui.PrintInfo("Exported", fmt.Sprintf("%s (%d rows)", report.ExportPath, report.Rows))
	}
	notifyResult(cfg, "Check", fmt.Sprintf("@%s: %d checked, %d still due", account, report.Processed, report.Remaining), nil)
	return nil
}
