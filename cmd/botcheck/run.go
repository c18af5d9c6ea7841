package main

import (
	"fmt"
	"time"

	"botcheck/internal/pipeline"
	"botcheck/internal/schedule"
	"botcheck/pkg/config"
	"botcheck/pkg/logger"
	"botcheck/pkg/twitter"
	"botcheck/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	scheduleSpec string
	runFirst     bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <account>",
	Short: "Sync, check and export in one pass",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule <account>...",
	Short: "Run sync, check and export for accounts on a schedule",
	Long: `Stay in the foreground and run a full pass for each account on a cron
schedule, by default once a day so each run gets a fresh scoring quota.
Passes for the same account never overlap. Stop with Ctrl-C.`,
	Example: `  # Daily passes for two accounts
  botcheck schedule jack biz

  # Every day at 06:30, starting with an immediate pass
  botcheck schedule jack --spec "30 6 * * *" --now`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "show a full-screen dashboard while the pass runs")
	scheduleCmd.Flags().StringVar(&scheduleSpec, "spec", "", "cron spec (default from config, @daily)")
	scheduleCmd.Flags().BoolVar(&runFirst, "now", false, "run every account once before waiting for the schedule")
}

func runRun(cmd *cobra.Command, args []string) error {
	account := twitter.SanitizeScreenName(args[0])

	cfg, err := loadConfig(cmd, nil)
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

	var report pipeline.RunReport
	err = runProgress(dash, cancel, func() error {
		var err error
		report, err = p.Run(ctx, account)
		return err
	})
	if err == nil || report.Check.Processed > 0 {
		display.Complete(report.Check)
	}
	if err != nil {
		notifyResult(cfg, "Run", "", err)
		return err
	}

	summary := runSummary(account, report)
	ui.PrintSuccess(summary)
	ui.PrintInfo("Exported", fmt.Sprintf("%s (%d rows)", report.ExportPath, report.Rows))
	notifyResult(cfg, "Run", summary, nil)
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	extra := make(map[string]interface{})
	if scheduleSpec != "" {
		extra["schedule"] = scheduleSpec
	}
	cfg, err := loadConfig(cmd, extra)
	if err != nil {
		return err
	}

	// scheduled passes have no terminal to draw progress on
	p, err := newPipeline(cfg, nil)
	if err != nil {
		return err
	}

	m := schedule.NewManager(p, logger.GetLogger(), schedule.WithResultFunc(scheduledResult(cfg)))
	var accounts []string
	for _, arg := range args {
		account := twitter.SanitizeScreenName(arg)
		if err := m.Register(cfg.Schedule.Spec, account); err != nil {
			return err
		}
		accounts = append(accounts, account)
	}

	ctx, cancel := signalContext()
	defer cancel()

	m.Start()
	for account, next := range m.Accounts() {
		ui.PrintInfo("@"+account, "next run "+next.Local().Format(time.DateTime))
	}
	if runFirst {
		for _, account := range accounts {
			if err := m.RunNow(account); err != nil {
				return err
			}
		}
	}

	<-ctx.Done()
	ui.PrintWarning("Stopping scheduler, waiting for running passes")
	m.Stop()
	return nil
}

func scheduledResult(cfg *config.Config) schedule.ResultFunc {
	return func(account string, report pipeline.RunReport, err error) {
		notifyResult(cfg, "Scheduled run @"+account, runSummary(account, report), err)
	}
}

func runSummary(account string, report pipeline.RunReport) string {
	return fmt.Sprintf("@%s: %d new followers, %d checked (%d blocked), %d still due",
		account, report.Sync.Added, report.Check.Processed, report.Check.Skipped, report.Check.Remaining)
}
