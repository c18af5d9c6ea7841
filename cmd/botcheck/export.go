package main

import (
	"context"
	"fmt"
	"time"

	"botcheck/internal/store"
	"botcheck/pkg/twitter"
	"botcheck/pkg/ui"

	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <account>",
	Short: "Write the account's followers to <account>_followers.csv",
	Long: `Write every stored follower of <account>, with profile snapshot and latest
scores, to <account>_followers.csv in the export directory. The file is
replaced atomically.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <account>",
	Short: "Show what is stored for an account",
	Long: `Show the number of stored followers, how many were scored or blocked,
how many are due for a check and the state of the last sync. No remote
service is contacted.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	account := twitter.SanitizeScreenName(args[0])

	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, nil)
	if err != nil {
		return err
	}

	path, rows, err := p.Export(context.Background(), account)
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Exported %d followers to %s", rows, path))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	account := twitter.SanitizeScreenName(args[0])

	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, nil)
	if err != nil {
		return err
	}

	status, err := p.Status(context.Background(), account)
	if err != nil {
		return err
	}

	ui.PrintHighlight("@" + status.Account)
	ui.PrintInfo("Database", status.Database)
	ui.PrintInfo("Followers", fmt.Sprintf("%d", status.Followers))
	ui.PrintInfo("Scored", fmt.Sprintf("%d", status.ByStatus[store.StatusSuccess]))
	ui.PrintInfo("Blocked", fmt.Sprintf("%d", status.ByStatus[store.StatusBlocked]))
	ui.PrintInfo("Never checked", fmt.Sprintf("%d", status.ByStatus[store.StatusUnset]))
	ui.PrintInfo(fmt.Sprintf("Due (ttl %d days)", cfg.Check.TTLDays), fmt.Sprintf("%d", status.Due))

	if s := status.Sync; s != nil {
		state := "complete"
		if s.InProgress {
			state = fmt.Sprintf("interrupted after %d pages, resumes at cursor %s", s.Pages, s.Cursor)
		}
		ui.PrintInfo("Last sync", state)
		if s.LastSuccessAt != nil {
			ui.PrintInfo("Last successful sync", s.LastSuccessAt.Local().Format(time.DateTime))
		}
	} else {
		ui.PrintInfo("Last sync", "never")
	}
	return nil
}
