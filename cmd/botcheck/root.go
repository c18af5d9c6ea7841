package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"botcheck/internal/pipeline"
	"botcheck/pkg/auth"
	"botcheck/pkg/config"
	"botcheck/pkg/logger"
	"botcheck/pkg/ui"
	"botcheck/pkg/ui/tui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile      string
	logLevel        string
	noColor         bool
	notifications   bool
	quiet           bool
	verbose         bool
	dataDir         string
	profile         string
	credentialsFile string

	// useTUI is shared by check and run
	useTUI bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "botcheck",
	Short: "Track an account's followers and score them for bot-likeness",
	Long: `botcheck keeps a local database of every follower of a Twitter account and
enriches it with Botometer reputation scores.

Typical day:
  botcheck sync <account>     # add new followers
  botcheck check <account>    # score followers not checked within the TTL
  botcheck export <account>   # write <account>_followers.csv

The scoring service allows a limited number of checks per day, so large
accounts are checked over several days. 'botcheck schedule' automates that.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetNoColor(noColor)
		if quiet {
			ui.SetQuietMode(true)
		}
		if verbose && cmd.Name() != "help" {
			ui.PrintBanner()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./botcheck.yaml or ~/.config/botcheck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", true, "notify when a run finishes or fails")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print one line per checked follower")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding <account>_followers.db")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "stored credential profile to use")
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials-file", "", "credentials.json with twitter_app_auth and botometer_auth keys")

	rootCmd.SetVersionTemplate(`botcheck {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the flags the user actually set over the other sources
// and initializes the global logger.
func loadConfig(cmd *cobra.Command, extra map[string]interface{}) (*config.Config, error) {
	flags := make(map[string]interface{})
	fs := cmd.Flags()
	if fs.Changed("log-level") {
		flags["log-level"] = logLevel
	}
	if fs.Changed("notifications") {
		flags["notifications"] = notifications
	}
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if profile != "" {
		flags["profile"] = profile
	}
	if credentialsFile != "" {
		flags["credentials-file"] = credentialsFile
	}
	if quiet {
		flags["log-level"] = "error"
	}
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("version", version).Debug("botcheck starting")
	return cfg, nil
}

// credentialManager opens the keyring, encrypted file, credentials file and
// environment stores in that lookup order.
func credentialManager(cfg *config.Config) (*auth.Manager, error) {
	manager, err := auth.NewManager(cfg.Credentials.File)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	return manager, nil
}

// newPipeline wires credentials and progress output for the sync, check,
// export, status, run and schedule commands.
func newPipeline(cfg *config.Config, progress pipeline.Progress) (*pipeline.Pipeline, error) {
	manager, err := credentialManager(cfg)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Credentials: pipeline.ResolveCredentials(cfg.Credentials, manager),
		Logger:      logger.GetLogger(),
	}
	if progress != nil {
		opts.Progress = func(string) pipeline.Progress { return progress }
	}
	return pipeline.New(cfg, opts), nil
}

// progressFor picks the line display or, with --tui, the dashboard. The
// line display is returned either way for the completion summary.
func progressFor(account string) (*ui.ProgressDisplay, *tui.TUI, pipeline.Progress) {
	display := ui.NewProgressDisplay(account, verbose)
	if !useTUI {
		return display, nil, display
	}
	dash := tui.NewTUI(account)
	return display, dash, dash
}

// runProgress runs work directly, or under the dashboard when there is one
func runProgress(dash *tui.TUI, cancel context.CancelFunc, work func() error) error {
	if dash == nil {
		return work()
	}
	err := dash.Run(cancel, work)
	if dash.Interrupted() {
		ui.PrintWarning("Stopped from the dashboard; finished followers are saved")
	}
	return err
}

// signalContext is cancelled on Ctrl-C so long runs stop between records
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// notifyResult reports the end of a run through the configured channels
func notifyResult(cfg *config.Config, title, success string, err error) {
	n := ui.NewNotifier(cfg.Notifications)
	if err != nil {
		n.SendError(title+" failed", err.Error())
		return
	}
	n.SendSuccess(title+" complete", success)
}
