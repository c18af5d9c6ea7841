package main

import (
	"fmt"
	"os"

	"botcheck/internal/pipeline"
	"botcheck/pkg/auth"
	"botcheck/pkg/config"
	"botcheck/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage botcheck configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (BOTCHECK_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'botcheck.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.
Credentials are masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# botcheck configuration file
#
# Every option can also be set with an environment variable prefixed with
# BOTCHECK_, for example BOTCHECK_TTL_DAYS or BOTCHECK_DATA_DIR.

# Follower listing (Twitter v1.1, app-only auth)
twitter:
  base_url: "https://api.twitter.com"
  token_url: "https://api.twitter.com/oauth2/token"
  # Followers per page, at most 200
  page_size: 200
  timeout: 30s
  # Proactive pacing: at most rate_limit_calls listing calls per window
  rate_limit_calls: 15
  rate_limit_window: 15m
  # Wait after a 429 that carries no reset header
  rate_limit_wait: 60s

# Reputation scoring (Botometer Pro on RapidAPI)
botometer:
  base_url: "https://botometer-pro.p.rapidapi.com"
  host: "botometer-pro.p.rapidapi.com"
  timeout: 60s

# Keys. Prefer 'botcheck auth login' over putting them here.
credentials:
  consumer_key: ""
  consumer_secret: ""
  rapidapi_key: ""
  # credentials.json with twitter_app_auth / botometer_auth sections
  file: ""
  profile: "default"

check:
  # Days before a checked follower is due again (0-360)
  ttl_days: 180
  # Followers checked per run
  daily_cap: 480
  # Pause between scoring calls
  call_interval: 1s
  # Wait before the single retry when the scoring quota looks exhausted
  quota_cooldown: 15m
  # Warn when more followers than this are due
  backlog_warning: 500

storage:
  # Holds <account>_followers.db
  data_dir: "data"
  # Overrides the derived database path
  database: ""

export:
  # Rewrite <account>_followers.csv after every sync and check
  auto: true
  # Defaults to storage.data_dir
  directory: ""

schedule:
  # Cron spec used by 'botcheck schedule'
  spec: "@daily"

notifications:
  enabled: true
  on_complete: true
  on_error: true
  # terminal, desktop or none
  notification_type: "terminal"

logging:
  # debug, info, warn, error
  level: "info"
  # Optional log file, appended to
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "botcheck.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s (remove it first to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your keys with 'botcheck auth login'")
	fmt.Println("2. Run 'botcheck config validate' to check the configuration")
	fmt.Println("3. Start with 'botcheck sync <account>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	display := *cfg
	masked := auth.Sanitize(&auth.Credentials{
		ConsumerKey:    cfg.Credentials.ConsumerKey,
		ConsumerSecret: cfg.Credentials.ConsumerSecret,
		RapidAPIKey:    cfg.Credentials.RapidAPIKey,
	})
	display.Credentials.ConsumerKey = masked.ConsumerKey
	display.Credentials.ConsumerSecret = masked.ConsumerSecret
	display.Credentials.RapidAPIKey = masked.RapidAPIKey

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (BOTCHECK_*)")
	fmt.Println("3. .env files")
	if path := configPath(); path != "" {
		fmt.Printf("4. Configuration file: %s\n", path)
	} else {
		fmt.Println("4. Configuration file: (none found)")
	}
	fmt.Println("5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath()
	if path == "" {
		ui.PrintWarning("No configuration file found, validating defaults and environment")
	} else {
		ui.PrintInfo("Validating configuration", path)
	}

	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings []string
	if manager, err := credentialManager(cfg); err == nil {
		creds := pipeline.ResolveCredentials(cfg.Credentials, manager)
		if err := creds.Validate(); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	if cfg.Check.DailyCap > cfg.Check.BacklogWarning && cfg.Check.BacklogWarning > 0 {
		warnings = append(warnings, fmt.Sprintf("daily_cap %d exceeds backlog_warning %d; the scoring quota may run out mid-run",
			cfg.Check.DailyCap, cfg.Check.BacklogWarning))
	}
	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Data directory: %s\n", cfg.Storage.DataDir)
	fmt.Printf("  TTL: %d days\n", cfg.Check.TTLDays)
	fmt.Printf("  Daily cap: %d checks\n", cfg.Check.DailyCap)
	fmt.Printf("  Schedule: %s\n", cfg.Schedule.Spec)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.FindConfigFile()
}
