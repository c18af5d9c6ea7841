package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"botcheck/internal/pipeline"
	"botcheck/pkg/auth"
	"botcheck/pkg/logger"
	"botcheck/pkg/twitter"
	"botcheck/pkg/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
	Long: `Manage the Twitter app keys and the RapidAPI key botcheck uses.

Credentials are looked up in this order:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - credentials.json given by --credentials-file
  - Environment variables (BOTCHECK_CONSUMER_KEY, BOTCHECK_CONSUMER_SECRET, BOTCHECK_RAPIDAPI_KEY)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store credentials securely",
	Long: `Prompt for the Twitter API key and secret and the RapidAPI key, check that
the Twitter keys work and store everything under [profile] (default
"default").`,
	Example: `  # Interactive login
  botcheck auth login

  # Second set of keys under its own profile
  botcheck auth login research`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Long:  `List all stored credential profiles with masked keys.`,
	RunE:  runList,
}

// importCmd represents the auth import command
var importCmd = &cobra.Command{
	Use:   "import <credentials.json> [profile]",
	Short: "Store keys from a credentials.json file",
	Long: `Read a credentials.json of the form
  {"twitter_app_auth": {"consumer_key": "...", "consumer_secret": "..."},
   "botometer_auth": {"rapidapi_key": "..."}}
and store its keys under [profile].`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runImport,
}

// verifyCmd represents the auth verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the Twitter keys obtain a token",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(importCmd)
	authCmd.AddCommand(verifyCmd)
}

func profileArg(args []string, index int) string {
	if len(args) > index && args[index] != "" {
		return args[index]
	}
	if profile != "" {
		return profile
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	manager, err := credentialManager(cfg)
	if err != nil {
		return err
	}

	name := profileArg(args, 0)
	reader := bufio.NewReader(os.Stdin)

	if existing, _ := manager.Retrieve(name); existing != nil && existing.Validate() == nil {
		fmt.Printf("⚠️  Profile '%s' already has credentials. Replace them? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	auth.ShowQuickGuide()
	fmt.Println("\n🔐 Enter your keys (they will be hidden as you type):")

	creds := &auth.Credentials{Profile: name, LastModified: time.Now()}
	for _, field := range []struct {
		label string
		dst   *string
	}{
		{"Twitter API key", &creds.ConsumerKey},
		{"Twitter API key secret", &creds.ConsumerSecret},
		{"RapidAPI key", &creds.RapidAPIKey},
	} {
		for {
			fmt.Printf("%s: ", field.label)
			value, err := readSecret(reader)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", field.label, err)
			}
			if value == "help" {
				auth.ShowCredentialsGuide()
				continue
			}
			if value == "" {
				fmt.Println("❌ A value is required (type 'help' for instructions)")
				continue
			}
			*field.dst = value
			break
		}
	}

	fmt.Println("\n🔎 Checking the Twitter keys...")
	if err := verifyCredentials(cfg.Twitter.BaseURL, cfg.Twitter.TokenURL, creds); err != nil {
		return fmt.Errorf("twitter rejected the keys: %w", err)
	}

	if err := manager.Store(creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	ui.PrintSuccess(fmt.Sprintf("Credentials saved for profile %s", name))

	fmt.Println("\n📖 Next:")
	fmt.Println("   $ botcheck sync <account>")
	fmt.Println("   $ botcheck check <account>")
	if name != auth.DefaultProfile {
		fmt.Printf("   Add --profile %s to use these keys\n", name)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	manager, err := credentialManager(cfg)
	if err != nil {
		return err
	}

	name := profileArg(args, 0)
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove profile %s: %w", name, err)
	}
	ui.PrintSuccess("Credentials removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	manager, err := credentialManager(cfg)
	if err != nil {
		return err
	}

	profiles, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(profiles) == 0 {
		ui.PrintInfo("No stored credentials", "Use 'botcheck auth login' to add some")
		return nil
	}

	ui.PrintHighlight("Stored Profiles")
	fmt.Println()
	for i, creds := range profiles {
		masked := auth.Sanitize(creds)
		fmt.Printf("%d. Profile: %s\n", i+1, masked.Profile)
		fmt.Printf("   API key: %s\n", masked.ConsumerKey)
		fmt.Printf("   API key secret: %s\n", masked.ConsumerSecret)
		fmt.Printf("   RapidAPI key: %s\n", masked.RapidAPIKey)
		if !masked.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", masked.LastModified.Format(time.DateTime))
		}
		fmt.Println()
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	manager, err := credentialManager(cfg)
	if err != nil {
		return err
	}

	creds, err := auth.LoadFile(args[0])
	if err != nil {
		return err
	}
	creds.Profile = profileArg(args, 1)
	creds.LastModified = time.Now()
	if err := creds.Validate(); err != nil {
		return err
	}

	if err := manager.Store(creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	ui.PrintSuccess(fmt.Sprintf("Imported %s into profile %s", args[0], creds.Profile))
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	manager, err := credentialManager(cfg)
	if err != nil {
		return err
	}

	creds := pipeline.ResolveCredentials(cfg.Credentials, manager)
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := verifyCredentials(cfg.Twitter.BaseURL, cfg.Twitter.TokenURL, creds); err != nil {
		return err
	}
	ui.PrintSuccess("Twitter keys for profile " + creds.Profile + " are valid")
	return nil
}

func verifyCredentials(baseURL, tokenURL string, creds *auth.Credentials) error {
	client, err := twitter.NewClient(twitter.Options{
		BaseURL:        baseURL,
		TokenURL:       tokenURL,
		ConsumerKey:    creds.ConsumerKey,
		ConsumerSecret: creds.ConsumerSecret,
		Logger:         logger.GetLogger(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return client.VerifyCredentials(ctx)
}

// readSecret reads a value from stdin without echoing when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
