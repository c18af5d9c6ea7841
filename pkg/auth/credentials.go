package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	errs "botcheck/pkg/errors"
)

// DefaultProfile names credentials stored without an explicit profile
const DefaultProfile = "default"

// Credentials holds the listing API key pair and the scoring API key
type Credentials struct {
	Profile        string    `json:"profile"`
	ConsumerKey    string    `json:"consumer_key"`
	ConsumerSecret string    `json:"consumer_secret"`
	RapidAPIKey    string    `json:"rapidapi_key"`
	LastModified   time.Time `json:"last_modified"`
}

// Validate reports every missing field as a configuration error
func (c *Credentials) Validate() error {
	if c == nil {
		return errs.Config(errs.ErrMissingCredentials, "no credentials configured")
	}

	var missing []string
	if c.ConsumerKey == "" {
		missing = append(missing, "consumer_key")
	}
	if c.ConsumerSecret == "" {
		missing = append(missing, "consumer_secret")
	}
	if c.RapidAPIKey == "" {
		missing = append(missing, "rapidapi_key")
	}
	if len(missing) > 0 {
		return errs.Config(errs.ErrMissingCredentials, "missing "+strings.Join(missing, ", "))
	}
	return nil
}

// Merge fills empty fields from other
func (c *Credentials) Merge(other *Credentials) {
	if other == nil {
		return
	}
	if c.ConsumerKey == "" {
		c.ConsumerKey = other.ConsumerKey
	}
	if c.ConsumerSecret == "" {
		c.ConsumerSecret = other.ConsumerSecret
	}
	if c.RapidAPIKey == "" {
		c.RapidAPIKey = other.RapidAPIKey
	}
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials under their profile
	Store(creds *Credentials) error

	// Retrieve gets credentials for a profile
	Retrieve(profile string) (*Credentials, error)

	// List returns all stored profiles
	List() ([]*Credentials, error)

	// Delete removes credentials for a profile
	Delete(profile string) error

	// Exists checks if credentials exist for a profile
	Exists(profile string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager backed by the system keyring when
// available, then the encrypted file, then credentialsFile if given, then the
// environment.
func NewManager(credentialsFile string) (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	if credentialsFile != "" {
		stores = append(stores, NewFileStore(credentialsFile))
	}

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over explicit stores, in lookup order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(creds *Credentials) error {
	if creds == nil {
		return ErrInvalidCredentials
	}
	if creds.Profile == "" {
		creds.Profile = DefaultProfile
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(creds); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(profile string) (*Credentials, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	for _, store := range m.stores {
		if creds, err := store.Retrieve(profile); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("%w for profile: %s", ErrCredentialsNotFound, profile)
}

// List returns all stored profiles from all stores
func (m *Manager) List() ([]*Credentials, error) {
	byProfile := make(map[string]*Credentials)

	for _, store := range m.stores {
		list, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range list {
			// Use the most recently modified version
			if existing, ok := byProfile[creds.Profile]; !ok || creds.LastModified.After(existing.LastModified) {
				byProfile[creds.Profile] = creds
			}
		}
	}

	var result []*Credentials
	for _, creds := range byProfile {
		result = append(result, creds)
	}

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(profile string) error {
	if profile == "" {
		profile = DefaultProfile
	}

	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for profile: %s", ErrCredentialsNotFound, profile)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "botcheck")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "botcheck")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "botcheck")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "botcheck")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize returns a copy with secrets masked
func Sanitize(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}

	return &Credentials{
		Profile:        creds.Profile,
		ConsumerKey:    maskString(creds.ConsumerKey),
		ConsumerSecret: maskString(creds.ConsumerSecret),
		RapidAPIKey:    maskString(creds.RapidAPIKey),
		LastModified:   creds.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
