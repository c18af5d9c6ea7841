package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "botcheck/pkg/errors"

	"github.com/goccy/go-json"
)

func testCredentials(profile string) *Credentials {
	return &Credentials{
		Profile:        profile,
		ConsumerKey:    "consumer_key_123456",
		ConsumerSecret: "consumer_secret_abcdef",
		RapidAPIKey:    "rapid_key_7890xyz",
	}
}

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	if err := manager.Store(testCredentials("work")); err != nil {
		t.Fatalf("Failed to store credentials: %v", err)
	}

	retrieved, err := manager.Retrieve("work")
	if err != nil {
		t.Fatalf("Failed to retrieve credentials: %v", err)
	}
	if retrieved.ConsumerKey != "consumer_key_123456" {
		t.Errorf("ConsumerKey mismatch: got %s", retrieved.ConsumerKey)
	}
	if retrieved.LastModified.IsZero() {
		t.Error("Expected LastModified to be set on store")
	}

	list, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected 1 profile, got %d", len(list))
	}

	if err := manager.Delete("work"); err != nil {
		t.Errorf("Failed to delete profile: %v", err)
	}
	if _, err := manager.Retrieve("work"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound after delete, got %v", err)
	}
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 profiles after deletion, got %d", mockStore.Count())
	}
}

func TestStoreDefaultsProfile(t *testing.T) {
	manager, mockStore := NewMockManager()

	creds := testCredentials("")
	if err := manager.Store(creds); err != nil {
		t.Fatalf("Failed to store credentials: %v", err)
	}
	if !mockStore.Exists(DefaultProfile) {
		t.Error("Expected credentials under the default profile")
	}
	if _, err := manager.Retrieve(""); err != nil {
		t.Errorf("Expected empty profile to resolve to default: %v", err)
	}
}

func TestStoreRejectsIncomplete(t *testing.T) {
	manager, mockStore := NewMockManager()

	err := manager.Store(&Credentials{Profile: "p", ConsumerKey: "only"})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !errors.Is(err, errs.ErrMissingCredentials) {
		t.Errorf("Expected ErrMissingCredentials, got %v", err)
	}
	if mockStore.Count() != 0 {
		t.Error("Incomplete credentials must not be stored")
	}
}

func TestValidateNamesMissingFields(t *testing.T) {
	err := (&Credentials{ConsumerKey: "k"}).Validate()
	if err == nil {
		t.Fatal("Expected error")
	}
	if !errs.Is(err, errs.ErrorTypeConfig) {
		t.Errorf("Expected config error, got %v", err)
	}
	for _, field := range []string{"consumer_secret", "rapidapi_key"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Expected %q in %q", field, err.Error())
		}
	}

	var nilCreds *Credentials
	if nilCreds.Validate() == nil {
		t.Error("Expected nil credentials to be invalid")
	}
	if testCredentials("x").Validate() != nil {
		t.Error("Expected complete credentials to validate")
	}
}

func TestMerge(t *testing.T) {
	creds := &Credentials{ConsumerKey: "mine"}
	creds.Merge(testCredentials("other"))

	if creds.ConsumerKey != "mine" {
		t.Error("Merge must not overwrite set fields")
	}
	if creds.RapidAPIKey != "rapid_key_7890xyz" {
		t.Error("Merge must fill empty fields")
	}
}

func TestFallbackOrder(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = ErrStoreUnavailable
	second := NewMockStore()

	manager := NewManagerWithStores(failing, second)
	if err := manager.Store(testCredentials("p")); err != nil {
		t.Fatalf("Expected fallback store to accept: %v", err)
	}
	if !second.Exists("p") {
		t.Error("Expected credentials in the second store")
	}
}

func TestSanitize(t *testing.T) {
	creds := testCredentials("p")
	masked := Sanitize(creds)

	if masked.ConsumerSecret == creds.ConsumerSecret || masked.RapidAPIKey == creds.RapidAPIKey {
		t.Error("Secrets should be masked")
	}
	if masked.ConsumerKey != "cons...3456" {
		t.Errorf("Unexpected mask: %s", masked.ConsumerKey)
	}
	if maskString("short") != "********" {
		t.Error("Short values should be fully masked")
	}
	if Sanitize(nil) != nil {
		t.Error("Expected nil for nil input")
	}
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()
	t.Setenv(EnvConsumerKey, "")
	t.Setenv(EnvConsumerSecret, "")
	t.Setenv(EnvRapidAPIKey, "")

	if store.Exists("") {
		t.Error("Expected no environment credentials")
	}

	t.Setenv(EnvConsumerKey, "ek")
	t.Setenv(EnvConsumerSecret, "es")
	t.Setenv(EnvRapidAPIKey, "er")

	creds, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve environment credentials: %v", err)
	}
	if creds.Profile != DefaultProfile || creds.ConsumerSecret != "es" {
		t.Errorf("Unexpected credentials: %+v", creds)
	}
	if store.Store(creds) != ErrStoreUnavailable {
		t.Error("Environment store must be read-only")
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	content := `{
  "twitter_app_auth": {"consumer_key": "ck", "consumer_secret": "cs"},
  "botometer_auth": {"rapidapi_key": "rk"}
}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	creds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load file: %v", err)
	}
	if creds.ConsumerKey != "ck" || creds.ConsumerSecret != "cs" || creds.RapidAPIKey != "rk" {
		t.Errorf("Unexpected credentials: %+v", creds)
	}

	out := filepath.Join(t.TempDir(), "sub", "out.json")
	store := NewFileStore(out)
	if err := store.Store(creds); err != nil {
		t.Fatalf("Failed to write file store: %v", err)
	}
	roundTrip, err := store.Retrieve("team")
	if err != nil {
		t.Fatalf("Failed to read file store: %v", err)
	}
	if roundTrip.Profile != "team" || roundTrip.RapidAPIKey != "rk" {
		t.Errorf("Unexpected credentials: %+v", roundTrip)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStoreWithPassphrase(path, "test-passphrase")
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	if err := store.Store(testCredentials("a")); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	if err := store.Store(testCredentials("b")); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if strings.Contains(string(raw), "consumer_secret_abcdef") {
		t.Error("Secrets must not appear in plain text")
	}

	// a second store with the same passphrase reads the same data
	reopened, err := NewEncryptedFileStoreWithPassphrase(path, "test-passphrase")
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	creds, err := reopened.Retrieve("b")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if creds.RapidAPIKey != "rapid_key_7890xyz" {
		t.Errorf("Unexpected key: %s", creds.RapidAPIKey)
	}

	wrong, err := NewEncryptedFileStoreWithPassphrase(path, "other")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if _, err := wrong.Retrieve("a"); err == nil {
		t.Error("Expected decryption failure with the wrong passphrase")
	}

	if err := reopened.Delete("a"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if err := reopened.Delete("b"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected file removal after the last profile is deleted")
	}
}

func TestEncryptedFileStoreSealsEachProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStoreWithPassphrase(path, "test-passphrase")
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	work := testCredentials("work")
	work.RapidAPIKey = "rapid_key_work"
	if err := store.Store(work); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}
	if err := store.Store(testCredentials("home")); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read vault: %v", err)
	}
	var v vault
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("Failed to parse vault: %v", err)
	}
	if v.Version != vaultVersion || len(v.Profiles) != 2 {
		t.Fatalf("Unexpected vault layout: version %d, %d profiles", v.Version, len(v.Profiles))
	}

	got, err := store.Retrieve("work")
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if got.ConsumerKey != work.ConsumerKey || got.ConsumerSecret != work.ConsumerSecret || got.RapidAPIKey != "rapid_key_work" {
		t.Errorf("Unexpected credentials: %+v", got)
	}
	if got.LastModified.IsZero() {
		t.Error("Expected LastModified from the vault entry")
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(list) != 2 || list[0].Profile != "home" || list[1].Profile != "work" {
		t.Errorf("Expected profiles in name order, got %d", len(list))
	}

	// an entry moved under another profile name must not open
	v.Profiles["home"] = v.Profiles["work"]
	content, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to encode vault: %v", err)
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("Failed to rewrite vault: %v", err)
	}
	if _, err := store.Retrieve("home"); err == nil {
		t.Error("Expected a swapped entry to fail to open")
	}
	if store.Exists("home") {
		t.Error("A swapped entry must not count as existing")
	}
	if !store.Exists("work") {
		t.Error("Expected the untouched entry to still open")
	}
}
