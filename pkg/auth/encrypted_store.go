package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/pbkdf2"
)

const (
	vaultVersion    = 2
	saltSize        = 32
	keySize         = 32
	kdfIterations   = 100000
	passphraseEnv   = "BOTCHECK_PASSPHRASE"
	passphraseFile  = ".passphrase"
	passphraseBytes = 32
)

// vault is the on-disk layout. Profile names stay readable; each entry is
// sealed on its own with the profile name bound as additional data, so an
// entry copied under another name does not open.
type vault struct {
	Version  int                   `json:"version"`
	Salt     []byte                `json:"salt"`
	Profiles map[string]vaultEntry `json:"profiles"`
}

type vaultEntry struct {
	Sealed   []byte    `json:"sealed"`
	Modified time.Time `json:"modified"`
}

// secrets is the plaintext of one sealed entry
type secrets struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	RapidAPIKey    string `json:"rapidapi_key"`
}

// EncryptedFileStore keeps every profile in one AES-GCM vault file
type EncryptedFileStore struct {
	path       string
	passphrase string

	mu sync.RWMutex

	keyMu sync.Mutex
	keys  map[string][]byte // by salt
}

// NewEncryptedFileStore opens the vault at path with the passphrase from
// BOTCHECK_PASSPHRASE, or one generated next to the vault on first use
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	return NewEncryptedFileStoreWithPassphrase(path, "")
}

// NewEncryptedFileStoreWithPassphrase opens the vault at path with passphrase
func NewEncryptedFileStoreWithPassphrase(path, passphrase string) (*EncryptedFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}

	if passphrase == "" {
		var err error
		if passphrase, err = defaultPassphrase(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	return &EncryptedFileStore{
		path:       path,
		passphrase: passphrase,
		keys:       make(map[string][]byte),
	}, nil
}

// Store seals creds under creds.Profile, replacing any earlier entry
func (e *EncryptedFileStore) Store(creds *Credentials) error {
	if creds == nil || creds.Profile == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		v, err = newVault()
	}
	if err != nil {
		return err
	}

	plain, err := json.Marshal(secrets{
		ConsumerKey:    creds.ConsumerKey,
		ConsumerSecret: creds.ConsumerSecret,
		RapidAPIKey:    creds.RapidAPIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", creds.Profile, err)
	}

	sealed, err := e.seal(v.Salt, creds.Profile, plain)
	if err != nil {
		return err
	}
	v.Profiles[creds.Profile] = vaultEntry{Sealed: sealed, Modified: time.Now().UTC()}
	return e.write(v)
}

// Retrieve opens the entry for profile. A wrong passphrase is reported as
// such rather than as ErrCredentialsNotFound.
func (e *EncryptedFileStore) Retrieve(profile string) (*Credentials, error) {
	if profile == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCredentialsNotFound
	}
	if err != nil {
		return nil, err
	}

	entry, ok := v.Profiles[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}

	plain, err := e.open(v.Salt, profile, entry.Sealed)
	if err != nil {
		return nil, err
	}
	var s secrets
	if err := json.Unmarshal(plain, &s); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", profile, err)
	}

	return &Credentials{
		Profile:        profile,
		ConsumerKey:    s.ConsumerKey,
		ConsumerSecret: s.ConsumerSecret,
		RapidAPIKey:    s.RapidAPIKey,
		LastModified:   entry.Modified,
	}, nil
}

// List returns every stored profile, opened, in name order
func (e *EncryptedFileStore) List() ([]*Credentials, error) {
	e.mu.RLock()
	v, err := e.read()
	e.mu.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return []*Credentials{}, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(v.Profiles))
	for name := range v.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]*Credentials, 0, len(names))
	for _, name := range names {
		creds, err := e.Retrieve(name)
		if err != nil {
			return nil, err
		}
		list = append(list, creds)
	}
	return list, nil
}

// Delete removes profile; the vault file goes with its last entry
func (e *EncryptedFileStore) Delete(profile string) error {
	if profile == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		return ErrCredentialsNotFound
	}
	if err != nil {
		return err
	}
	if _, ok := v.Profiles[profile]; !ok {
		return ErrCredentialsNotFound
	}

	delete(v.Profiles, profile)
	if len(v.Profiles) == 0 {
		return os.Remove(e.path)
	}
	return e.write(v)
}

// Exists reports whether profile has an entry that opens
func (e *EncryptedFileStore) Exists(profile string) bool {
	_, err := e.Retrieve(profile)
	return err == nil
}

func newVault() (*vault, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return &vault{Version: vaultVersion, Salt: salt, Profiles: make(map[string]vaultEntry)}, nil
}

func (e *EncryptedFileStore) read() (*vault, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}

	var v vault
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", e.path, err)
	}
	if v.Version != vaultVersion {
		return nil, fmt.Errorf("%s has vault version %d, want %d", e.path, v.Version, vaultVersion)
	}
	if v.Profiles == nil {
		v.Profiles = make(map[string]vaultEntry)
	}
	return &v, nil
}

func (e *EncryptedFileStore) write(v *vault) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode vault: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}
	return os.Rename(tmp, e.path)
}

// aead derives the vault key once per salt
func (e *EncryptedFileStore) aead(salt []byte) (cipher.AEAD, error) {
	e.keyMu.Lock()
	key, ok := e.keys[string(salt)]
	if !ok {
		key = pbkdf2.Key([]byte(e.passphrase), salt, kdfIterations, keySize, sha256.New)
		e.keys[string(salt)] = key
	}
	e.keyMu.Unlock()

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (e *EncryptedFileStore) seal(salt []byte, profile string, plain []byte) ([]byte, error) {
	gcm, err := e.aead(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plain, []byte(profile)), nil
}

func (e *EncryptedFileStore) open(salt []byte, profile string, sealed []byte) ([]byte, error) {
	gcm, err := e.aead(salt)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("entry for %s is truncated", profile)
	}
	nonce, body := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, body, []byte(profile))
	if err != nil {
		return nil, fmt.Errorf("cannot open %s with this passphrase: %w", profile, err)
	}
	return plain, nil
}

// defaultPassphrase reads BOTCHECK_PASSPHRASE, then a passphrase file in
// dir, and creates that file when neither exists
func defaultPassphrase(dir string) (string, error) {
	if pass := os.Getenv(passphraseEnv); pass != "" {
		return pass, nil
	}

	path := filepath.Join(dir, passphraseFile)
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, passphraseBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := fmt.Sprintf("%x", b)
	if err := os.WriteFile(path, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}
