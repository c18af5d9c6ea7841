package auth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// credentialsFile is the layout of a downloadable credentials.json
type credentialsFile struct {
	TwitterAppAuth struct {
		ConsumerKey    string `json:"consumer_key"`
		ConsumerSecret string `json:"consumer_secret"`
	} `json:"twitter_app_auth"`
	BotometerAuth struct {
		RapidAPIKey string `json:"rapidapi_key"`
	} `json:"botometer_auth"`
}

// FileStore reads and writes one profile as a plain credentials.json file.
// The file holds a single credential set, so it answers for every profile.
type FileStore struct {
	path string
}

// NewFileStore creates a store over path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadFile parses a credentials.json file
func LoadFile(path string) (*Credentials, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file credentialsFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	creds := &Credentials{
		Profile:        DefaultProfile,
		ConsumerKey:    file.TwitterAppAuth.ConsumerKey,
		ConsumerSecret: file.TwitterAppAuth.ConsumerSecret,
		RapidAPIKey:    file.BotometerAuth.RapidAPIKey,
	}
	if info, err := os.Stat(path); err == nil {
		creds.LastModified = info.ModTime()
	}
	return creds, nil
}

// Store writes creds in the credentials.json layout with owner-only permissions
func (f *FileStore) Store(creds *Credentials) error {
	if creds == nil {
		return ErrInvalidCredentials
	}

	var file credentialsFile
	file.TwitterAppAuth.ConsumerKey = creds.ConsumerKey
	file.TwitterAppAuth.ConsumerSecret = creds.ConsumerSecret
	file.BotometerAuth.RapidAPIKey = creds.RapidAPIKey

	content, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(f.path, content, 0600)
}

// Retrieve loads the file and labels it with profile
func (f *FileStore) Retrieve(profile string) (*Credentials, error) {
	creds, err := LoadFile(f.path)
	if err != nil {
		return nil, err
	}
	if profile != "" {
		creds.Profile = profile
	}
	return creds, nil
}

// List returns the file's single entry when it exists
func (f *FileStore) List() ([]*Credentials, error) {
	creds, err := LoadFile(f.path)
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported; the file belongs to the operator
func (f *FileStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

// Exists reports whether the file is present
func (f *FileStore) Exists(profile string) bool {
	_, err := os.Stat(f.path)
	return err == nil
}
