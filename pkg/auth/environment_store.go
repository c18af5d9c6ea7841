package auth

import (
	"os"
	"time"
)

const (
	EnvConsumerKey    = "BOTCHECK_CONSUMER_KEY"
	EnvConsumerSecret = "BOTCHECK_CONSUMER_SECRET"
	EnvRapidAPIKey    = "BOTCHECK_RAPIDAPI_KEY"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and answers for any profile.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve builds credentials from the environment when all keys are set
func (e *EnvironmentStore) Retrieve(profile string) (*Credentials, error) {
	if !e.Exists(profile) {
		return nil, ErrCredentialsNotFound
	}
	if profile == "" {
		profile = DefaultProfile
	}

	return &Credentials{
		Profile:        profile,
		ConsumerKey:    os.Getenv(EnvConsumerKey),
		ConsumerSecret: os.Getenv(EnvConsumerSecret),
		RapidAPIKey:    os.Getenv(EnvRapidAPIKey),
		LastModified:   time.Now(),
	}, nil
}

// List returns a single entry if environment variables are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(profile string) bool {
	return os.Getenv(EnvConsumerKey) != "" &&
		os.Getenv(EnvConsumerSecret) != "" &&
		os.Getenv(EnvRapidAPIKey) != ""
}
