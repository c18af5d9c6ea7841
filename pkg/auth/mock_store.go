package auth

import (
	"sync"
)

// MockStore implements CredentialStore for testing purposes
type MockStore struct {
	profiles map[string]*Credentials
	mu       sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a new mock credential store
func NewMockStore() *MockStore {
	return &MockStore{
		profiles: make(map[string]*Credentials),
	}
}

// Store saves credentials to the mock store
func (m *MockStore) Store(creds *Credentials) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if creds == nil || creds.Profile == "" {
		return ErrInvalidCredentials
	}

	c := *creds
	m.profiles[creds.Profile] = &c
	return nil
}

// Retrieve gets credentials from the mock store
func (m *MockStore) Retrieve(profile string) (*Credentials, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	creds, exists := m.profiles[profile]
	if !exists {
		return nil, ErrCredentialsNotFound
	}

	c := *creds
	return &c, nil
}

// List returns all stored profiles from the mock store
func (m *MockStore) List() ([]*Credentials, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []*Credentials
	for _, creds := range m.profiles {
		c := *creds
		list = append(list, &c)
	}
	return list, nil
}

// Delete removes credentials from the mock store
func (m *MockStore) Delete(profile string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[profile]; !exists {
		return ErrCredentialsNotFound
	}
	delete(m.profiles, profile)
	return nil
}

// Exists checks if credentials exist in the mock store
func (m *MockStore) Exists(profile string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.profiles[profile]
	return exists
}

// Count returns the number of stored profiles
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.profiles)
}

// NewMockManager creates a Manager with a mock store for testing
func NewMockManager() (*Manager, *MockStore) {
	mockStore := NewMockStore()
	return NewManagerWithStores(mockStore), mockStore
}
