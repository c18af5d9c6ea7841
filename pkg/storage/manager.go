package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	databaseSuffix = "_followers.db"
	exportSuffix   = "_followers.csv"
)

// Manager lays out per-account files under the data directory
type Manager struct {
	dataDir   string
	exportDir string
	accounts  map[string]bool
	mu        sync.RWMutex
}

// NewManager creates the data directory and indexes the accounts already tracked in it.
// An empty exportDir places exports beside the databases.
func NewManager(dataDir, exportDir string) (*Manager, error) {
	if exportDir == "" {
		exportDir = dataDir
	}

	for _, dir := range []string{dataDir, exportDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	manager := &Manager{
		dataDir:   dataDir,
		exportDir: exportDir,
		accounts:  make(map[string]bool),
	}

	if err := manager.scanExistingDatabases(); err != nil {
		return nil, fmt.Errorf("failed to scan existing databases: %w", err)
	}

	return manager, nil
}

// scanExistingDatabases records every <account>_followers.db in the data directory
func (m *Manager) scanExistingDatabases() error {
	entries, err := os.ReadDir(m.dataDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, databaseSuffix) {
			continue
		}
		account := strings.TrimSuffix(name, databaseSuffix)
		if account != "" {
			m.accounts[account] = true
		}
	}

	return nil
}

// ValidateAccount rejects names that cannot be used as a file prefix.
func ValidateAccount(account string) error {
	if strings.TrimSpace(account) == "" {
		return fmt.Errorf("account name is empty")
	}
	if strings.ContainsAny(account, `/\`) || account == "." || account == ".." {
		return fmt.Errorf("account name %q is not a valid file prefix", account)
	}
	return nil
}

// DatabasePath returns <data_dir>/<account>_followers.db and remembers the account.
func (m *Manager) DatabasePath(account string) string {
	m.mu.Lock()
	m.accounts[account] = true
	m.mu.Unlock()
	return filepath.Join(m.dataDir, account+databaseSuffix)
}

// ExportPath returns <export_dir>/<account>_followers.csv.
func (m *Manager) ExportPath(account string) string {
	return filepath.Join(m.exportDir, account+exportSuffix)
}

// HasDatabase reports whether the account already has a database on disk
func (m *Manager) HasDatabase(account string) bool {
	m.mu.RLock()
	known := m.accounts[account]
	m.mu.RUnlock()
	if !known {
		return false
	}

	_, err := os.Stat(filepath.Join(m.dataDir, account+databaseSuffix))
	return err == nil
}

// Accounts lists the tracked accounts in name order.
func (m *Manager) Accounts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]string, 0, len(m.accounts))
	for account := range m.accounts {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts
}

// WriteAtomic streams write's output into path via a temporary file and rename,
// so readers never see a half-written file.
func (m *Manager) WriteAtomic(path string, write func(w io.Writer) error) error {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	err = write(out)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// DataDir returns the database directory
func (m *Manager) DataDir() string {
	return m.dataDir
}

// ExportDir returns the export directory
func (m *Manager) ExportDir() string {
	return m.exportDir
}
