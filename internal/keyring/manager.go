// Package keyring mirrors the master key into the operating system keyring
// as an optional backup. The key file on disk remains the source of truth;
// the keyring copy exists so a deleted or lost key file does not have to
// mean losing every stored secret.
package keyring

import (
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/authkeep/go/internal/crypto"
)

const (
	// ServiceName identifies this application in the system keyring
	ServiceName = "authkeep"

	// DefaultUsername is the keyring entry name for the master key backup
	DefaultUsername = "masterkey"
)

// Manager handles the master-key backup entry in the system keyring.
type Manager struct {
	serviceName string
	username    string
	enabled     bool
}

// NewManager creates a keyring manager with the default service identity.
func NewManager() *Manager {
	return &Manager{
		serviceName: ServiceName,
		username:    DefaultUsername,
		enabled:     true,
	}
}

// IsEnabled returns whether keyring integration is enabled.
func (m *Manager) IsEnabled() bool {
	return m.enabled
}

// Disable turns off keyring integration without touching stored entries.
func (m *Manager) Disable() {
	m.enabled = false
}

// Enable turns keyring integration back on.
func (m *Manager) Enable() {
	m.enabled = true
}

// BackupKey stores the encoded master key in the system keyring,
// overwriting any previous backup.
func (m *Manager) BackupKey(key crypto.MasterKey) error {
	if !m.enabled {
		return ErrKeyringDisabled
	}

	if err := keyring.Set(m.serviceName, m.username, key.Encode()); err != nil {
		return fmt.Errorf("failed to save key to keyring: %w", err)
	}
	return nil
}

// RestoreKey retrieves and decodes the master key backup.
func (m *Manager) RestoreKey() (crypto.MasterKey, error) {
	if !m.enabled {
		return nil, ErrKeyringDisabled
	}

	encoded, err := keyring.Get(m.serviceName, m.username)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrBackupNotFound
		}
		return nil, fmt.Errorf("failed to read key from keyring: %w", err)
	}

	key, err := crypto.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("keyring backup is corrupt: %w", err)
	}
	return key, nil
}

// HasBackup reports whether a master-key backup is stored.
func (m *Manager) HasBackup() bool {
	if !m.enabled {
		return false
	}

	_, err := keyring.Get(m.serviceName, m.username)
	return err == nil
}

// DeleteBackup removes the master-key backup. A missing entry is not an
// error.
func (m *Manager) DeleteBackup() error {
	if !m.enabled {
		return ErrKeyringDisabled
	}

	if err := keyring.Delete(m.serviceName, m.username); err != nil {
		if err == keyring.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete key from keyring: %w", err)
	}
	return nil
}

// GetServiceName returns the configured service name.
func (m *Manager) GetServiceName() string {
	return m.serviceName
}

// SetServiceName overrides the service name (useful for testing).
func (m *Manager) SetServiceName(name string) {
	m.serviceName = name
}

// IsSupported checks whether the system keyring is usable by performing a
// set/delete round trip on a throwaway entry.
func IsSupported() bool {
	const testService = ServiceName + "-test"
	const testUser = "probe"

	if err := keyring.Set(testService, testUser, "probe"); err != nil {
		return false
	}
	keyring.Delete(testService, testUser)
	return true
}
