package keyring

import (
	"testing"

	zkeyring "github.com/zalando/go-keyring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authkeep/go/internal/crypto"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	// In-memory keyring so tests never touch the real OS keychain.
	zkeyring.MockInit()

	m := NewManager()
	m.SetServiceName("authkeep-test-" + t.Name())
	t.Cleanup(func() { m.DeleteBackup() })

	return m
}

func TestNewManager(t *testing.T) {
	m := NewManager()
	assert.Equal(t, ServiceName, m.GetServiceName())
	assert.True(t, m.IsEnabled())
}

func TestEnableDisable(t *testing.T) {
	m := NewManager()

	m.Disable()
	assert.False(t, m.IsEnabled())

	m.Enable()
	assert.True(t, m.IsEnabled())
}

func TestBackupAndRestoreKey(t *testing.T) {
	m := newTestManager(t)

	key, err := crypto.Generate()
	require.NoError(t, err)

	require.NoError(t, m.BackupKey(key))
	assert.True(t, m.HasBackup())

	restored, err := m.RestoreKey()
	require.NoError(t, err)
	assert.Equal(t, key, restored)
}

func TestBackupOverwrites(t *testing.T) {
	m := newTestManager(t)

	key1, err := crypto.Generate()
	require.NoError(t, err)
	key2, err := crypto.Generate()
	require.NoError(t, err)

	require.NoError(t, m.BackupKey(key1))
	require.NoError(t, m.BackupKey(key2))

	restored, err := m.RestoreKey()
	require.NoError(t, err)
	assert.Equal(t, key2, restored)
}

func TestRestoreKeyMissing(t *testing.T) {
	m := newTestManager(t)

	assert.False(t, m.HasBackup())

	_, err := m.RestoreKey()
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

func TestDeleteBackup(t *testing.T) {
	m := newTestManager(t)

	key, err := crypto.Generate()
	require.NoError(t, err)
	require.NoError(t, m.BackupKey(key))

	require.NoError(t, m.DeleteBackup())
	assert.False(t, m.HasBackup())

	// Deleting a missing backup is not an error.
	assert.NoError(t, m.DeleteBackup())
}

func TestDisabledManager(t *testing.T) {
	m := newTestManager(t)
	m.Disable()

	key, err := crypto.Generate()
	require.NoError(t, err)

	assert.ErrorIs(t, m.BackupKey(key), ErrKeyringDisabled)

	_, err = m.RestoreKey()
	assert.ErrorIs(t, err, ErrKeyringDisabled)

	assert.False(t, m.HasBackup())
	assert.ErrorIs(t, m.DeleteBackup(), ErrKeyringDisabled)
}

func TestRestoreKeyCorrupt(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, zkeyring.Set(m.GetServiceName(), DefaultUsername, "not-a-key"))

	_, err := m.RestoreKey()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBackupNotFound)
}
