package crypto

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndLoadKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.key")

	key, err := Generate()
	require.NoError(t, err)

	err = WriteKeyFile(path, key)
	require.NoError(t, err)

	loaded, err := LoadKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, key, loaded)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestWriteKeyFileRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.key")

	key, err := Generate()
	require.NoError(t, err)
	require.NoError(t, WriteKeyFile(path, key))

	other, err := Generate()
	require.NoError(t, err)
	assert.Error(t, WriteKeyFile(path, other))

	// The original key is untouched.
	loaded, err := LoadKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, key, loaded)
}

func TestLoadKeyFileMissing(t *testing.T) {
	_, err := LoadKeyFile(filepath.Join(t.TempDir(), "nope.key"))
	assert.ErrorIs(t, err, ErrKeyFileMissing)
}

func TestLoadKeyFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.key")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0600))

	_, err := LoadKeyFile(path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyFileMissing)
}

func TestEnsureKeyFileFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.key")

	key, err := EnsureKeyFile(path, false)
	require.NoError(t, err)
	assert.Equal(t, KeySize, len(key))

	// A second call loads the same key, never regenerates.
	again, err := EnsureKeyFile(path, false)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	withRows, err := EnsureKeyFile(path, true)
	require.NoError(t, err)
	assert.Equal(t, key, withRows)
}

func TestEnsureKeyFileRefusesRegeneration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.key")

	// Missing key + existing accounts: fail loudly, never generate a key
	// that cannot decrypt the existing rows.
	_, err := EnsureKeyFile(path, true)
	assert.ErrorIs(t, err, ErrKeyFileMissingWithData)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no key file should have been written")
}
