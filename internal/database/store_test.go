package database

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authkeep/go/internal/crypto"
	"github.com/authkeep/go/internal/secret"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	key, err := crypto.Generate()
	require.NoError(t, err)

	s, err := Open(filepath.Join(t.TempDir(), "accounts.db"), key, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestStore_AddListRoundTrip(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddAccount("user@example.com", "jbsw y3dp ehpk 3pxp", "GitHub")
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	accounts, err := s.ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	a := accounts[0]
	assert.Equal(t, id, a.ID)
	assert.Equal(t, "user@example.com", a.Name)
	assert.Equal(t, "GitHub", a.Issuer)
	// The stored secret is the cleaned form of the input.
	assert.Equal(t, "JBSWY3DPEHPK3PXP", a.Secret)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestStore_SecretNeverPersistedInPlaintext(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddAccount("user@example.com", "JBSWY3DPEHPK3PXP", "")
	require.NoError(t, err)

	var stored string
	err = s.db.QueryRow(`SELECT secret FROM accounts`).Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "JBSWY3DPEHPK3PXP")

	// The stored value is a decryptable envelope under the store's key.
	plaintext, err := s.key.DecryptSecret(stored)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", plaintext)
}

func TestStore_AddValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddAccount("", "JBSWY3DPEHPK3PXP", "")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = s.AddAccount("   ", "JBSWY3DPEHPK3PXP", "")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = s.AddAccount("user", "ABC", "")
	assert.ErrorIs(t, err, secret.ErrTooShort)
}

func TestStore_DuplicateNamesAllowed(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.AddAccount("same-name", "JBSWY3DPEHPK3PXP", "GitHub")
	require.NoError(t, err)
	id2, err := s.AddAccount("same-name", "GEZDGNBVGEZDGNBV", "GitLab")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)

	accounts, err := s.ListAccounts()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestStore_ListOrder(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"Bravo", "alpha", "Charlie"} {
		_, err := s.AddAccount(name, "JBSWY3DPEHPK3PXP", "")
		require.NoError(t, err)
	}

	accounts, err := s.ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	// Name ascending, case-insensitive.
	assert.Equal(t, "alpha", accounts[0].Name)
	assert.Equal(t, "Bravo", accounts[1].Name)
	assert.Equal(t, "Charlie", accounts[2].Name)
}

func TestStore_GetAccount(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddAccount("user@example.com", "jbsw y3dp ehpk 3pxp", "GitHub")
	require.NoError(t, err)

	a, err := s.GetAccount(id)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, "user@example.com", a.Name)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", a.Secret)
	assert.Equal(t, "GitHub", a.Issuer)

	_, err = s.GetAccount(9999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestStore_Update(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddAccount("old-name", "JBSWY3DPEHPK3PXP", "Old")
	require.NoError(t, err)

	err = s.UpdateAccount(id, "new-name", "gezd gnbv gezd gnbv", "New")
	require.NoError(t, err)

	accounts, err := s.ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	a := accounts[0]
	assert.Equal(t, id, a.ID)
	assert.Equal(t, "new-name", a.Name)
	assert.Equal(t, "GEZDGNBVGEZDGNBV", a.Secret)
	assert.Equal(t, "New", a.Issuer)

	err = s.UpdateAccount(9999, "name", "JBSWY3DPEHPK3PXP", "")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)

	id, err := s.AddAccount("user", "JBSWY3DPEHPK3PXP", "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(id))

	accounts, err := s.ListAccounts()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	// Deleting again reports not-found; the store state is unchanged.
	assert.ErrorIs(t, s.DeleteAccount(id), ErrAccountNotFound)
}

func TestStore_CorruptedRowIsolation(t *testing.T) {
	s := newTestStore(t)

	goodID, err := s.AddAccount("good", "JBSWY3DPEHPK3PXP", "")
	require.NoError(t, err)
	badID, err := s.AddAccount("bad", "GEZDGNBVGEZDGNBV", "")
	require.NoError(t, err)

	// Corrupt one row's ciphertext directly.
	_, err = s.db.Exec(`UPDATE accounts SET secret = ? WHERE id = ?`, "not-an-envelope", badID)
	require.NoError(t, err)

	accounts, err := s.ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, goodID, accounts[0].ID)
}

func TestStore_Closed(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.AddAccount("user", "JBSWY3DPEHPK3PXP", "")
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = s.ListAccounts()
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = s.GetAccount(1)
	assert.ErrorIs(t, err, ErrStoreClosed)

	assert.ErrorIs(t, s.UpdateAccount(1, "user", "JBSWY3DPEHPK3PXP", ""), ErrStoreClosed)
	assert.ErrorIs(t, s.DeleteAccount(1), ErrStoreClosed)

	// Closing twice is a no-op.
	assert.NoError(t, s.Close())
}

func TestHasAccounts(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "accounts.db")

	// Missing database file.
	has, err := HasAccounts(dbPath)
	require.NoError(t, err)
	assert.False(t, has)

	key, err := crypto.Generate()
	require.NoError(t, err)

	s, err := Open(dbPath, key, slog.Default())
	require.NoError(t, err)

	// Schema exists but no rows.
	has, err = HasAccounts(dbPath)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = s.AddAccount("user", "JBSWY3DPEHPK3PXP", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	has, err = HasAccounts(dbPath)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestAccountLabel(t *testing.T) {
	assert.Equal(t, "GitHub (user@example.com)", Account{Name: "user@example.com", Issuer: "GitHub"}.Label())
	assert.Equal(t, "user@example.com", Account{Name: "user@example.com"}.Label())
}
