// Package database implements the persistent credential store. Accounts
// live in a single local SQLite table; their TOTP secrets are encrypted
// with the injected master key before they ever touch disk.
package database

import (
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"sync"

	_ "github.com/mutecomm/go-sqlcipher/v4" // SQLite driver

	"github.com/authkeep/go/internal/crypto"
	"github.com/authkeep/go/internal/secret"
)

const schema = `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		secret TEXT NOT NULL,
		issuer TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_name ON accounts(name COLLATE NOCASE);
`

// Store is the credential store: it owns the database handle and the loaded
// master key, constructed once at startup and injected into whatever needs
// it. Operations are serialized; the TOTP engine side needs no access here.
type Store struct {
	dbPath string
	db     *sql.DB
	key    crypto.MasterKey
	logger *slog.Logger
	mu     sync.Mutex
}

// Open opens (creating if needed) the credential database at dbPath and
// runs the idempotent schema setup. The key encrypts secrets at rest; the
// logger receives warnings about rows skipped during listing.
func Open(dbPath string, key crypto.MasterKey, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, NewStoreError("open", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, NewStoreError("init_schema", err)
	}

	return &Store{
		dbPath: dbPath,
		db:     db,
		key:    key,
		logger: logger,
	}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	if err != nil {
		return NewStoreError("close", err)
	}
	return nil
}

// AddAccount validates, encrypts, and inserts a new account, returning the
// assigned id. Duplicate names are allowed; issuer+name pairs are not
// unique in the wild.
func (s *Store) AddAccount(name, rawSecret, issuer string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return 0, ErrStoreClosed
	}
	if strings.TrimSpace(name) == "" {
		return 0, ErrNameRequired
	}
	if err := secret.Validate(rawSecret); err != nil {
		return 0, err
	}

	envelope, err := s.key.EncryptSecret(secret.Clean(rawSecret))
	if err != nil {
		return 0, NewStoreError("encrypt_secret", err)
	}

	result, err := s.db.Exec(`
		INSERT INTO accounts (name, secret, issuer)
		VALUES (?, ?, ?)
	`, name, envelope, issuer)
	if err != nil {
		return 0, NewStoreError("add_account", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, NewStoreError("add_account_id", err)
	}
	return id, nil
}

// ListAccounts returns every account sorted by name ascending
// (case-insensitive), with secrets decrypted. A row whose envelope fails
// authentication is skipped with a warning: partial availability beats
// total failure when a single row is corrupt.
func (s *Store) ListAccounts() ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT id, name, secret, issuer, created_at
		FROM accounts
		ORDER BY name COLLATE NOCASE ASC, id ASC
	`)
	if err != nil {
		return nil, NewStoreError("list_accounts", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		var envelope string
		if err := rows.Scan(&a.ID, &a.Name, &envelope, &a.Issuer, &a.CreatedAt); err != nil {
			return nil, NewStoreError("scan_account", err)
		}

		plaintext, err := s.key.DecryptSecret(envelope)
		if err != nil {
			s.logger.Warn("skipping account with undecryptable secret",
				"id", a.ID, "name", a.Name, "error", err)
			continue
		}
		a.Secret = plaintext

		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, NewStoreError("list_accounts_iteration", err)
	}
	return accounts, nil
}

// GetAccount returns a single account by id with its secret decrypted.
func (s *Store) GetAccount(id int64) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrStoreClosed
	}

	var a Account
	var envelope string
	err := s.db.QueryRow(`
		SELECT id, name, secret, issuer, created_at
		FROM accounts
		WHERE id = ?
	`, id).Scan(&a.ID, &a.Name, &envelope, &a.Issuer, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, NewStoreError("get_account", err)
	}

	plaintext, err := s.key.DecryptSecret(envelope)
	if err != nil {
		return nil, NewStoreError("decrypt_secret", err)
	}
	a.Secret = plaintext

	return &a, nil
}

// UpdateAccount re-encrypts and overwrites all mutable fields of an
// existing account. Identity (id, created_at) never changes.
func (s *Store) UpdateAccount(id int64, name, rawSecret, issuer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrStoreClosed
	}
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if err := secret.Validate(rawSecret); err != nil {
		return err
	}

	envelope, err := s.key.EncryptSecret(secret.Clean(rawSecret))
	if err != nil {
		return NewStoreError("encrypt_secret", err)
	}

	result, err := s.db.Exec(`
		UPDATE accounts
		SET name = ?, secret = ?, issuer = ?
		WHERE id = ?
	`, name, envelope, issuer, id)
	if err != nil {
		return NewStoreError("update_account", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return NewStoreError("update_account_check", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes the account with the given id. Deleting an id that
// does not exist returns ErrAccountNotFound so the boundary layer can show
// a notice, but the store ends in the same state either way.
func (s *Store) DeleteAccount(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrStoreClosed
	}

	result, err := s.db.Exec(`DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("delete_account", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return NewStoreError("delete_account_check", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// HasAccounts reports whether the database at dbPath already holds account
// rows. It is used before key-file resolution, so it must not create the
// database or the schema as a side effect.
func HasAccounts(dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return false, nil
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return false, NewStoreError("open", err)
	}
	defer db.Close()

	var count int64
	err = db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count)
	if err != nil {
		// A database file without the accounts table has no accounts.
		if strings.Contains(err.Error(), "no such table") {
			return false, nil
		}
		return false, NewStoreError("count_accounts", err)
	}
	return count > 0, nil
}
