package crypto

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrKeyFileMissing indicates the key file does not exist
	ErrKeyFileMissing = errors.New("encryption key file does not exist")

	// ErrKeyFileMissingWithData indicates the key file is gone while
	// encrypted accounts still exist. Generating a fresh key here would
	// silently orphan every stored secret, so startup must fail loudly
	// instead.
	ErrKeyFileMissingWithData = errors.New("encryption key file is missing but encrypted accounts exist; restore the key file (or a keyring backup) before continuing")
)

// LoadKeyFile reads and decodes an existing master key file. It never
// creates or rewrites the file.
func LoadKeyFile(path string) (MasterKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyFileMissing
		}
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key, err := Decode(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("key file %s is corrupt: %w", path, err)
	}
	return key, nil
}

// WriteKeyFile persists a master key with owner-only permissions. It
// refuses to overwrite an existing file: a key, once written, is never
// regenerated in place.
func WriteKeyFile(path string, key MasterKey) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create key file: %w", err)
	}

	_, werr := f.WriteString(key.Encode() + "\n")
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("failed to write key file: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("failed to close key file: %w", cerr)
	}
	return nil
}

// EnsureKeyFile loads the master key, generating and persisting a fresh one
// only on a true first run. accountsExist reflects whether the credential
// table already holds rows: in that case a missing key file is a critical
// condition, not an invitation to regenerate.
func EnsureKeyFile(path string, accountsExist bool) (MasterKey, error) {
	key, err := LoadKeyFile(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrKeyFileMissing) {
		return nil, err
	}

	if accountsExist {
		return nil, ErrKeyFileMissingWithData
	}

	key, err = Generate()
	if err != nil {
		return nil, err
	}
	if err := WriteKeyFile(path, key); err != nil {
		return nil, err
	}
	return key, nil
}
