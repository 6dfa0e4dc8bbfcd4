package keyring

import "errors"

var (
	// ErrKeyringDisabled is returned when keyring integration is disabled
	ErrKeyringDisabled = errors.New("keyring integration is disabled")

	// ErrBackupNotFound is returned when no master-key backup is stored
	ErrBackupNotFound = errors.New("no master key backup found in keyring")
)
