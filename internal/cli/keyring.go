package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/authkeep/go/internal/crypto"
	"github.com/authkeep/go/internal/keyring"
)

var keyringCmd = &cobra.Command{
	Use:   "keyring",
	Short: "Manage the key backup in the system keyring",
	Long: `Manage the optional backup of the encryption key in the system
keyring. The key file on disk remains the source of truth; the backup
exists so a lost key file does not mean losing every stored secret.`,
}

var keyringStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show keyring backup status",
	Long:  `Display whether the system keyring is usable and holds a key backup.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Keyring Status:")
		fmt.Printf("  Service: %s\n", keyringMgr.GetServiceName())
		fmt.Printf("  Supported: %t\n", keyring.IsSupported())
		fmt.Printf("  Has Key Backup: %t\n", keyringMgr.HasBackup())

		_, err := os.Stat(paths.KeyPath)
		fmt.Printf("  Key File Present: %t\n", err == nil)
	},
}

var keyringBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the encryption key to the keyring",
	Long:  `Store a copy of the encryption key file in the system keyring.`,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := crypto.LoadKeyFile(paths.KeyPath)
		if err != nil {
			handleError(err, "Failed to load key file")
			return
		}

		if keyringMgr.HasBackup() && !confirm("A key backup already exists. Overwrite it?") {
			fmt.Println("Cancelled")
			return
		}

		if err := keyringMgr.BackupKey(key); err != nil {
			handleError(err, "Failed to back up key to keyring")
			return
		}

		fmt.Println("Encryption key backed up to system keyring")
	},
}

var keyringRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the key file from the keyring backup",
	Long: `Recreate the encryption key file from the keyring backup. This is the
recovery path when the key file was deleted but accounts still exist.`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(paths.KeyPath); err == nil {
			fmt.Printf("Key file already exists at %s; nothing to restore\n", paths.KeyPath)
			return
		}

		key, err := keyringMgr.RestoreKey()
		if err != nil {
			handleError(err, "Failed to restore key from keyring")
			return
		}

		if err := paths.EnsureDataDir(); err != nil {
			handleError(err, "Failed to create data directory")
			return
		}
		if err := crypto.WriteKeyFile(paths.KeyPath, key); err != nil {
			handleError(err, "Failed to write key file")
			return
		}

		fmt.Printf("Key file restored to %s\n", paths.KeyPath)
	},
}

var keyringClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the key backup from the keyring",
	Long:  `Remove the stored key backup from the system keyring. The key file on disk is untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !keyringMgr.HasBackup() {
			fmt.Println("No key backup stored in keyring")
			return
		}

		if !confirm("Remove the key backup from the keyring?") {
			fmt.Println("Cancelled")
			return
		}

		if err := keyringMgr.DeleteBackup(); err != nil {
			handleError(err, "Failed to remove key backup from keyring")
			return
		}

		fmt.Println("Key backup removed from keyring")
	},
}

func init() {
	keyringCmd.AddCommand(keyringStatusCmd)
	keyringCmd.AddCommand(keyringBackupCmd)
	keyringCmd.AddCommand(keyringRestoreCmd)
	keyringCmd.AddCommand(keyringClearCmd)
}
