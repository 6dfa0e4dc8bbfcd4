package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/authkeep/go/internal/database"
	"github.com/authkeep/go/internal/otpauth"
	"github.com/authkeep/go/internal/secret"
	"github.com/authkeep/go/internal/totp"
	"github.com/authkeep/go/internal/watch"
)

// addCmd represents the add command for storing a new account
var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Store a new account",
	Long: `Store a new account with its Base32 TOTP secret. The secret is read
with hidden input, cleaned (uppercased, separators stripped), validated,
and encrypted before it touches disk.

Examples:
  authkeep add github                      # Prompt for the secret (hidden input)
  authkeep add github --issuer GitHub      # Record the issuing service
  authkeep add backup-acct -g              # Generate a fresh random secret`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := openStore(); err != nil {
			handleError(err, "Failed to open credential store")
			return
		}

		name := args[0]
		issuer, _ := cmd.Flags().GetString("issuer")
		generate, _ := cmd.Flags().GetBool("generate")

		var rawSecret string
		var err error

		if generate {
			rawSecret, err = secret.GenerateKey()
			if err != nil {
				handleError(err, "Failed to generate secret")
				return
			}
			fmt.Printf("Generated secret: %s\n", rawSecret)
			fmt.Println("Store it somewhere safe; it is shown only once.")
		} else {
			rawSecret, err = promptSecret("Enter Base32 secret: ")
			if err != nil {
				handleError(err, "Failed to read secret")
				return
			}
		}

		id, err := store.AddAccount(name, rawSecret, issuer)
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to add account '%s'", name))
			return
		}

		fmt.Printf("Account '%s' added with id %d\n", name, id)
		printVerbose("Added account %d with issuer '%s'", id, issuer)
	},
}

// listCmd represents the list command for showing stored accounts
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long: `List all stored accounts sorted by name. Secrets are never shown;
use 'authkeep code' or 'authkeep recover' to work with them.

Examples:
  authkeep list                  # Simple list
  authkeep list --format table   # Table format
  authkeep list --format json    # JSON format`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := openStore(); err != nil {
			handleError(err, "Failed to open credential store")
			return
		}

		accounts, err := store.ListAccounts()
		if err != nil {
			handleError(err, "Failed to list accounts")
			return
		}

		if len(accounts) == 0 {
			fmt.Println("No accounts stored")
			return
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "table":
			printAccountsTable(accounts)
		case "json":
			if err := printAccountsJSON(accounts); err != nil {
				handleError(err, "Failed to render accounts")
				return
			}
		default:
			printAccountsList(accounts)
		}

		fmt.Printf("\nTotal: %d accounts\n", len(accounts))
	},
}

// codeCmd represents the code command for generating the current code
var codeCmd = &cobra.Command{
	Use:   "code <id>",
	Short: "Print the current code for an account",
	Long: `Generate and print the current 6-digit code for an account. The code
is also copied to the clipboard (when available) and cleared again when
its 30-second window ends.

Examples:
  authkeep code 1            # Code for account 1
  authkeep code 1 --no-copy  # Print only, skip the clipboard`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := openStore(); err != nil {
			handleError(err, "Failed to open credential store")
			return
		}

		id, err := parseAccountID(args[0])
		if err != nil {
			handleError(err, "")
			return
		}

		account, err := store.GetAccount(id)
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to load account %d", id))
			return
		}

		code, err := totp.Generate(account.Secret)
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to generate code for '%s'", account.Name))
			return
		}

		remaining := totp.TimeRemaining()
		fmt.Printf("%s: %s (%ds remaining)\n", account.Label(), code, remaining)

		noCopy, _ := cmd.Flags().GetBool("no-copy")
		if !noCopy && clipboardMgr != nil {
			ttl := time.Duration(0)
			if cfg.Clipboard.ClearOnExpiry {
				ttl = time.Duration(remaining) * time.Second
			}
			if err := clipboardMgr.CopyCode(code, ttl); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to copy to clipboard: %v\n", err)
			} else if ttl > 0 {
				fmt.Printf("Copied to clipboard (clears in %ds)\n", remaining)
			} else {
				fmt.Println("Copied to clipboard")
			}
		}
	},
}

// watchCmd represents the watch command for the live code view
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of all codes",
	Long: `Open a live, self-refreshing view showing the current code for every
account with a per-window countdown. Type to filter by name or issuer.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := openStore(); err != nil {
			handleError(err, "Failed to open credential store")
			return
		}

		accounts, err := store.ListAccounts()
		if err != nil {
			handleError(err, "Failed to list accounts")
			return
		}

		if err := watch.Run(accounts, cfg.Update.ShowProgressBar); err != nil {
			handleError(err, "Watch view failed")
			return
		}
	},
}

// verifyCmd represents the verify command for checking a candidate code
var verifyCmd = &cobra.Command{
	Use:   "verify <id> <code>",
	Short: "Check a code against an account",
	Long: `Check whether a 6-digit code is currently valid for an account. The
previous and next 30-second windows are accepted to tolerate clock drift.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := openStore(); err != nil {
			handleError(err, "Failed to open credential store")
			return
		}

		id, err := parseAccountID(args[0])
		if err != nil {
			handleError(err, "")
			return
		}

		account, err := store.GetAccount(id)
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to load account %d", id))
			return
		}

		valid, err := totp.Verify(account.Secret, args[1])
		if err != nil {
			handleError(err, "Failed to verify code")
			return
		}

		if valid {
			fmt.Printf("Code is valid for '%s'\n", account.Label())
		} else {
			fmt.Printf("Code is NOT valid for '%s'\n", account.Label())
			os.Exit(1)
		}
	},
}

// updateCmd represents the update command for editing an account
var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an account",
	Long: `Update an account's name, issuer, or secret. Fields not specified are
kept as they are; --rotate-secret prompts for a replacement secret with
hidden input.

Examples:
  authkeep update 1 --name work-github
  authkeep update 1 --issuer GitHub
  authkeep update 1 --rotate-secret`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := openStore(); err != nil {
			handleError(err, "Failed to open credential store")
			return
		}

		id, err := parseAccountID(args[0])
		if err != nil {
			handleError(err, "")
			return
		}

		account, err := store.GetAccount(id)
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to load account %d", id))
			return
		}

		name := account.Name
		if cmd.Flags().Changed("name") {
			name, _ = cmd.Flags().GetString("name")
		}
		issuer := account.Issuer
		if cmd.Flags().Changed("issuer") {
			issuer, _ = cmd.Flags().GetString("issuer")
		}

		rawSecret := account.Secret
		rotate, _ := cmd.Flags().GetBool("rotate-secret")
		if rotate {
			rawSecret, err = promptSecret("Enter new Base32 secret: ")
			if err != nil {
				handleError(err, "Failed to read secret")
				return
			}
		}

		if err := store.UpdateAccount(id, name, rawSecret, issuer); err != nil {
			handleError(err, fmt.Sprintf("Failed to update account %d", id))
			return
		}

		fmt.Printf("Account %d updated\n", id)
		printVerbose("Updated account %d (name '%s', issuer '%s', rotated=%t)", id, name, issuer, rotate)
	},
}

// deleteCmd represents the delete command for removing an account
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an account",
	Long: `Permanently delete an account. Its encrypted secret is removed with
it; without a backup the account cannot be restored.

Examples:
  authkeep delete 3
  authkeep delete -f 3    # Skip the confirmation prompt`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := openStore(); err != nil {
			handleError(err, "Failed to open credential store")
			return
		}

		id, err := parseAccountID(args[0])
		if err != nil {
			handleError(err, "")
			return
		}

		if !confirm(fmt.Sprintf("Delete account %d and its secret?", id)) {
			fmt.Println("Cancelled")
			return
		}

		if err := store.DeleteAccount(id); err != nil {
			// The end state is the same whether the row existed or not.
			if err == database.ErrAccountNotFound {
				fmt.Printf("No account with id %d\n", id)
				return
			}
			handleError(err, fmt.Sprintf("Failed to delete account %d", id))
			return
		}

		fmt.Printf("Account %d deleted\n", id)
	},
}

// importCmd represents the import command for otpauth:// URLs
var importCmd = &cobra.Command{
	Use:   "import <otpauth-url>",
	Short: "Import an account from an otpauth:// URL",
	Long: `Import an account from an otpauth://totp/ provisioning URL, the format
embedded in enrollment QR codes. Quote the URL; it contains characters
your shell treats specially.

Example:
  authkeep import 'otpauth://totp/Example:user@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Example'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := openStore(); err != nil {
			handleError(err, "Failed to open credential store")
			return
		}

		imported, err := otpauth.Parse(args[0])
		if err != nil {
			handleError(err, "Failed to parse provisioning URL")
			return
		}

		id, err := store.AddAccount(imported.Name, imported.Secret, imported.Issuer)
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to import account '%s'", imported.Name))
			return
		}

		fmt.Printf("Imported '%s' with id %d\n", imported.Name, id)
	},
}

// exportCmd represents the export command for provisioning URIs and QR codes
var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export an account as a provisioning URI or QR code",
	Long: `Export an account in Key-Uri-Format, either as a printed otpauth://
URI or as a PNG QR code scannable by any standard authenticator app.

Examples:
  authkeep export 1                  # Print the otpauth:// URI
  authkeep export 1 --qr github.png  # Write a QR code PNG`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := openStore(); err != nil {
			handleError(err, "Failed to open credential store")
			return
		}

		id, err := parseAccountID(args[0])
		if err != nil {
			handleError(err, "")
			return
		}

		account, err := store.GetAccount(id)
		if err != nil {
			handleError(err, fmt.Sprintf("Failed to load account %d", id))
			return
		}

		params := otpauth.URIParams{
			Name:   account.Name,
			Secret: account.Secret,
			Issuer: account.Issuer,
		}

		qrPath, _ := cmd.Flags().GetString("qr")
		if qrPath != "" {
			size, _ := cmd.Flags().GetInt("qr-size")
			png, err := otpauth.QRCode(params, size)
			if err != nil {
				handleError(err, "Failed to render QR code")
				return
			}
			if err := os.WriteFile(qrPath, png, 0600); err != nil {
				handleError(err, fmt.Sprintf("Failed to write %s", qrPath))
				return
			}
			fmt.Printf("QR code for '%s' written to %s\n", account.Label(), qrPath)
			return
		}

		uri, err := otpauth.BuildURI(params)
		if err != nil {
			handleError(err, "Failed to build provisioning URI")
			return
		}
		fmt.Println(uri)
	},
}

// recoverCmd represents the recover command for dumping all secrets
var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Dump every account's secret and provisioning URI",
	Long: `Decrypt and print every stored account with its Base32 secret and
otpauth:// provisioning URI, for migrating to another device or app.
Secrets are printed in plaintext; run this in a private terminal.

Examples:
  authkeep recover
  authkeep recover -f    # Skip the confirmation prompt`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := openStore(); err != nil {
			handleError(err, "Failed to open credential store")
			return
		}

		if !confirm("Print every stored secret in plaintext?") {
			fmt.Println("Cancelled")
			return
		}

		accounts, err := store.ListAccounts()
		if err != nil {
			handleError(err, "Failed to list accounts")
			return
		}

		if len(accounts) == 0 {
			fmt.Println("No accounts stored")
			return
		}

		for _, account := range accounts {
			fmt.Printf("%s\n", account.Label())
			fmt.Printf("  Secret: %s\n", account.Secret)

			uri, err := otpauth.BuildURI(otpauth.URIParams{
				Name:   account.Name,
				Secret: account.Secret,
				Issuer: account.Issuer,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "  Warning: could not build URI: %v\n", err)
			} else {
				fmt.Printf("  URI: %s\n", uri)
			}
			fmt.Println()
		}

		fmt.Printf("Recovered %d accounts\n", len(accounts))
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for the Authkeep CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("authkeep version %s\n", getVersion())
		if getCommit() != "unknown" {
			fmt.Printf("commit: %s\n", getCommit())
		}
		if getBuildTime() != "unknown" {
			fmt.Printf("built: %s\n", getBuildTime())
		}
	},
}

// Command flag initialization
func init() {
	// add command flags
	addCmd.Flags().String("issuer", "", "Issuing service name (e.g. GitHub)")
	addCmd.Flags().BoolP("generate", "g", false, "Generate a fresh random secret")

	// list command flags
	listCmd.Flags().String("format", "list", "Output format: list, table, json")

	// code command flags
	codeCmd.Flags().Bool("no-copy", false, "Don't copy the code to the clipboard")

	// update command flags
	updateCmd.Flags().String("name", "", "New account name")
	updateCmd.Flags().String("issuer", "", "New issuer")
	updateCmd.Flags().Bool("rotate-secret", false, "Prompt for a replacement secret")

	// export command flags
	exportCmd.Flags().String("qr", "", "Write a QR code PNG to this path instead of printing the URI")
	exportCmd.Flags().Int("qr-size", otpauth.DefaultQRSize, "QR code edge length in pixels")
}

// printAccountsList prints accounts in a simple list format
func printAccountsList(accounts []database.Account) {
	for _, account := range accounts {
		fmt.Printf("%4d  %-40s (created %s)\n",
			account.ID,
			account.Label(),
			account.CreatedAt.Format("2006-01-02"))
	}
}

// printAccountsTable prints accounts in a table format
func printAccountsTable(accounts []database.Account) {
	fmt.Printf("%-6s %-30s %-20s %-12s\n", "ID", "NAME", "ISSUER", "CREATED")
	fmt.Printf("%-6s %-30s %-20s %-12s\n",
		strings.Repeat("-", 6), strings.Repeat("-", 30), strings.Repeat("-", 20), strings.Repeat("-", 12))

	for _, account := range accounts {
		fmt.Printf("%-6d %-30s %-20s %-12s\n",
			account.ID,
			truncateString(account.Name, 30),
			truncateString(account.Issuer, 20),
			account.CreatedAt.Format("2006-01-02"))
	}
}

// printAccountsJSON prints accounts as JSON, secrets excluded.
func printAccountsJSON(accounts []database.Account) error {
	type entry struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Issuer    string `json:"issuer,omitempty"`
		CreatedAt string `json:"created_at"`
	}

	entries := make([]entry, 0, len(accounts))
	for _, account := range accounts {
		entries = append(entries, entry{
			ID:        account.ID,
			Name:      account.Name,
			Issuer:    account.Issuer,
			CreatedAt: account.CreatedAt.Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// truncateString truncates a string to the specified length
func truncateString(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

// Version information functions (these would be set by build flags)
var (
	versionInfo = struct {
		version string
		commit  string
		date    string
	}{
		version: "dev",
		commit:  "unknown",
		date:    "unknown",
	}
)

func getVersion() string {
	return versionInfo.version
}

func getBuildTime() string {
	return versionInfo.date
}

func getCommit() string {
	return versionInfo.commit
}
