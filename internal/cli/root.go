package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/authkeep/go/internal/clipboard"
	"github.com/authkeep/go/internal/config"
	"github.com/authkeep/go/internal/crypto"
	"github.com/authkeep/go/internal/database"
	"github.com/authkeep/go/internal/keyring"
	"github.com/authkeep/go/internal/otpauth"
	"github.com/authkeep/go/internal/secret"
	"github.com/authkeep/go/internal/totp"
)

var (
	// Global flags
	dataDir     string
	verbose     bool
	force       bool
	noClipboard bool

	// Global instances
	paths        config.Paths
	cfg          config.Config
	store        *database.Store
	masterKey    crypto.MasterKey
	keyringMgr   *keyring.Manager
	clipboardMgr *clipboard.Manager
	logger       *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "authkeep",
	Short: "A local two-factor authentication code manager",
	Long: `Authkeep stores TOTP secrets encrypted on your machine and generates
the 6-digit codes standard authenticator apps produce, without a phone.

Features:
- AES-256-GCM encrypted secret storage (SQLite)
- RFC 6238 compatible 6-digit codes
- Live refreshing code view
- otpauth:// URL import and QR code export
- Optional system keyring backup of the encryption key

Examples:
  authkeep add github            # Store a secret (hidden prompt)
  authkeep list                  # List stored accounts
  authkeep code 1                # Print the current code for account 1
  authkeep watch                 # Live view of all codes
  authkeep import 'otpauth://totp/...'`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initializeGlobals()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
		masterKey.Zeroize()
	},
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion sets the version information for the CLI
func SetVersion(version, commit, date string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.date = date
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", config.DefaultDataDir(), "Directory holding the database, key file, and config")
	rootCmd.PersistentFlags().BoolVarP(&force, "force", "f", false, "Force operation without confirmation")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noClipboard, "no-clipboard", false, "Disable clipboard integration")

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{ID: "accounts", Title: "Account Management:"})
	rootCmd.AddGroup(&cobra.Group{ID: "codes", Title: "Code Operations:"})
	rootCmd.AddGroup(&cobra.Group{ID: "transfer", Title: "Import & Export:"})
	rootCmd.AddGroup(&cobra.Group{ID: "management", Title: "Management Commands:"})

	// Account management
	addCmd.GroupID = "accounts"
	listCmd.GroupID = "accounts"
	updateCmd.GroupID = "accounts"
	deleteCmd.GroupID = "accounts"

	// Code operations
	codeCmd.GroupID = "codes"
	watchCmd.GroupID = "codes"
	verifyCmd.GroupID = "codes"

	// Import & export
	importCmd.GroupID = "transfer"
	exportCmd.GroupID = "transfer"
	recoverCmd.GroupID = "transfer"

	// Management commands
	versionCmd.GroupID = "management"
	keyringCmd.GroupID = "management"

	// Add subcommands
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(codeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(keyringCmd)
}

// initializeGlobals resolves paths, loads the config file, and sets up the
// logger and optional integrations. The store itself is opened lazily by
// the commands that need it.
func initializeGlobals() {
	paths = config.ResolvePaths(dataDir)

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var err error
	cfg, err = config.Load(paths.ConfigPath)
	if err != nil {
		logger.Warn("falling back to default configuration", "error", err)
	}

	keyringMgr = keyring.NewManager()

	if cfg.Clipboard.Enabled && !noClipboard && clipboard.IsSupported() {
		clipboardMgr = clipboard.NewManager()
	}

	logger.Debug("initialized",
		"data_dir", paths.DataDir,
		"database", paths.DatabasePath,
		"clipboard", clipboardMgr != nil)
}

// openStore loads (or on a true first run, creates) the encryption key and
// opens the credential database. A missing key file combined with existing
// account rows aborts: regenerating the key would orphan every stored
// secret.
func openStore() error {
	if store != nil {
		return nil
	}

	if err := paths.EnsureDataDir(); err != nil {
		return err
	}

	accountsExist, err := database.HasAccounts(paths.DatabasePath)
	if err != nil {
		return err
	}

	_, statErr := os.Stat(paths.KeyPath)
	firstRun := os.IsNotExist(statErr)

	masterKey, err = crypto.EnsureKeyFile(paths.KeyPath, accountsExist)
	if err != nil {
		return err
	}
	if firstRun {
		logger.Info("generated new encryption key", "path", paths.KeyPath)
	}

	store, err = database.Open(paths.DatabasePath, masterKey, logger)
	return err
}

// promptSecret prompts for a value with hidden input.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)

	// Read without echoing to the terminal
	valueBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()

	if err != nil {
		return "", err
	}
	return string(valueBytes), nil
}

// confirm asks a y/N question unless --force was given.
func confirm(question string) bool {
	if force {
		return true
	}

	fmt.Printf("%s (y/N): ", question)
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// parseAccountID parses a positional account id argument.
func parseAccountID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid account id %q", arg)
	}
	return id, nil
}

// handleError handles errors with appropriate output and exit codes
func handleError(err error, message string) {
	if err == nil {
		return
	}

	if message != "" {
		fmt.Fprintf(os.Stderr, "%s: %v\n", message, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	// Specific handling for common errors
	switch {
	case errors.Is(err, crypto.ErrKeyFileMissingWithData):
		os.Exit(2)
	case errors.Is(err, database.ErrAccountNotFound):
		os.Exit(3)
	case errors.Is(err, database.ErrNameRequired),
		errors.Is(err, secret.ErrTooShort),
		errors.Is(err, secret.ErrInvalidCharacters),
		errors.Is(err, secret.ErrNotBase32),
		errors.Is(err, totp.ErrInvalidCode),
		errors.Is(err, otpauth.ErrNotOTPAuthURL),
		errors.Is(err, otpauth.ErrNotTOTPType),
		errors.Is(err, otpauth.ErrMalformedURL),
		errors.Is(err, otpauth.ErrSecretMissing):
		os.Exit(4)
	default:
		os.Exit(1)
	}
}

// printVerbose prints verbose output if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}
