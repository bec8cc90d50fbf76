// wstore is the operator tool for the wallet storage core: initialize global
// or project storage, encrypt/decrypt private keys, inspect transaction
// history and clean up old records.
//
// Usage: wstore <command> [flags]
//
// Commands: init, init-project, encrypt-key, decrypt-key, verify-key,
// change-password, history, summary, cleanup, info, clear-cache
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/AlexZinkM/wallet-store/internal/common"
	"github.com/AlexZinkM/wallet-store/internal/config"
	"github.com/AlexZinkM/wallet-store/internal/crypto"
	"github.com/AlexZinkM/wallet-store/internal/ledger"
	"github.com/AlexZinkM/wallet-store/internal/logging"
	"github.com/AlexZinkM/wallet-store/internal/model"
	"github.com/AlexZinkM/wallet-store/internal/storage"
)

func main() {
	if err := config.Init(); err != nil {
		fatal(err)
	}
	if err := logging.Init(); err != nil {
		fatal(err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit(os.Args[2:])
	case "init-project":
		err = cmdInitProject(os.Args[2:])
	case "encrypt-key":
		err = cmdEncryptKey(os.Args[2:])
	case "decrypt-key":
		err = cmdDecryptKey(os.Args[2:])
	case "verify-key":
		err = cmdVerifyKey(os.Args[2:])
	case "change-password":
		err = cmdChangePassword(os.Args[2:])
	case "history":
		err = cmdHistory(os.Args[2:])
	case "summary":
		err = cmdSummary(os.Args[2:])
	case "cleanup":
		err = cmdCleanup(os.Args[2:])
	case "info":
		err = cmdInfo(os.Args[2:])
	case "clear-cache":
		err = cmdClearCache(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: wstore <command> [flags]")
	fmt.Fprintln(os.Stderr, "commands: init, init-project, encrypt-key, decrypt-key, verify-key,")
	fmt.Fprintln(os.Stderr, "          change-password, history, summary, cleanup, info, clear-cache")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// promptPassword reads a password from the terminal without echoing.
// Caller must zero the returned slice after use.
func promptPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	clear(raw)
	return out, nil
}

// resolveProject finds the project backend from the working directory
func resolveProject() (*storage.ProjectBackend, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return storage.DiscoverProjectBackend(cwd)
}

// authDir returns the credentials directory: project-scoped if the working
// directory is inside a project, the global one otherwise.
func authDir() (string, error) {
	if p, err := resolveProject(); err == nil {
		return p.Layout().AuthDir, nil
	}
	return storage.NewGlobalBackend().Layout().AuthDir, nil
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "reset config to defaults")
	fs.Parse(args)

	b := storage.NewGlobalBackend()
	if err := b.Initialize(*force); err != nil {
		return err
	}
	fmt.Println("initialized global storage at", b.BasePath())
	return nil
}

func cmdInitProject(args []string) error {
	fs := flag.NewFlagSet("init-project", flag.ExitOnError)
	force := fs.Bool("force", false, "reset config and active state to defaults")
	fs.Parse(args)

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	root := filepath.Join(cwd, config.GetMarkerName())
	if err := os.MkdirAll(root, 0o700); err != nil {
		return fmt.Errorf("failed to create project storage root: %w", err)
	}

	p, err := storage.NewProjectBackend(root)
	if err != nil {
		return err
	}
	if err := p.Initialize(*force); err != nil {
		return err
	}
	fmt.Println("initialized project storage at", p.BasePath())
	return nil
}

func cmdEncryptKey(args []string) error {
	fs := flag.NewFlagSet("encrypt-key", flag.ExitOnError)
	label := fs.String("label", "", "key label, also the record filename (required)")
	fs.Parse(args)
	if *label == "" {
		return errors.New("encrypt-key: -label is required")
	}

	rawKey, err := promptPassword("Enter raw private key (64 hex chars): ")
	if err != nil {
		return err
	}
	defer clear(rawKey)

	password, err := promptPassword("Enter encryption password: ")
	if err != nil {
		return err
	}
	defer clear(password)

	rec, err := crypto.EncryptPrivateKey(string(rawKey), password, *label)
	if err != nil {
		return err
	}

	dir, err := authDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key record: %w", err)
	}
	path := filepath.Join(dir, *label+".json")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key record already exists: %s", path)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write key record: %w", err)
	}
	fmt.Println("encrypted key written to", path)
	return nil
}

// readKeyRecord loads an encrypted key record by label
func readKeyRecord(label string) (*model.EncryptedKeyRecord, string, error) {
	dir, err := authDir()
	if err != nil {
		return nil, "", err
	}
	path := filepath.Join(dir, label+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read key record: %w", err)
	}
	var rec model.EncryptedKeyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, "", fmt.Errorf("failed to parse key record: %w", err)
	}
	return &rec, path, nil
}

func cmdDecryptKey(args []string) error {
	fs := flag.NewFlagSet("decrypt-key", flag.ExitOnError)
	label := fs.String("label", "", "key label (required)")
	fs.Parse(args)
	if *label == "" {
		return errors.New("decrypt-key: -label is required")
	}

	rec, _, err := readKeyRecord(*label)
	if err != nil {
		return err
	}

	password, err := promptPassword("Enter password: ")
	if err != nil {
		return err
	}
	defer clear(password)

	rawKey, err := crypto.DecryptPrivateKey(rec, password)
	if err != nil {
		return err
	}
	fmt.Println(rawKey)
	return nil
}

func cmdVerifyKey(args []string) error {
	fs := flag.NewFlagSet("verify-key", flag.ExitOnError)
	label := fs.String("label", "", "key label (required)")
	fs.Parse(args)
	if *label == "" {
		return errors.New("verify-key: -label is required")
	}

	rec, _, err := readKeyRecord(*label)
	if err != nil {
		return err
	}

	password, err := promptPassword("Enter password: ")
	if err != nil {
		return err
	}
	defer clear(password)

	if crypto.VerifyPassword(rec, password) {
		fmt.Println("password ok")
		return nil
	}
	return errors.New("password does not match")
}

func cmdChangePassword(args []string) error {
	fs := flag.NewFlagSet("change-password", flag.ExitOnError)
	label := fs.String("label", "", "key label (required)")
	fs.Parse(args)
	if *label == "" {
		return errors.New("change-password: -label is required")
	}

	rec, path, err := readKeyRecord(*label)
	if err != nil {
		return err
	}

	oldPassword, err := promptPassword("Enter current password: ")
	if err != nil {
		return err
	}
	defer clear(oldPassword)

	newPassword, err := promptPassword("Enter new password: ")
	if err != nil {
		return err
	}
	defer clear(newPassword)

	newRec, err := crypto.ChangeKeyPassword(rec, oldPassword, newPassword)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(newRec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to rewrite key record: %w", err)
	}
	fmt.Println("password changed for", path)
	return nil
}

// projectLedger builds the ledger over the resolved project's history dir
func projectLedger() (*ledger.Ledger, error) {
	p, err := resolveProject()
	if err != nil {
		return nil, err
	}
	return ledger.NewLedger(p.Layout().TxHistoryDir), nil
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	chain := fs.String("chain", "", "filter by chain id")
	status := fs.String("status", "", "filter by status (pending/success/failed)")
	minValue := fs.String("min-value", "", "minimum value in base units")
	maxValue := fs.String("max-value", "", "maximum value in base units")
	limit := fs.Int("limit", 0, "limit result count")
	fs.Parse(args)

	l, err := projectLedger()
	if err != nil {
		return err
	}

	filter := &model.TransactionFilter{}
	if *chain != "" {
		filter.ChainID = chain
	}
	if *status != "" {
		s := model.TransactionStatus(*status)
		filter.Status = &s
	}
	if *minValue != "" {
		filter.MinValue = minValue
	}
	if *maxValue != "" {
		filter.MaxValue = maxValue
	}
	if *limit > 0 {
		filter.Limit = limit
	}

	records, err := l.GetTransactionHistory(filter)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cmdSummary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	decimals := fs.Int("decimals", 0, "also print totals as decimal amounts with this many decimals")
	fs.Parse(args)

	l, err := projectLedger()
	if err != nil {
		return err
	}
	s := l.GetTransactionSummary()
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if *decimals > 0 {
		value, err := common.FormatBaseUnits(s.TotalValue, *decimals)
		if err != nil {
			return fmt.Errorf("failed to format total value: %w", err)
		}
		fmt.Printf("total value: %s\n", value)
	}
	return nil
}

func cmdCleanup(args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	fs.Parse(args)

	l, err := projectLedger()
	if err != nil {
		return err
	}
	l.CleanupOldTransactions()
	fmt.Println("cleanup done")
	return nil
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	global := fs.Bool("global", false, "inspect the global store even inside a project")
	fs.Parse(args)

	var info *model.StorageInfo
	if !*global {
		if p, err := resolveProject(); err == nil {
			info = p.StorageInfo()
		}
	}
	if info == nil {
		info = storage.NewGlobalBackend().StorageInfo()
	}

	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cmdClearCache(args []string) error {
	fs := flag.NewFlagSet("clear-cache", flag.ExitOnError)
	global := fs.Bool("global", false, "clear the global cache even inside a project")
	fs.Parse(args)

	if !*global {
		if p, err := resolveProject(); err == nil {
			if err := p.ClearCache(); err != nil {
				return err
			}
			fmt.Println("project cache cleared")
			return nil
		} else if !model.IsProjectStorageNotFoundError(err) {
			return err
		}
	}
	if err := storage.NewGlobalBackend().ClearCache(); err != nil {
		return err
	}
	fmt.Println("global cache cleared")
	return nil
}
