// Package migrate performs the one-shot transfer of in-memory wallet state
// (custom chains, wallet addresses, preferences, cached ABIs) into a storage
// backend. The transfer is best-effort and non-transactional: each category
// is written independently and per-category failures are collected, not
// fatal. Private keys are never part of the snapshot or the migration.
package migrate

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/AlexZinkM/wallet-store/internal/logging"
	"github.com/AlexZinkM/wallet-store/internal/model"
	"github.com/AlexZinkM/wallet-store/internal/storage"
)

const (
	customChainsFileName     = "custom.json"
	importedWalletsFileName  = "imported.json"
	cachedABIsFileName       = "cached.json"
	migrationHistoryFileName = "migration-history.json"

	// walletExportNote is recorded alongside migrated addresses
	walletExportNote = "private keys were not migrated for security; re-import them manually"
)

// Backend is the slice of a storage backend the migrator needs. Both the
// global backend and a project backend satisfy it.
type Backend interface {
	BasePath() string
	UpdatePreferences(partial map[string]interface{}) error
}

// HasStateToMigrate reports whether the snapshot carries anything worth
// migrating: custom chains, wallet addresses or preferences. Cached ABIs
// alone do not count; they are cache, not user state.
func HasStateToMigrate(snap *model.StateSnapshot) bool {
	if snap == nil {
		return false
	}
	return len(snap.CustomChains) > 0 || len(snap.WalletAddresses) > 0 || len(snap.Preferences) > 0
}

// CreateStateBackup serializes the entire snapshot plus a creation timestamp
// to a uniquely named file under the backend's base directory and returns its
// path. The snapshot holds wallet addresses only, never raw private keys.
func CreateStateBackup(b Backend, snap *model.StateSnapshot) (string, error) {
	backup := struct {
		CreatedAt string               `json:"createdAt"`
		Snapshot  *model.StateSnapshot `json:"snapshot"`
	}{
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Snapshot:  snap,
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal state backup: %w", err)
	}

	// nanosecond resolution keeps two backups in the same second from colliding
	name := fmt.Sprintf("state-backup-%s.json", time.Now().UTC().Format("20060102T150405.000000000"))
	path := filepath.Join(b.BasePath(), name)
	if err := os.WriteFile(path, data, storage.FileMode); err != nil {
		return "", fmt.Errorf("failed to write state backup: %w", err)
	}
	return path, nil
}

// MigrateToStorage writes each non-empty snapshot category to its dedicated
// file and merges preferences into the stored config. Any per-category
// failure is collected and the remaining categories still run. Finally one
// entry is appended to the migration history log. Success is true iff no
// category failed.
func MigrateToStorage(b Backend, snap *model.StateSnapshot) *model.MigrationResult {
	result := &model.MigrationResult{
		MigratedItems: []string{},
		Errors:        []string{},
	}
	if snap == nil {
		snap = &model.StateSnapshot{}
	}
	layout := storage.NewLayout(b.BasePath())

	if len(snap.CustomChains) > 0 {
		if err := writeCustomChains(layout, snap.CustomChains); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("custom chains: %v", err))
		} else {
			result.MigratedItems = append(result.MigratedItems,
				fmt.Sprintf("%d custom chain(s) to networks/%s", len(snap.CustomChains), customChainsFileName))
		}
	}

	if len(snap.WalletAddresses) > 0 {
		if err := writeWalletAddresses(layout, snap.WalletAddresses); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("wallet addresses: %v", err))
		} else {
			result.MigratedItems = append(result.MigratedItems,
				fmt.Sprintf("%d wallet address(es) to wallets/%s (keys withheld)", len(snap.WalletAddresses), importedWalletsFileName))
		}
	}

	if len(snap.CachedABIs) > 0 {
		if err := writeCachedABIs(layout, snap.CachedABIs); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("cached ABIs: %v", err))
		} else {
			result.MigratedItems = append(result.MigratedItems,
				fmt.Sprintf("%d cached ABI(s) to contracts/%s", len(snap.CachedABIs), cachedABIsFileName))
		}
	}

	if len(snap.Preferences) > 0 {
		if err := b.UpdatePreferences(snap.Preferences); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("preferences: %v", err))
		} else {
			result.MigratedItems = append(result.MigratedItems,
				fmt.Sprintf("%d preference(s) merged into config", len(snap.Preferences)))
		}
	}

	if err := appendMigrationHistory(b.BasePath()); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("migration history: %v", err))
	}

	result.Success = len(result.Errors) == 0
	return result
}

func writeCustomChains(layout storage.Layout, chains map[string]model.ChainDefinition) error {
	list := make([]model.ChainDefinition, 0, len(chains))
	for _, c := range chains {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ChainID < list[j].ChainID })

	return writeJSONFile(filepath.Join(layout.NetworksDir, customChainsFileName), list)
}

// writeWalletAddresses exports addresses only, with a QR code per address.
// Private keys are explicitly withheld; the file says so.
func writeWalletAddresses(layout storage.Layout, addresses map[string]string) error {
	names := make([]string, 0, len(addresses))
	for name := range addresses {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]model.WalletExportEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, model.WalletExportEntry{
			Name:    name,
			Address: addresses[name],
			QR:      generateQRCode(addresses[name]),
		})
	}

	file := model.WalletExportFile{
		Note:       walletExportNote,
		Wallets:    entries,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return writeJSONFile(filepath.Join(layout.WalletsDir, importedWalletsFileName), file)
}

// generateQRCode generates a QR code of the address in base64, empty on failure
func generateQRCode(address string) string {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		logging.L().Warn("failed to create QR code", zap.String("address", address), zap.Error(err))
		return ""
	}
	png, err := qr.PNG(256)
	if err != nil {
		logging.L().Warn("failed to render QR code", zap.String("address", address), zap.Error(err))
		return ""
	}
	return base64.StdEncoding.EncodeToString(png)
}

func writeCachedABIs(layout storage.Layout, abis map[string]json.RawMessage) error {
	return writeJSONFile(filepath.Join(layout.ContractsDir, cachedABIsFileName), abis)
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), storage.DirMode); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, storage.FileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// appendMigrationHistory appends one entry to the append-only migration log
// at the storage root, creating the file if absent.
func appendMigrationHistory(basePath string) error {
	path := filepath.Join(basePath, migrationHistoryFileName)

	var history []model.MigrationHistoryEntry
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &history); err != nil {
			return fmt.Errorf("failed to parse migration history: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read migration history: %w", err)
	}

	history = append(history, model.MigrationHistoryEntry{
		Source:      "in-memory",
		Destination: "persistent-storage",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	return writeJSONFile(path, history)
}
