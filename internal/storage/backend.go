package storage

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/AlexZinkM/wallet-store/internal/config"
	"github.com/AlexZinkM/wallet-store/internal/logging"
	"github.com/AlexZinkM/wallet-store/internal/model"
)

// Backend manages one storage root: directory layout, permissioned file I/O
// and the versioned config document.
type Backend struct {
	layout Layout
}

// NewBackend creates a backend rooted at base
func NewBackend(base string) *Backend {
	return &Backend{layout: NewLayout(base)}
}

// NewGlobalBackend creates a backend rooted at the conventional global
// location (WSTORE_HOME, or the marker directory under the user's home).
func NewGlobalBackend() *Backend {
	return NewBackend(config.GetGlobalStorageRoot())
}

// Layout returns the backend's path layout
func (b *Backend) Layout() Layout {
	return b.layout
}

// BasePath returns the storage root directory
func (b *Backend) BasePath() string {
	return b.layout.Base
}

// Initialize creates the base directory and all layout subdirectories with
// owner-only permissions, re-applying permissions when they already exist,
// and writes a default config if none is present. An existing config at a
// different schema version is migrated: the raw old content is backed up to a
// timestamped file, then a merged config is written at the current version.
// With force, the config is reset to defaults even if present.
func (b *Backend) Initialize(force bool) error {
	if err := ensureDir(b.layout.Base); err != nil {
		return &model.StorageInitError{Path: b.layout.Base, Message: err.Error()}
	}
	for _, dir := range b.layout.Subdirectories() {
		if err := ensureDir(dir); err != nil {
			return &model.StorageInitError{Path: dir, Message: err.Error()}
		}
	}

	if _, err := os.Stat(b.layout.ConfigFile); os.IsNotExist(err) || force {
		if err := b.WriteConfig(DefaultConfig()); err != nil {
			return &model.StorageInitError{Path: b.layout.ConfigFile, Message: err.Error()}
		}
		return nil
	}

	if err := b.migrateConfigVersion(); err != nil {
		return &model.StorageInitError{Path: b.layout.ConfigFile, Message: err.Error()}
	}
	return nil
}

// ensureDir creates dir with owner-only permissions. An existing directory is
// not an error: permissions are simply reapplied.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.Chmod(dir, DirMode); err != nil {
		return fmt.Errorf("failed to set directory permissions: %w", err)
	}
	return nil
}

// DefaultConfig returns the hard-coded default config document
func DefaultConfig() *model.GlobalConfig {
	now := time.Now().UTC().Format(time.RFC3339)
	return &model.GlobalConfig{
		Version:      model.ConfigVersion,
		CreatedAt:    now,
		LastModified: now,
		Preferences:  map[string]interface{}{},
	}
}

// migrateConfigVersion checks the on-disk config version and, if it differs
// from the current schema version, backs up the raw file and rewrites a
// merged config at the current version.
func (b *Backend) migrateConfigVersion() error {
	raw, err := os.ReadFile(b.layout.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg model.GlobalConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return &model.ConfigCorruptedError{Path: b.layout.ConfigFile, Message: err.Error()}
	}
	if cfg.Version == model.ConfigVersion {
		return nil
	}

	backupPath := filepath.Join(b.layout.Base,
		fmt.Sprintf("config-backup-%s.json", time.Now().UTC().Format("20060102T150405")))
	if err := os.WriteFile(backupPath, raw, FileMode); err != nil {
		return fmt.Errorf("failed to write config backup: %w", err)
	}

	merged := DefaultConfig()
	if cfg.CreatedAt != "" {
		merged.CreatedAt = cfg.CreatedAt
	}
	for k, v := range cfg.Preferences {
		merged.Preferences[k] = v
	}
	return b.WriteConfig(merged)
}

// ReadConfig returns the parsed config. A missing file yields the hard-coded
// default; a present but unparsable file, or one without a version field,
// fails with ConfigCorruptedError. A config at a different schema version is
// migrated on read: backed up, merged with defaults and rewritten at the
// current version.
func (b *Backend) ReadConfig() (*model.GlobalConfig, error) {
	raw, err := os.ReadFile(b.layout.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg model.GlobalConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, &model.ConfigCorruptedError{Path: b.layout.ConfigFile, Message: err.Error()}
	}
	if cfg.Version == "" {
		return nil, &model.ConfigCorruptedError{Path: b.layout.ConfigFile, Message: "missing version field"}
	}
	if cfg.Version != model.ConfigVersion {
		if err := b.migrateConfigVersion(); err != nil {
			return nil, err
		}
		return b.ReadConfig() // the rewritten file is at the current version
	}
	if cfg.Preferences == nil {
		cfg.Preferences = map[string]interface{}{}
	}
	return &cfg, nil
}

// WriteConfig serializes the config with a refreshed lastModified timestamp.
// File permissions restricted to owner read/write.
func (b *Backend) WriteConfig(cfg *model.GlobalConfig) error {
	cfg.LastModified = time.Now().UTC().Format(time.RFC3339)
	if cfg.Preferences == nil {
		cfg.Preferences = map[string]interface{}{}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(b.layout.ConfigFile, data, FileMode); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// UpdatePreferences merges the partial preference set into the stored config
func (b *Backend) UpdatePreferences(partial map[string]interface{}) error {
	cfg, err := b.ReadConfig()
	if err != nil {
		return err
	}
	for k, v := range partial {
		cfg.Preferences[k] = v
	}
	return b.WriteConfig(cfg)
}

// ClearCache truncates every regular file under the cache subdirectory,
// leaving the directory structure intact. A no-op if the cache directory
// does not exist.
func (b *Backend) ClearCache() error {
	if _, err := os.Stat(b.layout.CacheDir); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(b.layout.CacheDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := os.Truncate(path, 0); err != nil {
			return fmt.Errorf("failed to truncate cache file: %w", err)
		}
		return nil
	})
}

// StorageInfo reports initialization state, accessibility of the base
// directory and each subdirectory, and the recursively computed total size.
// Size computation is best-effort: I/O errors are logged and contribute zero.
func (b *Backend) StorageInfo() *model.StorageInfo {
	info := &model.StorageInfo{
		BasePath:       b.layout.Base,
		Base:           pathInfo(b.layout.Base),
		Subdirectories: make(map[string]model.PathInfo),
	}
	for name, dir := range b.layout.Subdirectories() {
		info.Subdirectories[name] = pathInfo(dir)
	}

	if _, err := os.Stat(b.layout.ConfigFile); err == nil {
		info.Initialized = true
	}

	info.TotalSizeBytes = dirSize(b.layout.Base)
	return info
}

// pathInfo probes one path. Readable means it can be opened; writable is
// judged from the owner write bit.
func pathInfo(path string) model.PathInfo {
	st, err := os.Stat(path)
	if err != nil {
		return model.PathInfo{}
	}
	info := model.PathInfo{Exists: true, Writable: st.Mode().Perm()&0o200 != 0}
	f, err := os.Open(path)
	if err == nil {
		info.Readable = true
		f.Close()
	}
	return info
}

// dirSize sums regular file sizes under root, swallowing I/O errors
func dirSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.L().Debug("skipping path during size computation",
				zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			return nil
		}
		total += st.Size()
		return nil
	})
	return total
}
