package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/AlexZinkM/wallet-store/internal/config"
	"github.com/AlexZinkM/wallet-store/internal/logging"
	"github.com/AlexZinkM/wallet-store/internal/model"
)

// FindProjectStorageRoot walks upward from startDir toward the filesystem
// root, testing each level for the project marker directory. Returns the
// marker directory path of the first match, or ok=false if the root is
// reached without finding one.
func FindProjectStorageRoot(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	marker := config.GetMarkerName()

	for {
		candidate := filepath.Join(dir, marker)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// IsInProject reports whether startDir lives inside a project with storage
func IsInProject(startDir string) bool {
	_, ok := FindProjectStorageRoot(startDir)
	return ok
}

// ProjectBackend manages a project-scoped storage root. It holds a private
// global backend purely for configuration inheritance.
type ProjectBackend struct {
	backend *Backend
	global  *Backend
	layout  ProjectLayout
}

// NewProjectBackend creates a project backend at an explicit storage root.
// The path must already exist (an explicit init step creates it); otherwise
// fails with ProjectStorageNotFoundError.
func NewProjectBackend(path string) (*ProjectBackend, error) {
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return nil, &model.ProjectStorageNotFoundError{Path: path}
	}
	return &ProjectBackend{
		backend: NewBackend(path),
		global:  NewGlobalBackend(),
		layout:  NewProjectLayout(path),
	}, nil
}

// DiscoverProjectBackend locates the project storage root by the upward walk
// and builds a backend for it.
func DiscoverProjectBackend(startDir string) (*ProjectBackend, error) {
	root, ok := FindProjectStorageRoot(startDir)
	if !ok {
		return nil, &model.ProjectStorageNotFoundError{}
	}
	return NewProjectBackend(root)
}

// Layout returns the project path layout
func (p *ProjectBackend) Layout() ProjectLayout {
	return p.layout
}

// BasePath returns the project storage root directory
func (p *ProjectBackend) BasePath() string {
	return p.layout.Base
}

// Global exposes the composed global backend
func (p *ProjectBackend) Global() *Backend {
	return p.global
}

// Initialize creates the shared layout plus the project-specific locations:
// active-state file, deployed-contracts file, ABI cache directory, wallet
// test-fixtures file, transaction queue file and transaction history
// directory. On first run it also writes a generated .gitignore covering the
// subpaths that contain secrets.
func (p *ProjectBackend) Initialize(force bool) error {
	if err := p.backend.Initialize(force); err != nil {
		return err
	}

	for _, dir := range []string{p.layout.TransactionsDir, p.layout.ABICacheDir, p.layout.TxHistoryDir} {
		if err := ensureDir(dir); err != nil {
			return &model.StorageInitError{Path: dir, Message: err.Error()}
		}
	}

	seedFiles := map[string]string{
		p.layout.DeployedContractsFile: "[]\n",
		p.layout.TestWalletsFile:       "[]\n",
		p.layout.TxQueueFile:           "[]\n",
	}
	for path, content := range seedFiles {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), FileMode); err != nil {
				return &model.StorageInitError{Path: path, Message: err.Error()}
			}
		}
	}

	if _, err := os.Stat(p.layout.ActiveStateFile); os.IsNotExist(err) || force {
		if err := p.writeActiveState(defaultActiveState()); err != nil {
			return &model.StorageInitError{Path: p.layout.ActiveStateFile, Message: err.Error()}
		}
	}

	if _, err := os.Stat(p.layout.GitignoreFile); os.IsNotExist(err) {
		if err := os.WriteFile(p.layout.GitignoreFile, []byte(gitignoreContent()), GitignoreMode); err != nil {
			return &model.StorageInitError{Path: p.layout.GitignoreFile, Message: err.Error()}
		}
	}
	return nil
}

// gitignoreContent lists the subpaths that contain secrets so a VCS does not
// capture them.
func gitignoreContent() string {
	return "# wallet storage: secret material, do not commit\n" +
		"auth/\n" +
		"active.json\n" +
		"transactions/history/\n" +
		"wallets/testing.json\n"
}

// ReadConfig reads the project config and inherits from the global config:
// preferences merge key-by-key and all other top-level fields merge shallowly,
// project winning on conflicts. If the global config is unreadable for any
// reason, the project config is returned alone.
func (p *ProjectBackend) ReadConfig() (*model.ProjectConfig, error) {
	project, err := p.readProjectConfig()
	if err != nil {
		return nil, err
	}

	global, err := p.global.ReadConfig()
	if err != nil {
		logging.L().Debug("global config unreadable, using project config alone", zap.Error(err))
		return project, nil
	}
	return MergeConfigs(project, global), nil
}

func (p *ProjectBackend) readProjectConfig() (*model.ProjectConfig, error) {
	raw, err := os.ReadFile(p.layout.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.ProjectConfig{GlobalConfig: *DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	var cfg model.ProjectConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, &model.ConfigCorruptedError{Path: p.layout.ConfigFile, Message: err.Error()}
	}
	if cfg.Version == "" {
		return nil, &model.ConfigCorruptedError{Path: p.layout.ConfigFile, Message: "missing version field"}
	}
	if cfg.Preferences == nil {
		cfg.Preferences = map[string]interface{}{}
	}
	return &cfg, nil
}

// WriteConfig serializes the project config with a refreshed lastModified
// timestamp, owner read/write only.
func (p *ProjectBackend) WriteConfig(cfg *model.ProjectConfig) error {
	cfg.LastModified = time.Now().UTC().Format(time.RFC3339)
	if cfg.Preferences == nil {
		cfg.Preferences = map[string]interface{}{}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project config: %w", err)
	}
	if err := os.WriteFile(p.layout.ConfigFile, data, FileMode); err != nil {
		return fmt.Errorf("failed to write project config: %w", err)
	}
	return nil
}

// UpdatePreferences merges the partial preference set into the project config
func (p *ProjectBackend) UpdatePreferences(partial map[string]interface{}) error {
	cfg, err := p.readProjectConfig()
	if err != nil {
		return err
	}
	for k, v := range partial {
		cfg.Preferences[k] = v
	}
	return p.WriteConfig(cfg)
}

// ClearCache truncates cache files under the project root
func (p *ProjectBackend) ClearCache() error {
	return p.backend.ClearCache()
}

// StorageInfo reports the state of the project storage root
func (p *ProjectBackend) StorageInfo() *model.StorageInfo {
	return p.backend.StorageInfo()
}

// MergeConfigs merges a project config over a global config: shallow merge of
// top-level fields (project wins where set) and key-by-key merge of
// preferences (project wins on conflicts).
func MergeConfigs(project *model.ProjectConfig, global *model.GlobalConfig) *model.ProjectConfig {
	merged := &model.ProjectConfig{
		GlobalConfig: *global.Clone(),
		ProjectName:  project.ProjectName,
		ParentConfig: project.ParentConfig,
	}
	if project.Version != "" {
		merged.Version = project.Version
	}
	if project.CreatedAt != "" {
		merged.CreatedAt = project.CreatedAt
	}
	if project.LastModified != "" {
		merged.LastModified = project.LastModified
	}
	for k, v := range project.Preferences {
		merged.Preferences[k] = v
	}
	return merged
}

func defaultActiveState() *model.ActiveState {
	return &model.ActiveState{
		LastUsed: time.Now().UTC().Format(time.RFC3339),
	}
}

// ReadActiveState returns the project active state. Always readable: a
// missing file yields a default with only a fresh timestamp.
func (p *ProjectBackend) ReadActiveState() (*model.ActiveState, error) {
	raw, err := os.ReadFile(p.layout.ActiveStateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultActiveState(), nil
		}
		return nil, fmt.Errorf("failed to read active state: %w", err)
	}

	var state model.ActiveState
	if err := json.Unmarshal(raw, &state); err != nil {
		// unreadable state is treated like a missing one
		logging.L().Warn("active state unparsable, using default",
			zap.String("path", p.layout.ActiveStateFile), zap.Error(err))
		return defaultActiveState(), nil
	}
	return &state, nil
}

// UpdateActiveState merges the partial state over the stored one and
// refreshes the last-used timestamp.
func (p *ProjectBackend) UpdateActiveState(partial *model.ActiveState) error {
	state, err := p.ReadActiveState()
	if err != nil {
		return err
	}
	if partial.LastWallet != "" {
		state.LastWallet = partial.LastWallet
	}
	if partial.LastNetwork != "" {
		state.LastNetwork = partial.LastNetwork
	}
	state.LastUsed = time.Now().UTC().Format(time.RFC3339)
	return p.writeActiveState(state)
}

func (p *ProjectBackend) writeActiveState(state *model.ActiveState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal active state: %w", err)
	}
	if err := os.WriteFile(p.layout.ActiveStateFile, data, FileMode); err != nil {
		return fmt.Errorf("failed to write active state: %w", err)
	}
	return nil
}
