// Package storage implements the file-backed persistence layout: a global
// storage root under the user's home directory, and optional project-scoped
// roots discovered by walking the directory tree upward for a marker
// directory. A project backend composes a global backend for configuration
// inheritance instead of extending it.
package storage

import "path/filepath"

const (
	// ConfigFileName is the config document at every storage root
	ConfigFileName = "config.json"

	// Owner-only modes for everything that may hold secrets
	FileMode = 0o600
	DirMode  = 0o700

	// GitignoreMode keeps the generated ignore file world-readable
	GitignoreMode = 0o644
)

// Layout is the set of named paths rooted at one base directory
type Layout struct {
	Base           string
	ConfigFile     string
	AuthDir        string
	WalletsDir     string
	NetworksDir    string
	ContractsDir   string
	AddressBookDir string
	CacheDir       string
	TemplatesDir   string
}

// NewLayout builds the layout for a base directory
func NewLayout(base string) Layout {
	return Layout{
		Base:           base,
		ConfigFile:     filepath.Join(base, ConfigFileName),
		AuthDir:        filepath.Join(base, "auth"),
		WalletsDir:     filepath.Join(base, "wallets"),
		NetworksDir:    filepath.Join(base, "networks"),
		ContractsDir:   filepath.Join(base, "contracts"),
		AddressBookDir: filepath.Join(base, "addressbook"),
		CacheDir:       filepath.Join(base, "cache"),
		TemplatesDir:   filepath.Join(base, "templates"),
	}
}

// Subdirectories returns the named layout subdirectories
func (l Layout) Subdirectories() map[string]string {
	return map[string]string{
		"auth":        l.AuthDir,
		"wallets":     l.WalletsDir,
		"networks":    l.NetworksDir,
		"contracts":   l.ContractsDir,
		"addressbook": l.AddressBookDir,
		"cache":       l.CacheDir,
		"templates":   l.TemplatesDir,
	}
}

// ProjectLayout adds the project-only file locations to a Layout
type ProjectLayout struct {
	Layout
	ActiveStateFile       string
	DeployedContractsFile string
	ABICacheDir           string
	TestWalletsFile       string
	TransactionsDir       string
	TxQueueFile           string
	TxHistoryDir          string
	GitignoreFile         string
}

// NewProjectLayout builds the project layout for a base directory
func NewProjectLayout(base string) ProjectLayout {
	l := NewLayout(base)
	return ProjectLayout{
		Layout:                l,
		ActiveStateFile:       filepath.Join(base, "active.json"),
		DeployedContractsFile: filepath.Join(l.ContractsDir, "deployed.json"),
		ABICacheDir:           filepath.Join(l.ContractsDir, "abis"),
		TestWalletsFile:       filepath.Join(l.WalletsDir, "testing.json"),
		TransactionsDir:       filepath.Join(base, "transactions"),
		TxQueueFile:           filepath.Join(base, "transactions", "queue.json"),
		TxHistoryDir:          filepath.Join(base, "transactions", "history"),
		GitignoreFile:         filepath.Join(base, ".gitignore"),
	}
}
