package model

import "encoding/json"

// ActiveState holds the last-used wallet/network for a project store.
// Always readable: a missing file yields a default with a fresh timestamp.
type ActiveState struct {
	LastWallet  string `json:"lastWallet,omitempty"`
	LastNetwork string `json:"lastNetwork,omitempty"`
	LastUsed    string `json:"lastUsed"`
}

// ChainDefinition describes a user-added network
type ChainDefinition struct {
	ChainID  string `json:"chainId"`
	Name     string `json:"name"`
	RPCURL   string `json:"rpcUrl,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Explorer string `json:"explorer,omitempty"`
}

// StateSnapshot is the in-memory state handed to the migrator: custom chains,
// wallet addresses (never private keys), user preferences and cached ABIs.
type StateSnapshot struct {
	CustomChains    map[string]ChainDefinition `json:"customChains,omitempty"`
	WalletAddresses map[string]string          `json:"walletAddresses,omitempty"` // name -> address
	Preferences     map[string]interface{}     `json:"preferences,omitempty"`
	CachedABIs      map[string]json.RawMessage `json:"cachedAbis,omitempty"`
}

// MigrationResult reports one migration run. Success is true iff Errors is empty.
type MigrationResult struct {
	Success       bool     `json:"success"`
	MigratedItems []string `json:"migratedItems"`
	Errors        []string `json:"errors"`
}

// MigrationHistoryEntry is one append-only record in the migration history log
type MigrationHistoryEntry struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Timestamp   string `json:"timestamp"`
}

// WalletExportEntry is one migrated wallet address with its QR code (base64 PNG)
type WalletExportEntry struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	QR      string `json:"QR,omitempty"`
}

// WalletExportFile is the wallets file written by the migrator. Note records
// that private keys were deliberately withheld.
type WalletExportFile struct {
	Note       string              `json:"note"`
	Wallets    []WalletExportEntry `json:"wallets"`
	ExportedAt string              `json:"exportedAt"`
}
