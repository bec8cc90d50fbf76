package model

// ConfigVersion is the current schema version. Reading a config with a
// different version triggers a backup-and-merge migration.
const ConfigVersion = "1.0.0"

// GlobalConfig is the versioned config document at a storage root
type GlobalConfig struct {
	Version      string                 `json:"version"`
	CreatedAt    string                 `json:"createdAt"`
	LastModified string                 `json:"lastModified"`
	Preferences  map[string]interface{} `json:"preferences"`
}

// ProjectConfig is a GlobalConfig plus project identity. Reads of a project
// config are merged over the global config (project wins).
type ProjectConfig struct {
	GlobalConfig
	ProjectName  string `json:"projectName,omitempty"`
	ParentConfig string `json:"parentConfig,omitempty"`
}

// Clone returns a deep copy (preferences map copied key by key)
func (c *GlobalConfig) Clone() *GlobalConfig {
	out := &GlobalConfig{
		Version:      c.Version,
		CreatedAt:    c.CreatedAt,
		LastModified: c.LastModified,
		Preferences:  make(map[string]interface{}, len(c.Preferences)),
	}
	for k, v := range c.Preferences {
		out.Preferences[k] = v
	}
	return out
}
