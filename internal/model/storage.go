package model

// PathInfo reports accessibility of one layout path
type PathInfo struct {
	Exists   bool `json:"exists"`
	Readable bool `json:"readable"`
	Writable bool `json:"writable"`
}

// StorageInfo reports the state of one storage root
type StorageInfo struct {
	Initialized    bool                `json:"initialized"`
	BasePath       string              `json:"basePath"`
	Base           PathInfo            `json:"base"`
	Subdirectories map[string]PathInfo `json:"subdirectories"`
	TotalSizeBytes int64               `json:"totalSizeBytes"`
}
