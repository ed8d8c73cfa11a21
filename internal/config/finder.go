package config

// FinderConfig configures file discovery.
type FinderConfig struct {
	// Persistent result cache, empty disables it
	CacheFile string `yaml:"cache_file" json:"cache_file,omitempty"`

	// Top-level directories containing this are never searched
	RecycleMarker string `yaml:"recycle_marker" json:"recycle_marker,omitempty"`
}

// CacheConfig configures the settings store used by recipes.
type CacheConfig struct {
	SettingsFile string `yaml:"settings_file" json:"settings_file,omitempty"`
}
