package paths

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName = "toolforge"

	// ConfigFileName is the name of the project-local configuration file.
	ConfigFileName = "forge.yaml"
)

// CacheDir returns the directory holding the persistent caches.
//
//	Linux:   $XDG_CACHE_HOME/toolforge or ~/.cache/toolforge
//	macOS:   ~/Library/Caches/toolforge
//	Windows: %LOCALAPPDATA%\cache\toolforge
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// FinderCache returns the default path of the file discovery cache.
func FinderCache() string {
	return filepath.Join(CacheDir(), "finder.json")
}

// SettingsCache returns the default path of the recipe settings store.
func SettingsCache() string {
	return filepath.Join(CacheDir(), "settings.json")
}

// UserConfig returns the default path of the user configuration file.
//
//	Linux:   $XDG_CONFIG_HOME/toolforge/forge.yaml
//	macOS:   ~/Library/Application Support/toolforge/forge.yaml
func UserConfig() string {
	return filepath.Join(xdg.ConfigHome, appName, ConfigFileName)
}
