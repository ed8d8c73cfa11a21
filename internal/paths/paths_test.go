package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCachePathsShareDirectory(t *testing.T) {
	dir := CacheDir()
	assert.Equal(t, appName, filepath.Base(dir))
	assert.Equal(t, dir, filepath.Dir(FinderCache()))
	assert.Equal(t, dir, filepath.Dir(SettingsCache()))
	assert.NotEqual(t, FinderCache(), SettingsCache())
}

func TestUserConfig(t *testing.T) {
	assert.Equal(t, ConfigFileName, filepath.Base(UserConfig()))
	assert.Equal(t, appName, filepath.Base(filepath.Dir(UserConfig())))
}
