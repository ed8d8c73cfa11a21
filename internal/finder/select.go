package finder

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"toolforge/internal/logging"

	"go.uber.org/zap"
)

// PickMostRecent returns the most recently modified of paths.
//
// Ties keep the input order. When more than one candidate is given the
// choice is logged as a warning together with all candidates. A nil logger
// uses the finder category logger.
func PickMostRecent(paths []string, logger *zap.Logger) (string, bool) {
	if len(paths) == 0 {
		return "", false
	}
	if logger == nil {
		logger = logging.Get(logging.CategoryFinder)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	candidates := make([]candidate, len(paths))
	for i, p := range paths {
		candidates[i] = candidate{path: p}
		info, err := os.Stat(p)
		if err != nil {
			// zero time sorts last
			logger.Debug("cannot stat candidate", zap.String("path", p), zap.Error(err))
			continue
		}
		candidates[i].modTime = info.ModTime()
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})

	picked := candidates[0].path
	if len(candidates) > 1 {
		logger.Warn("multiple files found, returning most recently modified",
			zap.String("name", filepath.Base(paths[0])),
			zap.Strings("candidates", paths),
			zap.String("selected", picked))
	}
	return picked, true
}
