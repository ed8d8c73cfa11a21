package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cacheFile   string
	cacheList   bool
	cacheDelete bool
)

// cacheCmd reads a remembered setting
var cacheCmd = &cobra.Command{
	Use:   "cache [key] [default]",
	Short: "Print a remembered setting, storing the default if it is unset",
	Long: `Looks up key in the settings store. If the key is missing, default is
stored and printed; later calls print the stored value.

Example:
  forge cache install_dir 'C:\Qt'
  forge cache --list
  forge cache --delete install_dir`,
	Args: cacheArgs,
	RunE: cacheGet,
}

func cacheArgs(cmd *cobra.Command, args []string) error {
	switch {
	case cacheList:
		return cobra.NoArgs(cmd, args)
	case cacheDelete:
		return cobra.ExactArgs(1)(cmd, args)
	default:
		return cobra.ExactArgs(2)(cmd, args)
	}
}

func cacheGet(cmd *cobra.Command, args []string) error {
	path := cacheFile
	if path == "" {
		path = cfg.Cache.SettingsFile
	}

	store := openSettings(path)
	logger.Debug("opened settings store",
		zap.String("path", store.Path()),
		zap.Int("entries", store.Len()))

	out := cmd.OutOrStdout()
	switch {
	case cacheList:
		for _, key := range store.Keys() {
			value, _ := store.Get(key)
			fmt.Fprintf(out, "%s=%v\n", key, value)
		}
	case cacheDelete:
		store.Delete(args[0])
	default:
		fmt.Fprintln(out, store.GetOrInsert(args[0], args[1]))
	}

	if err := store.Close(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
