package main

import (
	"fmt"
	"os"

	"toolforge/internal/config"
	"toolforge/internal/paths"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the forge configuration file",
}

// configInitCmd writes the default configuration
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Writes the default configuration to --config, or to ./forge.yaml when
--config is not given. An existing file is kept unless --force is set.`,
	Args: cobra.NoArgs,
	RunE: configInit,
}

func configInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = paths.ConfigFileName
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	logger.Info("wrote default configuration", zap.String("path", path))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
