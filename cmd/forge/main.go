package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"toolforge/internal/config"
	"toolforge/internal/logging"
	"toolforge/internal/paths"
	"toolforge/internal/shell"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Set with -ldflags "-X main.version=..."
var version = "dev"

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "forge - locate toolchains and run build recipes",
	Long: `forge finds build tools on disk and runs command sequences in a single
shell session, so environment set up by one step (vcvarsall.bat, a
virtualenv, a sourced profile) is visible to the next.

Ctrl-C kills the running shell and everything it started.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(resolveConfigPath())
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if _, err := logging.Initialize(cfg.Logging.Options()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logging.Get(logging.CategoryBoot)
		logger.Debug("configuration loaded", zap.String("path", resolveConfigPath()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the forge version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "forge %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./forge.yaml, then the user config)")

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the planned commands without running them")
	runCmd.Flags().BoolVar(&watch, "watch", false, "Run again whenever the recipe file changes")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Kill the shell after this long (0 = no limit)")

	findCmd.Flags().StringSliceVar(&findConstraints, "constraint", nil, "Substring required in directory names, one per depth")
	findCmd.Flags().BoolVar(&findNoCache, "no-cache", false, "Always walk the tree")

	cacheCmd.Flags().StringVar(&cacheFile, "file", "", "Settings file (default from config)")
	cacheCmd.Flags().BoolVar(&cacheList, "list", false, "Print every stored setting")
	cacheCmd.Flags().BoolVar(&cacheDelete, "delete", false, "Forget the setting stored under key")

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfigPath prefers --config, then forge.yaml in the working
// directory, then the per-user config file.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if _, err := os.Stat(paths.ConfigFileName); err == nil {
		return paths.ConfigFileName
	}
	return paths.UserConfig()
}

// exitCode maps a command error to the process exit status. A failed shell
// session passes its own exit code through.
func exitCode(err error) int {
	var execErr *shell.ExecutionError
	if errors.As(err, &execErr) && execErr.ExitCode > 0 {
		return execErr.ExitCode
	}
	return 1
}

// reportError writes err to w. A failed shell session's captured output
// goes first so the failing command's diagnostics are never lost, whatever
// the log level.
func reportError(w io.Writer, err error) {
	var execErr *shell.ExecutionError
	if errors.As(err, &execErr) && execErr.Output != "" {
		fmt.Fprint(w, execErr.Output)
	}
	fmt.Fprintln(w, err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
