package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"toolforge/internal/diskcache"
	"toolforge/internal/finder"
	"toolforge/internal/logging"
	"toolforge/internal/recipe"
	"toolforge/internal/shell"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dryRun     bool
	watch      bool
	runTimeout time.Duration
)

// runCmd executes a recipe
var runCmd = &cobra.Command{
	Use:   "run [recipe.yaml]",
	Short: "Resolve a recipe's tools and settings and run its steps",
	Long: `Loads a YAML recipe, locates every tool it names, resolves its settings
through the settings store and runs all steps in one shell session.

The exit code of forge is the exit code of the last step.

With --watch the recipe runs again every time the file is saved, until
forge is interrupted. Failed runs are logged and do not stop watching.

Example:
  forge run build-qt.yaml
  forge run --dry-run build-qt.yaml
  forge run --watch build-qt.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runRecipe,
}

func newFinder() *finder.Finder {
	return finder.New(
		finder.WithPersistentCache(cfg.Finder.CacheFile),
		finder.WithRecycleMarker(cfg.Finder.RecycleMarker),
	)
}

func openSettings(path string) *diskcache.Store[any] {
	return diskcache.Open[any](path, diskcache.WithLogger(logging.Get(logging.CategoryCache)))
}

func runRecipe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if !watch {
		return runRecipeOnce(ctx, cmd, args[0])
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := recipe.NewWatcher(args[0])
	if err != nil {
		return err
	}
	defer w.Close()

	rerun := func() {
		if err := runRecipeOnce(ctx, cmd, args[0]); err != nil {
			logger.Error("recipe run failed", zap.Error(err))
			reportError(cmd.ErrOrStderr(), err)
		}
	}
	rerun()
	err = w.Run(ctx, rerun)

	stats := w.Stats()
	logger.Info("stopped watching recipe",
		zap.Int("changes", stats.Changes),
		zap.Int("events", stats.Events),
		zap.Int("errors", stats.Errors))
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runRecipeOnce(ctx context.Context, cmd *cobra.Command, path string) error {
	r, err := recipe.Load(path)
	if err != nil {
		return err
	}

	settings := openSettings(cfg.Cache.SettingsFile)
	defer func() {
		if err := settings.Close(); err != nil {
			logger.Warn("failed to save settings", zap.Error(err))
		}
	}()

	plan, err := recipe.NewPlanner(newFinder(), recipe.WithSettings(settings)).Plan(r)
	if err != nil {
		return err
	}

	if dryRun {
		out := cmd.OutOrStdout()
		for _, c := range plan.Commands {
			fmt.Fprintln(out, c.String())
		}
		return nil
	}

	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	opts := []shell.Option{shell.WithPollInterval(cfg.GetPollInterval())}
	if env := cfg.Shell.Environ(); len(env) > 0 {
		opts = append(opts, shell.WithEnv(env...))
	}
	if plan.Dir == "" && cfg.Shell.WorkingDirectory != "" {
		opts = append(opts, shell.WithDir(cfg.Shell.WorkingDirectory))
	}

	logger.Info("running recipe", zap.String("recipe", r.Name), zap.Int("commands", len(plan.Commands)))
	res, err := recipe.Execute(ctx, plan, opts...)
	if err != nil {
		return err
	}
	logger.Info("recipe finished", zap.String("recipe", r.Name), zap.Duration("duration", res.Duration))
	return nil
}
