package recipe

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"toolforge/internal/diskcache"
	"toolforge/internal/finder"
	"toolforge/internal/logging"
	"toolforge/internal/shell"

	"go.uber.org/zap"
)

// Plan is a recipe with every tool and setting resolved.
type Plan struct {
	Recipe   string
	Dir      string
	Env      []string          // KEY=VALUE, sorted by key
	Tools    map[string]string // tool name -> selected path
	Settings map[string]string
	Commands []shell.Command
	Skipped  []int // 1-based indices of steps that will not run
}

// Planner resolves recipes against the local machine.
type Planner struct {
	finder   *finder.Finder
	settings *diskcache.Store[any]
	platform string
	logger   *zap.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithSettings resolves settings through store instead of using the recipe
// defaults as-is. Values already in the store win over the defaults.
func WithSettings(store *diskcache.Store[any]) Option {
	return func(p *Planner) { p.settings = store }
}

// WithPlatform filters tools and steps for goos instead of the host.
func WithPlatform(goos string) Option {
	return func(p *Planner) { p.platform = goos }
}

// WithLogger overrides the recipe category logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// NewPlanner creates a Planner that locates tools with f.
func NewPlanner(f *finder.Finder, opts ...Option) *Planner {
	p := &Planner{
		finder:   f,
		platform: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.Get(logging.CategoryRecipe)
	}
	return p
}

// Plan resolves tools and settings and expands the steps into commands.
//
// A required tool without a match fails with ErrToolNotFound. Steps that
// refer to an optional tool that was not found are skipped, as are steps
// for other platforms.
func (p *Planner) Plan(r *Recipe) (*Plan, error) {
	plan := &Plan{
		Recipe:   r.Name,
		Dir:      r.WorkDir(),
		Tools:    make(map[string]string),
		Settings: make(map[string]string),
	}

	for _, name := range sortedKeys(r.Tools) {
		path, err := p.resolveTool(name, r.Tools[name])
		if err != nil {
			return nil, err
		}
		if path != "" {
			plan.Tools[name] = path
		}
	}

	for _, name := range sortedKeys(r.Settings) {
		plan.Settings[name] = p.resolveSetting(name, r.Settings[name])
	}

	// unresolved tools expand to nothing
	pairs := make([]string, 0, 2*(len(r.Tools)+len(plan.Settings)))
	for name := range r.Tools {
		pairs = append(pairs, "${"+name+"}", plan.Tools[name])
	}
	for name, value := range plan.Settings {
		pairs = append(pairs, "${"+name+"}", value)
	}
	replacer := strings.NewReplacer(pairs...)

	for i, step := range r.Steps {
		if !matchesPlatform(step.Platforms, p.platform) {
			plan.Skipped = append(plan.Skipped, i+1)
			continue
		}
		if missing := p.missingTools(step, r, plan); len(missing) > 0 {
			p.logger.Warn("skipping step, optional tool not found",
				zap.Int("step", i+1),
				zap.Strings("tools", missing))
			plan.Skipped = append(plan.Skipped, i+1)
			continue
		}

		if step.Run != "" {
			plan.Commands = append(plan.Commands, shell.Raw(replacer.Replace(step.Run)))
			continue
		}
		tokens := make([]string, len(step.Tokens))
		for j, tok := range step.Tokens {
			tokens[j] = replacer.Replace(tok)
		}
		plan.Commands = append(plan.Commands, shell.Tokens(tokens...))
	}

	for _, key := range sortedKeys(r.Env) {
		plan.Env = append(plan.Env, key+"="+replacer.Replace(r.Env[key]))
	}

	p.logger.Debug("planned recipe",
		zap.String("recipe", r.Name),
		zap.Int("commands", len(plan.Commands)),
		zap.Ints("skipped", plan.Skipped))
	return plan, nil
}

func (p *Planner) resolveTool(name string, t Tool) (string, error) {
	if !matchesPlatform(t.Platforms, p.platform) {
		p.logger.Debug("tool not used on this platform", zap.String("tool", name), zap.String("platform", p.platform))
		return "", nil
	}

	root := os.ExpandEnv(t.Root)
	paths, err := p.finder.Find(t.File, root, t.Constraints, t.UseCache())
	if err != nil {
		return "", fmt.Errorf("failed to search for tool %s: %w", name, err)
	}

	path, ok := finder.PickMostRecent(paths, p.logger)
	if !ok {
		if t.Required {
			return "", fmt.Errorf("%w: %s (%s under %s)", ErrToolNotFound, name, t.File, root)
		}
		p.logger.Info("optional tool not found", zap.String("tool", name), zap.String("file", t.File))
		return "", nil
	}

	p.logger.Info("resolved tool", zap.String("tool", name), zap.String("path", path))
	return path, nil
}

func (p *Planner) resolveSetting(name, def string) string {
	if p.settings == nil {
		return def
	}
	return formatSetting(p.settings.GetOrInsert(name, def))
}

// missingTools lists the tools a step needs that were not resolved.
func (p *Planner) missingTools(s Step, r *Recipe, plan *Plan) []string {
	var missing []string
	for _, ref := range s.references() {
		if _, isTool := r.Tools[ref]; !isTool {
			continue
		}
		if _, ok := plan.Tools[ref]; !ok {
			missing = append(missing, ref)
		}
	}
	return missing
}

// formatSetting renders a stored value. Stores written by hand may hold
// numbers or booleans instead of strings.
func formatSetting(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// Execute runs the plan's commands in one shell session. The plan's
// directory and environment are applied before opts.
func Execute(ctx context.Context, plan *Plan, opts ...shell.Option) (*shell.Result, error) {
	var base []shell.Option
	if plan.Dir != "" {
		base = append(base, shell.WithDir(plan.Dir))
	}
	if len(plan.Env) > 0 {
		base = append(base, shell.WithEnv(plan.Env...))
	}
	return shell.Run(ctx, plan.Commands, append(base, opts...)...)
}
