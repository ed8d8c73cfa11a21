package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"toolforge/internal/diskcache"
	"toolforge/internal/finder"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// toolTree lays out a fake Visual Studio install and returns its root.
func toolTree(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	dir := filepath.Join(root, "Program Files", "Microsoft Visual Studio", "VC")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vcvarsall.bat"), []byte("@echo off"), 0644))
	return root
}

func newPlanner(opts ...Option) *Planner {
	f := finder.New(finder.WithLogger(zap.NewNop()))
	return NewPlanner(f, append([]Option{WithLogger(zap.NewNop())}, opts...)...)
}

func toolRecipe(root string, required bool) *Recipe {
	return &Recipe{
		Name: "vc",
		Tools: map[string]Tool{
			"vcvarsall": {
				File:        "vcvarsall.bat",
				Root:        root,
				Constraints: []string{"Program", "Visual Studio"},
				Required:    required,
			},
		},
		Settings: map[string]string{"arch": "x86_amd64"},
		Env:      map[string]string{"VC": "${vcvarsall}"},
		Steps: []Step{
			{Tokens: []string{"${vcvarsall}", "${arch}"}},
			{Run: "echo built for ${arch}"},
			{Run: "echo mac only", Platforms: []string{"darwin"}},
		},
	}
}

func TestPlan_ExpandsToolsAndSettings(t *testing.T) {
	root := toolTree(t)
	vc := filepath.Join(root, "Program Files", "Microsoft Visual Studio", "VC", "vcvarsall.bat")

	plan, err := newPlanner(WithPlatform("windows")).Plan(toolRecipe(root, true))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"vcvarsall": vc}, plan.Tools)
	assert.Equal(t, map[string]string{"arch": "x86_amd64"}, plan.Settings)
	assert.Equal(t, []string{"VC=" + vc}, plan.Env)

	var lines []string
	for _, c := range plan.Commands {
		lines = append(lines, c.String())
	}
	want := []string{
		`"` + vc + `" x86_amd64`,
		"echo built for x86_amd64",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{3}, plan.Skipped)
}

func TestPlan_RequiredToolMissing(t *testing.T) {
	root := t.TempDir()

	_, err := newPlanner().Plan(toolRecipe(root, true))
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestPlan_OptionalToolMissingSkipsSteps(t *testing.T) {
	root := t.TempDir()

	plan, err := newPlanner(WithPlatform("linux")).Plan(toolRecipe(root, false))
	require.NoError(t, err)

	assert.Empty(t, plan.Tools)
	assert.Equal(t, []string{"VC="}, plan.Env)
	require.Len(t, plan.Commands, 1)
	assert.Equal(t, "echo built for x86_amd64", plan.Commands[0].String())
	assert.Equal(t, []int{1, 3}, plan.Skipped)
}

func TestPlan_ToolForOtherPlatformIsNotSearched(t *testing.T) {
	root := toolTree(t)
	r := toolRecipe(root, true)
	tool := r.Tools["vcvarsall"]
	tool.Platforms = []string{"windows"}
	r.Tools["vcvarsall"] = tool

	plan, err := newPlanner(WithPlatform("linux")).Plan(r)
	require.NoError(t, err)
	assert.Empty(t, plan.Tools)
	assert.Equal(t, []int{1, 3}, plan.Skipped)
}

func TestPlan_SettingsFromStore(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "settings.json")
	store := diskcache.Open[any](storePath, diskcache.WithLogger(zap.NewNop()))
	store.Set("prefix", "/opt/qt")
	store.Set("jobs", float64(8))

	r := &Recipe{
		Settings: map[string]string{
			"prefix": "/usr/local",
			"jobs":   "1",
			"config": "Release",
		},
		Steps: []Step{{Run: "build -j${jobs} --config ${config} --prefix ${prefix}"}},
	}

	plan, err := newPlanner(WithSettings(store)).Plan(r)
	require.NoError(t, err)
	require.Len(t, plan.Commands, 1)
	assert.Equal(t, "build -j8 --config Release --prefix /opt/qt", plan.Commands[0].String())

	// defaults that were missing are remembered for the next run
	v, ok := store.Get("config")
	require.True(t, ok)
	assert.Equal(t, "Release", v)

	require.NoError(t, store.Close())
	saved, err := diskcache.Load[any](storePath)
	require.NoError(t, err)
	assert.Equal(t, "Release", saved["config"])
	assert.Equal(t, float64(8), saved["jobs"])
}

func TestPlan_WithoutStoreUsesDefaults(t *testing.T) {
	r := &Recipe{
		Settings: map[string]string{"prefix": "/usr/local"},
		Steps:    []Step{{Tokens: []string{"install", "--prefix", "${prefix}"}}},
	}

	plan, err := newPlanner().Plan(r)
	require.NoError(t, err)
	assert.Equal(t, "install --prefix /usr/local", plan.Commands[0].String())
}

func TestFormatSetting(t *testing.T) {
	assert.Equal(t, "x", formatSetting("x"))
	assert.Equal(t, "8", formatSetting(float64(8)))
	assert.Equal(t, "1.5", formatSetting(1.5))
	assert.Equal(t, "true", formatSetting(true))
	assert.Equal(t, "", formatSetting(nil))
}
