// Package recipe describes a build as YAML and turns it into shell commands.
//
// A recipe names the tools it needs (files located with a finder.Finder),
// the settings it reads (values remembered in a diskcache.Store) and the
// steps to run. Steps refer to tools and settings with ${name}
// placeholders:
//
//	tools:
//	  vcvarsall:
//	    file: vcvarsall.bat
//	    root: 'C:\'
//	    constraints: ["Program Files", "Visual Studio"]
//	    required: true
//	settings:
//	  install_dir: 'C:\Qt'
//	steps:
//	  - tokens: ["${vcvarsall}", "x86_amd64"]
//	  - run: cmake --install . --prefix ${install_dir}
//
// All steps of a recipe run in a single shell session, so environment set up
// by one step is visible to the next.
package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	// ErrToolNotFound is returned when a required tool has no match on disk.
	ErrToolNotFound = errors.New("required tool not found")

	// ErrInvalidRecipe wraps every validation failure.
	ErrInvalidRecipe = errors.New("invalid recipe")
)

var (
	namePattern        = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
	placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)
)

// Recipe is a parsed build description.
type Recipe struct {
	Name     string            `yaml:"name"`
	Dir      string            `yaml:"dir,omitempty"`
	Env      map[string]string `yaml:"env,omitempty"`
	Tools    map[string]Tool   `yaml:"tools,omitempty"`
	Settings map[string]string `yaml:"settings,omitempty"`
	Steps    []Step            `yaml:"steps"`

	// path is the file the recipe was loaded from; Dir is relative to it.
	path string
}

// Tool is a file located on disk before the steps run.
type Tool struct {
	File        string   `yaml:"file"`
	Root        string   `yaml:"root"`
	Constraints []string `yaml:"constraints,omitempty"`
	Cache       *bool    `yaml:"cache,omitempty"`
	Required    bool     `yaml:"required,omitempty"`
	Platforms   []string `yaml:"platforms,omitempty"`
}

// UseCache reports whether lookups for the tool go through the finder
// cache. Defaults to true.
func (t Tool) UseCache() bool {
	return t.Cache == nil || *t.Cache
}

// Step is one command line. Exactly one of Run and Tokens is set.
type Step struct {
	Run       string   `yaml:"run,omitempty"`
	Tokens    []string `yaml:"tokens,omitempty"`
	Platforms []string `yaml:"platforms,omitempty"`
}

// Load reads and validates a recipe file.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.path = path
	return r, nil
}

// Parse decodes and validates a recipe document.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks names, tool definitions and step placeholders.
func (r *Recipe) Validate() error {
	for _, name := range sortedKeys(r.Tools) {
		t := r.Tools[name]
		if !namePattern.MatchString(name) {
			return fmt.Errorf("%w: bad tool name %q", ErrInvalidRecipe, name)
		}
		if t.File == "" || t.Root == "" {
			return fmt.Errorf("%w: tool %q needs file and root", ErrInvalidRecipe, name)
		}
		if filepath.Base(t.File) != t.File {
			return fmt.Errorf("%w: tool %q file must be a bare name, got %q", ErrInvalidRecipe, name, t.File)
		}
	}
	for _, name := range sortedKeys(r.Settings) {
		if !namePattern.MatchString(name) {
			return fmt.Errorf("%w: bad setting name %q", ErrInvalidRecipe, name)
		}
		if _, dup := r.Tools[name]; dup {
			return fmt.Errorf("%w: %q is both a tool and a setting", ErrInvalidRecipe, name)
		}
	}

	if len(r.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidRecipe)
	}
	for i, s := range r.Steps {
		if (s.Run == "") == (len(s.Tokens) == 0) {
			return fmt.Errorf("%w: step %d needs exactly one of run and tokens", ErrInvalidRecipe, i+1)
		}
		for _, ref := range s.references() {
			if !r.defines(ref) {
				return fmt.Errorf("%w: step %d refers to undefined ${%s}", ErrInvalidRecipe, i+1, ref)
			}
		}
	}
	for _, key := range sortedKeys(r.Env) {
		for _, ref := range placeholders(r.Env[key]) {
			if !r.defines(ref) {
				return fmt.Errorf("%w: env %s refers to undefined ${%s}", ErrInvalidRecipe, key, ref)
			}
		}
	}
	return nil
}

// WorkDir returns the directory steps run in. A relative Dir is resolved
// against the recipe file's directory.
func (r *Recipe) WorkDir() string {
	if r.Dir == "" || filepath.IsAbs(r.Dir) || r.path == "" {
		return r.Dir
	}
	return filepath.Join(filepath.Dir(r.path), r.Dir)
}

func (r *Recipe) defines(name string) bool {
	if _, ok := r.Tools[name]; ok {
		return true
	}
	_, ok := r.Settings[name]
	return ok
}

// references lists the placeholder names a step uses, in order of first use.
func (s Step) references() []string {
	if s.Run != "" {
		return placeholders(s.Run)
	}
	var refs []string
	seen := make(map[string]bool)
	for _, tok := range s.Tokens {
		for _, ref := range placeholders(tok) {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

func placeholders(s string) []string {
	var refs []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
		refs = append(refs, m[1])
	}
	return refs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func matchesPlatform(platforms []string, goos string) bool {
	if len(platforms) == 0 {
		return true
	}
	for _, p := range platforms {
		if p == goos {
			return true
		}
	}
	return false
}
