// Package config manages the crmdev project configuration.
//
// A project is a directory containing a crmdev.yaml file. The file holds
// the app metadata, the locations of the upstream, override and build
// trees, the external build steps, the watch settings and the declarative
// hook registry. Configuration layers merge with later layers winning for
// any value they set.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

const (
	defaultStepTimeout   = 10 * time.Minute
	defaultWatchDebounce = 500 * time.Millisecond
)

// appNamePattern matches a framework app name: a lowercase identifier.
var appNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Config is the complete crmdev configuration.
type Config struct {
	App    AppConfig   `yaml:"app"`
	Trees  TreesConfig `yaml:"trees"`
	Ignore []string    `yaml:"ignore"`
	Steps  []Step      `yaml:"steps"`
	Watch  WatchConfig `yaml:"watch"`
	Hooks  HooksConfig `yaml:"hooks"`
}

// AppConfig describes the override app the project maintains.
type AppConfig struct {
	// Name is the app package name (lowercase identifier).
	Name string `yaml:"name"`
	// Title is the human-readable app title.
	Title string `yaml:"title"`
	// Publisher is the app publisher name.
	Publisher string `yaml:"publisher"`
	// Description is a short app description.
	Description string `yaml:"description"`
	// Email is the publisher contact address.
	Email string `yaml:"email"`
	// License is the app license identifier.
	License string `yaml:"license"`
}

// TreesConfig locates the three directory trees a build works with.
// Relative paths are resolved against the project root.
type TreesConfig struct {
	// Upstream is the vendor source tree the build copies first.
	Upstream string `yaml:"upstream"`
	// Overrides is the sparse tree copied over the upstream copy.
	Overrides string `yaml:"overrides"`
	// Build is the derived tree the merge is written into.
	Build string `yaml:"build"`
}

// Step is one external command run inside the merged tree after a build.
type Step struct {
	// Name identifies the step in output and manifests.
	Name string `yaml:"name"`
	// Command is the command line to run. It is tokenized, not passed to
	// a shell.
	Command string `yaml:"command"`
	// Dir is an optional working directory relative to the build tree.
	Dir string `yaml:"dir,omitempty"`
	// Timeout bounds the step duration (e.g. "10m"). Empty uses the
	// default.
	Timeout string `yaml:"timeout,omitempty"`
}

// GetTimeout returns the step timeout as a duration.
func (s Step) GetTimeout() time.Duration {
	if s.Timeout == "" {
		return defaultStepTimeout
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return defaultStepTimeout
	}
	return d
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long to wait for more changes before rebuilding.
	Debounce string `yaml:"debounce,omitempty"`
	// Paths lists extra paths to watch beyond the override tree and the
	// project config file. Relative paths are resolved against the
	// project root.
	Paths []string `yaml:"paths,omitempty"`
}

// GetDebounce returns the debounce delay as a duration.
func (w WatchConfig) GetDebounce() time.Duration {
	if w.Debounce == "" {
		return defaultWatchDebounce
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return defaultWatchDebounce
	}
	return d
}

// HooksConfig is the declarative hook registry as written in crmdev.yaml.
type HooksConfig struct {
	// ClassOverrides maps entity names to fully-qualified override class
	// paths.
	ClassOverrides map[string]string `yaml:"doctype_class_overrides,omitempty"`
	// MethodOverrides maps server method paths to override function paths.
	MethodOverrides map[string]string `yaml:"whitelisted_method_overrides,omitempty"`
	// RouteRules rewrites website URL patterns.
	RouteRules []RouteRule `yaml:"website_route_rules,omitempty"`
}

// RouteRule rewrites one URL pattern to a target route.
type RouteRule struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// DefaultConfig returns a Config with defaults for a CRM override project.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "crm_overrides",
			Title:       "CRM Overrides",
			Publisher:   "Thang",
			Description: "Customizations for CRM",
			Email:       "lethang507@gmail.com",
			License:     "mit",
		},
		Trees: TreesConfig{
			Upstream:  "../crm/frontend",
			Overrides: "overrides/frontend",
			Build:     "build/frontend",
		},
		Ignore: []string{
			"node_modules/**",
			".git/**",
		},
		Steps: []Step{
			{Name: "install", Command: "yarn install", Timeout: "10m"},
			{Name: "bundle", Command: "yarn build", Timeout: "20m"},
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Hooks: HooksConfig{},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if !appNamePattern.MatchString(c.App.Name) {
		return fmt.Errorf("app.name %q must be a lowercase identifier", c.App.Name)
	}

	if c.Trees.Upstream == "" {
		return fmt.Errorf("trees.upstream is required")
	}
	if c.Trees.Overrides == "" {
		return fmt.Errorf("trees.overrides is required")
	}
	if c.Trees.Build == "" {
		return fmt.Errorf("trees.build is required")
	}
	if err := c.validateTreeSeparation(); err != nil {
		return err
	}

	for _, pattern := range c.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("ignore pattern %q is not a valid glob", pattern)
		}
	}

	names := make(map[string]bool, len(c.Steps))
	for i, step := range c.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d].name is required", i)
		}
		if names[step.Name] {
			return fmt.Errorf("duplicate step name %q", step.Name)
		}
		names[step.Name] = true

		if strings.TrimSpace(step.Command) == "" {
			return fmt.Errorf("step %q has an empty command", step.Name)
		}
		if step.Timeout != "" {
			if _, err := time.ParseDuration(step.Timeout); err != nil {
				return fmt.Errorf("step %q has an invalid timeout: %w", step.Name, err)
			}
		}
		if step.Dir != "" && filepath.IsAbs(step.Dir) {
			return fmt.Errorf("step %q dir must be relative to the build tree", step.Name)
		}
	}

	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("watch.debounce is invalid: %w", err)
		}
	}

	return nil
}

// validateTreeSeparation rejects layouts where the build tree would
// overwrite one of its own inputs.
func (c *Config) validateTreeSeparation() error {
	build := filepath.Clean(c.Trees.Build)
	for _, tree := range []struct {
		name string
		path string
	}{
		{"trees.upstream", c.Trees.Upstream},
		{"trees.overrides", c.Trees.Overrides},
	} {
		other := filepath.Clean(tree.path)
		if build == other {
			return fmt.Errorf("trees.build must not equal %s", tree.name)
		}
		if pathContains(build, other) {
			return fmt.Errorf("trees.build must not contain %s", tree.name)
		}
		if pathContains(other, build) {
			return fmt.Errorf("%s must not contain trees.build", tree.name)
		}
	}
	return nil
}

// pathContains reports whether child is inside parent, comparing cleaned
// paths lexically.
func pathContains(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}

// LoadFromFile loads configuration from a YAML file on top of the
// defaults. Unknown fields are rejected.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one. Values the other config
// sets win; everything else is left alone.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.App.Name != "" {
		c.App.Name = other.App.Name
	}
	if other.App.Title != "" {
		c.App.Title = other.App.Title
	}
	if other.App.Publisher != "" {
		c.App.Publisher = other.App.Publisher
	}
	if other.App.Description != "" {
		c.App.Description = other.App.Description
	}
	if other.App.Email != "" {
		c.App.Email = other.App.Email
	}
	if other.App.License != "" {
		c.App.License = other.App.License
	}

	if other.Trees.Upstream != "" {
		c.Trees.Upstream = other.Trees.Upstream
	}
	if other.Trees.Overrides != "" {
		c.Trees.Overrides = other.Trees.Overrides
	}
	if other.Trees.Build != "" {
		c.Trees.Build = other.Trees.Build
	}

	if other.Ignore != nil {
		c.Ignore = other.Ignore
	}
	if other.Steps != nil {
		c.Steps = other.Steps
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.Paths != nil {
		c.Watch.Paths = other.Watch.Paths
	}

	if other.Hooks.ClassOverrides != nil {
		c.Hooks.ClassOverrides = other.Hooks.ClassOverrides
	}
	if other.Hooks.MethodOverrides != nil {
		c.Hooks.MethodOverrides = other.Hooks.MethodOverrides
	}
	if other.Hooks.RouteRules != nil {
		c.Hooks.RouteRules = other.Hooks.RouteRules
	}
}
