// Package config provides configuration parsing and validation for hookrun.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the default name for the hook configuration file
const ConfigFileName = ".pre-commit-config.yaml"

// ManifestFileName is the hook manifest a remote repository publishes at its root
const ManifestFileName = ".pre-commit-hooks.yaml"

// LocalRepo marks hooks whose entry and language are defined in the consuming project
const LocalRepo = "local"

// Supported hook languages
const (
	LanguageSystem = "system"
	LanguageScript = "script"
	LanguagePython = "python"
	LanguageNode   = "node"
	LanguageGolang = "golang"
	LanguageRust   = "rust"
	LanguageRuby   = "ruby"
	LanguageFail   = "fail"
	LanguagePygrep = "pygrep"
)

// SupportedLanguages lists every value accepted in a hook's language key
var SupportedLanguages = []string{
	LanguageSystem,
	LanguageScript,
	LanguagePython,
	LanguageNode,
	LanguageGolang,
	LanguageRust,
	LanguageRuby,
	LanguageFail,
	LanguagePygrep,
}

// ErrEmptyConfig is returned when the configuration file has no content
var ErrEmptyConfig = errors.New("config file is empty")

//go:embed sample-config.yaml
var sampleConfig []byte

// Config represents the .pre-commit-config.yaml structure
type Config struct {
	Files         string   `yaml:"files,omitempty"`
	ExcludeRegex  string   `yaml:"exclude,omitempty"`
	Repos         []Repo   `yaml:"repos"`
	DefaultStages []string `yaml:"default_stages,omitempty"`
	FailFast      bool     `yaml:"fail_fast,omitempty"`
}

// Repo represents a hook source: a remote repository pinned at a revision, or "local"
type Repo struct {
	Repo  string `yaml:"repo"`
	Rev   string `yaml:"rev,omitempty"`
	Hooks []Hook `yaml:"hooks"`
}

// Hook represents a hook entry, either as declared in the config or as published in a manifest
type Hook struct {
	PassFilenames *bool    `yaml:"pass_filenames,omitempty"`
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name,omitempty"`
	Entry         string   `yaml:"entry,omitempty"`
	Language      string   `yaml:"language,omitempty"`
	Files         string   `yaml:"files,omitempty"`
	ExcludeRegex  string   `yaml:"exclude,omitempty"`
	Description   string   `yaml:"description,omitempty"`
	LogFile       string   `yaml:"log_file,omitempty"`
	Types         []string `yaml:"types,omitempty"`
	TypesOr       []string `yaml:"types_or,omitempty"`
	ExcludeTypes  []string `yaml:"exclude_types,omitempty"`
	Args          []string `yaml:"args,omitempty"`
	Stages        []string `yaml:"stages,omitempty"`
	AlwaysRun     bool     `yaml:"always_run,omitempty"`
	Verbose       bool     `yaml:"verbose,omitempty"`
	RequireSerial bool     `yaml:"require_serial,omitempty"`
	FailFast      bool     `yaml:"fail_fast,omitempty"`
}

// HookRef ties a hook to the source it was declared under
type HookRef struct {
	Repo Repo
	Hook Hook
}

// IsLocal reports whether the repo is the "local" marker
func (r Repo) IsLocal() bool {
	return r.Repo == LocalRepo
}

// DisplayName returns the hook's name, falling back to its id
func (h Hook) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return h.ID
}

// ShouldPassFilenames reports whether matched files are appended to the command
func (h Hook) ShouldPassFilenames() bool {
	if h.PassFilenames != nil {
		return *h.PassFilenames
	}
	return true
}

// LoadConfig loads the hook configuration from file
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = ConfigFileName
	}

	if !filepath.IsAbs(configPath) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		configPath = filepath.Join(cwd, configPath)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document
func Parse(data []byte) (*Config, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrEmptyConfig
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// LoadManifest loads the hook definitions a repository publishes in .pre-commit-hooks.yaml
func LoadManifest(manifestPath string) ([]Hook, error) {
	data, err := os.ReadFile(filepath.Clean(manifestPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var hooks []Hook
	if err := yaml.Unmarshal(data, &hooks); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", manifestPath, err)
	}
	return hooks, nil
}

// ValidateManifest checks the hooks a repository publishes: each needs an
// unique id, a name, an entry and a supported language
func ValidateManifest(hooks []Hook) error {
	var errs []error
	seen := make(map[string]bool, len(hooks))

	for i, hook := range hooks {
		prefix := fmt.Sprintf("hook %d", i)
		if hook.ID == "" {
			errs = append(errs, fmt.Errorf("%s: hook ID is required", prefix))
		} else {
			prefix = fmt.Sprintf("%s (%s)", prefix, hook.ID)
			if seen[hook.ID] {
				errs = append(errs, fmt.Errorf("%s: duplicate hook ID", prefix))
			}
			seen[hook.ID] = true
		}

		if hook.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", prefix))
		}
		if hook.Entry == "" {
			errs = append(errs, fmt.Errorf("%s: entry is required", prefix))
		}
		switch {
		case hook.Language == "":
			errs = append(errs, fmt.Errorf("%s: language is required", prefix))
		case !slices.Contains(SupportedLanguages, hook.Language):
			errs = append(errs, fmt.Errorf("%s: unsupported language %q", prefix, hook.Language))
		}
		if err := validateRegex(prefix+": files", hook.Files); err != nil {
			errs = append(errs, err)
		}
		if err := validateRegex(prefix+": exclude", hook.ExcludeRegex); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// SampleConfig returns the bundled sample configuration
func SampleConfig() []byte {
	return slices.Clone(sampleConfig)
}

// Hooks returns every declared hook in declaration order together with its source
func (c *Config) Hooks() []HookRef {
	var refs []HookRef
	for _, repo := range c.Repos {
		for _, hook := range repo.Hooks {
			refs = append(refs, HookRef{Repo: repo, Hook: hook})
		}
	}
	return refs
}

// Validate checks the configuration and returns every violation found
func (c *Config) Validate() error {
	var errs []error

	if err := validateRegex("files", c.Files); err != nil {
		errs = append(errs, err)
	}
	if err := validateRegex("exclude", c.ExcludeRegex); err != nil {
		errs = append(errs, err)
	}

	serial := 0
	for i, repo := range c.Repos {
		errs = append(errs, validateRepo(i, repo)...)
		for _, hook := range repo.Hooks {
			if hook.RequireSerial {
				serial++
			}
		}
	}

	if serial > 1 {
		errs = append(errs, fmt.Errorf("%d hooks set require_serial, at most one is allowed", serial))
	}

	return errors.Join(errs...)
}

func validateRepo(i int, repo Repo) []error {
	var errs []error

	if repo.Repo == "" {
		errs = append(errs, fmt.Errorf("repo %d: repository URL is required", i))
	}
	if repo.IsLocal() && repo.Rev != "" {
		errs = append(errs, fmt.Errorf("repo %d: local repositories must not set rev", i))
	}
	if !repo.IsLocal() && repo.Rev == "" {
		errs = append(errs, fmt.Errorf("repo %d (%s): revision is required", i, repo.Repo))
	}
	if len(repo.Hooks) == 0 {
		errs = append(errs, fmt.Errorf("repo %d: no hooks configured", i))
	}

	for j, hook := range repo.Hooks {
		prefix := fmt.Sprintf("repo %d, hook %d", i, j)
		if hook.ID == "" {
			errs = append(errs, fmt.Errorf("%s: hook ID is required", prefix))
		} else {
			prefix = fmt.Sprintf("%s (%s)", prefix, hook.ID)
		}

		if repo.IsLocal() {
			if hook.Language == "" {
				errs = append(errs, fmt.Errorf("%s: local hooks must set language", prefix))
			}
			if hook.Entry == "" {
				errs = append(errs, fmt.Errorf("%s: local hooks must set entry", prefix))
			}
		} else if hook.Entry != "" {
			errs = append(errs, fmt.Errorf("%s: entry is only allowed for local hooks", prefix))
		}

		if hook.Language != "" && !slices.Contains(SupportedLanguages, hook.Language) {
			errs = append(errs, fmt.Errorf("%s: unsupported language %q", prefix, hook.Language))
		}
		if err := validateRegex(prefix+": files", hook.Files); err != nil {
			errs = append(errs, err)
		}
		if err := validateRegex(prefix+": exclude", hook.ExcludeRegex); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func validateRegex(field, pattern string) error {
	if pattern == "" {
		return nil
	}
	if _, err := regexp2.Compile(pattern, regexp2.None); err != nil {
		return fmt.Errorf("%s: invalid regex %q: %w", field, pattern, err)
	}
	return nil
}

// MergeHook overlays the keys set in override on top of base
func MergeHook(base, override Hook) Hook {
	result := base

	applyStringOverride(&result.Name, override.Name)
	applyStringOverride(&result.Entry, override.Entry)
	applyStringOverride(&result.Language, override.Language)
	applyStringOverride(&result.Files, override.Files)
	applyStringOverride(&result.ExcludeRegex, override.ExcludeRegex)
	applyStringOverride(&result.Description, override.Description)
	applyStringOverride(&result.LogFile, override.LogFile)
	applySliceOverride(&result.Types, override.Types)
	applySliceOverride(&result.TypesOr, override.TypesOr)
	applySliceOverride(&result.ExcludeTypes, override.ExcludeTypes)
	applySliceOverride(&result.Args, override.Args)
	applySliceOverride(&result.Stages, override.Stages)
	applyBoolOverride(&result.AlwaysRun, override.AlwaysRun)
	applyBoolOverride(&result.Verbose, override.Verbose)
	applyBoolOverride(&result.RequireSerial, override.RequireSerial)
	applyBoolOverride(&result.FailFast, override.FailFast)
	if override.PassFilenames != nil {
		result.PassFilenames = override.PassFilenames
	}

	return result
}

func applyStringOverride(target *string, override string) {
	if override != "" {
		*target = override
	}
}

func applySliceOverride[T any](target *[]T, override []T) {
	if len(override) > 0 {
		*target = override
	}
}

func applyBoolOverride(target *bool, override bool) {
	if override {
		*target = override
	}
}
