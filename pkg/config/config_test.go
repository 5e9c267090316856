package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestSampleConfig(t *testing.T) {
	cfg, err := Parse(SampleConfig())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	refs := cfg.Hooks()
	require.Len(t, refs, 4)

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.Hook.ID)
	}
	assert.Equal(t, []string{"flake8", "mypy", "black", "isort"}, ids)

	mypy := refs[1]
	assert.True(t, mypy.Repo.IsLocal())
	assert.Empty(t, mypy.Repo.Rev)
	assert.Equal(t, "inv type-check", mypy.Hook.Entry)
	assert.Equal(t, LanguageSystem, mypy.Hook.Language)
	assert.Equal(t, []string{"python"}, mypy.Hook.Types)
	assert.False(t, mypy.Hook.ShouldPassFilenames())
	assert.True(t, mypy.Hook.RequireSerial)

	for _, ref := range refs {
		if ref.Repo.IsLocal() {
			continue
		}
		assert.NotEmpty(t, ref.Repo.Rev, "remote source %s must be pinned", ref.Repo.Repo)
		assert.Empty(t, ref.Hook.Entry, "remote hook %s must not set entry", ref.Hook.ID)
	}

	assert.Equal(t, "isort (python)", refs[3].Hook.DisplayName())
	assert.Equal(t, "flake8", refs[0].Hook.DisplayName())
}

func TestSampleConfigIsACopy(t *testing.T) {
	a := SampleConfig()
	a[0] = 'X'
	assert.NotEqual(t, a[0], SampleConfig()[0])
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, SampleConfig(), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Repos, 4)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	_, err = LoadConfig(empty)
	assert.ErrorIs(t, err, ErrEmptyConfig)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("repos: [\n"), 0o600))
	_, err = LoadConfig(broken)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		config  *Config
		name    string
		wantErr string
	}{
		{
			name:   "empty config is valid",
			config: &Config{},
		},
		{
			name: "missing hook id",
			config: &Config{Repos: []Repo{{
				Repo: "https://github.com/psf/black", Rev: "22.3.0",
				Hooks: []Hook{{}},
			}}},
			wantErr: "hook ID is required",
		},
		{
			name: "remote without rev",
			config: &Config{Repos: []Repo{{
				Repo:  "https://github.com/psf/black",
				Hooks: []Hook{{ID: "black"}},
			}}},
			wantErr: "revision is required",
		},
		{
			name: "remote with entry",
			config: &Config{Repos: []Repo{{
				Repo: "https://github.com/psf/black", Rev: "22.3.0",
				Hooks: []Hook{{ID: "black", Entry: "black --check"}},
			}}},
			wantErr: "entry is only allowed for local hooks",
		},
		{
			name: "local without language",
			config: &Config{Repos: []Repo{{
				Repo:  LocalRepo,
				Hooks: []Hook{{ID: "mypy", Entry: "inv type-check"}},
			}}},
			wantErr: "local hooks must set language",
		},
		{
			name: "local without entry",
			config: &Config{Repos: []Repo{{
				Repo:  LocalRepo,
				Hooks: []Hook{{ID: "mypy", Language: LanguageSystem}},
			}}},
			wantErr: "local hooks must set entry",
		},
		{
			name: "local with rev",
			config: &Config{Repos: []Repo{{
				Repo: LocalRepo, Rev: "v1",
				Hooks: []Hook{{ID: "mypy", Language: LanguageSystem, Entry: "mypy"}},
			}}},
			wantErr: "must not set rev",
		},
		{
			name: "two serial hooks",
			config: &Config{Repos: []Repo{{
				Repo: LocalRepo,
				Hooks: []Hook{
					{ID: "a", Language: LanguageSystem, Entry: "a", RequireSerial: true},
					{ID: "b", Language: LanguageSystem, Entry: "b", RequireSerial: true},
				},
			}}},
			wantErr: "at most one is allowed",
		},
		{
			name: "unsupported language",
			config: &Config{Repos: []Repo{{
				Repo:  LocalRepo,
				Hooks: []Hook{{ID: "a", Language: "cobol", Entry: "a"}},
			}}},
			wantErr: `unsupported language "cobol"`,
		},
		{
			name: "bad hook regex",
			config: &Config{Repos: []Repo{{
				Repo:  LocalRepo,
				Hooks: []Hook{{ID: "a", Language: LanguageSystem, Entry: "a", Files: "(unclosed"}},
			}}},
			wantErr: "invalid regex",
		},
		{
			name:    "bad global exclude",
			config:  &Config{ExcludeRegex: "[z-a]"},
			wantErr: "exclude: invalid regex",
		},
		{
			name:    "no hooks",
			config:  &Config{Repos: []Repo{{Repo: LocalRepo}}},
			wantErr: "no hooks configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	cfg := &Config{Repos: []Repo{
		{Repo: "https://github.com/psf/black", Hooks: []Hook{{ID: "black", Entry: "black"}}},
		{Repo: LocalRepo, Hooks: []Hook{{ID: ""}}},
	}}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"revision is required",
		"entry is only allowed for local hooks",
		"hook ID is required",
		"local hooks must set language",
		"local hooks must set entry",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestMergeHook(t *testing.T) {
	base := Hook{
		ID:            "isort",
		Name:          "isort",
		Entry:         "isort",
		Language:      LanguagePython,
		TypesOr:       []string{"cython", "pyi", "python"},
		Args:          []string{"--filter-files"},
		RequireSerial: true,
	}
	override := Hook{
		ID:            "isort",
		Name:          "isort (python)",
		Args:          []string{"--profile", "black"},
		PassFilenames: boolPtr(false),
	}

	merged := MergeHook(base, override)
	assert.Equal(t, "isort (python)", merged.Name)
	assert.Equal(t, "isort", merged.Entry)
	assert.Equal(t, []string{"--profile", "black"}, merged.Args)
	assert.Equal(t, []string{"cython", "pyi", "python"}, merged.TypesOr)
	assert.True(t, merged.RequireSerial)
	assert.False(t, merged.ShouldPassFilenames())
}

func TestGetWellKnownHook(t *testing.T) {
	hook, ok := GetWellKnownHook("https://github.com/PyCQA/isort.git", "isort")
	require.True(t, ok)
	assert.Equal(t, "isort", hook.Entry)

	_, ok = GetWellKnownHook("https://github.com/psf/black", "flake8")
	assert.False(t, ok)

	_, ok = GetWellKnownHook("https://example.com/unknown", "x")
	assert.False(t, ok)
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFileName)
	manifest := `- id: black
  name: black
  entry: black
  language: python
  require_serial: true
  types_or: [python, pyi]
`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))

	hooks, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, []string{"python", "pyi"}, hooks[0].TypesOr)
	assert.True(t, hooks[0].RequireSerial)
}

func TestValidateManifest(t *testing.T) {
	tests := []struct {
		name    string
		hooks   []Hook
		wantErr []string
	}{
		{
			name:  "well-known black manifest",
			hooks: []Hook{WellKnownRepositories["https://github.com/psf/black"]["black"]},
		},
		{name: "empty manifest"},
		{
			name:    "missing fields",
			hooks:   []Hook{{ID: "x"}},
			wantErr: []string{"hook 0 (x): name is required", "entry is required", "language is required"},
		},
		{
			name: "duplicate id and bad language",
			hooks: []Hook{
				{ID: "x", Name: "x", Entry: "x", Language: LanguageSystem},
				{ID: "x", Name: "x", Entry: "x", Language: "cobol"},
			},
			wantErr: []string{"hook 1 (x): duplicate hook ID", `unsupported language "cobol"`},
		},
		{
			name:    "bad pattern",
			hooks:   []Hook{{ID: "y", Name: "y", Entry: "y", Language: LanguageSystem, Files: "("}},
			wantErr: []string{"hook 0 (y): files"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateManifest(tt.hooks)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			for _, want := range tt.wantErr {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}
