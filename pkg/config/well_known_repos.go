package config

import "strings"

// WellKnownRepositories contains manifest definitions for commonly pinned hook repositories.
// It is consulted when a repository's own .pre-commit-hooks.yaml cannot be fetched.
var WellKnownRepositories = map[string]map[string]Hook{
	"https://github.com/pycqa/flake8": {
		"flake8": {
			ID:            "flake8",
			Name:          "flake8",
			Entry:         "flake8",
			Language:      LanguagePython,
			Types:         []string{"python"},
			RequireSerial: true,
		},
	},
	"https://github.com/psf/black": {
		"black": {
			ID:            "black",
			Name:          "black",
			Entry:         "black",
			Language:      LanguagePython,
			TypesOr:       []string{"python", "pyi"},
			RequireSerial: true,
		},
	},
	"https://github.com/pycqa/isort": {
		"isort": {
			ID:            "isort",
			Name:          "isort",
			Entry:         "isort",
			Language:      LanguagePython,
			TypesOr:       []string{"cython", "pyi", "python"},
			Args:          []string{"--filter-files"},
			RequireSerial: true,
		},
	},
	"https://github.com/pre-commit/mirrors-mypy": {
		"mypy": {
			ID:            "mypy",
			Name:          "mypy",
			Entry:         "mypy",
			Language:      LanguagePython,
			TypesOr:       []string{"python", "pyi"},
			Args:          []string{"--ignore-missing-imports", "--scroll-output"},
			RequireSerial: true,
		},
	},
	"https://github.com/pre-commit/pre-commit-hooks": {
		"trailing-whitespace": {
			ID:       "trailing-whitespace",
			Name:     "trim trailing whitespace",
			Entry:    "trailing-whitespace-fixer",
			Language: LanguagePython,
			Types:    []string{"text"},
		},
		"end-of-file-fixer": {
			ID:       "end-of-file-fixer",
			Name:     "fix end of files",
			Entry:    "end-of-file-fixer",
			Language: LanguagePython,
			Types:    []string{"text"},
		},
		"check-yaml": {
			ID:       "check-yaml",
			Name:     "check yaml",
			Entry:    "check-yaml",
			Language: LanguagePython,
			Types:    []string{"yaml"},
		},
		"check-added-large-files": {
			ID:       "check-added-large-files",
			Name:     "check for added large files",
			Entry:    "check-added-large-files",
			Language: LanguagePython,
		},
	},
}

// GetWellKnownHook returns a hook definition from a well-known repository
func GetWellKnownHook(repoURL, hookID string) (Hook, bool) {
	repoHooks, exists := WellKnownRepositories[normalizeRepoURL(repoURL)]
	if !exists {
		return Hook{}, false
	}
	hook, exists := repoHooks[hookID]
	return hook, exists
}

func normalizeRepoURL(url string) string {
	url = strings.ToLower(strings.TrimSpace(url))
	url = strings.TrimSuffix(url, "/")
	return strings.TrimSuffix(url, ".git")
}
