// Package execution handles the core hook execution logic
package execution

import (
	"time"

	"github.com/blairham/hookrun/pkg/config"
)

// Skip reasons reported for hooks that did not run
const (
	SkipNoFiles = "no files to check"
	SkipEnv     = "skipped by SKIP"
)

// Context holds context for hook execution
type Context struct {
	Config      *config.Config
	Environment map[string]string
	Guard       *SerialGuard
	RepoRoot    string
	HookStage   string
	Color       string
	HookIDs     []string
	SkipIDs     []string
	Files       []string
	Timeout     time.Duration
	Jobs        int
	Verbose     bool
}

// Result represents the result of hook execution
type Result struct {
	Output     string
	Error      string
	SkipReason string
	Files      []string
	Hook       config.Hook
	Duration   time.Duration
	ExitCode   int
	Success    bool
	Timeout    bool
	Skipped    bool
	Modified   bool
}

// RunItem represents a hook to be executed with its repository context
type RunItem struct {
	RepoPath string
	Repo     config.Repo
	Hook     config.Hook
}

// Failed reports whether the hook ran and did not pass
func (r Result) Failed() bool {
	return !r.Skipped && !r.Success
}
