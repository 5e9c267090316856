// Package commands handles building executable commands for hooks
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/shlex"

	"github.com/blairham/hookrun/pkg/config"
)

// ErrEmptyEntry is returned when a hook's entry has no command in it
var ErrEmptyEntry = errors.New("hook entry is empty")

// Invocation is a single subprocess run of a hook over one batch of files
type Invocation struct {
	Args  []string
	Dir   string
	Files []string
}

// Command creates the process for this invocation bound to ctx
func (i Invocation) Command(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, i.Args[0], i.Args[1:]...) // #nosec G204 -- hook entries are user configuration
	cmd.Dir = i.Dir
	return cmd
}

// String renders the invocation for logs
func (i Invocation) String() string {
	return strings.Join(i.Args, " ")
}

// Builder handles building commands for different hook languages
type Builder struct {
	repoRoot  string
	maxLength int
}

// NewBuilder creates a builder for hooks that run from repoRoot
func NewBuilder(repoRoot string) *Builder {
	return &Builder{repoRoot: repoRoot, maxLength: PlatformMaxLength()}
}

// IsBuiltin reports whether a language is evaluated in-process instead of as a subprocess
func IsBuiltin(language string) bool {
	return language == config.LanguageFail || language == config.LanguagePygrep
}

// Build returns the invocations needed to run hook over files. Filenames are
// appended when the hook passes filenames, split into at most jobs batches that
// each fit the platform's command line limit. A hook that does not pass
// filenames always yields exactly one invocation.
func (b *Builder) Build(hook config.Hook, repoPath string, files []string, jobs int) ([]Invocation, error) {
	if IsBuiltin(hook.Language) {
		return nil, fmt.Errorf("language %s does not run as a subprocess", hook.Language)
	}

	base, err := b.baseArgs(hook, repoPath)
	if err != nil {
		return nil, err
	}

	if !hook.ShouldPassFilenames() || len(files) == 0 {
		return []Invocation{{Args: base, Dir: b.repoRoot}}, nil
	}

	if hook.RequireSerial {
		jobs = 1
	}

	batches, err := PartitionFiles(base, files, jobs, b.maxLength)
	if err != nil {
		return nil, fmt.Errorf("hook %s: %w", hook.ID, err)
	}

	invocations := make([]Invocation, 0, len(batches))
	for _, batch := range batches {
		args := append(slices.Clone(base), batch...)
		invocations = append(invocations, Invocation{Args: args, Dir: b.repoRoot, Files: batch})
	}
	return invocations, nil
}

// baseArgs splits the entry and appends the hook's args
func (b *Builder) baseArgs(hook config.Hook, repoPath string) ([]string, error) {
	entry, err := shlex.Split(hook.Entry)
	if err != nil {
		return nil, fmt.Errorf("hook %s: failed to parse entry %q: %w", hook.ID, hook.Entry, err)
	}
	if len(entry) == 0 {
		return nil, fmt.Errorf("hook %s: %w", hook.ID, ErrEmptyEntry)
	}

	if hook.Language == config.LanguageScript {
		entry[0] = b.resolveScript(entry[0], repoPath)
	}

	return append(entry, hook.Args...), nil
}

// resolveScript locates a script entry inside the repository that provides the hook
func (b *Builder) resolveScript(entry, repoPath string) string {
	if filepath.IsAbs(entry) {
		return entry
	}
	if repoPath == "" {
		repoPath = b.repoRoot
	}

	scriptPath := filepath.Join(repoPath, entry)
	if _, err := os.Stat(scriptPath); err == nil {
		return scriptPath
	}
	// not in the hook repo, fall back to PATH lookup
	return entry
}
