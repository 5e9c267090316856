// Package hook selects, schedules and runs the hooks of a configuration
package hook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blairham/hookrun/pkg/config"
	"github.com/blairham/hookrun/pkg/hook/commands"
	"github.com/blairham/hookrun/pkg/hook/execution"
	"github.com/blairham/hookrun/pkg/hook/matching"
	"github.com/blairham/hookrun/pkg/logging"
)

// DefaultStage is the stage run when none is requested
const DefaultStage = "pre-commit"

var log = logging.NewLogger("hook")

// ErrNoResolver is returned when a remote hook is configured but no resolver was supplied
var ErrNoResolver = errors.New("no repository resolver for remote hook")

// legacy stage names still accepted in configs
var stageAliases = map[string]string{
	"commit":       "pre-commit",
	"push":         "pre-push",
	"merge-commit": "pre-merge-commit",
}

// Resolver turns a declared hook into its effective definition and the
// directory its entry resolves against
type Resolver interface {
	Resolve(ctx context.Context, repo config.Repo, hook config.Hook) (config.Hook, string, error)
}

// Orchestrator coordinates hook selection and execution
type Orchestrator struct {
	ctx      *execution.Context
	resolver Resolver
	executor *execution.Executor
	matcher  *matching.Matcher
	builder  *commands.Builder
	guard    *execution.SerialGuard
}

// NewOrchestrator creates a new hook orchestrator. resolver may be nil when
// the configuration only holds local hooks.
func NewOrchestrator(ctx *execution.Context, resolver Resolver) *Orchestrator {
	runCtx := *ctx
	runCtx.HookStage = NormalizeStage(ctx.HookStage)
	if runCtx.Jobs <= 0 {
		runCtx.Jobs = runtime.NumCPU()
	}

	env := map[string]string{
		"PRE_COMMIT":            "1",
		"HOOKRUN":               "1",
		"PRE_COMMIT_HOOK_STAGE": runCtx.HookStage,
	}
	maps.Copy(env, ctx.Environment)
	runCtx.Environment = env

	guard := ctx.Guard
	if guard == nil {
		guard = execution.DefaultGuard
	}

	return &Orchestrator{
		ctx:      &runCtx,
		resolver: resolver,
		executor: execution.NewExecutor(&runCtx),
		matcher:  matching.NewMatcher(runCtx.RepoRoot),
		builder:  commands.NewBuilder(runCtx.RepoRoot),
		guard:    guard,
	}
}

// NormalizeStage maps legacy stage names to their current form and defaults
// an empty stage to pre-commit
func NormalizeStage(stage string) string {
	if stage == "" {
		return DefaultStage
	}
	if alias, ok := stageAliases[stage]; ok {
		return alias
	}
	return stage
}

// RunHooks runs every selected hook in declaration order and returns one
// result per hook that was considered
func (o *Orchestrator) RunHooks(ctx context.Context) ([]execution.Result, error) {
	overallStart := time.Now()
	defer logging.LogTiming("RunHooks overall", overallStart)

	files, err := o.matcher.FilterFiles(o.ctx.Files, o.ctx.Config.Files, o.ctx.Config.ExcludeRegex)
	if err != nil {
		return nil, fmt.Errorf("failed to apply global file filters: %w", err)
	}

	items, err := o.collectHooksToRun(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]execution.Result, 0, len(items))
	for _, item := range items {
		result, err := o.runHook(ctx, item, files)
		if err != nil {
			return results, fmt.Errorf("failed to run hook %s: %w", item.Hook.ID, err)
		}
		results = append(results, result)

		if result.Failed() && (o.ctx.Config.FailFast || item.Hook.FailFast) {
			log.Debugf("fail fast after %s", item.Hook.ID)
			break
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	return results, nil
}

// collectHooksToRun resolves the hooks named by the filters, dropping hooks
// that do not run at the requested stage
func (o *Orchestrator) collectHooksToRun(ctx context.Context) ([]execution.RunItem, error) {
	collectStart := time.Now()
	defer logging.LogTiming("hook collection", collectStart)

	var items []execution.RunItem
	for _, ref := range o.ctx.Config.Hooks() {
		if len(o.ctx.HookIDs) > 0 && !slices.Contains(o.ctx.HookIDs, ref.Hook.ID) {
			continue
		}

		item := execution.RunItem{Repo: ref.Repo, Hook: ref.Hook}
		resolved, err := o.resolve(ctx, ref.Repo, ref.Hook)
		switch {
		case err == nil:
			item.Hook = resolved.Hook
			item.RepoPath = resolved.RepoPath
		case o.isSkipped(ref.Hook.ID):
			// skipped hooks only need their stages; an unreachable repo keeps the declared ones
			log.WithField("hook", ref.Hook.ID).Debugf("skipped hook not resolved: %v", err)
		default:
			return nil, fmt.Errorf("failed to resolve hook %s: %w", ref.Hook.ID, err)
		}

		if !o.runsAtStage(item.Hook) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (o *Orchestrator) resolve(ctx context.Context, repo config.Repo, hook config.Hook) (execution.RunItem, error) {
	if repo.IsLocal() {
		return execution.RunItem{Repo: repo, Hook: hook}, nil
	}
	if o.resolver == nil {
		return execution.RunItem{}, ErrNoResolver
	}
	resolved, path, err := o.resolver.Resolve(ctx, repo, hook)
	if err != nil {
		return execution.RunItem{}, err
	}
	return execution.RunItem{Repo: repo, Hook: resolved, RepoPath: path}, nil
}

func (o *Orchestrator) runsAtStage(hook config.Hook) bool {
	stages := hook.Stages
	if len(stages) == 0 {
		stages = o.ctx.Config.DefaultStages
	}
	if len(stages) == 0 {
		return true
	}
	for _, stage := range stages {
		if NormalizeStage(stage) == o.ctx.HookStage {
			return true
		}
	}
	return false
}

func (o *Orchestrator) isSkipped(id string) bool {
	return slices.Contains(o.ctx.SkipIDs, id)
}

// runHook runs a single hook against the already globally filtered files
func (o *Orchestrator) runHook(ctx context.Context, item execution.RunItem, files []string) (execution.Result, error) {
	start := time.Now()
	hook := item.Hook
	result := execution.Result{Hook: hook}

	if o.isSkipped(hook.ID) {
		result.Success = true
		result.Skipped = true
		result.SkipReason = execution.SkipEnv
		return result, nil
	}

	filesStart := time.Now()
	hookFiles, err := o.matcher.FilesForHook(hook, files)
	if err != nil {
		return result, err
	}
	logging.LogTiming("getting files for "+hook.ID, filesStart)
	result.Files = hookFiles

	if len(hookFiles) == 0 && !hook.AlwaysRun {
		result.Success = true
		result.Skipped = true
		result.SkipReason = execution.SkipNoFiles
		return result, nil
	}

	before := o.hashFiles(hookFiles)

	if commands.IsBuiltin(hook.Language) {
		builtin, err := commands.RunBuiltin(hook, o.ctx.RepoRoot, hookFiles)
		if err != nil {
			return result, err
		}
		result.Output = builtin.Output
		result.ExitCode = builtin.ExitCode
	} else if err := o.runInvocations(ctx, item, hookFiles, &result); err != nil {
		return result, err
	}

	result.Modified = !maps.Equal(before, o.hashFiles(hookFiles))
	result.Success = result.ExitCode == 0 && result.Error == "" && !result.Modified
	result.Duration = time.Since(start)

	if hook.LogFile != "" && result.Output != "" && (result.Failed() || hook.Verbose || o.ctx.Verbose) {
		if err := o.writeLogFile(hook.LogFile, result.Output); err != nil {
			log.WithField("hook", hook.ID).Warnf("failed to write log file: %v", err)
		}
	}

	logging.LogTiming("hook "+hook.ID, start)
	return result, nil
}

// runInvocations runs the hook's command batches. Serial hooks hold their
// guard key for the whole run and execute batches one after another; other
// hooks run up to Jobs batches at once.
func (o *Orchestrator) runInvocations(
	ctx context.Context,
	item execution.RunItem,
	files []string,
	result *execution.Result,
) error {
	hook := item.Hook
	invocations, err := o.builder.Build(hook, item.RepoPath, files, o.ctx.Jobs)
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}

	outputs := make([]execution.Output, len(invocations))

	if hook.RequireSerial {
		unlock := o.guard.Lock(item.Repo.Repo + "#" + hook.ID)
		defer unlock()
		for i, inv := range invocations {
			outputs[i] = o.executor.Run(ctx, inv)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(o.ctx.Jobs)
		for i, inv := range invocations {
			g.Go(func() error {
				outputs[i] = o.executor.Run(ctx, inv)
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // batches report failures through their Output
	}

	var combined strings.Builder
	var errs []string
	for _, out := range outputs {
		combined.Write(out.Output)
		if out.ExitCode != 0 && result.ExitCode == 0 {
			result.ExitCode = out.ExitCode
		}
		if out.TimedOut {
			result.Timeout = true
		}
		if out.Err != nil {
			errs = append(errs, out.Err.Error())
		}
	}
	result.Output = combined.String()
	result.Error = strings.Join(errs, "\n")
	return nil
}

// hashFiles fingerprints the files a hook is about to see so rewrites can be detected
func (o *Orchestrator) hashFiles(files []string) map[string]string {
	sums := make(map[string]string, len(files))
	for _, file := range files {
		sums[file] = hashFile(filepath.Join(o.ctx.RepoRoot, file))
	}
	return sums
}

func hashFile(path string) string {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return ""
	}
	defer f.Close() //nolint:errcheck // read only

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (o *Orchestrator) writeLogFile(name, output string) error {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(o.ctx.RepoRoot, path)
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(output); err != nil {
		_ = f.Close() //nolint:errcheck // write error is more important
		return err
	}
	return f.Close()
}
