package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/cli"

	"github.com/blairham/hookrun/pkg/cache"
	"github.com/blairham/hookrun/pkg/config"
	"github.com/blairham/hookrun/pkg/git"
	"github.com/blairham/hookrun/pkg/hook"
	"github.com/blairham/hookrun/pkg/hook/execution"
	"github.com/blairham/hookrun/pkg/hook/formatting"
	"github.com/blairham/hookrun/pkg/logging"
	"github.com/blairham/hookrun/pkg/repository"
)

const runUsage = "[OPTIONS] [hook-id...]"

var (
	// ErrUnmergedFiles is returned when the index still has conflicts
	ErrUnmergedFiles = errors.New("unmerged files, resolve before committing")
	// ErrNoMatchingHook is returned when hook ids were requested but none run at the stage
	ErrNoMatchingHook = errors.New("no hook with the requested id")
)

// RunCommand handles the run command functionality
type RunCommand struct {
	BaseCommand
}

// RunOptions holds command-line options for the run command
type RunOptions struct {
	Config    string        `short:"c" long:"config"     description:"Path to config file"                                      default:".pre-commit-config.yaml"`
	HookStage string        `          long:"hook-stage" description:"The stage during which the hook is fired"                  default:"pre-commit"`
	FromRef   string        `short:"s" long:"from-ref"   description:"Run against files changed between FROM_REF and TO_REF"`
	ToRef     string        `short:"o" long:"to-ref"     description:"Run against files changed between FROM_REF and TO_REF"`
	Color     string        `          long:"color"      description:"Whether to use color in output"                            default:"auto" choice:"auto" choice:"always" choice:"never"`
	CacheDir  string        `          long:"cache-dir"  description:"Directory holding cloned hook repositories"`
	Files     []string      `          long:"files"      description:"Specific filenames to run hooks on (repeatable)"`
	Timeout   time.Duration `          long:"timeout"    description:"Per-command timeout, e.g. 30s or 5m (0 disables)"          default:"0s"`
	Jobs      int           `short:"j" long:"jobs"       description:"Concurrent batches per hook (default: number of CPUs)"     default:"0"`
	AllFiles  bool          `short:"a" long:"all-files"  description:"Run on all files in the repository"`
	Verbose   bool          `short:"v" long:"verbose"    description:"Verbose output"`
}

// RunCommandFactory creates a new run command instance
func RunCommandFactory() (cli.Command, error) {
	return &RunCommand{}, nil
}

// Help returns the help text for the run command
func (c *RunCommand) Help() string {
	return commandHelp("run", runUsage, &RunOptions{}, &HelpFormatter{
		Description: "Run the configured hooks against the staged files.",
		Examples: []Example{
			{Command: "hookrun run", Description: "Run every hook on the staged files"},
			{Command: "hookrun run --all-files", Description: "Run every hook on every tracked file"},
			{Command: "hookrun run mypy --files app.py", Description: "Run one hook on one file"},
			{Command: "hookrun run --from-ref origin/main --to-ref HEAD", Description: "Run on a branch's changes"},
			{Command: "SKIP=flake8,black hookrun run", Description: "Skip some hooks"},
		},
		Notes: []string{
			"--all-files, --files and --from-ref/--to-ref are mutually exclusive.",
			"Exits 1 when any hook fails.",
		},
	})
}

// Synopsis returns a short description of the run command
func (c *RunCommand) Synopsis() string {
	return "Run hooks"
}

// Run executes the run command
func (c *RunCommand) Run(args []string) int {
	var opts RunOptions
	hookIDs, helped, err := c.ParseArgsWithHelp(&opts, runUsage, args)
	if helped {
		return 0
	}
	if err != nil {
		return c.fail(err)
	}

	if err := validateRunOptions(&opts); err != nil {
		return c.fail(err)
	}
	logging.SetVerbose(opts.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := c.run(ctx, &opts, hookIDs)
	if err != nil {
		return c.fail(err)
	}

	formatting.NewFormatter(c.out(), opts.Color, opts.Verbose).PrintResults(results)

	for _, result := range results {
		if result.Failed() {
			return 1
		}
	}
	return 0
}

func (c *RunCommand) run(ctx context.Context, opts *RunOptions, hookIDs []string) ([]execution.Result, error) {
	start := time.Now()
	defer logging.LogTiming("run", start)

	repo, err := c.RequireGitRepository()
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(repo.Root, opts.Config)
	if err != nil {
		return nil, err
	}

	files, err := c.getFilesToProcess(opts, repo)
	if err != nil {
		return nil, err
	}

	var resolver hook.Resolver
	if hasRemoteRepos(cfg) {
		store, err := openCache(opts.CacheDir)
		if err != nil {
			return nil, err
		}
		defer store.Close() //nolint:errcheck // read-mostly index
		resolver = repository.NewManager(store)
	}

	execCtx := &execution.Context{
		Config:      cfg,
		Environment: refEnvironment(opts),
		RepoRoot:    repo.Root,
		HookStage:   opts.HookStage,
		Color:       opts.Color,
		HookIDs:     hookIDs,
		SkipIDs:     skippedHookIDs(os.Getenv(skipEnvVar)),
		Files:       files,
		Timeout:     opts.Timeout,
		Jobs:        opts.Jobs,
		Verbose:     opts.Verbose,
	}

	results, err := hook.NewOrchestrator(execCtx, resolver).RunHooks(ctx)
	if err != nil {
		return results, err
	}

	if len(hookIDs) > 0 && len(results) == 0 {
		return nil, fmt.Errorf("%w %s in stage %s", ErrNoMatchingHook, strings.Join(hookIDs, ", "), hook.NormalizeStage(opts.HookStage))
	}
	return results, nil
}

func validateRunOptions(opts *RunOptions) error {
	if (opts.FromRef == "") != (opts.ToRef == "") {
		return errors.New("--from-ref and --to-ref must be given together")
	}

	exclusive := 0
	if opts.AllFiles {
		exclusive++
	}
	if len(opts.Files) > 0 {
		exclusive++
	}
	if opts.FromRef != "" {
		exclusive++
	}
	if exclusive > 1 {
		return errors.New("--all-files, --files, and --from-ref/--to-ref are mutually exclusive")
	}

	if opts.Jobs < 0 {
		return fmt.Errorf("--jobs must not be negative, got %d", opts.Jobs)
	}
	return nil
}

// getFilesToProcess determines which files to run hooks against based on options
func (c *RunCommand) getFilesToProcess(opts *RunOptions, repo *git.Repository) ([]string, error) {
	switch {
	case opts.AllFiles:
		return repo.AllFiles()
	case len(opts.Files) > 0:
		return c.existingFiles(repo.Root, opts.Files), nil
	case opts.FromRef != "":
		return repo.ChangedFiles(opts.FromRef, opts.ToRef)
	}

	if hook.NormalizeStage(opts.HookStage) != hookTypePreCommit {
		// other stages have no staging area to look at
		return repo.AllFiles()
	}

	unmerged, err := repo.HasUnmergedFiles()
	if err != nil {
		return nil, err
	}
	if unmerged {
		return nil, ErrUnmergedFiles
	}
	return repo.StagedFiles()
}

// existingFiles drops the named files that do not exist under root
func (c *RunCommand) existingFiles(root string, files []string) []string {
	valid := make([]string, 0, len(files))
	for _, file := range files {
		rel := filepath.ToSlash(filepath.Clean(file))
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			c.ui().Warn("Warning: file not found: " + file)
			continue
		}
		valid = append(valid, rel)
	}
	return valid
}

// loadConfig reads and validates the configuration, resolving relative paths against root
func loadConfig(root, path string) (*config.Config, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s. Run 'hookrun sample-config' first", path)
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s:\n%w", path, err)
	}
	return cfg, nil
}

func hasRemoteRepos(cfg *config.Config) bool {
	for _, repo := range cfg.Repos {
		if !repo.IsLocal() {
			return true
		}
	}
	return false
}

func openCache(dir string) (*cache.Store, error) {
	if dir == "" {
		var err error
		if dir, err = cache.DefaultDir(); err != nil {
			return nil, err
		}
	}
	store, err := cache.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return store, nil
}

// refEnvironment exposes --from-ref/--to-ref to hooks
func refEnvironment(opts *RunOptions) map[string]string {
	env := map[string]string{}
	if opts.FromRef != "" {
		env["PRE_COMMIT_FROM_REF"] = opts.FromRef
		env["PRE_COMMIT_TO_REF"] = opts.ToRef
	}
	return env
}

// skippedHookIDs parses the comma separated SKIP variable
func skippedHookIDs(value string) []string {
	var ids []string
	for id := range strings.SplitSeq(value, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
