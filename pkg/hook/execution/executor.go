package execution

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"slices"
	"time"

	"github.com/blairham/hookrun/pkg/hook/commands"
	"github.com/blairham/hookrun/pkg/logging"
)

var log = logging.NewLogger("execution")

// Output is what a single invocation produced
type Output struct {
	Err      error
	Output   []byte
	Duration time.Duration
	ExitCode int
	TimedOut bool
}

// Executor runs hook invocations as subprocesses
type Executor struct {
	env     []string
	timeout time.Duration
}

// NewExecutor creates an executor whose children inherit the current
// environment plus the context's additions
func NewExecutor(ctx *Context) *Executor {
	env := os.Environ()
	for _, key := range slices.Sorted(maps.Keys(ctx.Environment)) {
		env = append(env, key+"="+ctx.Environment[key])
	}
	return &Executor{env: env, timeout: ctx.Timeout}
}

// Run executes one invocation and captures its combined output. A non-zero
// exit is reported through ExitCode, not Err; Err is set when the process
// could not be started or was killed by the timeout.
func (e *Executor) Run(ctx context.Context, inv commands.Invocation) Output {
	start := time.Now()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := inv.Command(ctx)
	cmd.Env = e.env

	log.WithField("dir", cmd.Dir).Debugf("running %s", inv)
	combined, err := cmd.CombinedOutput()

	out := Output{Output: combined, Duration: time.Since(start)}
	if err == nil {
		return out
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		out.TimedOut = true
		out.ExitCode = -1
		out.Err = fmt.Errorf("hook timed out after %v", e.timeout)
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	case errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist):
		out.ExitCode = 1
		out.Err = fmt.Errorf("executable not found: %w", err)
	default:
		out.ExitCode = 1
		out.Err = fmt.Errorf("execution error: %w", err)
	}
	return out
}
