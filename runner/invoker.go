package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
)

// Errors for runner invocation.
var (
	// ErrTimeout indicates the runner subprocess exceeded its deadline and
	// was terminated.
	ErrTimeout = errors.New("runner timed out")

	// ErrProtocol indicates the subprocess exited successfully but its
	// stdout was not a valid output document.
	ErrProtocol = errors.New("runner protocol error")
)

// ExitError reports a runner subprocess that exited non-zero. Stderr carries
// the diagnostic text used to synthesize a failure result.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("runner exited with code %d: %s", e.Code, e.Stderr)
}

// Invoker abstracts the isolation boundary for one script build. The
// production implementation spawns a subprocess; stronger sandboxes can be
// substituted without changing the calling contract.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Invoke must honor cancellation and kill the isolated work.
// - Errors: a non-zero exit returns *ExitError; a deadline expiry returns
//   an error matching ErrTimeout; undecodable stdout returns ErrProtocol.
type Invoker interface {
	// Invoke runs one build in isolation: the envelope goes in whole, one
	// output document comes back.
	Invoke(ctx context.Context, entrypoint string, env Envelope) (Output, error)
}

// Subprocess is the production Invoker. It spawns the workspace runtime
// entry point with the configured arguments, writes the envelope to its
// stdin, and parses the single JSON document from its stdout. Stderr is
// captured for diagnostics only.
type Subprocess struct {
	// Args are passed to the entry point before stdin is written, e.g. the
	// path of the runner program the runtime should execute.
	Args []string

	// Timeout bounds one invocation. Zero means no deadline.
	Timeout time.Duration

	// Logger receives subprocess diagnostics. Optional.
	Logger *log.Logger
}

var _ Invoker = (*Subprocess)(nil)

// Invoke runs the runner subprocess for one parameter set.
func (s *Subprocess) Invoke(ctx context.Context, entrypoint string, env Envelope) (Output, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	input, err := json.Marshal(env)
	if err != nil {
		return Output{}, fmt.Errorf("encode envelope: %w", err)
	}

	cmd := exec.CommandContext(ctx, entrypoint, s.Args...)
	cmd.Dir = env.WorkspacePath
	cmd.Env = os.Environ()
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if s.Logger != nil {
		s.Logger.Info("spawning runner", "entrypoint", entrypoint, "result_id", env.ResultID)
	}

	runErr := cmd.Run()

	if stderr.Len() > 0 && s.Logger != nil {
		s.Logger.Debug("runner stderr", "result_id", env.ResultID, "stderr", stderr.String())
	}

	if ctx.Err() == context.DeadlineExceeded {
		return Output{}, fmt.Errorf("%w after %v: %s", ErrTimeout, s.Timeout, truncate(stderr.String(), 2048))
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return Output{}, &ExitError{Code: exitErr.ExitCode(), Stderr: truncate(stderr.String(), 8192)}
		}
		return Output{}, fmt.Errorf("spawn runner: %w", runErr)
	}

	var out Output
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return Output{}, fmt.Errorf("%w: decode stdout: %v (stdout: %s)", ErrProtocol, err, truncate(stdout.String(), 2048))
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
