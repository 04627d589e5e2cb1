// pkg/execute/execute.go

// Package execute runs external tools (pct, zfs, vzdump, pvesm) and turns
// their exit status and output into errors. Nothing here goes through a
// shell on the host.
package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Options describes a single invocation.
type Options struct {
	Command string
	Args    []string
	Dir     string
	Stdin   io.Reader
	// Mutating commands are skipped in dry-run mode; queries always run.
	Mutating bool
	// Timeout overrides the runner default; zero means none.
	Timeout time.Duration
}

// String renders the invocation for logs and dry-run output.
func (o Options) String() string {
	return strings.TrimSpace(o.Command + " " + strings.Join(o.Args, " "))
}

// Runner is the seam between lifecycle logic and the host.
type Runner interface {
	// Run executes and returns combined stdout+stderr.
	Run(ctx context.Context, opts Options) (string, error)
	// Stream executes with output passed straight through, until the
	// command exits or ctx is cancelled.
	Stream(ctx context.Context, opts Options, stdout, stderr io.Writer) error
}

// CommandError is returned when a command could not start or exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: exit status %d: %s", e.Command, e.ExitCode, stack_err.ExtractSummary(e.Output, 2))
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode returns the exit status carried by err, or -1.
func ExitCode(err error) int {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}
	return -1
}

// OutputOf returns the captured output carried by err.
func OutputOf(err error) string {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Output
	}
	return ""
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger  *zap.Logger
	DryRun  bool
	Timeout time.Duration
}

// NewExecRunner returns a runner logging to logger.
func NewExecRunner(logger *zap.Logger, dryRun bool, timeout time.Duration) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{Logger: logger, DryRun: dryRun, Timeout: timeout}
}

func (r *ExecRunner) context(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = r.Timeout
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func (r *ExecRunner) Run(ctx context.Context, opts Options) (string, error) {
	cmdStr := opts.String()

	ctx, span := telemetry.Start(ctx, "execute.Run",
		attribute.String("command", opts.Command),
		attribute.String("args", strings.Join(opts.Args, " ")))
	defer span.End()

	if opts.Mutating && r.DryRun {
		r.Logger.Info("Dry run - command not executed", zap.String("command", cmdStr))
		return "", nil
	}

	ctx, cancel := r.context(ctx, opts)
	defer cancel()

	r.Logger.Debug("Starting execution", zap.String("command", cmdStr))
	start := time.Now()

	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Stdin = opts.Stdin
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := buf.String()
	if err != nil {
		span.RecordError(err)
		cerr := wrapExecError(cmdStr, err, output)
		r.Logger.Debug("Execution failed",
			zap.String("command", cmdStr),
			zap.Int("exit_code", cerr.ExitCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("summary", stack_err.ExtractSummary(output, 2)))
		return output, cerr
	}

	r.Logger.Debug("Execution succeeded",
		zap.String("command", cmdStr),
		zap.Duration("duration", time.Since(start)))
	return output, nil
}

func (r *ExecRunner) Stream(ctx context.Context, opts Options, stdout, stderr io.Writer) error {
	cmdStr := opts.String()
	if opts.Mutating && r.DryRun {
		r.Logger.Info("Dry run - command not executed", zap.String("command", cmdStr))
		return nil
	}

	ctx, cancel := r.context(ctx, opts)
	defer cancel()

	r.Logger.Debug("Streaming command", zap.String("command", cmdStr))
	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Stdin = opts.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		// an interrupted follow is a normal way to stop streaming
		if ctx.Err() != nil {
			return nil
		}
		return wrapExecError(cmdStr, err, "")
	}
	return nil
}

func wrapExecError(cmdStr string, err error, output string) *CommandError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &CommandError{Command: cmdStr, ExitCode: code, Output: output, Err: err}
}
