// Package toolrun executes external tools and translates their outcome into
// structured results. All handling of raw process output stops at this
// boundary; callers see a Result or a typed failure.
package toolrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// stderrExcerptLimit bounds how much captured stderr an ExecError carries.
const stderrExcerptLimit = 2048

// Result captures the outcome of one external tool invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes a named external binary with the given arguments and
// blocks until it exits. Implementations do not retry.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ErrToolNotFound indicates the external binary is not installed or not on PATH.
var ErrToolNotFound = errors.New("external tool not found")

// ErrTimeout indicates the configured execution bound elapsed before the
// tool finished.
var ErrTimeout = errors.New("external tool timed out")

// ExecError indicates the tool ran but exited non-zero.
type ExecError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s %s: exit status %d", e.Name, strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// ExecRunner runs tools as subprocesses via os/exec.
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{logger: logger}
}

// Run executes the tool, capturing both streams. A non-zero exit becomes an
// *ExecError carrying a bounded stderr excerpt; a missing binary becomes
// ErrToolNotFound; a context deadline becomes ErrTimeout. Partial output
// files the tool may have created are left in place.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	r.logger.Debug("running external tool",
		zap.String("tool", name),
		zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return res, nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		return res, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("%w: %s", ErrTimeout, name)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExecError{
			Name:     name,
			Args:     args,
			ExitCode: res.ExitCode,
			Stderr:   excerpt(res.Stderr),
		}
	}

	return res, fmt.Errorf("run %s: %w", name, err)
}

// excerpt trims stderr to a bounded, single-trailing-newline-free excerpt.
func excerpt(stderr string) string {
	s := strings.TrimSpace(stderr)
	if len(s) > stderrExcerptLimit {
		s = s[:stderrExcerptLimit] + "..."
	}
	return s
}
