package adapter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	m "gooze.dev/pkg/mutaug/internal/model"
)

// CommandResult captures a finished external process.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Output returns stdout followed by stderr.
func (r CommandResult) Output() string {
	return r.Stdout + r.Stderr
}

// Command describes one external invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// CommandRunner executes external processes under a deadline.
type CommandRunner interface {
	// Run blocks until the process exits or the deadline passes. A non-zero
	// exit returns the result together with a KindProcess error; an expired
	// deadline returns a KindTimeout error.
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}

// LocalCommandRunner runs commands through os/exec.
type LocalCommandRunner struct {
	logger *slog.Logger
}

// NewLocalCommandRunner constructs a LocalCommandRunner.
func NewLocalCommandRunner(logger *slog.Logger) *LocalCommandRunner {
	if logger == nil {
		logger = slog.Default()
	}

	return &LocalCommandRunner{logger: logger}
}

// Run executes cmd and classifies its failure.
func (r *LocalCommandRunner) Run(ctx context.Context, cmd Command) (CommandResult, error) {
	runCtx := ctx

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir

	if len(cmd.Env) > 0 {
		execCmd.Env = append(execCmd.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer

	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	started := time.Now()
	err := execCmd.Run()

	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: execCmd.ProcessState.ExitCode(),
		Duration: time.Since(started),
	}

	r.logger.Debug("command finished", "cmd", cmd.String(), "dir", cmd.Dir, "exit", result.ExitCode, "duration", result.Duration)

	if err == nil {
		return result, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		r.logger.Warn("command timed out", "cmd", cmd.String(), "timeout", cmd.Timeout)
		return result, &m.Error{Kind: m.KindTimeout, Op: cmd.Name, Err: runCtx.Err()}
	}

	if ctx.Err() != nil {
		return result, &m.Error{Kind: m.KindProcess, Op: cmd.Name, Err: ctx.Err()}
	}

	return result, &m.Error{Kind: m.KindProcess, Op: cmd.Name, Err: err}
}
