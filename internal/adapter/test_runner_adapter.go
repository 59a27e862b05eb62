package adapter

import (
	"context"
	"time"

	m "gooze.dev/pkg/mutaug/internal/model"
)

// TestRunnerAdapter abstracts test execution for the patched test files.
type TestRunnerAdapter interface {
	// RunUnittest runs `python -m unittest <module>` inside workDir.
	// A failing run returns the result together with a non-nil error.
	RunUnittest(ctx context.Context, workDir m.Path, module string) (CommandResult, error)
}

// DefaultPython is the interpreter used when none is configured.
const DefaultPython = "python3"

// LocalTestRunnerAdapter runs unittest through a CommandRunner.
type LocalTestRunnerAdapter struct {
	runner  CommandRunner
	python  string
	timeout time.Duration
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter. An empty
// python falls back to DefaultPython; a zero timeout defaults to 30s.
func NewLocalTestRunnerAdapter(runner CommandRunner, python string, timeout time.Duration) *LocalTestRunnerAdapter {
	if python == "" {
		python = DefaultPython
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &LocalTestRunnerAdapter{runner: runner, python: python, timeout: timeout}
}

// RunUnittest runs the test module.
func (a *LocalTestRunnerAdapter) RunUnittest(ctx context.Context, workDir m.Path, module string) (CommandResult, error) {
	return a.runner.Run(ctx, Command{
		Name:    a.python,
		Args:    []string{"-m", "unittest", module},
		Dir:     string(workDir),
		Timeout: a.timeout,
	})
}
