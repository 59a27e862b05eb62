package adapter

import (
	"context"
	"log/slog"
	"time"

	m "gooze.dev/pkg/mutaug/internal/model"
)

// MutationEngineAdapter is the command/output contract of the external
// mutation engine. Every call blocks until the engine exits.
type MutationEngineAdapter interface {
	// Run mutates sourcePath and runs the tests found in testDir.
	Run(ctx context.Context, sourcePath m.Path, testDir m.Path) (string, error)
	// Results returns the listing of mutant identifiers with their status.
	Results(ctx context.Context) (string, error)
	// Show returns the unified diff of one mutant.
	Show(ctx context.Context, id string) (string, error)
}

// EngineConfig configures the mutmut-compatible engine invocation.
type EngineConfig struct {
	Command string
	WorkDir string
	Timeout time.Duration
}

// DefaultEngineCommand is the engine executable used when none is configured.
const DefaultEngineCommand = "mutmut"

// mutmutFatalExit is the exit-status bit the engine sets on a fatal error.
// The other bits report surviving, timed out and suspicious mutants.
const mutmutFatalExit = 1

// LocalMutationEngineAdapter drives a mutmut-style CLI.
type LocalMutationEngineAdapter struct {
	runner CommandRunner
	config EngineConfig
	logger *slog.Logger
}

// NewLocalMutationEngineAdapter constructs a LocalMutationEngineAdapter.
func NewLocalMutationEngineAdapter(runner CommandRunner, config EngineConfig, logger *slog.Logger) *LocalMutationEngineAdapter {
	if config.Command == "" {
		config.Command = DefaultEngineCommand
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &LocalMutationEngineAdapter{runner: runner, config: config, logger: logger}
}

// Run triggers a mutation run scoped to sourcePath.
func (a *LocalMutationEngineAdapter) Run(ctx context.Context, sourcePath m.Path, testDir m.Path) (string, error) {
	result, err := a.runner.Run(ctx, a.command("run",
		"--paths-to-mutate="+string(sourcePath),
		"--test-dir="+string(testDir),
	))
	if err != nil && m.KindOf(err) == m.KindProcess && result.ExitCode > 0 && result.ExitCode&mutmutFatalExit == 0 {
		a.logger.Debug("engine reported undetected mutants", "source", sourcePath, "exit", result.ExitCode)
		return result.Stdout, nil
	}

	if err != nil {
		return result.Output(), &m.Error{Kind: m.KindEngineInvocation, Op: "engine run", Path: sourcePath, Err: err}
	}

	return result.Stdout, nil
}

// Results lists mutants with their status.
func (a *LocalMutationEngineAdapter) Results(ctx context.Context) (string, error) {
	result, err := a.runner.Run(ctx, a.command("results"))
	if err != nil {
		return result.Output(), &m.Error{Kind: m.KindEngineInvocation, Op: "engine results", Err: err}
	}

	return result.Stdout, nil
}

// Show returns the diff for one mutant.
func (a *LocalMutationEngineAdapter) Show(ctx context.Context, id string) (string, error) {
	result, err := a.runner.Run(ctx, a.command("show", id))
	if err != nil {
		return result.Output(), &m.Error{Kind: m.KindEngineInvocation, Op: "engine show " + id, Err: err}
	}

	return result.Stdout, nil
}

func (a *LocalMutationEngineAdapter) command(args ...string) Command {
	return Command{
		Name:    a.config.Command,
		Args:    args,
		Dir:     a.config.WorkDir,
		Timeout: a.config.Timeout,
	}
}
