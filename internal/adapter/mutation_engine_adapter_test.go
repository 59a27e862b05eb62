package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/mutaug/internal/model"
)

func TestLocalMutationEngineAdapter_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("passes paths and config", func(t *testing.T) {
		runner := new(mockCommandRunner)
		runner.On("Run", ctx, mock.MatchedBy(func(cmd Command) bool {
			return cmd.Name == "mutmut" &&
				cmd.Dir == "/project" &&
				cmd.Timeout == time.Minute &&
				len(cmd.Args) == 3 &&
				cmd.Args[0] == "run" &&
				cmd.Args[1] == "--paths-to-mutate=src/calculator.py" &&
				cmd.Args[2] == "--test-dir=tests"
		})).Return(CommandResult{Stdout: "done"}, nil)

		engine := NewLocalMutationEngineAdapter(runner, EngineConfig{WorkDir: "/project", Timeout: time.Minute}, nil)

		out, err := engine.Run(ctx, "src/calculator.py", "tests")
		require.NoError(t, err)
		assert.Equal(t, "done", out)
		runner.AssertExpectations(t)
	})

	t.Run("surviving mutants exit code is not a failure", func(t *testing.T) {
		runner := new(mockCommandRunner)
		runner.On("Run", ctx, mock.Anything).Return(
			CommandResult{Stdout: "2/2 survived", ExitCode: 2},
			m.NewError(m.KindProcess, "mutmut", errors.New("exit status 2")),
		)

		engine := NewLocalMutationEngineAdapter(runner, EngineConfig{}, nil)

		out, err := engine.Run(ctx, "calculator.py", "tests")
		require.NoError(t, err)
		assert.Equal(t, "2/2 survived", out)
	})

	t.Run("fatal exit code fails", func(t *testing.T) {
		runner := new(mockCommandRunner)
		runner.On("Run", ctx, mock.Anything).Return(
			CommandResult{Stderr: "config error", ExitCode: 1},
			m.NewError(m.KindProcess, "mutmut", errors.New("exit status 1")),
		)

		engine := NewLocalMutationEngineAdapter(runner, EngineConfig{}, nil)

		_, err := engine.Run(ctx, "calculator.py", "tests")
		require.Error(t, err)
		assert.Equal(t, m.KindEngineInvocation, m.KindOf(err))
		assert.True(t, m.IsKind(err, m.KindProcess))
	})

	t.Run("timeout keeps its kind underneath", func(t *testing.T) {
		runner := new(mockCommandRunner)
		runner.On("Run", ctx, mock.Anything).Return(
			CommandResult{ExitCode: -1},
			m.NewError(m.KindTimeout, "mutmut", context.DeadlineExceeded),
		)

		engine := NewLocalMutationEngineAdapter(runner, EngineConfig{}, nil)

		_, err := engine.Run(ctx, "calculator.py", "tests")
		require.Error(t, err)
		assert.True(t, m.IsKind(err, m.KindTimeout))
	})
}

func TestLocalMutationEngineAdapter_ResultsAndShow(t *testing.T) {
	ctx := context.Background()

	runner := new(mockCommandRunner)
	runner.On("Run", ctx, commandNamed("mutmut-x", "results")).Return(CommandResult{Stdout: "1: SURVIVED\n"}, nil)
	runner.On("Run", ctx, commandNamed("mutmut-x", "show", "1")).Return(CommandResult{Stdout: "@@ -3 +3 @@\n"}, nil)
	runner.On("Run", ctx, commandNamed("mutmut-x", "show", "9")).Return(
		CommandResult{}, m.NewError(m.KindProcess, "mutmut-x", errors.New("exit status 1")),
	)

	engine := NewLocalMutationEngineAdapter(runner, EngineConfig{Command: "mutmut-x"}, nil)

	results, err := engine.Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1: SURVIVED\n", results)

	diff, err := engine.Show(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "@@ -3 +3 @@\n", diff)

	_, err = engine.Show(ctx, "9")
	assert.Equal(t, m.KindEngineInvocation, m.KindOf(err))

	runner.AssertExpectations(t)
}
