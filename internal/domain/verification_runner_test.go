package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gooze.dev/pkg/mutaug/internal/adapter"
	m "gooze.dev/pkg/mutaug/internal/model"
)

func TestVerificationRunner_Verify(t *testing.T) {
	ctx := context.Background()
	mapping := calculatorMapping("/project")
	testDir := m.Path("/project/tests")

	t.Run("tests pass and engine prints a score", func(t *testing.T) {
		runner := new(mockTestRunner)
		runner.On("RunUnittest", mock.Anything, testDir, "test_calculator").
			Return(adapter.CommandResult{Stdout: "OK"}, nil).Once()

		engine := new(mockEngine)
		engine.On("Run", mock.Anything, mapping.Source.Path, testDir).
			Return("2/2 mutants\nMutation score: 100.0%\n", nil).Once()
		engine.On("Results", mock.Anything).Return("1: KILLED\n2: KILLED\n", nil).Once()

		result := NewVerificationRunner(runner, engine, nil).Verify(ctx, mapping)

		assert.Equal(t, m.VerificationResult{
			TestsPassed:  true,
			ScoreSummary: "Mutation score: 100.0%",
			Score:        1,
			Message:      "Tests passed. Mutation score: 100.0%",
		}, result)
		runner.AssertExpectations(t)
		engine.AssertExpectations(t)
	})

	t.Run("no summary line", func(t *testing.T) {
		runner := new(mockTestRunner)
		runner.On("RunUnittest", mock.Anything, testDir, "test_calculator").Return(adapter.CommandResult{}, nil).Once()

		engine := new(mockEngine)
		engine.On("Run", mock.Anything, mock.Anything, mock.Anything).Return("done\n", nil).Once()
		engine.On("Results", mock.Anything).Return("", errors.New("no cache")).Once()

		result := NewVerificationRunner(runner, engine, nil).Verify(ctx, mapping)

		assert.True(t, result.TestsPassed)
		assert.Equal(t, m.UnknownScore, result.ScoreSummary)
		assert.Equal(t, "Tests passed. Mutation score: Unknown", result.Message)
		assert.InDelta(t, -1.0, result.Score, 1e-9)
	})

	t.Run("failing tests skip the mutation run", func(t *testing.T) {
		runner := new(mockTestRunner)
		runner.On("RunUnittest", mock.Anything, testDir, "test_calculator").
			Return(adapter.CommandResult{Stderr: "FAILED (failures=1)\n", ExitCode: 1}, errors.New("exit status 1")).Once()

		engine := new(mockEngine)

		result := NewVerificationRunner(runner, engine, nil).Verify(ctx, mapping)

		assert.False(t, result.TestsPassed)
		assert.Equal(t, m.UnknownScore, result.ScoreSummary)
		assert.Equal(t, "Tests failed to run: FAILED (failures=1)", result.Message)
		engine.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("engine re-run failure keeps the tests verdict", func(t *testing.T) {
		runner := new(mockTestRunner)
		runner.On("RunUnittest", mock.Anything, testDir, "test_calculator").Return(adapter.CommandResult{}, nil).Once()

		engine := new(mockEngine)
		engine.On("Run", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("mutmut missing")).Once()

		result := NewVerificationRunner(runner, engine, nil).Verify(ctx, mapping)

		assert.True(t, result.TestsPassed)
		assert.Equal(t, m.UnknownScore, result.ScoreSummary)
		assert.Contains(t, result.Message, "mutmut missing")
	})
}
