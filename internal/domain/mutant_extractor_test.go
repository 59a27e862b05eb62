package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/mutaug/internal/model"
)

func TestParseMutantDiff(t *testing.T) {
	t.Run("unified diff from the engine", func(t *testing.T) {
		mutant, ok := ParseMutantDiff("1", isPrimeDiff)

		require.True(t, ok)
		assert.Equal(t, m.Mutant{
			ID:          "1",
			Line:        2,
			Original:    "if n <= 1:",
			Mutated:     "if n <= 2:",
			Description: "Changed 'if n <= 1:' to 'if n <= 2:' at line 2",
		}, mutant)
	})

	t.Run("header noise before the hunk", func(t *testing.T) {
		view := "# mutant 7\n" + isPrimeDiff

		mutant, ok := ParseMutantDiff("7", view)

		require.True(t, ok)
		assert.Equal(t, 2, mutant.Line)
		assert.Equal(t, "if n <= 1:", mutant.Original)
	})

	t.Run("last pair wins", func(t *testing.T) {
		view := "@@ -10,2 +10,2 @@\n-    a = 1\n+    a = 2\n-    b = 3\n+    b = 4\n"

		mutant, ok := ParseMutantDiff("3", view)

		require.True(t, ok)
		assert.Equal(t, 10, mutant.Line)
		assert.Equal(t, "b = 3", mutant.Original)
		assert.Equal(t, "b = 4", mutant.Mutated)
	})

	t.Run("line comes from the last hunk", func(t *testing.T) {
		view := "@@ -4,1 +4,1 @@\n-    a = 1\n+    a = 2\n@@ -20,1 +20,1 @@\n-    b = 3\n+    b = 4\n"

		mutant, ok := ParseMutantDiff("8", view)

		require.True(t, ok)
		assert.Equal(t, 20, mutant.Line)
		assert.Equal(t, "b = 3", mutant.Original)
	})

	t.Run("malformed hunk falls back to line scan", func(t *testing.T) {
		view := "@@ -5 +5 @@ garbage\nnot a diff line\n-return a + b\n+return a - b\n"

		mutant, ok := ParseMutantDiff("4", view)

		require.True(t, ok)
		assert.Equal(t, 5, mutant.Line)
		assert.Equal(t, "return a + b", mutant.Original)
		assert.Equal(t, "return a - b", mutant.Mutated)
	})

	t.Run("file headers are not snippets", func(t *testing.T) {
		view := "--- a/calc.py\n+++ b/calc.py\n"

		_, ok := ParseMutantDiff("5", view)

		assert.False(t, ok)
	})

	t.Run("missing mutated line", func(t *testing.T) {
		view := "@@ -3,1 +3,0 @@\n-    return x\n"

		_, ok := ParseMutantDiff("6", view)

		assert.False(t, ok)
	})

	t.Run("blank snippets", func(t *testing.T) {
		view := "@@ -3,1 +3,1 @@\n-   \n+x\n"

		_, ok := ParseMutantDiff("8", view)

		assert.False(t, ok)
	})
}

func TestSurvivingIDs(t *testing.T) {
	listing := `1: KILLED
2: SURVIVED
 3 : SURVIVED
x4: SURVIVED
5: TIMEOUT
summary: 2 SURVIVED
12: SURVIVED`

	assert.Equal(t, []string{"2", "3", "12"}, survivingIDs(listing))
	assert.Empty(t, survivingIDs(""))
}

func TestMutantExtractor_Extract(t *testing.T) {
	ctx := context.Background()
	mapping := calculatorMapping("/project")

	t.Run("collects parsable survivors in listing order", func(t *testing.T) {
		engine := new(mockEngine)
		engine.On("Run", mock.Anything, mapping.Source.Path, m.Path("/project/tests")).Return("done", nil).Once()
		engine.On("Results", mock.Anything).Return("1: SURVIVED\n2: KILLED\n3: SURVIVED\n4: SURVIVED\n", nil).Once()
		engine.On("Show", mock.Anything, "1").Return(isPrimeDiff, nil).Once()
		engine.On("Show", mock.Anything, "3").Return("no diff here", nil).Once()
		engine.On("Show", mock.Anything, "4").Return("@@ -6 +6 @@\n-        if n % i == 0:\n+        if n % i != 0:\n", nil).Once()

		mutants, err := NewMutantExtractor(engine, nil).Extract(ctx, mapping)

		require.NoError(t, err)
		require.Len(t, mutants, 2)
		assert.Equal(t, "1", mutants[0].ID)
		assert.Equal(t, "4", mutants[1].ID)
		assert.Equal(t, 6, mutants[1].Line)
		engine.AssertExpectations(t)
	})

	t.Run("no survivors", func(t *testing.T) {
		engine := new(mockEngine)
		engine.On("Run", mock.Anything, mock.Anything, mock.Anything).Return("", nil).Once()
		engine.On("Results", mock.Anything).Return("1: KILLED\n", nil).Once()

		mutants, err := NewMutantExtractor(engine, nil).Extract(ctx, mapping)

		require.NoError(t, err)
		assert.Empty(t, mutants)
		engine.AssertNotCalled(t, "Show", mock.Anything, mock.Anything)
	})

	t.Run("run failure aborts", func(t *testing.T) {
		engine := new(mockEngine)
		engine.On("Run", mock.Anything, mock.Anything, mock.Anything).
			Return("", m.NewError(m.KindEngineInvocation, "mutmut run", errors.New("exit status 1"))).Once()

		mutants, err := NewMutantExtractor(engine, nil).Extract(ctx, mapping)

		require.Error(t, err)
		assert.True(t, m.IsKind(err, m.KindEngineInvocation))
		assert.Empty(t, mutants)
		engine.AssertNotCalled(t, "Results", mock.Anything)
	})

	t.Run("show failure aborts", func(t *testing.T) {
		engine := new(mockEngine)
		engine.On("Run", mock.Anything, mock.Anything, mock.Anything).Return("", nil).Once()
		engine.On("Results", mock.Anything).Return("1: SURVIVED\n2: SURVIVED\n", nil).Once()
		engine.On("Show", mock.Anything, "1").Return(isPrimeDiff, nil).Once()
		engine.On("Show", mock.Anything, "2").
			Return("", m.NewError(m.KindEngineInvocation, "mutmut show", errors.New("boom"))).Once()

		mutants, err := NewMutantExtractor(engine, nil).Extract(ctx, mapping)

		require.Error(t, err)
		assert.Equal(t, m.KindEngineInvocation, m.KindOf(err))
		assert.Empty(t, mutants)
	})
}
