package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gooze.dev/pkg/mutaug/internal/adapter"
	m "gooze.dev/pkg/mutaug/internal/model"
)

const calculatorSource = `# Simple calculator module
def is_prime(n):
    if n <= 1:
        return False
    for i in range(2, n):
        if n % i == 0:
            return False
    return True


def calculate_discount(price, discount_percent):
    if discount_percent > 100:
        raise ValueError("discount too large")
    return price - price * discount_percent / 100
`

const calculatorTests = `import unittest

import calculator


class TestCalculator(unittest.TestCase):
    def test_is_prime(self):
        self.assertTrue(calculator.is_prime(2))
        self.assertFalse(calculator.is_prime(4))

    def test_calculate_discount(self):
        self.assertEqual(calculator.calculate_discount(100, 10), 90)


if __name__ == "__main__":
    unittest.main()
`

const isPrimeDiff = `--- calculator.py
+++ calculator.py
@@ -2,3 +2,3 @@
 def is_prime(n):
-    if n <= 1:
+    if n <= 2:
         return False
`

type mockEngine struct {
	mock.Mock
}

func (e *mockEngine) Run(ctx context.Context, sourcePath m.Path, testDir m.Path) (string, error) {
	args := e.Called(ctx, sourcePath, testDir)
	return args.String(0), args.Error(1)
}

func (e *mockEngine) Results(ctx context.Context) (string, error) {
	args := e.Called(ctx)
	return args.String(0), args.Error(1)
}

func (e *mockEngine) Show(ctx context.Context, id string) (string, error) {
	args := e.Called(ctx, id)
	return args.String(0), args.Error(1)
}

type mockTestRunner struct {
	mock.Mock
}

func (r *mockTestRunner) RunUnittest(ctx context.Context, workDir m.Path, module string) (adapter.CommandResult, error) {
	args := r.Called(ctx, workDir, module)
	return args.Get(0).(adapter.CommandResult), args.Error(1)
}

type mockBackend struct {
	mock.Mock
}

func (b *mockBackend) Name() string { return "mock" }

func (b *mockBackend) Generate(ctx context.Context, req m.GenerationRequest) (m.GeneratedTest, error) {
	args := b.Called(ctx, req)
	return args.Get(0).(m.GeneratedTest), args.Error(1)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func calculatorMapping(dir string) m.Mapping {
	return m.Mapping{
		Source: m.SourceUnit{Path: m.Path(filepath.Join(dir, "src", "calculator.py")), Content: calculatorSource},
		Test:   m.TestUnit{Path: m.Path(filepath.Join(dir, "tests", "test_calculator.py")), Content: calculatorTests},
	}
}

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(path, 0o755))
}
