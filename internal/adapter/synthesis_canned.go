package adapter

import (
	"context"
	"log/slog"
	"strings"

	m "gooze.dev/pkg/mutaug/internal/model"
)

type cannedResponse struct {
	needles []string
	test    string
}

// cannedResponses are checked in order; the first whose needles all occur in
// the prompt wins.
var cannedResponses = []cannedResponse{
	{
		needles: []string{"calculate_discount", "100"},
		test: `def test_calculate_discount_boundary_case(self):
    """Test the boundary case where discount_percent is exactly 100."""
    # Should fully discount the price (price becomes 0)
    self.assertEqual(calculator.calculate_discount(100, 100), 0)
    # Ensure large values still work correctly
    self.assertEqual(calculator.calculate_discount(500, 100), 0)`,
	},
	{
		needles: []string{"is_prime", "n <= 1"},
		test: `def test_is_prime_edge_cases(self):
    """Test edge cases for the is_prime function."""
    # n=1 is specifically defined as not prime
    self.assertFalse(calculator.is_prime(1))
    # n=0 is not prime
    self.assertFalse(calculator.is_prime(0))
    # Negative numbers are not prime
    self.assertFalse(calculator.is_prime(-5))`,
	},
	{
		needles: []string{"is_prime", "n % 2 == 0"},
		test: `def test_is_prime_even_numbers(self):
    """Test that even numbers greater than 2 are correctly identified as non-prime."""
    # 2 is prime (the only even prime)
    self.assertTrue(calculator.is_prime(2))
    # Test various even numbers, which should all be non-prime
    self.assertFalse(calculator.is_prime(4))
    self.assertFalse(calculator.is_prime(6))
    self.assertFalse(calculator.is_prime(100))`,
	},
	{
		needles: []string{"is_prime", "return True"},
		test: `def test_is_prime_larger_numbers(self):
    """Test that larger prime numbers are correctly identified."""
    # Test with known larger prime numbers
    self.assertTrue(calculator.is_prime(17))
    self.assertTrue(calculator.is_prime(19))
    self.assertTrue(calculator.is_prime(97))
    # Test a larger prime number
    self.assertTrue(calculator.is_prime(7919))`,
	},
}

const cannedPlaceholder = `def test_generated_for_mutant(self):
    """Test generated to catch a specific mutant."""
    # This test would be tailored to catch the specific mutation
    pass`

// CannedBackend answers from a fixed table. It exists for demos and tests
// and makes no attempt at quality.
type CannedBackend struct {
	logger *slog.Logger
}

// NewCannedBackend constructs a CannedBackend.
func NewCannedBackend(logger *slog.Logger) *CannedBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &CannedBackend{logger: logger}
}

// Name implements SynthesisBackend.
func (b *CannedBackend) Name() string { return string(BackendCanned) }

// Generate implements SynthesisBackend.
func (b *CannedBackend) Generate(ctx context.Context, req m.GenerationRequest) (m.GeneratedTest, error) {
	if err := ctx.Err(); err != nil {
		return "", m.NewError(m.KindSynthesis, b.Name(), err)
	}

	for _, resp := range cannedResponses {
		if containsAll(req.Prompt, resp.needles) {
			return m.GeneratedTest(resp.test), nil
		}
	}

	b.logger.Warn("no canned response matches, serving a placeholder test that asserts nothing",
		"function", req.FunctionName, "mutant", req.Mutant.ID)

	return m.GeneratedTest(cannedPlaceholder), nil
}

func containsAll(text string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(text, needle) {
			return false
		}
	}

	return true
}
