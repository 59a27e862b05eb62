package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"gooze.dev/pkg/mutaug/internal/adapter"
	m "gooze.dev/pkg/mutaug/internal/model"
)

func TestTestCollector_Collect(t *testing.T) {
	ctx := context.Background()
	collector := NewTestCollector(adapter.NewTreeSitterPythonAdapter(), nil)

	isPrimeTest := "    def test_is_prime(self):\n" +
		"        self.assertTrue(calculator.is_prime(2))\n" +
		"        self.assertFalse(calculator.is_prime(4))\n\n"

	cases := []struct {
		name     string
		function string
		want     string
	}{
		{name: "matching test", function: "is_prime", want: isPrimeTest},
		{name: "case insensitive", function: "IS_PRIME", want: isPrimeTest},
		{name: "no related test", function: "divide", want: ""},
		{name: "unknown function", function: UnknownFunction, want: ""},
		{name: "empty name", function: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, collector.Collect(ctx, calculatorTests, tc.function))
		})
	}
}

func TestCollectTests_OnlyTestFunctions(t *testing.T) {
	text := "def helper_add():\n    pass\n\ndef test_add():\n    pass\n\ndef test_address():\n    pass\n"
	spans := []m.FunctionSpan{
		{Name: "helper_add", StartLine: 1, EndLine: 2},
		{Name: "test_add", StartLine: 4, EndLine: 5},
		{Name: "test_address", StartLine: 7, EndLine: 8},
	}

	got := collectTests(text, spans, "add")

	assert.Equal(t, "def test_add():\n    pass\n\ndef test_address():\n    pass\n\n", got)
}
