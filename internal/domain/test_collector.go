package domain

import (
	"context"
	"log/slog"
	"strings"

	"gooze.dev/pkg/mutaug/internal/adapter"
	m "gooze.dev/pkg/mutaug/internal/model"
)

const testFunctionPrefix = "test"

// TestCollector gathers the existing tests related to a function.
//
// Relation is a case-insensitive substring match of the function name in
// the test name. It is best-effort context for generation: short names
// over-match (add matches test_address) and tests named differently from
// the function are missed.
type TestCollector interface {
	Collect(ctx context.Context, testText, functionName string) string
}

type testCollector struct {
	parser adapter.PythonFileAdapter
	logger *slog.Logger
}

// NewTestCollector constructs a TestCollector.
func NewTestCollector(parser adapter.PythonFileAdapter, logger *slog.Logger) TestCollector {
	if logger == nil {
		logger = slog.Default()
	}

	return &testCollector{parser: parser, logger: logger}
}

func (c *testCollector) Collect(ctx context.Context, testText, functionName string) string {
	if functionName == "" || functionName == UnknownFunction {
		return ""
	}

	structure, err := c.parser.Parse(ctx, []byte(testText))
	if err != nil {
		c.logger.Warn("test parse failed, no existing tests collected", "error", err)
		return ""
	}

	return collectTests(testText, structure.Functions, functionName)
}

func collectTests(testText string, spans []m.FunctionSpan, functionName string) string {
	lines := strings.Split(testText, "\n")
	needle := strings.ToLower(functionName)

	var sb strings.Builder

	for _, span := range spans {
		if !strings.HasPrefix(span.Name, testFunctionPrefix) || !strings.Contains(strings.ToLower(span.Name), needle) {
			continue
		}

		sb.WriteString(joinLines(lines, span.StartLine-1, span.EndLine))
		sb.WriteString("\n\n")
	}

	return sb.String()
}
