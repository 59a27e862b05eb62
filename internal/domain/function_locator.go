package domain

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"gooze.dev/pkg/mutaug/internal/adapter"
	m "gooze.dev/pkg/mutaug/internal/model"
)

// UnknownFunction names the function when neither the parse nor the
// fallback pattern can identify it.
const UnknownFunction = "unknown"

// fallbackRadius is the number of lines taken on each side of the mutant
// line when no function span contains it.
const fallbackRadius = 5

var defPattern = regexp.MustCompile(`def\s+(\w+)\s*\(`)

// Location is the function context of a mutant line.
type Location struct {
	// Span is nil when the fallback window was used.
	Span *m.FunctionSpan
	Name string
	Code string
	// Fallback marks best-effort context: Code is a window around the line
	// and Name may be UnknownFunction.
	Fallback bool
}

// FunctionLocator finds the function that encloses a source line.
type FunctionLocator interface {
	Locate(ctx context.Context, sourceText string, line int) Location
}

type functionLocator struct {
	parser adapter.PythonFileAdapter
	logger *slog.Logger
}

// NewFunctionLocator constructs a FunctionLocator using parser for spans.
func NewFunctionLocator(parser adapter.PythonFileAdapter, logger *slog.Logger) FunctionLocator {
	if logger == nil {
		logger = slog.Default()
	}

	return &functionLocator{parser: parser, logger: logger}
}

func (l *functionLocator) Locate(ctx context.Context, sourceText string, line int) Location {
	structure, err := l.parser.Parse(ctx, []byte(sourceText))
	if err != nil {
		l.logger.Warn("source parse failed, using line window", "line", line, "error", err)
		return LocateInSpans(sourceText, nil, line)
	}

	return LocateInSpans(sourceText, structure.Functions, line)
}

// LocateInSpans resolves line against spans and falls back to a window
// around line when no span contains it. It never fails.
func LocateInSpans(sourceText string, spans []m.FunctionSpan, line int) Location {
	lines := strings.Split(sourceText, "\n")

	if span, ok := SelectSpan(spans, line); ok {
		return Location{
			Span: &span,
			Name: span.Name,
			Code: joinLines(lines, span.StartLine-1, span.EndLine),
		}
	}

	window := joinLines(lines, line-fallbackRadius, line+fallbackRadius)

	name := UnknownFunction
	if match := defPattern.FindStringSubmatch(window); match != nil {
		name = match[1]
	}

	return Location{Name: name, Code: window, Fallback: true}
}

// SelectSpan returns the innermost span containing line.
func SelectSpan(spans []m.FunctionSpan, line int) (m.FunctionSpan, bool) {
	var (
		best  m.FunctionSpan
		found bool
	)

	for _, span := range spans {
		if !span.Contains(line) {
			continue
		}

		if !found || span.Size() < best.Size() {
			best = span
			found = true
		}
	}

	return best, found
}

// joinLines joins lines[from:to] after clamping both bounds.
func joinLines(lines []string, from, to int) string {
	from = max(from, 0)
	to = min(to, len(lines))

	if from >= to {
		return ""
	}

	return strings.Join(lines[from:to], "\n")
}
