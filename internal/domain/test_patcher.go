package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"gooze.dev/pkg/mutaug/internal/adapter"
	m "gooze.dev/pkg/mutaug/internal/model"
)

const (
	testClassPrefix = "Test"
	mainGuardMarker = "if __name__"
	indentUnit      = "    "
)

// TestPatcher inserts generated test methods into a test file.
type TestPatcher interface {
	// Patch returns testText with tests appended to its last test class.
	// It fails with KindPatch when there is no test class, when the result
	// would not parse or when the class did not gain one method per test.
	Patch(ctx context.Context, testText string, tests []m.GeneratedTest) (string, error)
}

type testPatcher struct {
	parser adapter.PythonFileAdapter
}

// NewTestPatcher constructs a TestPatcher.
func NewTestPatcher(parser adapter.PythonFileAdapter) TestPatcher {
	return &testPatcher{parser: parser}
}

func (p *testPatcher) Patch(ctx context.Context, testText string, tests []m.GeneratedTest) (string, error) {
	structure, err := p.parser.Parse(ctx, []byte(testText))
	if err != nil {
		return "", m.NewError(m.KindPatch, "patch", err)
	}

	anchor, ok := lastTestClass(structure.Classes)
	if !ok {
		return "", m.NewError(m.KindPatch, "patch", m.ErrNoTestClass)
	}

	lines := strings.Split(testText, "\n")
	insert := insertionLine(lines, anchor, structure.Functions)
	patched := spliceTests(lines, insert, tests)

	if err := p.parser.Validate(ctx, []byte(patched)); err != nil {
		return "", m.NewError(m.KindPatch, "patch", fmt.Errorf("patched file does not parse: %w", err))
	}

	after, err := p.parser.Parse(ctx, []byte(patched))
	if err != nil {
		return "", m.NewError(m.KindPatch, "patch", err)
	}

	patchedAnchor, _ := lastTestClass(after.Classes)
	want := len(classMethods(anchor, structure.Functions)) + len(tests)

	if got := len(classMethods(patchedAnchor, after.Functions)); got != want {
		return "", m.Errorf(m.KindPatch, "patch", "class %s has %d methods after patching, want %d", anchor.Name, got, want)
	}

	return patched, nil
}

// lastTestClass returns the test class that ends last in the file.
func lastTestClass(classes []m.ClassSpan) (m.ClassSpan, bool) {
	var (
		anchor m.ClassSpan
		found  bool
	)

	for _, class := range classes {
		if !strings.HasPrefix(class.Name, testClassPrefix) {
			continue
		}

		if !found || class.EndLine > anchor.EndLine {
			anchor = class
			found = true
		}
	}

	return anchor, found
}

// insertionLine returns the 0-based line index before which the tests go.
// It scans upward from the anchor's last line for a blank line or a main
// guard, skipping blank lines inside a method body and never going above the
// line before the last method, so class docstrings stay untouched. Without a
// hit the tests go right after the class.
func insertionLine(lines []string, anchor m.ClassSpan, functions []m.FunctionSpan) int {
	end := min(anchor.EndLine, len(lines))

	floor := anchor.StartLine
	if methods := classMethods(anchor, functions); len(methods) > 0 {
		floor = max(floor, methods[len(methods)-1].StartLine-2)
	}

	for i := end - 1; i >= floor; i-- {
		text := lines[i]
		if strings.TrimSpace(text) != "" && !strings.Contains(text, mainGuardMarker) {
			continue
		}

		if insideFunctionBody(functions, i+1) {
			continue
		}

		return i
	}

	return end
}

// classMethods returns the functions defined directly in class, in order.
func classMethods(class m.ClassSpan, functions []m.FunctionSpan) []m.FunctionSpan {
	var methods []m.FunctionSpan

	for _, fn := range functions {
		if fn.StartLine <= class.StartLine || fn.EndLine > class.EndLine {
			continue
		}

		if insideFunctionBody(functions, fn.StartLine) {
			continue
		}

		methods = append(methods, fn)
	}

	return methods
}

func insideFunctionBody(functions []m.FunctionSpan, line int) bool {
	for _, fn := range functions {
		if line > fn.StartLine && line <= fn.EndLine {
			return true
		}
	}

	return false
}

func spliceTests(lines []string, insert int, tests []m.GeneratedTest) string {
	out := make([]string, 0, len(lines)+len(tests)*8)
	out = append(out, lines[:insert]...)

	for _, test := range tests {
		out = append(out, "")
		out = append(out, indentLines(dedent(string(test)), indentUnit)...)
	}

	rest := lines[insert:]
	if len(rest) > 0 && strings.TrimSpace(rest[0]) != "" {
		out = append(out, "")
	}

	out = append(out, rest...)

	return strings.Join(out, "\n")
}

// dedent trims surrounding blank lines and removes the indentation shared by
// every non-blank line.
func dedent(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\t", indentUnit), "\n")

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	common := -1

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " "))
		if common < 0 || indent < common {
			common = indent
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}

		lines[i] = strings.TrimRight(line[common:], " \r")
	}

	return lines
}

func indentLines(lines []string, indent string) []string {
	out := make([]string, len(lines))

	for i, line := range lines {
		if line != "" {
			out[i] = indent + line
		}
	}

	return out
}

// ValidateGeneratedTest reports whether test parses as exactly one function
// definition.
func ValidateGeneratedTest(ctx context.Context, parser adapter.PythonFileAdapter, test m.GeneratedTest) error {
	if test.Empty() {
		return m.ErrEmptyGeneration
	}

	code := strings.Join(dedent(string(test)), "\n") + "\n"

	structure, err := parser.Parse(ctx, []byte(code))
	if err != nil {
		return err
	}

	if structure.HasErrors {
		return fmt.Errorf("%w at line %d", m.ErrSyntax, structure.ErrorLine)
	}

	if len(structure.TopLevel) != 1 ||
		(structure.TopLevel[0] != "function_definition" && structure.TopLevel[0] != "decorated_definition") {
		return fmt.Errorf("expected a single function definition, got %v", structure.TopLevel)
	}

	return nil
}

// UnifiedDiff renders the change from before to after.
func UnifiedDiff(path m.Path, before, after string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: string(path),
		ToFile:   string(path) + " (patched)",
		Context:  3,
	})
	if err != nil {
		return ""
	}

	return text
}
