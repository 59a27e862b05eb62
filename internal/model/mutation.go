package model

import "fmt"

// Mutant is a single surviving mutation reported by the mutation engine.
// Line is 1-based and refers to the source unit as it was at extraction time.
type Mutant struct {
	ID          string `yaml:"id"`
	Line        int    `yaml:"line"`
	Original    string `yaml:"original"`
	Mutated     string `yaml:"mutated"`
	Description string `yaml:"description"`
}

// NewMutant builds a mutant and derives its description.
func NewMutant(id string, line int, original, mutated string) Mutant {
	return Mutant{
		ID:          id,
		Line:        line,
		Original:    original,
		Mutated:     mutated,
		Description: fmt.Sprintf("Changed '%s' to '%s' at line %d", original, mutated, line),
	}
}

// FunctionSpan describes the inclusive, 1-based line range of a function.
type FunctionSpan struct {
	Name      string
	StartLine int
	EndLine   int
}

// Contains reports whether line falls inside the span.
func (s FunctionSpan) Contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// Size returns the number of lines covered by the span.
func (s FunctionSpan) Size() int {
	return s.EndLine - s.StartLine + 1
}

// ClassSpan describes the inclusive, 1-based line range of a class.
type ClassSpan struct {
	Name      string
	StartLine int
	EndLine   int
}

// GenerationRequest carries everything a synthesis backend needs to produce a test.
// It is fully determined by a mutant and its mapping.
type GenerationRequest struct {
	ModuleName        string
	FunctionName      string
	FunctionCode      string
	ExistingTestsCode string
	Mutant            Mutant
	Prompt            string
}

// GeneratedTest is test source returned by a synthesis backend.
// An empty value always means the generation failed.
type GeneratedTest string

// Empty reports whether the backend produced nothing usable.
func (g GeneratedTest) Empty() bool {
	return len(g) == 0
}
