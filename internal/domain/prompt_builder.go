package domain

import (
	"strings"
	"text/template"

	m "gooze.dev/pkg/mutaug/internal/model"
)

var promptTemplate = template.Must(template.New("prompt").Parse(`I have a function in module '{{.ModuleName}}':

{{.FunctionCode}}

My current test(s) for this function:

{{.ExistingTestsCode}}

I found a bug where changing '{{.Mutant.Original}}' to '{{.Mutant.Mutated}}' at line {{.Mutant.Line}} isn't caught by my test suite.

Please generate exactly one new test method that would detect this change. The test must pass on the original code and fail if the mutation is applied.

Return only the Python code for the test method (a unittest.TestCase method taking self), with a docstring explaining what it tests.
`))

// BuildPrompt renders the generation prompt for req. The output depends on
// req alone.
func BuildPrompt(req m.GenerationRequest) string {
	var sb strings.Builder

	// Executing a parsed template over plain string and int fields cannot fail.
	_ = promptTemplate.Execute(&sb, req)

	return sb.String()
}

// NewGenerationRequest assembles the request for mutant and renders its prompt.
func NewGenerationRequest(mapping m.Mapping, location Location, existingTests string, mutant m.Mutant) m.GenerationRequest {
	req := m.GenerationRequest{
		ModuleName:        mapping.Source.ModuleName(),
		FunctionName:      location.Name,
		FunctionCode:      location.Code,
		ExistingTestsCode: existingTests,
		Mutant:            mutant,
	}
	req.Prompt = BuildPrompt(req)

	return req
}
