package adapter

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	m "gooze.dev/pkg/mutaug/internal/model"
)

// PythonStructure is the span list extracted from one Python file.
type PythonStructure struct {
	Functions []m.FunctionSpan
	Classes   []m.ClassSpan
	// HasErrors is set when the parser had to recover from syntax errors.
	// Spans are still reported for the parts that parsed.
	HasErrors bool
	// ErrorLine is the first line holding a syntax error, 0 when clean.
	ErrorLine int
	// TopLevel lists the node types of the module's statements, comments excluded.
	TopLevel []string
}

// PythonFileAdapter encapsulates Python-specific parsing so the domain layer
// can reason in terms of function and class spans.
type PythonFileAdapter interface {
	// Parse extracts every function (methods and nested functions included)
	// and class span from src.
	Parse(ctx context.Context, src []byte) (*PythonStructure, error)

	// Validate returns ErrSyntax when src does not parse cleanly.
	Validate(ctx context.Context, src []byte) error
}

// TreeSitterPythonAdapter provides a concrete PythonFileAdapter backed by tree-sitter.
// A fresh parser is created per call so the adapter is safe for concurrent use.
type TreeSitterPythonAdapter struct{}

// NewTreeSitterPythonAdapter constructs a TreeSitterPythonAdapter.
func NewTreeSitterPythonAdapter() *TreeSitterPythonAdapter {
	return &TreeSitterPythonAdapter{}
}

// Parse builds a syntax tree for src and records function and class spans.
func (a *TreeSitterPythonAdapter) Parse(ctx context.Context, src []byte) (*PythonStructure, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse python: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	structure := &PythonStructure{HasErrors: root.HasError()}

	if structure.HasErrors {
		if errNode := firstErrorNode(root); errNode != nil {
			structure.ErrorLine = int(errNode.StartPoint().Row) + 1
		}
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		if kind := root.NamedChild(i).Type(); kind != "comment" {
			structure.TopLevel = append(structure.TopLevel, kind)
		}
	}

	a.walk(root, src, structure)

	return structure, nil
}

// Validate parses src and reports whether it is free of syntax errors.
func (a *TreeSitterPythonAdapter) Validate(ctx context.Context, src []byte) error {
	structure, err := a.Parse(ctx, src)
	if err != nil {
		return err
	}

	if structure.HasErrors {
		return fmt.Errorf("%w at line %d", m.ErrSyntax, structure.ErrorLine)
	}

	return nil
}

func (a *TreeSitterPythonAdapter) walk(node *sitter.Node, src []byte, structure *PythonStructure) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		switch child.Type() {
		case "function_definition":
			if name := child.ChildByFieldName("name"); name != nil {
				start, end := nodeLines(child)
				structure.Functions = append(structure.Functions, m.FunctionSpan{
					Name:      name.Content(src),
					StartLine: start,
					EndLine:   end,
				})
			}

		case "class_definition":
			if name := child.ChildByFieldName("name"); name != nil {
				start, end := nodeLines(child)
				structure.Classes = append(structure.Classes, m.ClassSpan{
					Name:      name.Content(src),
					StartLine: start,
					EndLine:   end,
				})
			}
		}

		// Methods and nested definitions live below; decorated definitions
		// are reached the same way.
		a.walk(child, src, structure)
	}
}

// nodeLines converts a node's extent to 1-based inclusive lines. A node that
// ends at column 0 stops on the previous line.
func nodeLines(node *sitter.Node) (int, int) {
	start := int(node.StartPoint().Row) + 1
	endPoint := node.EndPoint()

	end := int(endPoint.Row) + 1
	if endPoint.Column == 0 && end > start {
		end--
	}

	return start, end
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}

	if node.IsError() || node.IsMissing() {
		return node
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}

	return nil
}
