// Package model defines the data structures shared by the augmentation pipeline.
package model

import (
	"path/filepath"
	"strings"
)

// Path represents a file system path.
type Path string

// SourceExtension is the extension carried by every discovered production and test file.
const SourceExtension = ".py"

// Base returns the file name without directory and extension.
func (p Path) Base() string {
	return strings.TrimSuffix(filepath.Base(string(p)), filepath.Ext(string(p)))
}

// Dir returns the containing directory.
func (p Path) Dir() Path {
	return Path(filepath.Dir(string(p)))
}

// SourceUnit is a production file. Content is captured once at read time.
type SourceUnit struct {
	Path    Path
	Content string
}

// ModuleName returns the importable module name of the unit.
func (s SourceUnit) ModuleName() string {
	return s.Path.Base()
}

// TestUnit is a test file. It is the only entity the pipeline writes to.
type TestUnit struct {
	Path    Path
	Content string
}

// Mapping pairs one source unit with the test unit that exercises it.
type Mapping struct {
	Source SourceUnit
	Test   TestUnit
}
