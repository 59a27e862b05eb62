package domain

import (
	"strings"

	m "gooze.dev/pkg/mutaug/internal/model"
)

// Test file naming conventions, checked in this order.
const (
	testFilePrefix = "test_"
	testFileSuffix = "_test"
)

// MapFiles pairs every test unit with the source unit it exercises. A test
// named test_<name> or <name>_test maps to the source whose base name is
// <name>; the prefix rule is tried first. Tests matching no convention or
// naming an absent source are dropped. When several tests name the same
// source, the first in enumeration order keeps it.
func MapFiles(sources []m.SourceUnit, tests []m.TestUnit) []m.Mapping {
	byBase := make(map[string]m.SourceUnit, len(sources))

	for _, source := range sources {
		base := source.Path.Base()
		if _, seen := byBase[base]; !seen {
			byBase[base] = source
		}
	}

	mapped := make(map[m.Path]bool, len(sources))

	var mappings []m.Mapping

	for _, test := range tests {
		base, ok := sourceBaseName(test.Path.Base())
		if !ok {
			continue
		}

		source, ok := byBase[base]
		if !ok || mapped[source.Path] {
			continue
		}

		mapped[source.Path] = true
		mappings = append(mappings, m.Mapping{Source: source, Test: test})
	}

	return mappings
}

func sourceBaseName(testBase string) (string, bool) {
	if name, ok := strings.CutPrefix(testBase, testFilePrefix); ok && name != "" {
		return name, true
	}

	if name, ok := strings.CutSuffix(testBase, testFileSuffix); ok && name != "" {
		return name, true
	}

	return "", false
}
