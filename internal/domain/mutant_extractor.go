package domain

import (
	"bufio"
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"gooze.dev/pkg/mutaug/internal/adapter"
	m "gooze.dev/pkg/mutaug/internal/model"
)

// survivedToken marks a surviving mutant in the engine's results listing.
const survivedToken = "SURVIVED"

var hunkLinePattern = regexp.MustCompile(`^@@ -(\d+)`)

// MutantExtractor collects the mutants of a source unit that its tests let survive.
type MutantExtractor interface {
	// Extract returns the surviving mutants of mapping.Source. An engine
	// failure yields no mutants and a KindEngineInvocation error.
	Extract(ctx context.Context, mapping m.Mapping) ([]m.Mutant, error)
}

type mutantExtractor struct {
	engine adapter.MutationEngineAdapter
	logger *slog.Logger
}

// NewMutantExtractor constructs a MutantExtractor driving engine.
func NewMutantExtractor(engine adapter.MutationEngineAdapter, logger *slog.Logger) MutantExtractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &mutantExtractor{engine: engine, logger: logger}
}

func (e *mutantExtractor) Extract(ctx context.Context, mapping m.Mapping) ([]m.Mutant, error) {
	source := mapping.Source.Path

	e.logger.Info("running mutation analysis", "source", source, "tests", mapping.Test.Path.Dir())

	if _, err := e.engine.Run(ctx, source, mapping.Test.Path.Dir()); err != nil {
		e.logger.Error("mutation run failed", "source", source, "error", err)
		return nil, err
	}

	listing, err := e.engine.Results(ctx)
	if err != nil {
		e.logger.Error("listing mutation results failed", "source", source, "error", err)
		return nil, err
	}

	ids := survivingIDs(listing)

	var mutants []m.Mutant

	for _, id := range ids {
		view, err := e.engine.Show(ctx, id)
		if err != nil {
			e.logger.Error("showing mutant failed", "source", source, "mutant", id, "error", err)
			return nil, err
		}

		mutant, ok := ParseMutantDiff(id, view)
		if !ok {
			e.logger.Debug("dropping unparsable mutant", "source", source, "mutant", id)
			continue
		}

		mutants = append(mutants, mutant)
	}

	e.logger.Info("found surviving mutants", "source", source, "count", len(mutants))

	return mutants, nil
}

// survivingIDs returns the numeric identifiers of listing lines that carry
// the survived token, in listing order.
func survivingIDs(listing string) []string {
	var ids []string

	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, survivedToken) {
			continue
		}

		id, _, _ := strings.Cut(line, ":")
		id = strings.TrimSpace(id)

		if isDigits(id) {
			ids = append(ids, id)
		}
	}

	return ids
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// ParseMutantDiff reads the unified diff shown for one mutant. The hunk
// header's original start line becomes the mutant line; the last removed and
// added lines become the snippets. It reports false unless both snippets are
// non-empty.
func ParseMutantDiff(id, view string) (m.Mutant, bool) {
	line, original, mutated, ok := scanHunks(view)
	if !ok || original == "" || mutated == "" {
		line, original, mutated = scanLines(view)
	}

	if original == "" || mutated == "" {
		return m.Mutant{}, false
	}

	return m.NewMutant(id, line, original, mutated), true
}

// scanHunks parses view with go-diff. It reports false when the text holds
// no hunk that go-diff accepts. Hunks cut short by go-diff leave the
// snippets empty and are rescanned line by line.
func scanHunks(view string) (int, string, string, bool) {
	start := strings.Index(view, "@@")
	if start < 0 {
		return 0, "", "", false
	}

	hunks, err := diff.ParseHunks([]byte(view[start:]))
	if err != nil || len(hunks) == 0 {
		return 0, "", "", false
	}

	var (
		line              int
		original, mutated string
	)

	for _, hunk := range hunks {
		line = int(hunk.OrigStartLine)

		for _, body := range strings.Split(string(hunk.Body), "\n") {
			original, mutated = applyChangeLine(body, original, mutated)
		}
	}

	return line, original, mutated, true
}

// scanLines is the line scanner used when go-diff rejects the view.
func scanLines(view string) (int, string, string) {
	var (
		line              int
		original, mutated string
	)

	scanner := bufio.NewScanner(strings.NewReader(view))
	for scanner.Scan() {
		text := scanner.Text()

		if strings.HasPrefix(text, "@@") {
			if match := hunkLinePattern.FindStringSubmatch(text); match != nil {
				line, _ = strconv.Atoi(match[1])
			}

			continue
		}

		original, mutated = applyChangeLine(text, original, mutated)
	}

	return line, original, mutated
}

func applyChangeLine(text, original, mutated string) (string, string) {
	switch {
	case strings.HasPrefix(text, "-") && !strings.HasPrefix(text, "--- "):
		original = strings.TrimSpace(text[1:])
	case strings.HasPrefix(text, "+") && !strings.HasPrefix(text, "+++ "):
		mutated = strings.TrimSpace(text[1:])
	}

	return original, mutated
}
