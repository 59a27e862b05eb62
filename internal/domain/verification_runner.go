package domain

import (
	"context"
	"log/slog"
	"strings"

	"gooze.dev/pkg/mutaug/internal/adapter"
	m "gooze.dev/pkg/mutaug/internal/model"
)

// VerificationRunner re-runs a patched test module and the mutation analysis.
type VerificationRunner interface {
	// Verify never rolls back the patch; a failing run is reported in the result.
	Verify(ctx context.Context, mapping m.Mapping) m.VerificationResult
}

type verificationRunner struct {
	tests  adapter.TestRunnerAdapter
	engine adapter.MutationEngineAdapter
	logger *slog.Logger
}

// NewVerificationRunner constructs a VerificationRunner.
func NewVerificationRunner(tests adapter.TestRunnerAdapter, engine adapter.MutationEngineAdapter, logger *slog.Logger) VerificationRunner {
	if logger == nil {
		logger = slog.Default()
	}

	return &verificationRunner{tests: tests, engine: engine, logger: logger}
}

func (v *verificationRunner) Verify(ctx context.Context, mapping m.Mapping) m.VerificationResult {
	testDir := mapping.Test.Path.Dir()
	module := mapping.Test.Path.Base()

	v.logger.Info("running tests", "test", mapping.Test.Path)

	run, err := v.tests.RunUnittest(ctx, testDir, module)
	if err != nil {
		stderr := strings.TrimSpace(run.Stderr)
		if stderr == "" {
			stderr = err.Error()
		}

		v.logger.Error("tests failed to run", "test", mapping.Test.Path, "error", err)

		return m.VerificationResult{
			ScoreSummary: m.UnknownScore,
			Score:        -1,
			Message:      "Tests failed to run: " + stderr,
		}
	}

	v.logger.Info("running mutation analysis again", "source", mapping.Source.Path)

	output, err := v.engine.Run(ctx, mapping.Source.Path, testDir)
	if err != nil {
		v.logger.Error("mutation re-run failed", "source", mapping.Source.Path, "error", err)

		return m.VerificationResult{
			TestsPassed:  true,
			ScoreSummary: m.UnknownScore,
			Score:        -1,
			Message:      "Tests passed. Mutation re-run failed: " + err.Error(),
		}
	}

	summary := scoreSummary(output)
	message := "Tests passed. " + summary

	if summary == "" {
		summary = m.UnknownScore
		message = "Tests passed. Mutation score: " + m.UnknownScore
	}

	score := -1.0

	if listing, err := v.engine.Results(ctx); err != nil {
		v.logger.Warn("listing mutation results failed", "source", mapping.Source.Path, "error", err)
	} else {
		score = mutationScoreFromListing(listing)
	}

	return m.VerificationResult{
		TestsPassed:  true,
		ScoreSummary: summary,
		Score:        score,
		Message:      message,
	}
}
