package domain

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"gooze.dev/pkg/mutaug/internal/adapter"
	m "gooze.dev/pkg/mutaug/internal/model"
)

// Orchestrator drives one source/test pair through extraction, generation,
// patching and verification.
type Orchestrator interface {
	// Augment never returns an error: every failure ends up in the outcome
	// so that the remaining pairs of a run keep going.
	Augment(ctx context.Context, mapping m.Mapping) m.MappingOutcome
}

// Stages groups the pipeline steps an Orchestrator runs.
type Stages struct {
	Extractor MutantExtractor
	Locator   FunctionLocator
	Collector TestCollector
	Backend   adapter.SynthesisBackend
	Patcher   TestPatcher
	Verifier  VerificationRunner
}

// OrchestratorOptions tunes a single pair run.
type OrchestratorOptions struct {
	// GenerateParallel bounds concurrent backend calls within a pair.
	GenerateParallel int
	// DryRun computes the patch as a diff and leaves the test file alone.
	DryRun bool
}

type orchestrator struct {
	Stages

	fsAdapter adapter.SourceFSAdapter
	parser    adapter.PythonFileAdapter
	options   OrchestratorOptions
	logger    *slog.Logger
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(
	stages Stages,
	fsAdapter adapter.SourceFSAdapter,
	parser adapter.PythonFileAdapter,
	options OrchestratorOptions,
	logger *slog.Logger,
) Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	if options.GenerateParallel < 1 {
		options.GenerateParallel = 1
	}

	return &orchestrator{
		Stages:    stages,
		fsAdapter: fsAdapter,
		parser:    parser,
		options:   options,
		logger:    logger,
	}
}

func (o *orchestrator) Augment(ctx context.Context, mapping m.Mapping) m.MappingOutcome {
	logger := o.logger.With("source", mapping.Source.Path, "test", mapping.Test.Path)
	outcome := m.MappingOutcome{Source: mapping.Source.Path, Test: mapping.Test.Path}

	logger.Info("extracting surviving mutants")

	mutants, err := o.Extractor.Extract(ctx, mapping)
	if err != nil {
		logger.Error("mutant extraction failed", "error", err)
		return failOutcome(outcome, m.StatusEngineFailed, err)
	}

	outcome.Mutants = mutants
	if len(mutants) == 0 {
		logger.Info("no surviving mutants")

		outcome.Status = m.StatusSkipped

		return outcome
	}

	logger.Info("surviving mutants found", "count", len(mutants))

	tests := o.generateTests(ctx, mapping, mutants, logger)

	outcome.Generated = len(tests)
	if len(tests) == 0 {
		logger.Warn("no tests generated")
		return failOutcome(outcome, m.StatusNoTests, m.NewError(m.KindSynthesis, "generate", m.ErrEmptyGeneration))
	}

	current, err := o.fsAdapter.ReadFile(ctx, mapping.Test.Path)
	if err != nil {
		logger.Error("reading test file failed", "error", err)
		return failOutcome(outcome, m.StatusPatchFailed, &m.Error{Kind: m.KindPatch, Op: "read", Path: mapping.Test.Path, Err: err})
	}

	patched, err := o.Patcher.Patch(ctx, string(current), tests)
	if err != nil {
		logger.Error("patching test file failed", "error", err)
		return failOutcome(outcome, m.StatusPatchFailed, err)
	}

	if o.options.DryRun {
		logger.Info("dry run, test file left unchanged", "tests", len(tests))

		outcome.Diff = UnifiedDiff(mapping.Test.Path, string(current), patched)
		outcome.Status = m.StatusDryRun

		return outcome
	}

	if err := o.fsAdapter.WriteFile(ctx, mapping.Test.Path, []byte(patched)); err != nil {
		logger.Error("writing test file failed", "error", err)
		return failOutcome(outcome, m.StatusPatchFailed, &m.Error{Kind: m.KindPatch, Op: "write", Path: mapping.Test.Path, Err: err})
	}

	if hash, err := o.fsAdapter.HashFile(ctx, mapping.Test.Path); err != nil {
		logger.Warn("hashing test file failed", "error", err)
	} else {
		outcome.TestHash = hash
	}

	logger.Info("test file patched", "tests", len(tests))

	outcome.Verification = o.Verifier.Verify(ctx, mapping)
	if !outcome.Verification.TestsPassed {
		logger.Warn("patched tests failed, patch kept", "message", outcome.Verification.Message)

		outcome.Status = m.StatusUnverified
		outcome.ErrKind = m.KindVerification
		outcome.ErrMessage = outcome.Verification.Message

		return outcome
	}

	logger.Info("verification complete", "summary", outcome.Verification.ScoreSummary)

	outcome.Status = m.StatusVerified

	return outcome
}

// generateTests asks the backend for one test per mutant and keeps the
// usable ones in mutant order.
func (o *orchestrator) generateTests(ctx context.Context, mapping m.Mapping, mutants []m.Mutant, logger *slog.Logger) []m.GeneratedTest {
	slots := make([]m.GeneratedTest, len(mutants))

	var group errgroup.Group
	group.SetLimit(o.options.GenerateParallel)

	for i, mutant := range mutants {
		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			test, err := o.generateTest(ctx, mapping, mutant)
			if err != nil {
				logger.Warn("test generation failed", "mutant", mutant.ID, "kind", m.KindOf(err), "error", err)
				return nil
			}

			logger.Info("test generated", "mutant", mutant.ID)

			slots[i] = test

			return nil
		})
	}

	_ = group.Wait()

	tests := make([]m.GeneratedTest, 0, len(slots))

	for _, test := range slots {
		if !test.Empty() {
			tests = append(tests, test)
		}
	}

	return tests
}

func (o *orchestrator) generateTest(ctx context.Context, mapping m.Mapping, mutant m.Mutant) (m.GeneratedTest, error) {
	location := o.Locator.Locate(ctx, mapping.Source.Content, mutant.Line)
	if location.Fallback {
		o.logger.Debug("function span not found, using line window",
			"source", mapping.Source.Path, "line", mutant.Line, "kind", m.KindFunctionNotFound, "function", location.Name)
	}

	existing := o.Collector.Collect(ctx, mapping.Test.Content, location.Name)
	req := NewGenerationRequest(mapping, location, existing, mutant)

	test, err := o.Backend.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	if err := ValidateGeneratedTest(ctx, o.parser, test); err != nil {
		return "", m.NewError(m.KindSynthesis, "validate", err)
	}

	return test, nil
}

func failOutcome(outcome m.MappingOutcome, status m.OutcomeStatus, err error) m.MappingOutcome {
	outcome.Status = status
	outcome.ErrKind = m.KindOf(err)
	outcome.ErrMessage = err.Error()

	return outcome
}
