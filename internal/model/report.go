package model

import (
	"fmt"
	"time"
)

// UnknownScore is the score summary reported when the engine printed none.
const UnknownScore = "Unknown"

// VerificationResult is the outcome of re-running tests and mutation analysis
// after a test file was patched.
type VerificationResult struct {
	TestsPassed  bool    `yaml:"tests_passed"`
	ScoreSummary string  `yaml:"score_summary"`
	Message      string  `yaml:"message"`
	Score        float64 `yaml:"score"` // killed fraction, -1 when unknown
}

// OutcomeStatus is the terminal state of one mapping in a run.
type OutcomeStatus int

const (
	// StatusSkipped means the engine reported no surviving mutants.
	StatusSkipped OutcomeStatus = iota
	// StatusEngineFailed means mutant extraction could not run.
	StatusEngineFailed
	// StatusNoTests means every synthesis attempt failed.
	StatusNoTests
	// StatusPatchFailed means the test file could not be extended.
	StatusPatchFailed
	// StatusVerified means the patched tests pass.
	StatusVerified
	// StatusUnverified means the file is patched but its tests fail.
	StatusUnverified
	// StatusDryRun means a patch was computed but not written.
	StatusDryRun
)

func (s OutcomeStatus) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusEngineFailed:
		return "engine_failed"
	case StatusNoTests:
		return "no_tests_generated"
	case StatusPatchFailed:
		return "patch_failed"
	case StatusVerified:
		return "verified"
	case StatusUnverified:
		return "patched_unverified"
	case StatusDryRun:
		return "dry_run"
	default:
		return "unknown"
	}
}

// MarshalYAML renders the status by name.
func (s OutcomeStatus) MarshalYAML() (any, error) {
	return s.String(), nil
}

// UnmarshalYAML parses a status name.
func (s *OutcomeStatus) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}

	for candidate := StatusSkipped; candidate <= StatusDryRun; candidate++ {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}

	return fmt.Errorf("unknown outcome status %q", name)
}

// Patched reports whether the test file was rewritten.
func (s OutcomeStatus) Patched() bool {
	return s == StatusVerified || s == StatusUnverified
}

// MappingOutcome records what happened to one source/test pair.
type MappingOutcome struct {
	Source       Path               `yaml:"source"`
	Test         Path               `yaml:"test"`
	Mutants      []Mutant           `yaml:"mutants,omitempty"`
	Generated    int                `yaml:"generated"`
	Status       OutcomeStatus      `yaml:"status"`
	Verification VerificationResult `yaml:"verification,omitempty"`
	ErrKind      ErrorKind          `yaml:"error_kind,omitempty"`
	ErrMessage   string             `yaml:"error,omitempty"`
	Diff         string             `yaml:"diff,omitempty"`
	TestHash     string             `yaml:"test_hash,omitempty"` // SHA-256 of the written test file
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	Mappings   int `yaml:"mappings"`
	Improved   int `yaml:"improved"`
	Verified   int `yaml:"verified"`
	Unverified int `yaml:"unverified"`
}

// Add folds one outcome into the summary.
func (s *Summary) Add(outcome MappingOutcome) {
	s.Mappings++

	if outcome.Status.Patched() {
		s.Improved++
	}

	switch outcome.Status {
	case StatusVerified:
		s.Verified++
	case StatusUnverified:
		s.Unverified++
	case StatusSkipped, StatusEngineFailed, StatusNoTests, StatusPatchFailed, StatusDryRun:
	}
}

// Text renders the human readable run summary.
func (s Summary) Text() string {
	text := fmt.Sprintf(`Mutation-guided test generation completed.

Summary:
- Processed %d source/test file pairs
- Improved test coverage for %d files
`, s.Mappings, s.Improved)

	if s.Unverified > 0 {
		text += fmt.Sprintf("- %d patched files failed verification and were left patched\n", s.Unverified)
	}

	return text
}

// RunReport is the persisted record of one pipeline run.
type RunReport struct {
	RunID      string           `yaml:"run_id"`
	SourceDir  Path             `yaml:"source_dir"`
	TestDir    Path             `yaml:"test_dir"`
	StartedAt  time.Time        `yaml:"started_at"`
	FinishedAt time.Time        `yaml:"finished_at"`
	Backend    string           `yaml:"backend"`
	Shard      string           `yaml:"shard,omitempty"`
	Summary    Summary          `yaml:"summary"`
	Outcomes   []MappingOutcome `yaml:"outcomes"`
}
