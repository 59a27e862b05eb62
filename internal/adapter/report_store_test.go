package adapter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/mutaug/internal/model"
)

func TestYAMLReportStore_SaveLoad(t *testing.T) {
	store := NewReportStore()
	dir := m.Path(filepath.Join(t.TempDir(), "reports"))

	started := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	report := m.RunReport{
		RunID:      "run-1",
		SourceDir:  "src",
		TestDir:    "tests",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Backend:    "canned",
		Summary:    m.Summary{Mappings: 1, Improved: 1, Verified: 1},
		Outcomes: []m.MappingOutcome{
			{
				Source:    "src/calculator.py",
				Test:      "tests/test_calculator.py",
				Mutants:   []m.Mutant{m.NewMutant("1", 3, "if n <= 1:", "if n < 1:")},
				Generated: 1,
				Status:    m.StatusVerified,
				Verification: m.VerificationResult{
					TestsPassed:  true,
					ScoreSummary: "Mutation score: 100%",
					Score:        1,
				},
			},
		},
	}

	require.NoError(t, store.SaveReport(dir, report))

	loaded, err := store.LoadReport(dir)
	require.NoError(t, err)

	if diff := cmp.Diff(report, loaded); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLReportStore_LoadMissing(t *testing.T) {
	_, err := NewReportStore().LoadReport(m.Path(t.TempDir()))
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestYAMLReportStore_ShardDirs(t *testing.T) {
	store := NewReportStore()
	dir := m.Path(t.TempDir())

	require.NoError(t, store.SaveReport(ShardDir(dir, 1), m.RunReport{RunID: "b"}))
	require.NoError(t, store.SaveReport(ShardDir(dir, 0), m.RunReport{RunID: "a"}))
	mustMkdir(t, filepath.Join(string(dir), "other"))

	dirs, err := store.ShardDirs(dir)
	require.NoError(t, err)
	assert.Equal(t, []m.Path{ShardDir(dir, 0), ShardDir(dir, 1)}, dirs)
}
