package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/olekukonko/tablewriter"

	m "gooze.dev/pkg/mutaug/internal/model"
)

// SimpleUI prints plain text and tables to a writer.
type SimpleUI struct {
	out io.Writer
	mu  sync.Mutex
}

// NewSimpleUI creates a new SimpleUI writing to out.
func NewSimpleUI(out io.Writer) *SimpleUI {
	return &SimpleUI{out: out}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// Wait returns immediately; SimpleUI never blocks.
func (s *SimpleUI) Wait(_ context.Context) {}

// DisplayMessage prints message on its own line.
func (s *SimpleUI) DisplayMessage(ctx context.Context, message string) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s\n", strings.TrimRight(message, "\n"))
}

// DisplayMappings prints the source/test pairs as a table.
func (s *SimpleUI) DisplayMappings(ctx context.Context, mappings []m.Mapping) {
	if ctx.Err() != nil {
		return
	}

	s.printf("\n%s", renderMappingTable(mappings))
}

func renderMappingTable(mappings []m.Mapping) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Source", "Test"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, mapping := range mappings {
		table.Append([]string{string(mapping.Source.Path), string(mapping.Test.Path)})
	}

	table.SetFooter([]string{fmt.Sprintf("Total pairs %d", len(mappings)), ""})
	table.Render()

	return tableBuffer.String()
}

// DisplayConcurrencyInfo shows scheduling settings.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, info ConcurrencyInfo) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Processing %d pair(s) with %d worker(s), %d generation worker(s) (Shard %d/%d)\n",
		info.Mappings, info.Parallel, info.GenerateParallel, info.ShardIndex, max(info.ShardCount, 1))
}

// DisplayStartingMapping announces a pair.
func (s *SimpleUI) DisplayStartingMapping(ctx context.Context, mapping m.Mapping) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Processing %s with test file %s\n", mapping.Source.Path, mapping.Test.Path)
}

// DisplayCompletedMapping prints the outcome of a pair, with the diff in dry-run mode.
func (s *SimpleUI) DisplayCompletedMapping(ctx context.Context, outcome m.MappingOutcome) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.unlockedPrintf("Completed %s -> %s (%d mutant(s), %d test(s))\n",
		outcome.Test, outcome.Status, len(outcome.Mutants), outcome.Generated)

	if outcome.ErrMessage != "" {
		s.unlockedPrintf("  %s: %s\n", outcome.ErrKind, outcome.ErrMessage)
	}

	if outcome.Status.Patched() {
		s.unlockedPrintf("  %s\n", outcome.Verification.Message)
	}

	if outcome.Diff != "" {
		s.unlockedPrintf("%s\n", outcome.Diff)
	}
}

// DisplayReport prints the per-pair table and the run summary.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.RunReport) {
	if ctx.Err() != nil {
		return
	}

	s.printf("\n%s\n%s", renderOutcomeTable(report.Outcomes), report.Summary.Text())
}

func renderOutcomeTable(outcomes []m.MappingOutcome) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Test", "Mutants", "Tests", "Status", "Score"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for _, outcome := range outcomes {
		table.Append([]string{
			string(outcome.Test),
			fmt.Sprintf("%d", len(outcome.Mutants)),
			fmt.Sprintf("%d", outcome.Generated),
			outcome.Status.String(),
			formatScore(outcome),
		})
	}

	table.Render()

	return tableBuffer.String()
}

func formatScore(outcome m.MappingOutcome) string {
	if !outcome.Status.Patched() {
		return "-"
	}

	if outcome.Verification.Score < 0 {
		return outcome.Verification.ScoreSummary
	}

	return fmt.Sprintf("%.1f%%", outcome.Verification.Score*100)
}

func (s *SimpleUI) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unlockedPrintf(format, args...)
}

func (s *SimpleUI) unlockedPrintf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
