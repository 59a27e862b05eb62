package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "gooze.dev/pkg/mutaug/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	summaryStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const tuiTitle = "mutaug - mutation-guided test augmentation"

// TUI implements UI with Bubble Tea. Runs are followed live with a spinner
// per pair in progress; list and view output is rendered once.
type TUI struct {
	out       io.Writer
	interrupt func()

	mu      sync.Mutex
	mode    StartMode
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI. interrupt is called when the user presses
// ctrl+c or q during a run.
func NewTUI(out io.Writer, interrupt func()) *TUI {
	return &TUI{out: out, interrupt: interrupt}
}

// Start launches the live view in run mode.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = cfg.mode
	if t.mode != ModeRun {
		return nil
	}

	t.program = tea.NewProgram(newRunModel(t.interrupt), tea.WithOutput(t.out), tea.WithContext(ctx))
	t.done = make(chan struct{})

	go func(program *tea.Program, done chan struct{}) {
		defer close(done)

		if _, err := program.Run(); err != nil && ctx.Err() == nil {
			slog.Error("tui stopped", "error", err)
		}
	}(t.program, t.done)

	return nil
}

// Close stops the live view, if any.
func (t *TUI) Close(_ context.Context) {
	program, done := t.live()
	if program == nil {
		return
	}

	program.Quit()
	<-done
}

// Wait blocks until the live view has rendered its final frame.
func (t *TUI) Wait(ctx context.Context) {
	_, done := t.live()
	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (t *TUI) live() (*tea.Program, chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.program, t.done
}

func (t *TUI) send(msg tea.Msg) bool {
	program, _ := t.live()
	if program == nil {
		return false
	}

	program.Send(msg)

	return true
}

// DisplayMessage shows a one-line message.
func (t *TUI) DisplayMessage(ctx context.Context, message string) {
	if ctx.Err() != nil || t.send(messageMsg(message)) {
		return
	}

	_, _ = fmt.Fprintln(t.out, warnStyle.Render(strings.TrimRight(message, "\n")))
}

// DisplayMappings renders the source/test pairs.
func (t *TUI) DisplayMappings(ctx context.Context, mappings []m.Mapping) {
	if ctx.Err() != nil {
		return
	}

	if len(mappings) == 0 {
		_, _ = fmt.Fprintln(t.out, titleStyle.Render(tuiTitle)+"\n"+faintStyle.Render("No source/test pairs found"))
		return
	}

	_, _ = fmt.Fprint(t.out, titleStyle.Render(tuiTitle)+"\n"+renderMappingTable(mappings))
}

// DisplayConcurrencyInfo shows scheduling settings.
func (t *TUI) DisplayConcurrencyInfo(ctx context.Context, info ConcurrencyInfo) {
	if ctx.Err() != nil {
		return
	}

	t.send(info)
}

// DisplayStartingMapping marks a pair as in progress.
func (t *TUI) DisplayStartingMapping(ctx context.Context, mapping m.Mapping) {
	if ctx.Err() != nil {
		return
	}

	t.send(startedMsg{test: mapping.Test.Path})
}

// DisplayCompletedMapping records the outcome of a pair.
func (t *TUI) DisplayCompletedMapping(ctx context.Context, outcome m.MappingOutcome) {
	if ctx.Err() != nil {
		return
	}

	t.send(completedMsg{outcome: outcome})
}

// DisplayReport shows the final report. In run mode it ends the live view.
func (t *TUI) DisplayReport(ctx context.Context, report m.RunReport) {
	if ctx.Err() != nil || t.send(reportMsg{report: report}) {
		return
	}

	_, _ = fmt.Fprint(t.out, renderReport(report))
}

func renderReport(report m.RunReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(tuiTitle))
	b.WriteString("\n")

	if report.RunID != "" {
		b.WriteString(faintStyle.Render(fmt.Sprintf("run %s  backend %s", report.RunID, report.Backend)))
		b.WriteString("\n")
	}

	for _, outcome := range report.Outcomes {
		b.WriteString(renderOutcomeLine(outcome))
		b.WriteString("\n")
	}

	b.WriteString(summaryStyle.Render(strings.TrimRight(report.Summary.Text(), "\n")))
	b.WriteString("\n")

	return b.String()
}

func renderOutcomeLine(outcome m.MappingOutcome) string {
	icon := faintStyle.Render("·")

	switch outcome.Status {
	case m.StatusVerified:
		icon = okStyle.Render("✓")
	case m.StatusUnverified, m.StatusDryRun:
		icon = warnStyle.Render("!")
	case m.StatusEngineFailed, m.StatusNoTests, m.StatusPatchFailed:
		icon = failStyle.Render("✗")
	case m.StatusSkipped:
	}

	line := fmt.Sprintf("  %s %s: %s (%d mutant(s), %d test(s))",
		icon, outcome.Test, outcome.Status, len(outcome.Mutants), outcome.Generated)

	if outcome.Status.Patched() {
		line += faintStyle.Render("  " + outcome.Verification.ScoreSummary)
	}

	return line
}

type (
	messageMsg   string
	startedMsg   struct{ test m.Path }
	completedMsg struct{ outcome m.MappingOutcome }
	reportMsg    struct{ report m.RunReport }
)

// runModel is the Bubble Tea model following a pipeline run.
type runModel struct {
	spinner   spinner.Model
	interrupt func()

	info     *ConcurrencyInfo
	running  []m.Path
	done     []m.MappingOutcome
	messages []string
	report   *m.RunReport
	quitting bool
}

func newRunModel(interrupt func()) runModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = warnStyle

	return runModel{spinner: s, interrupt: interrupt}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if rm.interrupt != nil {
				rm.interrupt()
			}

			rm.quitting = true

			return rm, tea.Quit
		}

		return rm, nil

	case spinner.TickMsg:
		var cmd tea.Cmd

		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd

	case ConcurrencyInfo:
		rm.info = &msg
		return rm, nil

	case messageMsg:
		rm.messages = append(rm.messages, string(msg))
		return rm, nil

	case startedMsg:
		rm.running = append(rm.running, msg.test)
		return rm, nil

	case completedMsg:
		rm.running = removePath(rm.running, msg.outcome.Test)
		rm.done = append(rm.done, msg.outcome)

		return rm, nil

	case reportMsg:
		rm.report = &msg.report
		rm.running = nil

		return rm, tea.Quit
	}

	return rm, nil
}

func removePath(paths []m.Path, target m.Path) []m.Path {
	out := paths[:0:0]

	for _, path := range paths {
		if path != target {
			out = append(out, path)
		}
	}

	return out
}

func (rm runModel) View() string {
	if rm.report != nil {
		return renderReport(*rm.report)
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(tuiTitle))
	b.WriteString("\n")

	if rm.info != nil {
		b.WriteString(faintStyle.Render(fmt.Sprintf("%d pair(s), %d worker(s), shard %d/%d",
			rm.info.Mappings, rm.info.Parallel, rm.info.ShardIndex, max(rm.info.ShardCount, 1))))
		b.WriteString("\n")
	}

	for _, outcome := range rm.done {
		b.WriteString(renderOutcomeLine(outcome))
		b.WriteString("\n")
	}

	for _, path := range rm.running {
		fmt.Fprintf(&b, "  %s %s\n", rm.spinner.View(), path)
	}

	for _, message := range rm.messages {
		b.WriteString(warnStyle.Render(message))
		b.WriteString("\n")
	}

	if rm.quitting {
		b.WriteString(faintStyle.Render("stopping..."))
		b.WriteString("\n")
	} else {
		b.WriteString(faintStyle.Render("q: stop"))
		b.WriteString("\n")
	}

	return b.String()
}
