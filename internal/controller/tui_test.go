package controller

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/mutaug/internal/model"
)

func TestTUI_DisplayMappings(t *testing.T) {
	var buf bytes.Buffer

	tui := NewTUI(&buf, nil)
	require.NoError(t, tui.Start(context.Background(), WithListMode()))

	tui.DisplayMappings(context.Background(), sampleMappings())
	tui.Wait(context.Background())
	tui.Close(context.Background())

	output := buf.String()
	assert.Contains(t, output, "mutaug")
	assert.Contains(t, output, "src/calculator.py")
	assert.Contains(t, output, "tests/shapes_test.py")
}

func TestTUI_DisplayMappings_Empty(t *testing.T) {
	var buf bytes.Buffer

	NewTUI(&buf, nil).DisplayMappings(context.Background(), nil)

	assert.Contains(t, buf.String(), "No source/test pairs found")
}

func TestTUI_DisplayReport_ViewMode(t *testing.T) {
	var buf bytes.Buffer

	tui := NewTUI(&buf, nil)
	require.NoError(t, tui.Start(context.Background(), WithViewMode()))

	tui.DisplayReport(context.Background(), sampleReport())
	tui.DisplayMessage(context.Background(), "note")

	output := buf.String()
	assert.Contains(t, output, "run-1")
	assert.Contains(t, output, "tests/test_calculator.py: verified")
	assert.Contains(t, output, "Improved test coverage for 2 files")
	assert.Contains(t, output, "note")
}

func update(t *testing.T, model runModel, msg tea.Msg) (runModel, tea.Cmd) {
	t.Helper()

	next, cmd := model.Update(msg)

	updated, ok := next.(runModel)
	require.True(t, ok)

	return updated, cmd
}

func TestRunModel_TracksProgress(t *testing.T) {
	model := newRunModel(nil)
	assert.NotNil(t, model.Init())

	model, _ = update(t, model, ConcurrencyInfo{Parallel: 2, Mappings: 2})
	model, _ = update(t, model, startedMsg{test: "tests/test_calculator.py"})
	model, _ = update(t, model, startedMsg{test: "tests/shapes_test.py"})

	view := model.View()
	assert.Contains(t, view, "2 pair(s), 2 worker(s)")
	assert.Contains(t, view, "tests/test_calculator.py")
	assert.Contains(t, view, "q: stop")

	model, _ = update(t, model, completedMsg{outcome: sampleReport().Outcomes[0]})
	assert.Equal(t, []m.Path{"tests/shapes_test.py"}, model.running)
	assert.Len(t, model.done, 1)

	model, _ = update(t, model, messageMsg("engine warning"))
	assert.Contains(t, model.View(), "engine warning")
}

func TestRunModel_ReportQuits(t *testing.T) {
	model := newRunModel(nil)

	model, cmd := update(t, model, reportMsg{report: sampleReport()})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, model.View(), "Processed 3 source/test file pairs")
	assert.Empty(t, model.running)
}

func TestRunModel_InterruptCallsBack(t *testing.T) {
	interrupted := false
	model := newRunModel(func() { interrupted = true })

	model, cmd := update(t, model, tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.True(t, interrupted)
	assert.True(t, model.quitting)
	assert.Contains(t, model.View(), "stopping...")
}

func TestRunModel_IgnoresOtherKeys(t *testing.T) {
	model := newRunModel(nil)

	model, cmd := update(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})

	assert.Nil(t, cmd)
	assert.False(t, model.quitting)
}

func TestRunModel_SpinnerTicks(t *testing.T) {
	model := newRunModel(nil)

	_, cmd := update(t, model, spinner.TickMsg{ID: model.spinner.ID()})

	assert.NotNil(t, cmd)
}
