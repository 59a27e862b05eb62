// Package controller provides output adapters for displaying augmentation progress and reports.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	m "gooze.dev/pkg/mutaug/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeList StartMode = iota
	ModeRun
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithListMode sets the UI to list source/test pairs.
func WithListMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeList
	}
}

// WithRunMode sets the UI to follow a pipeline run.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

// WithViewMode sets the UI to show a saved report.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

func newStartConfig(options []StartOption) StartConfig {
	cfg := StartConfig{mode: ModeList}
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

// ConcurrencyInfo describes how a run is scheduled.
type ConcurrencyInfo struct {
	Parallel         int
	GenerateParallel int
	ShardIndex       int
	ShardCount       int
	Mappings         int
}

// UI defines the interface for reporting pipeline progress.
// Implementations can use different output methods (simple text, TUI, etc).
// Display methods may be called from several goroutines.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context)
	DisplayMessage(ctx context.Context, message string)
	DisplayMappings(ctx context.Context, mappings []m.Mapping)
	DisplayConcurrencyInfo(ctx context.Context, info ConcurrencyInfo)
	DisplayStartingMapping(ctx context.Context, mapping m.Mapping)
	DisplayCompletedMapping(ctx context.Context, outcome m.MappingOutcome)
	DisplayReport(ctx context.Context, report m.RunReport)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
