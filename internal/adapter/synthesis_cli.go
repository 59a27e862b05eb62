package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	m "gooze.dev/pkg/mutaug/internal/model"
)

const (
	defaultSuggestTool    = "github-copilot"
	defaultSuggestTimeout = 2 * time.Minute
)

// CLIBackend asks an external suggestion tool for the test:
// `<tool> suggest --output-file <file> <prompt>`.
type CLIBackend struct {
	runner     CommandRunner
	executable string
	scratchDir string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewCLIBackend constructs a CLIBackend.
func NewCLIBackend(runner CommandRunner, executable, scratchDir string, timeout time.Duration, logger *slog.Logger) *CLIBackend {
	if executable == "" {
		executable = defaultSuggestTool
	}

	if timeout <= 0 {
		timeout = defaultSuggestTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &CLIBackend{
		runner:     runner,
		executable: executable,
		scratchDir: scratchDir,
		timeout:    timeout,
		logger:     logger,
	}
}

// Name implements SynthesisBackend.
func (b *CLIBackend) Name() string { return string(BackendCLI) }

// Generate implements SynthesisBackend.
func (b *CLIBackend) Generate(ctx context.Context, req m.GenerationRequest) (m.GeneratedTest, error) {
	out, err := os.CreateTemp(b.scratchDir, "mutaug-*.txt")
	if err != nil {
		return "", m.NewError(m.KindSynthesis, b.Name(), fmt.Errorf("create output file: %w", err))
	}

	path := out.Name()
	_ = out.Close()

	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			b.logger.Warn("failed to remove output file", "path", path, "error", rmErr)
		}
	}()

	result, err := b.runner.Run(ctx, Command{
		Name:    b.executable,
		Args:    []string{"suggest", "--output-file", path, req.Prompt},
		Timeout: b.timeout,
	})
	if err != nil {
		b.logger.Error("suggestion tool failed", "tool", b.executable, "stderr", strings.TrimSpace(result.Stderr))
		return "", err
	}

	// #nosec G304 - output file created above
	content, err := os.ReadFile(path)
	if err != nil {
		return "", m.NewError(m.KindSynthesis, b.Name(), fmt.Errorf("read output file: %w", err))
	}

	test := stripCodeFences(string(content))
	if test == "" {
		return "", emptyGeneration(b.Name())
	}

	return m.GeneratedTest(test), nil
}
