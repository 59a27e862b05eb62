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

// GenerationMarker separates the commented prompt from the generated test in
// the editor scratch file.
const GenerationMarker = "# Write the test below this line:"

const (
	defaultEditor        = "code"
	defaultEditorTimeout = 30 * time.Minute
)

// EditorBackend hands the prompt to an interactive editor and reads back
// whatever was written below the marker. It blocks until the editor exits.
type EditorBackend struct {
	runner     CommandRunner
	executable string
	scratchDir string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewEditorBackend constructs an EditorBackend.
func NewEditorBackend(runner CommandRunner, executable, scratchDir string, timeout time.Duration, logger *slog.Logger) *EditorBackend {
	if executable == "" {
		executable = defaultEditor
	}

	if timeout <= 0 {
		timeout = defaultEditorTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &EditorBackend{
		runner:     runner,
		executable: executable,
		scratchDir: scratchDir,
		timeout:    timeout,
		logger:     logger,
	}
}

// Name implements SynthesisBackend.
func (b *EditorBackend) Name() string { return string(BackendEditor) }

// Generate implements SynthesisBackend.
func (b *EditorBackend) Generate(ctx context.Context, req m.GenerationRequest) (m.GeneratedTest, error) {
	scratch, err := os.CreateTemp(b.scratchDir, "mutaug-*.py")
	if err != nil {
		return "", m.NewError(m.KindSynthesis, b.Name(), fmt.Errorf("create scratch file: %w", err))
	}

	path := scratch.Name()

	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			b.logger.Warn("failed to remove scratch file", "path", path, "error", rmErr)
		}
	}()

	_, writeErr := scratch.WriteString(editorScratch(req.Prompt))
	closeErr := scratch.Close()

	if writeErr != nil || closeErr != nil {
		return "", m.NewError(m.KindSynthesis, b.Name(), fmt.Errorf("write scratch file: %w", firstErr(writeErr, closeErr)))
	}

	b.logger.Info("waiting for editor", "editor", b.executable, "file", path)

	if _, err := b.runner.Run(ctx, Command{
		Name:    b.executable,
		Args:    []string{"--wait", path},
		Timeout: b.timeout,
	}); err != nil {
		return "", err
	}

	// #nosec G304 - scratch file created above
	content, err := os.ReadFile(path)
	if err != nil {
		return "", m.NewError(m.KindSynthesis, b.Name(), fmt.Errorf("read scratch file: %w", err))
	}

	return extractAfterMarker(b.Name(), string(content))
}

func editorScratch(prompt string) string {
	var sb strings.Builder

	for _, line := range strings.Split(strings.TrimSpace(prompt), "\n") {
		sb.WriteString("# ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(GenerationMarker)
	sb.WriteString("\n\n")

	return sb.String()
}

func extractAfterMarker(backend, content string) (m.GeneratedTest, error) {
	_, after, found := strings.Cut(content, GenerationMarker)
	if !found {
		return "", m.NewError(m.KindSynthesis, backend, m.ErrMarkerMissing)
	}

	test := strings.TrimSpace(after)
	if test == "" {
		return "", emptyGeneration(backend)
	}

	return m.GeneratedTest(test), nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
