package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	m "gooze.dev/pkg/mutaug/internal/model"
)

// SynthesisBackend turns a generation request into test source.
type SynthesisBackend interface {
	// Name identifies the backend in logs and reports.
	Name() string
	// Generate returns a non-empty test or a kinded error. It never reports
	// an empty result as success.
	Generate(ctx context.Context, req m.GenerationRequest) (m.GeneratedTest, error)
}

// BackendKind selects a SynthesisBackend variant.
type BackendKind string

// Available backend kinds.
const (
	BackendCompletion BackendKind = "completion"
	BackendEditor     BackendKind = "editor"
	BackendCLI        BackendKind = "cli"
	BackendCanned     BackendKind = "canned"
)

// Completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// BackendConfig carries everything needed to build any backend variant.
type BackendConfig struct {
	Kind       BackendKind
	Provider   string
	APIKey     string
	Model      string
	RPS        float64
	Executable string
	Timeout    time.Duration
	ScratchDir string
}

// Interactive reports whether the backend blocks on a human. Generation must
// then be sequential.
func (c BackendConfig) Interactive() bool {
	return c.Kind == BackendEditor
}

// NewSynthesisBackend builds the backend selected by cfg.Kind. A completion
// backend without a credential degrades to the canned backend.
func NewSynthesisBackend(ctx context.Context, cfg BackendConfig, runner CommandRunner, logger *slog.Logger) (SynthesisBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Kind {
	case BackendCompletion, "":
		if cfg.APIKey == "" {
			logger.Warn("no API key configured, using canned responses")
			return NewCannedBackend(logger), nil
		}

		completer, err := newCompleter(ctx, cfg)
		if err != nil {
			return nil, err
		}

		return NewCompletionBackend(completer, cfg.RPS, cfg.Timeout, logger), nil
	case BackendCanned:
		return NewCannedBackend(logger), nil
	case BackendEditor:
		return NewEditorBackend(runner, cfg.Executable, cfg.ScratchDir, cfg.Timeout, logger), nil
	case BackendCLI:
		return NewCLIBackend(runner, cfg.Executable, cfg.ScratchDir, cfg.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Kind)
	}
}

func newCompleter(ctx context.Context, cfg BackendConfig) (Completer, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAICompleter(cfg.APIKey, cfg.Model), nil
	case ProviderGemini:
		return NewGeminiCompleter(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}

// stripCodeFences removes a surrounding Markdown code block, if any.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	lines = lines[1:]

	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func emptyGeneration(backend string) error {
	return m.NewError(m.KindSynthesis, backend, m.ErrEmptyGeneration)
}
