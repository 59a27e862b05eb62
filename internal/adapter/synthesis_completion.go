package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	m "gooze.dev/pkg/mutaug/internal/model"
)

// Decoding parameters shared by every completion provider.
const (
	completionMaxTokens   = 1000
	completionTemperature = 0.5
	completionTopP        = 1.0
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.5-flash"
)

// defaultCompletionTimeout bounds a request when no timeout is configured.
const defaultCompletionTimeout = 2 * time.Minute

const systemPrompt = "You write Python unittest test methods. Reply with code only."

// Completer sends one prompt to a hosted completion service.
type Completer interface {
	Provider() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionBackend is the completion-API SynthesisBackend.
type CompletionBackend struct {
	completer Completer
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    *slog.Logger
}

// NewCompletionBackend wraps completer. rps <= 0 disables pacing; timeout
// bounds each request and defaults to defaultCompletionTimeout.
func NewCompletionBackend(completer Completer, rps float64, timeout time.Duration, logger *slog.Logger) *CompletionBackend {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	if timeout <= 0 {
		timeout = defaultCompletionTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &CompletionBackend{
		completer: completer,
		limiter:   rate.NewLimiter(limit, 1),
		timeout:   timeout,
		logger:    logger,
	}
}

// Name implements SynthesisBackend.
func (b *CompletionBackend) Name() string {
	return string(BackendCompletion) + ":" + b.completer.Provider()
}

// Generate sends the prompt and returns the trimmed, fence-free completion.
func (b *CompletionBackend) Generate(ctx context.Context, req m.GenerationRequest) (m.GeneratedTest, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", m.NewError(m.KindSynthesis, b.Name(), err)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	text, err := b.completer.Complete(callCtx, req.Prompt)
	if err != nil {
		kind := m.KindSynthesis
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			kind = m.KindTimeout
		}

		b.logger.Error("completion request failed", "provider", b.completer.Provider(), "timeout", b.timeout, "error", err)

		return "", m.NewError(kind, b.Name(), err)
	}

	test := stripCodeFences(text)
	if test == "" {
		return "", emptyGeneration(b.Name())
	}

	return m.GeneratedTest(test), nil
}

// OpenAICompleter talks to the OpenAI chat completion API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter constructs an OpenAICompleter.
func NewOpenAICompleter(apiKey, model string) *OpenAICompleter {
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAICompleter{client: openai.NewClient(apiKey), model: model}
}

// Provider implements Completer.
func (c *OpenAICompleter) Provider() string { return ProviderOpenAI }

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
		TopP:        completionTopP,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

// GeminiCompleter talks to the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter constructs a GeminiCompleter.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiCompleter{client: client, model: model}, nil
}

// Provider implements Completer.
func (c *GeminiCompleter) Provider() string { return ProviderGemini }

// Complete implements Completer.
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
			MaxOutputTokens:   completionMaxTokens,
			Temperature:       genai.Ptr[float32](completionTemperature),
			TopP:              genai.Ptr[float32](completionTopP),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return sb.String(), nil
}
