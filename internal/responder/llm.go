package responder

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"retailassist.app/relay/common/llm"
)

// Defaults applied when the agent leaves a generation parameter unset.
type Defaults struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// LLMGenerator calls the completion API through common/llm.
type LLMGenerator struct {
	client   llm.Client
	provider string
	defaults Defaults
}

var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator accepts a nil client: every call then fails with
// ErrNotConfigured, so a missing key surfaces per event instead of at startup.
func NewLLMGenerator(client llm.Client, provider string, defaults Defaults) *LLMGenerator {
	return &LLMGenerator{
		client:   client,
		provider: provider,
		defaults: defaults,
	}
}

func (g *LLMGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if g.client == nil {
		return "", ErrNotConfigured
	}

	req := llm.Request{
		SystemPrompt: prompt.System,
		UserPrompt:   prompt.User,
		Model:        prompt.Model,
		MaxTokens:    prompt.MaxTokens,
		Temperature:  prompt.Temperature,
	}
	if req.Model == "" {
		req.Model = g.defaults.Model
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = g.defaults.MaxTokens
	}
	if req.Temperature == nil {
		req.Temperature = llm.Temp(g.defaults.Temperature)
	}

	if g.defaults.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.defaults.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Complete(ctx, req)
	if err != nil {
		genErr := &GenerationError{Provider: g.provider, Model: req.Model, Err: err}
		slog.WarnContext(ctx, "reply generation failed",
			"error", err,
			"timeout", genErr.Timeout(),
			"retryable", llm.IsRetryable(ctx, err),
			"duration_ms", time.Since(start).Milliseconds())
		return "", genErr
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		slog.WarnContext(ctx, "reply generation returned no text",
			"model", resp.Model,
			"finish_reason", resp.FinishReason)
		return "", ErrEmptyReply
	}

	slog.InfoContext(ctx, "reply generated",
		"model", resp.Model,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}
