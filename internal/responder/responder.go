package responder

import (
	"context"
	"errors"
	"fmt"

	"retailassist.app/relay/common/llm"
)

var (
	// ErrEmptyReply means generation succeeded but produced no usable text.
	ErrEmptyReply = errors.New("generated reply is empty")
	// ErrNotConfigured means the completion API has no credential.
	ErrNotConfigured = errors.New("completion API credential not configured")
)

// Prompt is one generation request. Zero Model, Temperature or MaxTokens
// fall back to the generator's defaults.
type Prompt struct {
	System      string
	User        string
	Model       string
	Temperature *float64
	MaxTokens   int
}

// Generator produces reply text. Implementations return *GenerationError for
// upstream failures and ErrEmptyReply for blank output.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// GenerationError wraps a completion API failure.
type GenerationError struct {
	Provider string
	Model    string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Timeout() {
		return fmt.Sprintf("%s completion timed out (model %s)", e.Provider, e.Model)
	}
	return fmt.Sprintf("%s completion failed (model %s): %v", e.Provider, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call ran out of time rather than being rejected.
func (e *GenerationError) Timeout() bool {
	return llm.IsTimeout(e.Err)
}
