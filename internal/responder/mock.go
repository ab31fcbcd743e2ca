package responder

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

var mockOpeners = []string{
	"Thanks so much for reaching out!",
	"Great question!",
	"Appreciate you getting in touch!",
	"Thanks for the message!",
}

// MockGenerator returns deterministic replies derived from the user text.
// Used in mock mode so the pipeline runs without a completion API.
type MockGenerator struct{}

var _ Generator = MockGenerator{}

func NewMockGenerator() MockGenerator {
	return MockGenerator{}
}

func (MockGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &GenerationError{Provider: "mock", Model: "mock", Err: err}
	}

	text := strings.TrimSpace(quoted(prompt.User))
	if text == "" {
		return "", ErrEmptyReply
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	opener := mockOpeners[h.Sum32()%uint32(len(mockOpeners))]

	return fmt.Sprintf("%s You said: \"%s\". We'll follow up with more details soon.", opener, truncateRunes(text, 80)), nil
}

// quoted returns the text between the first and last double quote, which is
// where user prompts carry the customer's words. Falls back to the whole string.
func quoted(s string) string {
	start := strings.Index(s, `"`)
	end := strings.LastIndex(s, `"`)
	if start >= 0 && end > start {
		return s[start+1 : end]
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
