package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gojektech/heimdall/v6/httpclient"
	"github.com/google/uuid"

	"retailassist.app/relay/common/logger"
)

const errTokenNotConfigured = "page access token not configured"

// SendResult is the outcome of one Graph API send. Senders report failures
// here instead of returning errors.
type SendResult struct {
	OK        bool
	MessageID string
	Error     string
}

func sendFailure(format string, args ...any) SendResult {
	return SendResult{Error: fmt.Sprintf(format, args...)}
}

// Sender delivers replies to a Meta channel.
type Sender interface {
	ReplyToComment(ctx context.Context, commentID, text, token string) SendResult
	SendDirectMessage(ctx context.Context, recipientID, text, token string) SendResult
}

// GraphClient talks to the Graph API. Sends are not retried: a failed reply is
// recorded on the event and can be reprocessed explicitly.
type GraphClient struct {
	baseURL string
	client  *httpclient.Client
}

var _ Sender = (*GraphClient)(nil)

// NewGraphClient takes the versioned base, e.g. https://graph.facebook.com/v19.0.
func NewGraphClient(baseURL string, timeout time.Duration) *GraphClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GraphClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: httpclient.NewClient(
			httpclient.WithHTTPTimeout(timeout),
			httpclient.WithRetryCount(0),
		),
	}
}

func (g *GraphClient) ReplyToComment(ctx context.Context, commentID, text, token string) SendResult {
	if commentID == "" {
		return sendFailure("comment id is required")
	}
	body := map[string]any{"message": text}

	var resp struct {
		ID string `json:"id"`
	}
	result := g.post(ctx, "/"+url.PathEscape(commentID)+"/comments", token, body, &resp)
	if result.OK {
		result.MessageID = resp.ID
	}
	return result
}

func (g *GraphClient) SendDirectMessage(ctx context.Context, recipientID, text, token string) SendResult {
	if recipientID == "" {
		return sendFailure("recipient id is required")
	}
	body := map[string]any{
		"recipient":      map[string]string{"id": recipientID},
		"message":        map[string]string{"text": text},
		"messaging_type": "RESPONSE",
	}

	var resp struct {
		RecipientID string `json:"recipient_id"`
		MessageID   string `json:"message_id"`
	}
	result := g.post(ctx, "/me/messages", token, body, &resp)
	if result.OK {
		result.MessageID = resp.MessageID
	}
	return result
}

type graphError struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

func (g *GraphClient) post(ctx context.Context, path, token string, payload any, out any) (result SendResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "graph api call panicked", "path", path, "panic", r)
			result = sendFailure("graph api panic: %v", r)
		}
	}()

	if token == "" {
		return sendFailure(errTokenNotConfigured)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return sendFailure("encoding request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return sendFailure("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := g.client.Do(req)
	if resp == nil {
		if err == nil {
			err = fmt.Errorf("no response")
		}
		slog.WarnContext(ctx, "graph api request failed", "path", path, "error", err)
		return sendFailure("graph api request: %v", err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr != nil {
		return sendFailure("reading response: %v", readErr)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg := fmt.Sprintf("graph api status %d", resp.StatusCode)
		var ge graphError
		if json.Unmarshal(respBody, &ge) == nil && ge.Error.Message != "" {
			msg = ge.Error.Message
		}
		slog.WarnContext(ctx, "graph api rejected request",
			"path", path,
			"status", resp.StatusCode,
			"body", logger.Truncate(string(respBody), 500))
		return SendResult{Error: msg}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return sendFailure("decoding response: %v", err)
	}

	slog.DebugContext(ctx, "graph api request succeeded",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())
	return SendResult{OK: true}
}

// MockSender stands in for the Graph API in mock mode and tests.
type MockSender struct {
	mu    sync.Mutex
	calls []MockSend

	// Fail, when set, makes every send fail with this message.
	Fail string
}

type MockSend struct {
	Kind        string // "comment_reply" or "dm"
	TargetID    string
	Text        string
	Token       string
	ProviderID  string
	Succeeded   bool
	RequestedAt time.Time
}

var _ Sender = (*MockSender)(nil)

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) ReplyToComment(ctx context.Context, commentID, text, token string) SendResult {
	return m.record(ctx, "comment_reply", "mock_reply_", commentID, text, token)
}

func (m *MockSender) SendDirectMessage(ctx context.Context, recipientID, text, token string) SendResult {
	return m.record(ctx, "dm", "mock_msg_", recipientID, text, token)
}

func (m *MockSender) record(ctx context.Context, kind, prefix, target, text, token string) SendResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := MockSend{
		Kind:        kind,
		TargetID:    target,
		Text:        text,
		Token:       token,
		RequestedAt: time.Now(),
	}

	var result SendResult
	if m.Fail != "" {
		result = SendResult{Error: m.Fail}
	} else {
		result = SendResult{OK: true, MessageID: prefix + uuid.NewString()}
		call.ProviderID = result.MessageID
		call.Succeeded = true
	}
	m.calls = append(m.calls, call)

	slog.InfoContext(ctx, "mock send", "kind", kind, "target_id", target, "ok", result.OK,
		"text", logger.Truncate(text, 80))
	return result
}

// Calls returns a copy of every send attempted so far.
func (m *MockSender) Calls() []MockSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockSend, len(m.calls))
	copy(out, m.calls)
	return out
}
