package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/queue"
	"retailassist.app/relay/internal/responder"
	"retailassist.app/relay/internal/store"
)

// fakeGenerator returns reply or err. When gate is set, Generate signals
// entered and then blocks until gate is closed.
type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []responder.Prompt
	gate    chan struct{}
	entered chan struct{}
}

func (g *fakeGenerator) Generate(_ context.Context, prompt responder.Prompt) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	reply, err := g.reply, g.err
	gate, entered := g.gate, g.entered
	g.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (g *fakeGenerator) Prompts() []responder.Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]responder.Prompt(nil), g.prompts...)
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []queue.EventMessage
	err      error
}

func (p *fakeProducer) Enqueue(_ context.Context, msg queue.EventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

// failingRules wraps a provider so rule listing fails.
type failingRules struct {
	store.Provider
	err error
}

func (f failingRules) AutomationRules() store.AutomationRuleStore {
	return failingRuleStore{AutomationRuleStore: f.Provider.AutomationRules(), err: f.err}
}

type failingRuleStore struct {
	store.AutomationRuleStore
	err error
}

func (f failingRuleStore) ListEnabledByWorkspace(context.Context, int64) ([]model.AutomationRule, error) {
	return nil, f.err
}

func commentEntry(pageID, commentID, authorID, text string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"id": %q,
		"time": 1700000000,
		"changes": [{
			"field": "feed",
			"value": {
				"item": "comment",
				"verb": "add",
				"comment_id": %q,
				"post_id": "%s_1",
				"message": %q,
				"created_time": 1700000000,
				"from": {"id": %q, "name": "Jane"}
			}
		}]
	}`, pageID, commentID, pageID, text, authorID))
}

func messageEntry(pageID, senderID, mid, text string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"id": %q,
		"time": 1700000000000,
		"messaging": [{
			"sender": {"id": %q},
			"recipient": {"id": %q},
			"timestamp": 1700000000000,
			"message": {"mid": %q, "text": %q}
		}]
	}`, pageID, senderID, pageID, mid, text))
}

func readReceiptEntry(pageID string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"id": %q,
		"time": 1700000000000,
		"messaging": [{
			"sender": {"id": "777"},
			"recipient": {"id": %q},
			"timestamp": 1700000000000,
			"read": {"watermark": 1700000000000}
		}]
	}`, pageID, pageID))
}
