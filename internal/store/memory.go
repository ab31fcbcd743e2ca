package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"retailassist.app/relay/internal/model"
)

// Memory is an in-process Provider backing mock mode and tests.
// Safe for concurrent use; values are copied in and out.
type Memory struct {
	mu         sync.RWMutex
	workspaces map[int64]model.Workspace
	agents     map[int64]model.Agent
	rules      map[int64]model.AutomationRule
	events     map[int64]model.InboundEvent
	dedupe     map[string]int64
	now        func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		workspaces: make(map[int64]model.Workspace),
		agents:     make(map[int64]model.Agent),
		rules:      make(map[int64]model.AutomationRule),
		events:     make(map[int64]model.InboundEvent),
		dedupe:     make(map[string]int64),
		now:        time.Now,
	}
}

func (m *Memory) AddWorkspace(ws model.Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = m.now()
		ws.UpdatedAt = ws.CreatedAt
	}
	m.workspaces[ws.ID] = ws
}

func (m *Memory) AddAgent(agent model.Agent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = m.now()
		agent.UpdatedAt = agent.CreatedAt
	}
	m.agents[agent.ID] = agent
}

func (m *Memory) AddRule(rule model.AutomationRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = m.now()
		rule.UpdatedAt = rule.CreatedAt
	}
	m.rules[rule.ID] = cloneRule(rule)
}

// SetClock replaces the time source used for created_at, processed_at and
// claims.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) clock() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now()
}

// EventCount returns the number of recorded inbound events across all workspaces.
func (m *Memory) EventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *Memory) Workspaces() WorkspaceStore           { return memoryWorkspaces{m} }
func (m *Memory) Agents() AgentStore                   { return memoryAgents{m} }
func (m *Memory) AutomationRules() AutomationRuleStore { return memoryRules{m} }
func (m *Memory) InboundEvents() InboundEventStore     { return memoryEvents{m} }

type memoryWorkspaces struct{ m *Memory }

func (s memoryWorkspaces) GetByID(_ context.Context, id int64) (*model.Workspace, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	ws, ok := s.m.workspaces[id]
	if !ok || ws.IsDeleted {
		return nil, ErrNotFound
	}
	return &ws, nil
}

func (s memoryWorkspaces) GetByPageID(_ context.Context, pageID string) (*model.Workspace, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if pageID == "" {
		return nil, ErrNotFound
	}
	for _, ws := range s.m.workspaces {
		if !ws.IsDeleted && ws.MetaPageID != nil && *ws.MetaPageID == pageID {
			return &ws, nil
		}
	}
	return nil, ErrNotFound
}

type memoryAgents struct{ m *Memory }

func (s memoryAgents) GetByID(_ context.Context, id int64) (*model.Agent, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	agent, ok := s.m.agents[id]
	if !ok || agent.IsDeleted {
		return nil, ErrNotFound
	}
	return &agent, nil
}

type memoryRules struct{ m *Memory }

func (s memoryRules) GetByID(_ context.Context, id int64) (*model.AutomationRule, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	rule, ok := s.m.rules[id]
	if !ok {
		return nil, ErrNotFound
	}
	rule = cloneRule(rule)
	return &rule, nil
}

func (s memoryRules) ListEnabledByWorkspace(_ context.Context, workspaceID int64) ([]model.AutomationRule, error) {
	return s.list(workspaceID, true), nil
}

func (s memoryRules) ListByWorkspace(_ context.Context, workspaceID int64) ([]model.AutomationRule, error) {
	return s.list(workspaceID, false), nil
}

func (s memoryRules) list(workspaceID int64, enabledOnly bool) []model.AutomationRule {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	result := make([]model.AutomationRule, 0)
	for _, rule := range s.m.rules {
		if rule.WorkspaceID != workspaceID || (enabledOnly && !rule.Enabled) {
			continue
		}
		result = append(result, cloneRule(rule))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (s memoryRules) Create(_ context.Context, rule *model.AutomationRule) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	now := s.m.now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	if rule.TriggerWords == nil {
		rule.TriggerWords = []string{}
	}
	if rule.TriggerPlatforms == nil {
		rule.TriggerPlatforms = []model.Platform{}
	}
	s.m.rules[rule.ID] = cloneRule(*rule)
	return nil
}

func (s memoryRules) Update(_ context.Context, rule *model.AutomationRule) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, ok := s.m.rules[rule.ID]
	if !ok {
		return ErrNotFound
	}
	rule.WorkspaceID = existing.WorkspaceID
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = s.m.now()
	s.m.rules[rule.ID] = cloneRule(*rule)
	return nil
}

func (s memoryRules) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.rules[id]; !ok {
		return ErrNotFound
	}
	delete(s.m.rules, id)
	return nil
}

type memoryEvents struct{ m *Memory }

func (s memoryEvents) Create(_ context.Context, event *model.InboundEvent) (*model.InboundEvent, bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if event.DedupeKey != nil {
		if existingID, ok := s.m.dedupe[*event.DedupeKey]; ok {
			existing := s.m.events[existingID]
			return &existing, false, nil
		}
	}

	stored := *event
	stored.RawPayload = slices.Clone(event.RawPayload)
	stored.CreatedAt = s.m.now()
	claimedAt := stored.CreatedAt
	stored.ClaimedAt = &claimedAt
	stored.Attempts = 0
	s.m.events[stored.ID] = stored
	if stored.DedupeKey != nil {
		s.m.dedupe[*stored.DedupeKey] = stored.ID
	}
	return &stored, true, nil
}

func (s memoryEvents) GetByID(_ context.Context, id int64) (*model.InboundEvent, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	event, ok := s.m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &event, nil
}

func (s memoryEvents) MarkProcessed(_ context.Context, id int64, result model.ProcessingResult) (*model.InboundEvent, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	event, ok := s.m.events[id]
	if !ok {
		return nil, ErrNotFound
	}

	now := s.m.now()
	outcome := result.Outcome
	event.Processed = true
	event.Outcome = &outcome
	event.ResponseSent = result.ResponseSent()
	event.ResponseData = result.ResponseData
	event.ErrorMessage = result.ErrorMessage
	event.RuleID = result.RuleID
	event.ProcessedAt = &now
	event.ClaimedAt = nil
	s.m.events[id] = event
	return &event, nil
}

func (s memoryEvents) ListByWorkspace(_ context.Context, workspaceID int64, limit, offset int32) ([]model.InboundEvent, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	all := make([]model.InboundEvent, 0)
	for _, event := range s.m.events {
		if event.WorkspaceID == workspaceID {
			all = append(all, event)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, limit, offset), nil
}

func (s memoryEvents) ListStaleUnprocessed(_ context.Context, olderThan time.Time, maxAttempts, limit int32) ([]model.InboundEvent, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	stale := make([]model.InboundEvent, 0)
	for _, event := range s.m.events {
		if !event.Processed && event.Attempts < maxAttempts && claimOrCreation(event).Before(olderThan) {
			stale = append(stale, event)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return claimOrCreation(stale[i]).Before(claimOrCreation(stale[j]))
	})
	return page(stale, limit, 0), nil
}

func (s memoryEvents) ClaimForReprocess(_ context.Context, id int64, lease time.Duration) (*model.InboundEvent, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	event, ok := s.m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	if event.Outcome != nil && *event.Outcome == model.OutcomeSent {
		return nil, ErrNotClaimable
	}

	now := s.m.now()
	if event.ClaimedAt != nil && event.ClaimedAt.After(now.Add(-lease)) {
		return nil, ErrNotClaimable
	}

	event.Processed = false
	event.Outcome = nil
	event.ResponseSent = false
	event.ResponseData = nil
	event.ErrorMessage = nil
	event.RuleID = nil
	event.ProcessedAt = nil
	event.ClaimedAt = &now
	event.Attempts++
	s.m.events[id] = event
	return &event, nil
}

func (s memoryEvents) ReleaseClaim(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	event, ok := s.m.events[id]
	if !ok || event.Processed {
		return nil
	}
	event.ClaimedAt = nil
	s.m.events[id] = event
	return nil
}

func claimOrCreation(event model.InboundEvent) time.Time {
	if event.ClaimedAt != nil {
		return *event.ClaimedAt
	}
	return event.CreatedAt
}

func page[T any](items []T, limit, offset int32) []T {
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}

func cloneRule(rule model.AutomationRule) model.AutomationRule {
	rule.TriggerWords = slices.Clone(rule.TriggerWords)
	rule.TriggerPlatforms = slices.Clone(rule.TriggerPlatforms)
	return rule
}
