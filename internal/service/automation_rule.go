package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retailassist.app/relay/common/id"
	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/store"
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrRuleNotFound      = errors.New("automation rule not found")
	ErrInvalidRule       = errors.New("invalid automation rule")
)

type AutomationRuleInput struct {
	AgentID              int64
	Name                 string
	Enabled              *bool
	TriggerType          model.TriggerType
	TriggerWords         []string
	TriggerPlatforms     []model.Platform
	SendPublicReply      bool
	PublicReplyTemplate  *string
	SendPrivateReply     bool
	PrivateReplyTemplate *string
	AutoSkipReplies      *bool
}

// AutomationRulePatch updates only the non-nil fields.
type AutomationRulePatch struct {
	AgentID              *int64
	Name                 *string
	Enabled              *bool
	TriggerType          *model.TriggerType
	TriggerWords         *[]string
	TriggerPlatforms     *[]model.Platform
	SendPublicReply      *bool
	PublicReplyTemplate  *string
	SendPrivateReply     *bool
	PrivateReplyTemplate *string
	AutoSkipReplies      *bool
}

type AutomationRuleService interface {
	List(ctx context.Context, workspaceID int64) ([]model.AutomationRule, error)
	Create(ctx context.Context, workspaceID int64, input AutomationRuleInput) (*model.AutomationRule, error)
	Update(ctx context.Context, ruleID int64, patch AutomationRulePatch) (*model.AutomationRule, error)
	Delete(ctx context.Context, ruleID int64) error
}

type automationRuleService struct {
	workspaces store.WorkspaceStore
	agents     store.AgentStore
	rules      store.AutomationRuleStore
}

func NewAutomationRuleService(workspaces store.WorkspaceStore, agents store.AgentStore, rules store.AutomationRuleStore) AutomationRuleService {
	return &automationRuleService{
		workspaces: workspaces,
		agents:     agents,
		rules:      rules,
	}
}

func (s *automationRuleService) List(ctx context.Context, workspaceID int64) ([]model.AutomationRule, error) {
	if err := s.ensureWorkspace(ctx, workspaceID); err != nil {
		return nil, err
	}
	rules, err := s.rules.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	return rules, nil
}

func (s *automationRuleService) Create(ctx context.Context, workspaceID int64, input AutomationRuleInput) (*model.AutomationRule, error) {
	if err := s.ensureWorkspace(ctx, workspaceID); err != nil {
		return nil, err
	}

	rule := &model.AutomationRule{
		ID:                   id.New(),
		WorkspaceID:          workspaceID,
		AgentID:              input.AgentID,
		Name:                 strings.TrimSpace(input.Name),
		Enabled:              input.Enabled == nil || *input.Enabled,
		TriggerType:          input.TriggerType,
		TriggerWords:         normalizeWords(input.TriggerWords),
		TriggerPlatforms:     input.TriggerPlatforms,
		SendPublicReply:      input.SendPublicReply,
		PublicReplyTemplate:  input.PublicReplyTemplate,
		SendPrivateReply:     input.SendPrivateReply,
		PrivateReplyTemplate: input.PrivateReplyTemplate,
		AutoSkipReplies:      input.AutoSkipReplies == nil || *input.AutoSkipReplies,
	}
	if rule.TriggerType == "" {
		rule.TriggerType = model.TriggerTypeAny
	}

	if err := s.validate(ctx, rule); err != nil {
		return nil, err
	}

	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("creating rule: %w", err)
	}
	return rule, nil
}

func (s *automationRuleService) Update(ctx context.Context, ruleID int64, patch AutomationRulePatch) (*model.AutomationRule, error) {
	rule, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("loading rule: %w", err)
	}

	if patch.AgentID != nil {
		rule.AgentID = *patch.AgentID
	}
	if patch.Name != nil {
		rule.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Enabled != nil {
		rule.Enabled = *patch.Enabled
	}
	if patch.TriggerType != nil {
		rule.TriggerType = *patch.TriggerType
	}
	if patch.TriggerWords != nil {
		rule.TriggerWords = normalizeWords(*patch.TriggerWords)
	}
	if patch.TriggerPlatforms != nil {
		rule.TriggerPlatforms = *patch.TriggerPlatforms
	}
	if patch.SendPublicReply != nil {
		rule.SendPublicReply = *patch.SendPublicReply
	}
	if patch.PublicReplyTemplate != nil {
		rule.PublicReplyTemplate = patch.PublicReplyTemplate
	}
	if patch.SendPrivateReply != nil {
		rule.SendPrivateReply = *patch.SendPrivateReply
	}
	if patch.PrivateReplyTemplate != nil {
		rule.PrivateReplyTemplate = patch.PrivateReplyTemplate
	}
	if patch.AutoSkipReplies != nil {
		rule.AutoSkipReplies = *patch.AutoSkipReplies
	}

	if err := s.validate(ctx, rule); err != nil {
		return nil, err
	}

	if err := s.rules.Update(ctx, rule); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("updating rule: %w", err)
	}
	return rule, nil
}

func (s *automationRuleService) Delete(ctx context.Context, ruleID int64) error {
	if err := s.rules.Delete(ctx, ruleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRuleNotFound
		}
		return fmt.Errorf("deleting rule: %w", err)
	}
	return nil
}

func (s *automationRuleService) ensureWorkspace(ctx context.Context, workspaceID int64) error {
	if _, err := s.workspaces.GetByID(ctx, workspaceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrWorkspaceNotFound
		}
		return fmt.Errorf("loading workspace: %w", err)
	}
	return nil
}

func (s *automationRuleService) validate(ctx context.Context, rule *model.AutomationRule) error {
	if rule.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if !rule.TriggerType.Valid() {
		return fmt.Errorf("%w: unknown trigger_type %q", ErrInvalidRule, rule.TriggerType)
	}
	for _, p := range rule.TriggerPlatforms {
		if !p.Valid() {
			return fmt.Errorf("%w: unknown platform %q", ErrInvalidRule, p)
		}
	}

	agent, err := s.agents.GetByID(ctx, rule.AgentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: agent %d not found", ErrInvalidRule, rule.AgentID)
		}
		return fmt.Errorf("loading agent: %w", err)
	}
	if agent.WorkspaceID != rule.WorkspaceID {
		return fmt.Errorf("%w: agent %d belongs to another workspace", ErrInvalidRule, rule.AgentID)
	}
	return nil
}

func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
