package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"retailassist.app/relay/core/db/sqlc"
	"retailassist.app/relay/internal/model"
)

type automationRuleStore struct {
	queries *sqlc.Queries
}

func newAutomationRuleStore(queries *sqlc.Queries) AutomationRuleStore {
	return &automationRuleStore{queries: queries}
}

func (s *automationRuleStore) GetByID(ctx context.Context, id int64) (*model.AutomationRule, error) {
	row, err := s.queries.GetAutomationRule(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toAutomationRuleModel(row), nil
}

func (s *automationRuleStore) ListEnabledByWorkspace(ctx context.Context, workspaceID int64) ([]model.AutomationRule, error) {
	rows, err := s.queries.ListEnabledAutomationRules(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return toAutomationRuleModels(rows), nil
}

func (s *automationRuleStore) ListByWorkspace(ctx context.Context, workspaceID int64) ([]model.AutomationRule, error) {
	rows, err := s.queries.ListAutomationRules(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return toAutomationRuleModels(rows), nil
}

func (s *automationRuleStore) Create(ctx context.Context, rule *model.AutomationRule) error {
	row, err := s.queries.CreateAutomationRule(ctx, sqlc.CreateAutomationRuleParams{
		ID:                   rule.ID,
		WorkspaceID:          rule.WorkspaceID,
		AgentID:              rule.AgentID,
		Name:                 rule.Name,
		Enabled:              rule.Enabled,
		TriggerType:          string(rule.TriggerType),
		TriggerWords:         nonNil(rule.TriggerWords),
		TriggerPlatforms:     platformsToStrings(rule.TriggerPlatforms),
		SendPublicReply:      rule.SendPublicReply,
		PublicReplyTemplate:  rule.PublicReplyTemplate,
		SendPrivateReply:     rule.SendPrivateReply,
		PrivateReplyTemplate: rule.PrivateReplyTemplate,
		AutoSkipReplies:      rule.AutoSkipReplies,
	})
	if err != nil {
		return err
	}
	*rule = *toAutomationRuleModel(row)
	return nil
}

func (s *automationRuleStore) Update(ctx context.Context, rule *model.AutomationRule) error {
	row, err := s.queries.UpdateAutomationRule(ctx, sqlc.UpdateAutomationRuleParams{
		ID:                   rule.ID,
		AgentID:              rule.AgentID,
		Name:                 rule.Name,
		Enabled:              rule.Enabled,
		TriggerType:          string(rule.TriggerType),
		TriggerWords:         nonNil(rule.TriggerWords),
		TriggerPlatforms:     platformsToStrings(rule.TriggerPlatforms),
		SendPublicReply:      rule.SendPublicReply,
		PublicReplyTemplate:  rule.PublicReplyTemplate,
		SendPrivateReply:     rule.SendPrivateReply,
		PrivateReplyTemplate: rule.PrivateReplyTemplate,
		AutoSkipReplies:      rule.AutoSkipReplies,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	*rule = *toAutomationRuleModel(row)
	return nil
}

func (s *automationRuleStore) Delete(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteAutomationRule(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toAutomationRuleModels(rows []sqlc.AutomationRule) []model.AutomationRule {
	result := make([]model.AutomationRule, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toAutomationRuleModel(row))
	}
	return result
}

func toAutomationRuleModel(row sqlc.AutomationRule) *model.AutomationRule {
	platforms := make([]model.Platform, 0, len(row.TriggerPlatforms))
	for _, p := range row.TriggerPlatforms {
		platforms = append(platforms, model.Platform(p))
	}

	return &model.AutomationRule{
		ID:                   row.ID,
		WorkspaceID:          row.WorkspaceID,
		AgentID:              row.AgentID,
		Name:                 row.Name,
		Enabled:              row.Enabled,
		TriggerType:          model.TriggerType(row.TriggerType),
		TriggerWords:         nonNil(row.TriggerWords),
		TriggerPlatforms:     platforms,
		SendPublicReply:      row.SendPublicReply,
		PublicReplyTemplate:  row.PublicReplyTemplate,
		SendPrivateReply:     row.SendPrivateReply,
		PrivateReplyTemplate: row.PrivateReplyTemplate,
		AutoSkipReplies:      row.AutoSkipReplies,
		CreatedAt:            row.CreatedAt.Time,
		UpdatedAt:            row.UpdatedAt.Time,
	}
}

func platformsToStrings(platforms []model.Platform) []string {
	result := make([]string, 0, len(platforms))
	for _, p := range platforms {
		result = append(result, string(p))
	}
	return result
}

// text[] columns are NOT NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
