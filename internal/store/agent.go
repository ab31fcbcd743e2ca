package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"retailassist.app/relay/core/db/sqlc"
	"retailassist.app/relay/internal/model"
)

type agentStore struct {
	queries *sqlc.Queries
}

func newAgentStore(queries *sqlc.Queries) AgentStore {
	return &agentStore{queries: queries}
}

func (s *agentStore) GetByID(ctx context.Context, id int64) (*model.Agent, error) {
	row, err := s.queries.GetAgent(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toAgentModel(row), nil
}

func toAgentModel(row sqlc.Agent) *model.Agent {
	var maxTokens *int
	if row.MaxTokens != nil {
		v := int(*row.MaxTokens)
		maxTokens = &v
	}

	return &model.Agent{
		ID:           row.ID,
		WorkspaceID:  row.WorkspaceID,
		Name:         row.Name,
		SystemPrompt: row.SystemPrompt,
		Model:        row.Model,
		Temperature:  row.Temperature,
		MaxTokens:    maxTokens,
		Greeting:     row.Greeting,
		Fallback:     row.Fallback,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		IsDeleted:    row.IsDeleted,
	}
}
