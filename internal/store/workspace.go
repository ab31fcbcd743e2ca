package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"retailassist.app/relay/core/db/sqlc"
	"retailassist.app/relay/internal/model"
)

type workspaceStore struct {
	queries *sqlc.Queries
}

func newWorkspaceStore(queries *sqlc.Queries) WorkspaceStore {
	return &workspaceStore{queries: queries}
}

func (s *workspaceStore) GetByID(ctx context.Context, id int64) (*model.Workspace, error) {
	row, err := s.queries.GetWorkspace(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toWorkspaceModel(row), nil
}

func (s *workspaceStore) GetByPageID(ctx context.Context, pageID string) (*model.Workspace, error) {
	if pageID == "" {
		return nil, ErrNotFound
	}
	row, err := s.queries.GetWorkspaceByPageID(ctx, &pageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toWorkspaceModel(row), nil
}

func toWorkspaceModel(row sqlc.Workspace) *model.Workspace {
	return &model.Workspace{
		ID:              row.ID,
		Name:            row.Name,
		MetaPageID:      row.MetaPageID,
		ChannelPlatform: model.Platform(row.ChannelPlatform),
		PageAccessToken: row.PageAccessToken,
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
		IsDeleted:       row.IsDeleted,
	}
}
