package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"retailassist.app/relay/core/db/sqlc"
	"retailassist.app/relay/internal/model"
)

type inboundEventStore struct {
	queries *sqlc.Queries
}

func newInboundEventStore(queries *sqlc.Queries) InboundEventStore {
	return &inboundEventStore{queries: queries}
}

func (s *inboundEventStore) Create(ctx context.Context, event *model.InboundEvent) (*model.InboundEvent, bool, error) {
	row, err := s.queries.CreateOrGetInboundEvent(ctx, sqlc.CreateOrGetInboundEventParams{
		ID:          event.ID,
		WorkspaceID: event.WorkspaceID,
		PageID:      event.PageID,
		EventType:   string(event.EventType),
		Platform:    string(event.Platform),
		ExternalID:  event.ExternalID,
		DedupeKey:   event.DedupeKey,
		RawPayload:  []byte(event.RawPayload),
	})
	if err != nil {
		return nil, false, err
	}
	created := row.ID == event.ID
	return toInboundEventModel(row), created, nil
}

func (s *inboundEventStore) GetByID(ctx context.Context, id int64) (*model.InboundEvent, error) {
	row, err := s.queries.GetInboundEvent(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toInboundEventModel(row), nil
}

func (s *inboundEventStore) MarkProcessed(ctx context.Context, id int64, result model.ProcessingResult) (*model.InboundEvent, error) {
	var responseData []byte
	if result.ResponseData != nil {
		data, err := json.Marshal(result.ResponseData)
		if err != nil {
			return nil, fmt.Errorf("marshal response data: %w", err)
		}
		responseData = data
	}

	outcome := string(result.Outcome)
	row, err := s.queries.MarkInboundEventProcessed(ctx, sqlc.MarkInboundEventProcessedParams{
		ID:           id,
		Outcome:      &outcome,
		ResponseSent: result.ResponseSent(),
		ResponseData: responseData,
		ErrorMessage: result.ErrorMessage,
		RuleID:       result.RuleID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toInboundEventModel(row), nil
}

func (s *inboundEventStore) ListByWorkspace(ctx context.Context, workspaceID int64, limit, offset int32) ([]model.InboundEvent, error) {
	rows, err := s.queries.ListInboundEventsByWorkspace(ctx, sqlc.ListInboundEventsByWorkspaceParams{
		WorkspaceID: workspaceID,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, err
	}
	return toInboundEventModels(rows), nil
}

func (s *inboundEventStore) ListStaleUnprocessed(ctx context.Context, olderThan time.Time, maxAttempts, limit int32) ([]model.InboundEvent, error) {
	rows, err := s.queries.ListStaleInboundEvents(ctx, sqlc.ListStaleInboundEventsParams{
		MaxAttempts: maxAttempts,
		OlderThan:   pgtype.Timestamptz{Time: olderThan, Valid: true},
		RowLimit:    limit,
	})
	if err != nil {
		return nil, err
	}
	return toInboundEventModels(rows), nil
}

func (s *inboundEventStore) ClaimForReprocess(ctx context.Context, id int64, lease time.Duration) (*model.InboundEvent, error) {
	row, err := s.queries.ClaimInboundEvent(ctx, sqlc.ClaimInboundEventParams{
		ID:           id,
		LeaseSeconds: lease.Seconds(),
	})
	if err == nil {
		return toInboundEventModel(row), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No row: either the event does not exist or the claim was lost.
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrNotClaimable
}

func (s *inboundEventStore) ReleaseClaim(ctx context.Context, id int64) error {
	return s.queries.ReleaseInboundEventClaim(ctx, id)
}

func toInboundEventModels(rows []sqlc.InboundEvent) []model.InboundEvent {
	result := make([]model.InboundEvent, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toInboundEventModel(row))
	}
	return result
}

func toInboundEventModel(row sqlc.InboundEvent) *model.InboundEvent {
	var processedAt *time.Time
	if row.ProcessedAt.Valid {
		t := row.ProcessedAt.Time
		processedAt = &t
	}

	var claimedAt *time.Time
	if row.ClaimedAt.Valid {
		t := row.ClaimedAt.Time
		claimedAt = &t
	}

	var outcome *model.Outcome
	if row.Outcome != nil {
		o := model.Outcome(*row.Outcome)
		outcome = &o
	}

	var responseData *model.ResponseData
	if len(row.ResponseData) > 0 {
		var rd model.ResponseData
		if err := json.Unmarshal(row.ResponseData, &rd); err == nil {
			responseData = &rd
		}
	}

	return &model.InboundEvent{
		ID:           row.ID,
		WorkspaceID:  row.WorkspaceID,
		PageID:       row.PageID,
		EventType:    model.EventType(row.EventType),
		Platform:     model.Platform(row.Platform),
		ExternalID:   row.ExternalID,
		DedupeKey:    row.DedupeKey,
		RawPayload:   json.RawMessage(row.RawPayload),
		Processed:    row.Processed,
		Outcome:      outcome,
		ResponseSent: row.ResponseSent,
		ResponseData: responseData,
		ErrorMessage: row.ErrorMessage,
		RuleID:       row.RuleID,
		CreatedAt:    row.CreatedAt.Time,
		ProcessedAt:  processedAt,
		ClaimedAt:    claimedAt,
		Attempts:     row.Attempts,
	}
}
