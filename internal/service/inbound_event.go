package service

import (
	"context"
	"errors"
	"fmt"

	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/queue"
	"retailassist.app/relay/internal/store"
)

const (
	defaultEventPageSize = 50
	maxEventPageSize     = 200
)

type ReprocessResult struct {
	Enqueued bool
	Result   *EventResult
}

// InboundEventService backs the admin audit log.
type InboundEventService interface {
	List(ctx context.Context, workspaceID int64, limit, offset int32) ([]model.InboundEvent, error)
	Get(ctx context.Context, eventID int64) (*model.InboundEvent, error)
	// RequestReprocess enqueues the event when a queue is configured and
	// reprocesses it inline otherwise.
	RequestReprocess(ctx context.Context, eventID int64, traceID *string) (*ReprocessResult, error)
}

type inboundEventService struct {
	workspaces store.WorkspaceStore
	events     store.InboundEventStore
	automation AutomationService
	producer   queue.Producer
}

// NewInboundEventService accepts a nil producer.
func NewInboundEventService(workspaces store.WorkspaceStore, events store.InboundEventStore, automation AutomationService, producer queue.Producer) InboundEventService {
	return &inboundEventService{
		workspaces: workspaces,
		events:     events,
		automation: automation,
		producer:   producer,
	}
}

func (s *inboundEventService) List(ctx context.Context, workspaceID int64, limit, offset int32) ([]model.InboundEvent, error) {
	if _, err := s.workspaces.GetByID(ctx, workspaceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("loading workspace: %w", err)
	}

	if limit <= 0 {
		limit = defaultEventPageSize
	}
	if limit > maxEventPageSize {
		limit = maxEventPageSize
	}
	if offset < 0 {
		offset = 0
	}

	events, err := s.events.ListByWorkspace(ctx, workspaceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

func (s *inboundEventService) Get(ctx context.Context, eventID int64) (*model.InboundEvent, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("loading event: %w", err)
	}
	return event, nil
}

func (s *inboundEventService) RequestReprocess(ctx context.Context, eventID int64, traceID *string) (*ReprocessResult, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Outcome != nil && *event.Outcome == model.OutcomeSent {
		return nil, ErrAlreadyProcessed
	}

	if s.producer != nil {
		if err := s.producer.Enqueue(ctx, queue.EventMessage{
			EventID:     event.ID,
			WorkspaceID: event.WorkspaceID,
			Reason:      queue.ReasonManual,
			TraceID:     traceID,
			Attempt:     1,
		}); err != nil {
			return nil, fmt.Errorf("enqueueing event: %w", err)
		}
		return &ReprocessResult{Enqueued: true}, nil
	}

	result, err := s.automation.Reprocess(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &ReprocessResult{Result: result}, nil
}
