package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Reasons an event is put on the reprocessing stream.
const (
	ReasonManual = "manual"
	ReasonStale  = "stale"
)

type EventMessage struct {
	EventID     int64
	WorkspaceID int64
	Reason      string
	TraceID     *string
	Attempt     int
}

type Producer interface {
	Enqueue(ctx context.Context, msg EventMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg EventMessage) error {
	if msg.EventID == 0 {
		return fmt.Errorf("enqueue event: missing event id")
	}

	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"event_id": msg.EventID,
		"attempt":  attempt,
	}
	if msg.WorkspaceID != 0 {
		fields["workspace_id"] = msg.WorkspaceID
	}
	if msg.Reason != "" {
		fields["reason"] = msg.Reason
	}
	if msg.TraceID != nil && *msg.TraceID != "" {
		fields["trace_id"] = *msg.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued inbound event for reprocessing",
		"event_id", msg.EventID,
		"workspace_id", msg.WorkspaceID,
		"reason", msg.Reason,
		"attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
