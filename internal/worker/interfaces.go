package worker

import (
	"context"

	"retailassist.app/relay/internal/queue"
	"retailassist.app/relay/internal/service"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// EventReprocessor reruns the automation pipeline for a stored event.
type EventReprocessor interface {
	Reprocess(ctx context.Context, eventID int64) (*service.EventResult, error)
}
