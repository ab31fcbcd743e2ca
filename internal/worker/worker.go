package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"retailassist.app/relay/common/logger"
	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/queue"
	"retailassist.app/relay/internal/service"
)

type Config struct {
	MaxAttempts int
}

// Worker drains the reprocessing stream. Each message names one inbound
// event; a failed outcome is retried until MaxAttempts, then dead-lettered.
type Worker struct {
	consumer    Consumer
	reprocessor EventReprocessor
	cfg         Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, reprocessor EventReprocessor, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Worker{
		consumer:    consumer,
		reprocessor: reprocessor,
		cfg:         cfg,
		stopCh:      make(chan struct{}),
		stoppedCh:   make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "relay.worker"})
	slog.InfoContext(ctx, "worker started", "max_attempts", w.cfg.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		_ = w.HandleMessage(ctx, msg)
	}
	return nil
}

// HandleMessage processes one message and settles it: ack, requeue or DLQ.
// The returned error is the processing failure, already handled.
func (w *Worker) HandleMessage(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:     &msg.EventID,
		WorkspaceID: msg.WorkspaceID,
		MessageID:   &msg.ID,
	})

	if err := w.processMessageSafe(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "message processing failed",
			"error", err,
			"attempt", msg.Attempt)
		w.handleFailedMessage(ctx, msg, err)
		return err
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Left pending; the reclaimer picks it up and the event is then already settled.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}
	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage reprocesses the event named by msg. Events that are already
// answered or gone are not errors.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.reprocess_event")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.Int64("event_id", msg.EventID),
		attribute.Int("attempt", msg.Attempt),
		attribute.String("reason", msg.Reason),
	)

	slog.InfoContext(ctx, "processing message",
		"attempt", msg.Attempt,
		"reason", msg.Reason)

	result, err := w.reprocessor.Reprocess(ctx, msg.EventID)
	switch {
	case errors.Is(err, service.ErrAlreadyProcessed):
		slog.InfoContext(ctx, "event already answered, skipping")
		return nil
	case errors.Is(err, service.ErrEventNotFound):
		slog.WarnContext(ctx, "event not found, dropping message")
		return nil
	case err != nil:
		sc.RecordError(err)
		return fmt.Errorf("reprocessing event %d: %w", msg.EventID, err)
	}

	if result.Outcome == model.OutcomeFailed {
		err := fmt.Errorf("event %d failed: %s", msg.EventID, result.Reason)
		sc.RecordError(err)
		return err
	}

	slog.InfoContext(ctx, "event reprocessed",
		"outcome", result.Outcome,
		"reason", result.Reason)
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ", "attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message", "attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
