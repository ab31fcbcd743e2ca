package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"retailassist.app/relay/common/logger"
	"retailassist.app/relay/internal/queue"
	"retailassist.app/relay/internal/store"
)

// SweeperConfig.MaxAttempts stops sweeping events whose reprocess claims
// reached it, i.e. events the worker already dead-lettered.
type SweeperConfig struct {
	Interval    time.Duration
	StaleAfter  time.Duration
	BatchSize   int32
	MaxAttempts int32
}

// Sweeper finds events recorded but never marked processed (the process died
// mid-pipeline) and puts them on the reprocessing stream, once each.
type Sweeper struct {
	events   store.InboundEventStore
	producer queue.Producer
	cfg      SweeperConfig
	now      func() time.Time

	// only touched from the Run goroutine
	enqueued map[int64]struct{}

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewSweeper(events store.InboundEventStore, producer queue.Producer, cfg SweeperConfig) *Sweeper {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Sweeper{
		events:    events,
		producer:  producer,
		cfg:       cfg,
		now:       time.Now,
		enqueued:  make(map[int64]struct{}),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "relay.worker.sweeper"})
	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "sweeper started", "interval", s.cfg.Interval, "stale_after", s.cfg.StaleAfter)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			slog.InfoContext(ctx, "sweeper stopping")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "sweep cycle error", "error", err)
			}
		}
	}
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

// SweepOnce enqueues stale events not already enqueued by this sweeper and
// returns how many were enqueued.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	stale, err := s.events.ListStaleUnprocessed(ctx, s.now().Add(-s.cfg.StaleAfter), s.cfg.MaxAttempts, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("listing stale events: %w", err)
	}

	current := make(map[int64]struct{}, len(stale))
	count := 0
	for _, event := range stale {
		current[event.ID] = struct{}{}
		if _, done := s.enqueued[event.ID]; done {
			continue
		}

		if err := s.producer.Enqueue(ctx, queue.EventMessage{
			EventID:     event.ID,
			WorkspaceID: event.WorkspaceID,
			Reason:      queue.ReasonStale,
			Attempt:     1,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to enqueue stale event", "error", err, "event_id", event.ID)
			continue
		}
		s.enqueued[event.ID] = struct{}{}
		count++
	}

	// Forget events that are no longer stale so memory stays bounded.
	for id := range s.enqueued {
		if _, ok := current[id]; !ok {
			delete(s.enqueued, id)
		}
	}

	if count > 0 {
		slog.InfoContext(ctx, "enqueued stale events", "count", count)
	}
	return count, nil
}
