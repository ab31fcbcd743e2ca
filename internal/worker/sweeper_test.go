package worker_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/queue"
	"retailassist.app/relay/internal/store"
	"retailassist.app/relay/internal/worker"
)

type fakeProducer struct {
	mu       sync.Mutex
	messages []queue.EventMessage
	err      error
}

func (p *fakeProducer) Enqueue(_ context.Context, msg queue.EventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

var _ = Describe("Sweeper", func() {
	var (
		ctx      context.Context
		mem      *store.Memory
		producer *fakeProducer
		sweeper  *worker.Sweeper
	)

	record := func(id int64, createdAt time.Time) {
		mem.SetClock(func() time.Time { return createdAt })
		_, _, err := mem.InboundEvents().Create(ctx, &model.InboundEvent{
			ID:          id,
			WorkspaceID: 1,
			PageID:      "page",
			EventType:   model.EventTypeComment,
			Platform:    model.PlatformFacebook,
			ExternalID:  "c",
		})
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		mem = store.NewMemory()
		producer = &fakeProducer{}
		sweeper = worker.NewSweeper(mem.InboundEvents(), producer, worker.SweeperConfig{
			Interval:   time.Minute,
			StaleAfter: 5 * time.Minute,
		})
	})

	It("enqueues events left unprocessed past the stale age", func() {
		record(1, time.Now().Add(-time.Hour))
		record(2, time.Now())

		n, err := sweeper.SweepOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(producer.messages).To(HaveLen(1))
		Expect(producer.messages[0].EventID).To(Equal(int64(1)))
		Expect(producer.messages[0].Reason).To(Equal(queue.ReasonStale))
	})

	It("enqueues each stale event once", func() {
		record(1, time.Now().Add(-time.Hour))

		_, err := sweeper.SweepOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		n, err := sweeper.SweepOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(0))
		Expect(producer.messages).To(HaveLen(1))
	})

	It("ignores processed events", func() {
		record(1, time.Now().Add(-time.Hour))
		_, err := mem.InboundEvents().MarkProcessed(ctx, 1, model.ProcessingResult{Outcome: model.OutcomeSkipped})
		Expect(err).NotTo(HaveOccurred())

		n, err := sweeper.SweepOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("moves past events that used up their attempts", func() {
		sweeper = worker.NewSweeper(mem.InboundEvents(), producer, worker.SweeperConfig{
			Interval:    time.Minute,
			StaleAfter:  5 * time.Minute,
			BatchSize:   1,
			MaxAttempts: 3,
		})

		// Every worker attempt on event 1 failed before recording an outcome.
		record(1, time.Now().Add(-2*time.Hour))
		for range 3 {
			_, err := mem.InboundEvents().ClaimForReprocess(ctx, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(mem.InboundEvents().ReleaseClaim(ctx, 1)).To(Succeed())
		}
		record(2, time.Now().Add(-time.Hour))

		n, err := sweeper.SweepOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(producer.messages).To(HaveLen(1))
		Expect(producer.messages[0].EventID).To(Equal(int64(2)))
	})

	It("retries an event whose enqueue failed", func() {
		record(1, time.Now().Add(-time.Hour))
		producer.err = errors.New("redis down")

		n, err := sweeper.SweepOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())

		producer.err = nil
		n, err = sweeper.SweepOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})
})
