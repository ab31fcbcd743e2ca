package worker_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/queue"
	"retailassist.app/relay/internal/service"
	"retailassist.app/relay/internal/worker"
)

type fakeConsumer struct {
	mu       sync.Mutex
	acked    []queue.Message
	requeued []queue.Message
	dlq      []queue.Message
	batches  [][]queue.Message
	onEmpty  func()
}

func (f *fakeConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		if f.onEmpty != nil {
			f.onEmpty()
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeConsumer) Ack(_ context.Context, msg queue.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, msg)
	return nil
}

func (f *fakeConsumer) Requeue(_ context.Context, msg queue.Message, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requeued = append(f.requeued, msg)
	return nil
}

func (f *fakeConsumer) SendDLQ(_ context.Context, msg queue.Message, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dlq = append(f.dlq, msg)
	return nil
}

type fakeReprocessor struct {
	reprocessFn func(ctx context.Context, eventID int64) (*service.EventResult, error)
}

func (f *fakeReprocessor) Reprocess(ctx context.Context, eventID int64) (*service.EventResult, error) {
	return f.reprocessFn(ctx, eventID)
}

var _ = Describe("Worker", func() {
	var (
		ctx         context.Context
		consumer    *fakeConsumer
		reprocessor *fakeReprocessor
		w           *worker.Worker
	)

	msg := func(attempt int) queue.Message {
		return queue.Message{ID: "1-0", EventID: 42, Attempt: attempt, Reason: queue.ReasonManual}
	}

	respond := func(result *service.EventResult, err error) {
		reprocessor.reprocessFn = func(context.Context, int64) (*service.EventResult, error) {
			return result, err
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		consumer = &fakeConsumer{}
		reprocessor = &fakeReprocessor{}
		w = worker.New(consumer, reprocessor, worker.Config{MaxAttempts: 3})
	})

	It("acks a message once the event is sent", func() {
		respond(&service.EventResult{EventID: 42, Outcome: model.OutcomeSent}, nil)

		Expect(w.HandleMessage(ctx, msg(1))).To(Succeed())
		Expect(consumer.acked).To(HaveLen(1))
		Expect(consumer.requeued).To(BeEmpty())
	})

	It("acks a skipped outcome", func() {
		respond(&service.EventResult{EventID: 42, Outcome: model.OutcomeSkipped, Reason: service.ReasonNoAutomation}, nil)

		Expect(w.HandleMessage(ctx, msg(1))).To(Succeed())
		Expect(consumer.acked).To(HaveLen(1))
	})

	DescribeTable("acks events that need no more work",
		func(err error) {
			respond(nil, err)
			Expect(w.HandleMessage(ctx, msg(1))).To(Succeed())
			Expect(consumer.acked).To(HaveLen(1))
		},
		Entry("already answered", service.ErrAlreadyProcessed),
		Entry("missing", service.ErrEventNotFound),
	)

	It("requeues a failed outcome while attempts remain", func() {
		respond(&service.EventResult{EventID: 42, Outcome: model.OutcomeFailed, Reason: "sending dm: rate limited"}, nil)

		err := w.HandleMessage(ctx, msg(1))
		Expect(err).To(MatchError(ContainSubstring("rate limited")))
		Expect(consumer.requeued).To(HaveLen(1))
		Expect(consumer.acked).To(BeEmpty())
		Expect(consumer.dlq).To(BeEmpty())
	})

	It("dead-letters once attempts are exhausted", func() {
		respond(nil, errors.New("db down"))

		Expect(w.HandleMessage(ctx, msg(3))).To(HaveOccurred())
		Expect(consumer.dlq).To(HaveLen(1))
		Expect(consumer.requeued).To(BeEmpty())
	})

	It("recovers from a panic and requeues", func() {
		reprocessor.reprocessFn = func(context.Context, int64) (*service.EventResult, error) {
			panic("boom")
		}

		Expect(w.HandleMessage(ctx, msg(1))).To(MatchError(ContainSubstring("panic")))
		Expect(consumer.requeued).To(HaveLen(1))
	})

	It("drains batches until the context ends", func() {
		respond(&service.EventResult{EventID: 42, Outcome: model.OutcomeSent}, nil)
		runCtx, cancel := context.WithCancel(ctx)
		consumer.batches = [][]queue.Message{{msg(1), msg(1)}}
		consumer.onEmpty = cancel

		err := w.Run(runCtx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(consumer.acked).To(HaveLen(2))
	})
})
