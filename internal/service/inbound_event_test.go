package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"retailassist.app/relay/common/logger"
	"retailassist.app/relay/internal/meta"
	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/queue"
	"retailassist.app/relay/internal/service"
	"retailassist.app/relay/internal/store"
)

var _ = Describe("InboundEventService", func() {
	var (
		ctx        context.Context
		mem        *store.Memory
		generator  *fakeGenerator
		sender     *meta.MockSender
		automation service.AutomationService
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem = store.NewMemory()
		mem.AddWorkspace(model.Workspace{ID: workspaceID, Name: "Acme", MetaPageID: logger.Ptr(pageID)})
		mem.AddAgent(model.Agent{ID: agentID, WorkspaceID: workspaceID, Name: "Support"})
		mem.AddRule(model.AutomationRule{
			ID:              ruleID,
			WorkspaceID:     workspaceID,
			AgentID:         agentID,
			Name:            "Comments",
			Enabled:         true,
			TriggerType:     model.TriggerTypeAny,
			SendPublicReply: true,
		})
		generator = &fakeGenerator{err: errors.New("provider down")}
		sender = meta.NewMockSender()
		automation = service.NewAutomationService(mem, generator, sender, service.AutomationConfig{DedupeDeliveries: true})
	})

	failedEvent := func() int64 {
		result, err := automation.ProcessEntry(ctx, commentEntry(pageID, "c1", "555", "hi"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Events[0].Outcome).To(Equal(model.OutcomeFailed))
		return result.Events[0].EventID
	}

	Describe("List", func() {
		It("pages a workspace's events newest first", func() {
			svc := service.NewInboundEventService(mem.Workspaces(), mem.InboundEvents(), automation, nil)
			first := failedEvent()
			_, err := automation.ProcessEntry(ctx, commentEntry(pageID, "c2", "555", "again"))
			Expect(err).NotTo(HaveOccurred())

			events, err := svc.List(ctx, workspaceID, 0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(2))

			events, err = svc.List(ctx, workspaceID, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].ID).To(Equal(first))
		})

		It("reports an unknown workspace", func() {
			svc := service.NewInboundEventService(mem.Workspaces(), mem.InboundEvents(), automation, nil)
			_, err := svc.List(ctx, 99, 10, 0)
			Expect(err).To(MatchError(service.ErrWorkspaceNotFound))
		})
	})

	Describe("RequestReprocess", func() {
		It("reprocesses inline without a queue", func() {
			svc := service.NewInboundEventService(mem.Workspaces(), mem.InboundEvents(), automation, nil)
			eventID := failedEvent()

			generator.err = nil
			generator.reply = "Here you go"
			res, err := svc.RequestReprocess(ctx, eventID, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Enqueued).To(BeFalse())
			Expect(res.Result.Outcome).To(Equal(model.OutcomeSent))
		})

		It("enqueues when a queue is configured", func() {
			producer := &fakeProducer{}
			svc := service.NewInboundEventService(mem.Workspaces(), mem.InboundEvents(), automation, producer)
			eventID := failedEvent()

			traceID := "abc123"
			res, err := svc.RequestReprocess(ctx, eventID, &traceID)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Enqueued).To(BeTrue())
			Expect(producer.messages).To(HaveLen(1))
			Expect(producer.messages[0].EventID).To(Equal(eventID))
			Expect(producer.messages[0].Reason).To(Equal(queue.ReasonManual))
			Expect(*producer.messages[0].TraceID).To(Equal("abc123"))
			Expect(sender.Calls()).To(BeEmpty())
		})

		It("refuses events that were already sent", func() {
			generator.err = nil
			generator.reply = "hello"
			result, err := automation.ProcessEntry(ctx, commentEntry(pageID, "c9", "555", "hi"))
			Expect(err).NotTo(HaveOccurred())

			producer := &fakeProducer{}
			svc := service.NewInboundEventService(mem.Workspaces(), mem.InboundEvents(), automation, producer)
			_, err = svc.RequestReprocess(ctx, result.Events[0].EventID, nil)
			Expect(err).To(MatchError(service.ErrAlreadyProcessed))
			Expect(producer.messages).To(BeEmpty())
		})

		It("reports unknown events", func() {
			svc := service.NewInboundEventService(mem.Workspaces(), mem.InboundEvents(), automation, nil)
			_, err := svc.RequestReprocess(ctx, 404, nil)
			Expect(err).To(MatchError(service.ErrEventNotFound))
		})
	})
})
