package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"retailassist.app/relay/common/logger"
	"retailassist.app/relay/internal/meta"
	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/responder"
	"retailassist.app/relay/internal/service"
	"retailassist.app/relay/internal/store"
)

const (
	pageID      = "100000000000001"
	workspaceID = int64(1)
	agentID     = int64(10)
	ruleID      = int64(20)
)

var _ = Describe("AutomationService", func() {
	var (
		ctx       context.Context
		mem       *store.Memory
		generator *fakeGenerator
		sender    *meta.MockSender
		cfg       service.AutomationConfig
		rule      model.AutomationRule
		svc       service.AutomationService
	)

	build := func() {
		svc = service.NewAutomationService(mem, generator, sender, cfg)
	}

	event := func(id int64) *model.InboundEvent {
		ev, err := mem.InboundEvents().GetByID(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		return ev
	}

	processOne := func(raw []byte) service.EventResult {
		result, err := svc.ProcessEntry(ctx, raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Events).To(HaveLen(1))
		return result.Events[0]
	}

	BeforeEach(func() {
		ctx = context.Background()
		mem = store.NewMemory()
		mem.AddWorkspace(model.Workspace{
			ID:              workspaceID,
			Name:            "Acme",
			MetaPageID:      logger.Ptr(pageID),
			ChannelPlatform: model.PlatformFacebook,
		})
		mem.AddAgent(model.Agent{
			ID:           agentID,
			WorkspaceID:  workspaceID,
			Name:         "Support",
			SystemPrompt: "You are a friendly support agent.",
			Fallback:     logger.Ptr("Thanks! We'll get back to you."),
		})
		rule = model.AutomationRule{
			ID:               ruleID,
			WorkspaceID:      workspaceID,
			AgentID:          agentID,
			Name:             "Everything",
			Enabled:          true,
			TriggerType:      model.TriggerTypeAny,
			SendPublicReply:  true,
			SendPrivateReply: true,
			AutoSkipReplies:  true,
		}
		generator = &fakeGenerator{reply: "Thanks for asking!"}
		sender = meta.NewMockSender()
		cfg = service.AutomationConfig{PageAccessToken: "global-token", DedupeDeliveries: true}
	})

	Describe("ProcessEntry", func() {
		Context("when the page has no workspace", func() {
			It("records nothing and sends nothing", func() {
				mem.AddRule(rule)
				build()

				result, err := svc.ProcessEntry(ctx, commentEntry("999", "c1", "555", "hi"))
				Expect(err).NotTo(HaveOccurred())
				Expect(result.WorkspaceFound).To(BeFalse())
				Expect(result.Events).To(BeEmpty())
				Expect(mem.EventCount()).To(Equal(0))
				Expect(sender.Calls()).To(BeEmpty())
			})
		})

		Context("when a rule replies to comments", func() {
			BeforeEach(func() {
				mem.AddRule(rule)
				build()
			})

			It("replies publicly and records the outcome", func() {
				er := processOne(commentEntry(pageID, "111_222", "555", "How much is this?"))

				Expect(er.Outcome).To(Equal(model.OutcomeSent))
				Expect(er.ResponseID).To(HavePrefix("mock_reply_"))

				calls := sender.Calls()
				Expect(calls).To(HaveLen(1))
				Expect(calls[0].Kind).To(Equal("comment_reply"))
				Expect(calls[0].TargetID).To(Equal("111_222"))
				Expect(calls[0].Text).To(Equal("Thanks for asking!"))
				Expect(calls[0].Token).To(Equal("global-token"))

				stored := event(er.EventID)
				Expect(stored.Processed).To(BeTrue())
				Expect(stored.ResponseSent).To(BeTrue())
				Expect(*stored.Outcome).To(Equal(model.OutcomeSent))
				Expect(stored.ResponseData.Type).To(Equal(model.ResponseTypeCommentReply))
				Expect(stored.ResponseData.ProviderID).To(Equal(er.ResponseID))
				Expect(*stored.RuleID).To(Equal(ruleID))
				Expect(stored.ProcessedAt).NotTo(BeNil())
				Expect(*stored.DedupeKey).To(Equal("facebook:comment:111_222"))
			})

			It("builds the prompt from the agent and the customer text", func() {
				processOne(commentEntry(pageID, "111_222", "555", "How much is this?"))

				prompts := generator.Prompts()
				Expect(prompts).To(HaveLen(1))
				Expect(prompts[0].System).To(ContainSubstring("friendly support agent"))
				Expect(prompts[0].User).To(ContainSubstring("How much is this?"))
			})

			It("answers a direct message privately", func() {
				er := processOne(messageEntry(pageID, "777", "m_1", "Do you ship abroad?"))

				Expect(er.Outcome).To(Equal(model.OutcomeSent))
				Expect(er.ResponseID).To(HavePrefix("mock_msg_"))
				calls := sender.Calls()
				Expect(calls).To(HaveLen(1))
				Expect(calls[0].Kind).To(Equal("dm"))
				Expect(calls[0].TargetID).To(Equal("777"))
				Expect(event(er.EventID).ResponseData.Type).To(Equal(model.ResponseTypeDirectMessage))
			})

			It("uses the workspace token over the global one", func() {
				mem.AddWorkspace(model.Workspace{
					ID:              workspaceID,
					Name:            "Acme",
					MetaPageID:      logger.Ptr(pageID),
					ChannelPlatform: model.PlatformFacebook,
					PageAccessToken: logger.Ptr("ws-token"),
				})

				processOne(commentEntry(pageID, "111_222", "555", "hello"))
				Expect(sender.Calls()[0].Token).To(Equal("ws-token"))
			})

			It("skips comments written by the page itself", func() {
				er := processOne(commentEntry(pageID, "111_333", pageID, "Thanks all!"))

				Expect(er.Outcome).To(Equal(model.OutcomeSkipped))
				Expect(er.Reason).To(Equal(service.ReasonOwnComment))
				Expect(sender.Calls()).To(BeEmpty())
				Expect(*event(er.EventID).RuleID).To(Equal(ruleID))
			})

			It("ignores events it does not handle without recording them", func() {
				result, err := svc.ProcessEntry(ctx, readReceiptEntry(pageID))
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Events).To(HaveLen(1))
				Expect(result.Events[0].Unhandled).To(BeTrue())
				Expect(mem.EventCount()).To(Equal(0))
			})

			It("fails on an entry without a page id", func() {
				_, err := svc.ProcessEntry(ctx, []byte(`{"time": 1}`))
				Expect(err).To(HaveOccurred())
				Expect(mem.EventCount()).To(Equal(0))
			})
		})

		Context("with dedupe enabled", func() {
			It("records and answers a redelivered comment once", func() {
				mem.AddRule(rule)
				build()

				first := processOne(commentEntry(pageID, "111_222", "555", "hi"))
				second := processOne(commentEntry(pageID, "111_222", "555", "hi"))

				Expect(first.Duplicate).To(BeFalse())
				Expect(second.Duplicate).To(BeTrue())
				Expect(second.EventID).To(Equal(first.EventID))
				Expect(second.Outcome).To(Equal(model.OutcomeSent))
				Expect(mem.EventCount()).To(Equal(1))
				Expect(sender.Calls()).To(HaveLen(1))
			})
		})

		Context("with dedupe disabled", func() {
			It("records and answers every delivery", func() {
				cfg.DedupeDeliveries = false
				mem.AddRule(rule)
				build()

				first := processOne(commentEntry(pageID, "111_222", "555", "hi"))
				second := processOne(commentEntry(pageID, "111_222", "555", "hi"))

				Expect(second.EventID).NotTo(Equal(first.EventID))
				Expect(mem.EventCount()).To(Equal(2))
				Expect(sender.Calls()).To(HaveLen(2))
				Expect(event(first.EventID).DedupeKey).To(BeNil())
			})
		})

		Context("when no reply is produced", func() {
			It("skips when the workspace has no rules", func() {
				build()
				er := processOne(commentEntry(pageID, "c1", "555", "hi"))

				Expect(er.Outcome).To(Equal(model.OutcomeSkipped))
				Expect(er.Reason).To(Equal(service.ReasonNoAutomation))
				stored := event(er.EventID)
				Expect(stored.Processed).To(BeTrue())
				Expect(stored.ResponseSent).To(BeFalse())
				Expect(stored.RuleID).To(BeNil())
				Expect(generator.Prompts()).To(BeEmpty())
			})

			It("skips when no rule matches", func() {
				rule.TriggerWords = []string{"refund"}
				mem.AddRule(rule)
				build()

				er := processOne(commentEntry(pageID, "c1", "555", "love it"))
				Expect(er.Outcome).To(Equal(model.OutcomeSkipped))
				Expect(er.Reason).To(Equal(service.ReasonNoMatchingRule))
			})

			It("skips disabled rules", func() {
				rule.Enabled = false
				mem.AddRule(rule)
				build()

				er := processOne(commentEntry(pageID, "c1", "555", "hi"))
				Expect(er.Reason).To(Equal(service.ReasonNoAutomation))
			})

			It("skips when the rule has public replies off", func() {
				rule.SendPublicReply = false
				mem.AddRule(rule)
				build()

				er := processOne(commentEntry(pageID, "c1", "555", "hi"))
				Expect(er.Outcome).To(Equal(model.OutcomeSkipped))
				Expect(er.Reason).To(Equal(service.ReasonPublicReplyOff))
				Expect(*event(er.EventID).RuleID).To(Equal(ruleID))
			})

			It("skips when the rule has private replies off", func() {
				rule.SendPrivateReply = false
				mem.AddRule(rule)
				build()

				er := processOne(messageEntry(pageID, "777", "m_1", "hi"))
				Expect(er.Reason).To(Equal(service.ReasonPrivateReplyOff))
			})

			It("skips when the rule's agent is gone", func() {
				rule.AgentID = 404
				mem.AddRule(rule)
				build()

				er := processOne(commentEntry(pageID, "c1", "555", "hi"))
				Expect(er.Outcome).To(Equal(model.OutcomeSkipped))
				Expect(er.Reason).To(Equal(service.ReasonAgentNotFound))
			})

			It("skips when the agent belongs to another workspace", func() {
				mem.AddAgent(model.Agent{ID: 11, WorkspaceID: 2, Name: "Other"})
				rule.AgentID = 11
				mem.AddRule(rule)
				build()

				er := processOne(commentEntry(pageID, "c1", "555", "hi"))
				Expect(er.Reason).To(Equal(service.ReasonAgentNotFound))
			})
		})

		Context("when a step fails", func() {
			BeforeEach(func() {
				mem.AddRule(rule)
			})

			It("records a generation failure without sending", func() {
				generator.err = &responder.GenerationError{Provider: "openai", Model: "gpt-4o-mini", Err: errors.New("rate limited")}
				build()

				er := processOne(commentEntry(pageID, "c1", "555", "hi"))
				Expect(er.Outcome).To(Equal(model.OutcomeFailed))
				Expect(er.Reason).To(ContainSubstring("generating reply"))
				Expect(er.Reason).To(ContainSubstring("rate limited"))
				Expect(sender.Calls()).To(BeEmpty())

				stored := event(er.EventID)
				Expect(stored.Processed).To(BeTrue())
				Expect(stored.ResponseSent).To(BeFalse())
				Expect(*stored.RuleID).To(Equal(ruleID))
			})

			It("falls back to the agent's canned reply when generation is empty", func() {
				generator.err = responder.ErrEmptyReply
				build()

				er := processOne(commentEntry(pageID, "c1", "555", "hi"))
				Expect(er.Outcome).To(Equal(model.OutcomeSent))
				Expect(sender.Calls()[0].Text).To(Equal("Thanks! We'll get back to you."))
			})

			It("fails an empty reply when the agent has no fallback", func() {
				mem.AddAgent(model.Agent{ID: agentID, WorkspaceID: workspaceID, Name: "Support"})
				generator.err = responder.ErrEmptyReply
				build()

				er := processOne(commentEntry(pageID, "c1", "555", "hi"))
				Expect(er.Outcome).To(Equal(model.OutcomeFailed))
				Expect(sender.Calls()).To(BeEmpty())
			})

			It("records a send failure", func() {
				sender.Fail = "boom"
				build()

				er := processOne(commentEntry(pageID, "c1", "555", "hi"))
				Expect(er.Outcome).To(Equal(model.OutcomeFailed))
				Expect(er.Reason).To(Equal("sending comment_reply: boom"))

				stored := event(er.EventID)
				Expect(stored.ResponseSent).To(BeFalse())
				Expect(stored.ResponseData).To(BeNil())
			})

			It("records a rule lookup failure", func() {
				svc = service.NewAutomationService(failingRules{Provider: mem, err: errors.New("db down")}, generator, sender, cfg)

				er := processOne(commentEntry(pageID, "c1", "555", "hi"))
				Expect(er.Outcome).To(Equal(model.OutcomeFailed))
				Expect(er.Reason).To(ContainSubstring("db down"))
			})
		})
	})

	Describe("Reprocess", func() {
		BeforeEach(func() {
			mem.AddRule(rule)
			build()
		})

		It("sends a reply for an event that previously failed", func() {
			sender.Fail = "boom"
			er := processOne(commentEntry(pageID, "c1", "555", "hi"))
			Expect(er.Outcome).To(Equal(model.OutcomeFailed))

			sender.Fail = ""
			again, err := svc.Reprocess(ctx, er.EventID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Outcome).To(Equal(model.OutcomeSent))

			stored := event(er.EventID)
			Expect(stored.ResponseSent).To(BeTrue())
			Expect(stored.ErrorMessage).To(BeNil())
			Expect(mem.EventCount()).To(Equal(1))
		})

		It("refuses events that were already sent", func() {
			er := processOne(commentEntry(pageID, "c1", "555", "hi"))

			_, err := svc.Reprocess(ctx, er.EventID)
			Expect(err).To(MatchError(service.ErrAlreadyProcessed))
			Expect(sender.Calls()).To(HaveLen(1))
		})

		It("reports unknown events", func() {
			_, err := svc.Reprocess(ctx, 12345)
			Expect(err).To(MatchError(service.ErrEventNotFound))
		})

		It("records a skip when the workspace is gone", func() {
			generator.err = errors.New("down")
			er := processOne(commentEntry(pageID, "c1", "555", "hi"))

			mem.AddWorkspace(model.Workspace{ID: workspaceID, Name: "Acme", IsDeleted: true})
			again, err := svc.Reprocess(ctx, er.EventID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Outcome).To(Equal(model.OutcomeSkipped))
			Expect(again.Reason).To(Equal(service.ReasonWorkspaceNotFound))
		})

		It("lets only one of two concurrent reprocesses reply", func() {
			sender.Fail = "boom"
			er := processOne(commentEntry(pageID, "c1", "555", "hi"))
			Expect(er.Outcome).To(Equal(model.OutcomeFailed))
			sender.Fail = ""

			generator.mu.Lock()
			generator.gate = make(chan struct{})
			generator.entered = make(chan struct{}, 1)
			generator.mu.Unlock()

			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				_, err := svc.Reprocess(ctx, er.EventID)
				done <- err
			}()
			Eventually(generator.entered).Should(Receive())

			_, err := svc.Reprocess(ctx, er.EventID)
			Expect(err).To(MatchError(service.ErrAlreadyProcessed))

			close(generator.gate)
			Eventually(done).Should(Receive(BeNil()))

			succeeded := 0
			for _, call := range sender.Calls() {
				if call.Succeeded {
					succeeded++
				}
			}
			Expect(succeeded).To(Equal(1))
			Expect(event(er.EventID).ResponseSent).To(BeTrue())
		})

		It("leaves an event alone while the request that recorded it is running", func() {
			created, _, err := mem.InboundEvents().Create(ctx, &model.InboundEvent{
				ID:          556,
				WorkspaceID: workspaceID,
				PageID:      pageID,
				EventType:   model.EventTypeComment,
				Platform:    model.PlatformFacebook,
				ExternalID:  "c_live",
				RawPayload:  []byte(`{"item":"comment","verb":"add","comment_id":"c_live","message":"hi"}`),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Reprocess(ctx, created.ID)
			Expect(err).To(MatchError(service.ErrAlreadyProcessed))
			Expect(sender.Calls()).To(BeEmpty())
			Expect(event(created.ID).Attempts).To(BeZero())
		})

		It("counts each reprocess as an attempt", func() {
			generator.err = errors.New("down")
			er := processOne(commentEntry(pageID, "c1", "555", "hi"))

			_, err := svc.Reprocess(ctx, er.EventID)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Reprocess(ctx, er.EventID)
			Expect(err).NotTo(HaveOccurred())
			Expect(event(er.EventID).Attempts).To(Equal(int32(2)))
			Expect(event(er.EventID).ClaimedAt).To(BeNil())
		})

		It("recovers an event left unprocessed", func() {
			// Recorded an hour ago by a request that never finished.
			mem.SetClock(func() time.Time { return time.Now().Add(-time.Hour) })
			created, _, err := mem.InboundEvents().Create(ctx, &model.InboundEvent{
				ID:          555,
				WorkspaceID: workspaceID,
				PageID:      pageID,
				EventType:   model.EventTypeMessage,
				Platform:    model.PlatformFacebook,
				ExternalID:  "m_9",
				RawPayload: []byte(`{"sender":{"id":"777"},"recipient":{"id":"` + pageID + `"},` +
					`"timestamp":1700000000000,"message":{"mid":"m_9","text":"still there?"}}`),
			})
			Expect(err).NotTo(HaveOccurred())
			mem.SetClock(time.Now)

			again, err := svc.Reprocess(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Outcome).To(Equal(model.OutcomeSent))
			Expect(sender.Calls()[0].TargetID).To(Equal("777"))
		})
	})
})
