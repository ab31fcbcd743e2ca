package queue_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"retailassist.app/relay/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	It("parses a full message as stored by the producer", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID: "1700000000000-0",
			Values: map[string]any{
				"event_id":     "1834567890123456789",
				"workspace_id": "1001",
				"reason":       queue.ReasonStale,
				"attempt":      "2",
				"trace_id":     "4bf92f3577b34da6a3ce929d0e0e4736",
				"last_error":   "db down",
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.ID).To(Equal("1700000000000-0"))
		Expect(msg.EventID).To(Equal(int64(1834567890123456789)))
		Expect(*msg.WorkspaceID).To(Equal(int64(1001)))
		Expect(msg.Reason).To(Equal(queue.ReasonStale))
		Expect(msg.Attempt).To(Equal(2))
		Expect(msg.TraceID).To(Equal("4bf92f3577b34da6a3ce929d0e0e4736"))
		Expect(msg.LastError).To(Equal("db down"))
	})

	It("defaults the attempt to 1 and leaves optional fields empty", func() {
		msg, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"event_id": "42"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Attempt).To(Equal(1))
		Expect(msg.WorkspaceID).To(BeNil())
		Expect(msg.Reason).To(BeEmpty())
	})

	DescribeTable("rejects malformed messages",
		func(values map[string]any) {
			_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: values})
			Expect(err).To(HaveOccurred())
		},
		Entry("missing event id", map[string]any{"attempt": "1"}),
		Entry("non-numeric event id", map[string]any{"event_id": "abc"}),
		Entry("zero event id", map[string]any{"event_id": "0"}),
		Entry("bad workspace id", map[string]any{"event_id": "1", "workspace_id": "x"}),
		Entry("bad attempt", map[string]any{"event_id": "1", "attempt": "many"}),
	)
})
