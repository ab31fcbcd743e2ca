package meta_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"retailassist.app/relay/internal/meta"
	"retailassist.app/relay/internal/model"
)

var _ = Describe("DecodeDelivery", func() {
	It("keeps entries raw", func() {
		d, err := meta.DecodeDelivery([]byte(`{"object":"page","entry":[{"id":"1"},{"id":"2"}]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Object).To(Equal(meta.ObjectPage))
		Expect(d.Entry).To(HaveLen(2))
	})

	It("fails on invalid JSON", func() {
		_, err := meta.DecodeDelivery([]byte(`{"object":`))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseEntry", func() {
	parse := func(raw string) meta.Entry {
		entry, err := meta.ParseEntry(json.RawMessage(raw))
		Expect(err).NotTo(HaveOccurred())
		return entry
	}

	It("normalizes a feed comment", func() {
		entry := parse(`{
			"id": "100000000000001",
			"time": 1700000000,
			"changes": [{
				"field": "feed",
				"value": {
					"item": "comment",
					"verb": "add",
					"comment_id": "111_222",
					"post_id": "100000000000001_111",
					"parent_id": "100000000000001_111",
					"message": "How much is this?",
					"created_time": 1700000000,
					"from": {"id": "555", "name": "Jane"}
				}
			}]
		}`)

		Expect(entry.PageID).To(Equal("100000000000001"))
		Expect(entry.Time).To(Equal(time.Unix(1700000000, 0).UTC()))
		Expect(entry.Events).To(HaveLen(1))

		ev := entry.Events[0]
		Expect(ev.Kind).To(Equal(meta.EventKindComment))
		Expect(ev.Handled()).To(BeTrue())
		Expect(ev.EventType()).To(Equal(model.EventTypeComment))
		Expect(ev.ExternalID).To(Equal("111_222"))
		Expect(ev.Text).To(Equal("How much is this?"))
		Expect(ev.AuthorID).To(Equal("555"))
		Expect(ev.AuthorName).To(Equal("Jane"))
		Expect(ev.PostID).To(Equal("100000000000001_111"))
		Expect(ev.CreatedAt).To(Equal(time.Unix(1700000000, 0).UTC()))
		Expect(ev.Raw).NotTo(BeEmpty())
	})

	It("falls back to id, object_id and ISO timestamps", func() {
		entry := parse(`{"id": 42, "changes": [{"field": "feed", "value": {
			"item": "comment", "id": "c1", "object_id": "p1", "message": "hi",
			"created_time": "2024-01-02T03:04:05+0000", "from": {"id": 7}
		}}]}`)

		Expect(entry.PageID).To(Equal("42"))
		ev := entry.Events[0]
		Expect(ev.ExternalID).To(Equal("c1"))
		Expect(ev.PostID).To(Equal("p1"))
		Expect(ev.AuthorID).To(Equal("7"))
		Expect(ev.CreatedAt).To(Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	})

	It("normalizes a direct message", func() {
		entry := parse(`{"id": "p", "messaging": [{
			"sender": {"id": "u1"},
			"recipient": {"id": "p"},
			"timestamp": 1700000000123,
			"message": {"mid": "m_1", "text": "Are you open?"}
		}]}`)

		ev := entry.Events[0]
		Expect(ev.Kind).To(Equal(meta.EventKindMessage))
		Expect(ev.ExternalID).To(Equal("m_1"))
		Expect(ev.Text).To(Equal("Are you open?"))
		Expect(ev.AuthorID).To(Equal("u1"))
		Expect(ev.AuthorName).To(Equal("Unknown"))
		Expect(ev.CreatedAt).To(Equal(time.UnixMilli(1700000000123).UTC()))
	})

	DescribeTable("degrades unrecognized shapes to unhandled",
		func(raw string, reason string) {
			entry := parse(raw)
			Expect(entry.Events).To(HaveLen(1))
			Expect(entry.Events[0].Kind).To(Equal(meta.EventKindUnhandled))
			Expect(entry.Events[0].Handled()).To(BeFalse())
			Expect(entry.Events[0].Reason).To(ContainSubstring(reason))
		},
		Entry("reaction on feed", `{"id":"p","changes":[{"field":"feed","value":{"item":"reaction","verb":"add"}}]}`, `"reaction"`),
		Entry("edited comment", `{"id":"p","changes":[{"field":"feed","value":{"item":"comment","verb":"edited","comment_id":"c"}}]}`, `"edited"`),
		Entry("removed comment", `{"id":"p","changes":[{"field":"feed","value":{"item":"comment","verb":"remove","comment_id":"c"}}]}`, `"remove"`),
		Entry("other field", `{"id":"p","changes":[{"field":"mention","value":{}}]}`, `"mention"`),
		Entry("comment without id", `{"id":"p","changes":[{"field":"feed","value":{"item":"comment"}}]}`, "without id"),
		Entry("malformed change", `{"id":"p","changes":["nope"]}`, "malformed change"),
		Entry("malformed value", `{"id":"p","changes":[{"field":"feed","value":{"item":5}}]}`, "malformed change"),
		Entry("read receipt", `{"id":"p","messaging":[{"sender":{"id":"u"},"read":{"watermark":1}}]}`, "read receipt"),
		Entry("delivery receipt", `{"id":"p","messaging":[{"sender":{"id":"u"},"delivery":{"mids":["m"]}}]}`, "delivery receipt"),
		Entry("postback", `{"id":"p","messaging":[{"sender":{"id":"u"},"postback":{"payload":"x"}}]}`, "postback"),
		Entry("reaction on message", `{"id":"p","messaging":[{"sender":{"id":"u"},"reaction":{"emoji":"x"}}]}`, "reaction"),
		Entry("echo", `{"id":"p","messaging":[{"sender":{"id":"p"},"message":{"mid":"m","text":"x","is_echo":true}}]}`, "echo"),
		Entry("message without mid", `{"id":"p","messaging":[{"sender":{"id":"u"},"message":{"text":"x"}}]}`, "without mid"),
		Entry("malformed messaging", `{"id":"p","messaging":[[1,2]]}`, "malformed messaging"),
	)

	It("keeps handled events next to unhandled siblings", func() {
		entry := parse(`{"id":"p","changes":[
			{"field":"feed","value":{"item":"like"}},
			{"field":"feed","value":{"item":"comment","comment_id":"c2","message":"hey"}}
		]}`)
		Expect(entry.Events).To(HaveLen(2))
		Expect(entry.Events[0].Handled()).To(BeFalse())
		Expect(entry.Events[1].ExternalID).To(Equal("c2"))
	})

	It("returns an empty event list for entries without changes", func() {
		Expect(parse(`{"id":"p"}`).Events).To(BeEmpty())
	})

	It("errors on entries that are not objects or have no id", func() {
		_, err := meta.ParseEntry(json.RawMessage(`"x"`))
		Expect(err).To(HaveOccurred())

		_, err = meta.ParseEntry(json.RawMessage(`{"changes":[]}`))
		Expect(err).To(MatchError(meta.ErrMissingPageID))
	})
})

var _ = Describe("ReparseStored", func() {
	It("rebuilds a comment from its stored change", func() {
		raw := json.RawMessage(`{"field":"feed","value":{"item":"comment","comment_id":"c9","message":"again"}}`)
		ev, err := meta.ReparseStored(model.EventTypeComment, "p", raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.ExternalID).To(Equal("c9"))
		Expect(ev.PageID).To(Equal("p"))
	})

	It("rebuilds a message from its stored messaging item", func() {
		raw := json.RawMessage(`{"sender":{"id":"u"},"message":{"mid":"m9","text":"yo"}}`)
		ev, err := meta.ReparseStored(model.EventTypeMessage, "p", raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Kind).To(Equal(meta.EventKindMessage))
	})

	It("rejects items that no longer parse as the stored type", func() {
		raw := json.RawMessage(`{"sender":{"id":"u"},"message":{"mid":"m9"}}`)
		_, err := meta.ReparseStored(model.EventTypeComment, "p", raw)
		Expect(err).To(MatchError(meta.ErrNotHandled))

		_, err = meta.ReparseStored(model.EventType("reaction"), "p", raw)
		Expect(err).To(MatchError(meta.ErrNotHandled))
	})
})
