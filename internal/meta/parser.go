package meta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"retailassist.app/relay/internal/model"
)

// ObjectPage is the only webhook object the relay acts on.
const ObjectPage = "page"

var (
	ErrMissingPageID = errors.New("entry has no page id")
	ErrNotHandled    = errors.New("stored item is not a handled event")
)

type EventKind string

const (
	EventKindComment   EventKind = "comment"
	EventKindMessage   EventKind = "message"
	EventKindUnhandled EventKind = "unhandled"
)

// Delivery is one webhook POST body. Entries stay raw so that one malformed
// entry cannot fail decoding of its siblings.
type Delivery struct {
	Object string            `json:"object"`
	Entry  []json.RawMessage `json:"entry"`
}

// Entry is one page's slice of a delivery.
type Entry struct {
	PageID string
	Time   time.Time
	Events []Event
}

// Event is a comment or message normalized out of a feed change or a
// messaging item. Unhandled events carry only Reason and Raw.
type Event struct {
	Kind       EventKind
	PageID     string
	ExternalID string
	Text       string
	AuthorID   string
	AuthorName string
	PostID     string
	ParentID   string
	CreatedAt  time.Time
	Reason     string
	Raw        json.RawMessage
}

func (e Event) Handled() bool {
	return e.Kind == EventKindComment || e.Kind == EventKindMessage
}

func (e Event) EventType() model.EventType {
	return model.EventType(e.Kind)
}

func DecodeDelivery(body []byte) (*Delivery, error) {
	var d Delivery
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("decoding delivery: %w", err)
	}
	return &d, nil
}

type rawEntry struct {
	ID        flexString        `json:"id"`
	Time      int64             `json:"time"`
	Changes   []json.RawMessage `json:"changes"`
	Messaging []json.RawMessage `json:"messaging"`
}

type feedChange struct {
	Field string `json:"field"`
	Value struct {
		Item        string          `json:"item"`
		Verb        string          `json:"verb"`
		CommentID   flexString      `json:"comment_id"`
		ID          flexString      `json:"id"`
		Message     string          `json:"message"`
		PostID      flexString      `json:"post_id"`
		ObjectID    flexString      `json:"object_id"`
		ParentID    flexString      `json:"parent_id"`
		CreatedTime json.RawMessage `json:"created_time"`
		From        struct {
			ID   flexString `json:"id"`
			Name string     `json:"name"`
		} `json:"from"`
	} `json:"value"`
}

type messagingItem struct {
	Sender struct {
		ID   flexString `json:"id"`
		Name string     `json:"name"`
	} `json:"sender"`
	Timestamp int64 `json:"timestamp"`
	Message   *struct {
		Mid    string `json:"mid"`
		Text   string `json:"text"`
		IsEcho bool   `json:"is_echo"`
	} `json:"message"`
	Read     json.RawMessage `json:"read"`
	Delivery json.RawMessage `json:"delivery"`
	Postback json.RawMessage `json:"postback"`
	Reaction json.RawMessage `json:"reaction"`
}

// ParseEntry normalizes one delivery entry. An error means the entry itself
// could not be read; anything wrong below the entry becomes an unhandled event.
func ParseEntry(raw json.RawMessage) (Entry, error) {
	var re rawEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return Entry{}, fmt.Errorf("decoding entry: %w", err)
	}
	pageID := strings.TrimSpace(string(re.ID))
	if pageID == "" {
		return Entry{}, ErrMissingPageID
	}

	entry := Entry{PageID: pageID}
	if re.Time > 0 {
		entry.Time = unixAuto(re.Time)
	}

	for _, change := range re.Changes {
		entry.Events = append(entry.Events, parseChange(pageID, change))
	}
	for _, item := range re.Messaging {
		entry.Events = append(entry.Events, parseMessaging(pageID, item))
	}
	return entry, nil
}

// ReparseStored rebuilds an event from the item kept in an InboundEvent's raw payload.
func ReparseStored(eventType model.EventType, pageID string, raw json.RawMessage) (Event, error) {
	var ev Event
	switch eventType {
	case model.EventTypeComment:
		ev = parseChange(pageID, raw)
	case model.EventTypeMessage:
		ev = parseMessaging(pageID, raw)
	default:
		return Event{}, fmt.Errorf("%w: unknown event type %q", ErrNotHandled, eventType)
	}
	if !ev.Handled() {
		return Event{}, fmt.Errorf("%w: %s", ErrNotHandled, ev.Reason)
	}
	return ev, nil
}

func parseChange(pageID string, raw json.RawMessage) Event {
	ev := Event{Kind: EventKindUnhandled, PageID: pageID, Raw: raw}

	var change feedChange
	if err := json.Unmarshal(raw, &change); err != nil {
		ev.Reason = "malformed change: " + err.Error()
		return ev
	}

	v := change.Value
	switch {
	case change.Field != "feed":
		ev.Reason = fmt.Sprintf("unsupported field %q", change.Field)
		return ev
	case v.Item != "comment":
		ev.Reason = fmt.Sprintf("unsupported feed item %q", v.Item)
		return ev
	case v.Verb != "" && v.Verb != "add":
		ev.Reason = fmt.Sprintf("comment verb %q", v.Verb)
		return ev
	}

	commentID := string(v.CommentID)
	if commentID == "" {
		commentID = string(v.ID)
	}
	if commentID == "" {
		ev.Reason = "comment without id"
		return ev
	}

	postID := string(v.PostID)
	if postID == "" {
		postID = string(v.ObjectID)
	}

	ev.Kind = EventKindComment
	ev.ExternalID = commentID
	ev.Text = v.Message
	ev.AuthorID = string(v.From.ID)
	ev.AuthorName = v.From.Name
	ev.PostID = postID
	ev.ParentID = string(v.ParentID)
	ev.CreatedAt = parseCreatedTime(v.CreatedTime)
	return ev
}

func parseMessaging(pageID string, raw json.RawMessage) Event {
	ev := Event{Kind: EventKindUnhandled, PageID: pageID, Raw: raw}

	var item messagingItem
	if err := json.Unmarshal(raw, &item); err != nil {
		ev.Reason = "malformed messaging item: " + err.Error()
		return ev
	}

	if item.Message == nil {
		switch {
		case len(item.Read) > 0:
			ev.Reason = "read receipt"
		case len(item.Delivery) > 0:
			ev.Reason = "delivery receipt"
		case len(item.Postback) > 0:
			ev.Reason = "postback"
		case len(item.Reaction) > 0:
			ev.Reason = "reaction"
		default:
			ev.Reason = "messaging item without message"
		}
		return ev
	}
	if item.Message.IsEcho {
		ev.Reason = "echo of page message"
		return ev
	}
	if item.Message.Mid == "" {
		ev.Reason = "message without mid"
		return ev
	}

	ev.Kind = EventKindMessage
	ev.ExternalID = item.Message.Mid
	ev.Text = item.Message.Text
	ev.AuthorID = string(item.Sender.ID)
	ev.AuthorName = item.Sender.Name
	if ev.AuthorName == "" {
		ev.AuthorName = "Unknown"
	}
	if item.Timestamp > 0 {
		ev.CreatedAt = time.UnixMilli(item.Timestamp).UTC()
	}
	return ev
}

// Meta sends created_time as unix seconds on page feeds and as an ISO string
// on some Graph reads.
func parseCreatedTime(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return unixAuto(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return unixAuto(n)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// unixAuto accepts seconds or milliseconds.
func unixAuto(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

// flexString decodes ids that arrive either as JSON strings or numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
