package model

import (
	"strings"
	"time"
)

type TriggerType string

const (
	TriggerTypeComment TriggerType = "comment"
	TriggerTypeMessage TriggerType = "message"
	TriggerTypeAny     TriggerType = "any"
)

func (t TriggerType) Valid() bool {
	return t == TriggerTypeComment || t == TriggerTypeMessage || t == TriggerTypeAny
}

type AutomationRule struct {
	ID                   int64       `json:"id"`
	WorkspaceID          int64       `json:"workspace_id"`
	AgentID              int64       `json:"agent_id"`
	Name                 string      `json:"name"`
	Enabled              bool        `json:"enabled"`
	TriggerType          TriggerType `json:"trigger_type"`
	TriggerWords         []string    `json:"trigger_words"`
	TriggerPlatforms     []Platform  `json:"trigger_platforms"`
	SendPublicReply      bool        `json:"send_public_reply"`
	PublicReplyTemplate  *string     `json:"public_reply_template,omitempty"`
	SendPrivateReply     bool        `json:"send_private_reply"`
	PrivateReplyTemplate *string     `json:"private_reply_template,omitempty"`
	AutoSkipReplies      bool        `json:"auto_skip_replies"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// Matches reports whether the rule's trigger accepts an event.
// Empty word and platform sets match everything; words match as
// case-insensitive substrings of text.
func (r AutomationRule) Matches(eventType EventType, platform Platform, text string) bool {
	if !r.Enabled {
		return false
	}

	switch r.TriggerType {
	case TriggerTypeComment:
		if eventType != EventTypeComment {
			return false
		}
	case TriggerTypeMessage:
		if eventType != EventTypeMessage {
			return false
		}
	}

	if len(r.TriggerPlatforms) > 0 {
		found := false
		for _, p := range r.TriggerPlatforms {
			if p == platform {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(r.TriggerWords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, w := range r.TriggerWords {
		w = strings.TrimSpace(strings.ToLower(w))
		if w != "" && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ReplyEnabled reports whether the rule sends anything for the event type:
// comments get a public reply, messages a private one.
func (r AutomationRule) ReplyEnabled(eventType EventType) bool {
	switch eventType {
	case EventTypeComment:
		return r.SendPublicReply
	case EventTypeMessage:
		return r.SendPrivateReply
	default:
		return false
	}
}

func (r AutomationRule) Template(eventType EventType) string {
	var t *string
	switch eventType {
	case EventTypeComment:
		t = r.PublicReplyTemplate
	case EventTypeMessage:
		t = r.PrivateReplyTemplate
	}
	if t == nil {
		return ""
	}
	return strings.TrimSpace(*t)
}
