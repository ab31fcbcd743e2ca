package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventTypeComment EventType = "comment"
	EventTypeMessage EventType = "message"
)

type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

type ResponseType string

const (
	ResponseTypeCommentReply  ResponseType = "comment_reply"
	ResponseTypeDirectMessage ResponseType = "dm"
)

// ResponseData is what was sent back to the channel.
type ResponseData struct {
	Type       ResponseType `json:"type"`
	ProviderID string       `json:"provider_id"`
	Text       string       `json:"text"`
}

// InboundEvent is the audit record of one comment or message delivered by Meta.
// Created on receipt, marked processed once, never deleted.
//
// ClaimedAt is set while a run owns the event (the webhook request that
// recorded it, or a reprocess) and cleared once an outcome is recorded.
// Attempts counts reprocess claims.
type InboundEvent struct {
	ID           int64           `json:"id"`
	WorkspaceID  int64           `json:"workspace_id"`
	PageID       string          `json:"page_id"`
	EventType    EventType       `json:"event_type"`
	Platform     Platform        `json:"platform"`
	ExternalID   string          `json:"external_id"`
	DedupeKey    *string         `json:"dedupe_key,omitempty"`
	RawPayload   json.RawMessage `json:"raw_payload"`
	Processed    bool            `json:"processed"`
	Outcome      *Outcome        `json:"outcome,omitempty"`
	ResponseSent bool            `json:"response_sent"`
	ResponseData *ResponseData   `json:"response_data,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	RuleID       *int64          `json:"rule_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
	ClaimedAt    *time.Time      `json:"claimed_at,omitempty"`
	Attempts     int32           `json:"attempts"`
}

// EventDedupeKey identifies a delivery across provider retries.
func EventDedupeKey(platform Platform, eventType EventType, externalID string) string {
	return fmt.Sprintf("%s:%s:%s", platform, eventType, externalID)
}

// ProcessingResult is the phase-two update applied to an InboundEvent.
type ProcessingResult struct {
	Outcome      Outcome
	ResponseData *ResponseData
	ErrorMessage *string
	RuleID       *int64
}

func (r ProcessingResult) ResponseSent() bool {
	return r.Outcome == OutcomeSent
}
