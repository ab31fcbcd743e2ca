package dto

import (
	"encoding/json"
	"time"

	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/service"
)

type ListEventsQuery struct {
	Limit  int32 `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int32 `form:"offset" binding:"omitempty,min=0"`
}

type InboundEventResponse struct {
	ID           int64               `json:"id,string"`
	WorkspaceID  int64               `json:"workspace_id,string"`
	PageID       string              `json:"page_id"`
	EventType    string              `json:"event_type"`
	Platform     string              `json:"platform"`
	ExternalID   string              `json:"external_id"`
	RawPayload   json.RawMessage     `json:"raw_payload,omitempty"`
	Processed    bool                `json:"processed"`
	Outcome      *string             `json:"outcome,omitempty"`
	ResponseSent bool                `json:"response_sent"`
	ResponseData *model.ResponseData `json:"response_data,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	RuleID       *int64              `json:"rule_id,string,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	ProcessedAt  *time.Time          `json:"processed_at,omitempty"`
}

// ToInboundEventResponse omits the raw payload unless withPayload is set.
func ToInboundEventResponse(event *model.InboundEvent, withPayload bool) *InboundEventResponse {
	resp := &InboundEventResponse{
		ID:           event.ID,
		WorkspaceID:  event.WorkspaceID,
		PageID:       event.PageID,
		EventType:    string(event.EventType),
		Platform:     string(event.Platform),
		ExternalID:   event.ExternalID,
		Processed:    event.Processed,
		ResponseSent: event.ResponseSent,
		ResponseData: event.ResponseData,
		ErrorMessage: event.ErrorMessage,
		RuleID:       event.RuleID,
		CreatedAt:    event.CreatedAt,
		ProcessedAt:  event.ProcessedAt,
	}
	if event.Outcome != nil {
		outcome := string(*event.Outcome)
		resp.Outcome = &outcome
	}
	if withPayload {
		resp.RawPayload = event.RawPayload
	}
	return resp
}

type ListEventsResponse struct {
	Events []*InboundEventResponse `json:"events"`
	Limit  int32                   `json:"limit"`
	Offset int32                   `json:"offset"`
}

type ReprocessEventResponse struct {
	EventID  int64  `json:"event_id,string"`
	Enqueued bool   `json:"enqueued"`
	Outcome  string `json:"outcome,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func ToReprocessEventResponse(eventID int64, res *service.ReprocessResult) *ReprocessEventResponse {
	resp := &ReprocessEventResponse{EventID: eventID, Enqueued: res.Enqueued}
	if res.Result != nil {
		resp.Outcome = string(res.Result.Outcome)
		resp.Reason = res.Result.Reason
	}
	return resp
}
