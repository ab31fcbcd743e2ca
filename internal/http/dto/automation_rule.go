package dto

import (
	"time"

	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/service"
)

type CreateAutomationRuleRequest struct {
	AgentID              int64    `json:"agent_id,string" binding:"required"`
	Name                 string   `json:"name" binding:"required,min=1,max=255"`
	Enabled              *bool    `json:"enabled,omitempty"`
	TriggerType          string   `json:"trigger_type,omitempty" binding:"omitempty,oneof=comment message any"`
	TriggerWords         []string `json:"trigger_words,omitempty"`
	TriggerPlatforms     []string `json:"trigger_platforms,omitempty" binding:"omitempty,dive,oneof=facebook instagram"`
	SendPublicReply      bool     `json:"send_public_reply"`
	PublicReplyTemplate  *string  `json:"public_reply_template,omitempty"`
	SendPrivateReply     bool     `json:"send_private_reply"`
	PrivateReplyTemplate *string  `json:"private_reply_template,omitempty"`
	AutoSkipReplies      *bool    `json:"auto_skip_replies,omitempty"`
}

func (r CreateAutomationRuleRequest) ToInput() service.AutomationRuleInput {
	return service.AutomationRuleInput{
		AgentID:              r.AgentID,
		Name:                 r.Name,
		Enabled:              r.Enabled,
		TriggerType:          model.TriggerType(r.TriggerType),
		TriggerWords:         r.TriggerWords,
		TriggerPlatforms:     toPlatforms(r.TriggerPlatforms),
		SendPublicReply:      r.SendPublicReply,
		PublicReplyTemplate:  r.PublicReplyTemplate,
		SendPrivateReply:     r.SendPrivateReply,
		PrivateReplyTemplate: r.PrivateReplyTemplate,
		AutoSkipReplies:      r.AutoSkipReplies,
	}
}

type UpdateAutomationRuleRequest struct {
	AgentID              *int64    `json:"agent_id,string,omitempty"`
	Name                 *string   `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Enabled              *bool     `json:"enabled,omitempty"`
	TriggerType          *string   `json:"trigger_type,omitempty" binding:"omitempty,oneof=comment message any"`
	TriggerWords         *[]string `json:"trigger_words,omitempty"`
	TriggerPlatforms     *[]string `json:"trigger_platforms,omitempty"`
	SendPublicReply      *bool     `json:"send_public_reply,omitempty"`
	PublicReplyTemplate  *string   `json:"public_reply_template,omitempty"`
	SendPrivateReply     *bool     `json:"send_private_reply,omitempty"`
	PrivateReplyTemplate *string   `json:"private_reply_template,omitempty"`
	AutoSkipReplies      *bool     `json:"auto_skip_replies,omitempty"`
}

func (r UpdateAutomationRuleRequest) ToPatch() service.AutomationRulePatch {
	patch := service.AutomationRulePatch{
		AgentID:              r.AgentID,
		Name:                 r.Name,
		Enabled:              r.Enabled,
		TriggerWords:         r.TriggerWords,
		SendPublicReply:      r.SendPublicReply,
		PublicReplyTemplate:  r.PublicReplyTemplate,
		SendPrivateReply:     r.SendPrivateReply,
		PrivateReplyTemplate: r.PrivateReplyTemplate,
		AutoSkipReplies:      r.AutoSkipReplies,
	}
	if r.TriggerType != nil {
		t := model.TriggerType(*r.TriggerType)
		patch.TriggerType = &t
	}
	if r.TriggerPlatforms != nil {
		p := toPlatforms(*r.TriggerPlatforms)
		patch.TriggerPlatforms = &p
	}
	return patch
}

type AutomationRuleResponse struct {
	ID                   int64     `json:"id,string"`
	WorkspaceID          int64     `json:"workspace_id,string"`
	AgentID              int64     `json:"agent_id,string"`
	Name                 string    `json:"name"`
	Enabled              bool      `json:"enabled"`
	TriggerType          string    `json:"trigger_type"`
	TriggerWords         []string  `json:"trigger_words"`
	TriggerPlatforms     []string  `json:"trigger_platforms"`
	SendPublicReply      bool      `json:"send_public_reply"`
	PublicReplyTemplate  *string   `json:"public_reply_template,omitempty"`
	SendPrivateReply     bool      `json:"send_private_reply"`
	PrivateReplyTemplate *string   `json:"private_reply_template,omitempty"`
	AutoSkipReplies      bool      `json:"auto_skip_replies"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func ToAutomationRuleResponse(rule *model.AutomationRule) *AutomationRuleResponse {
	platforms := make([]string, 0, len(rule.TriggerPlatforms))
	for _, p := range rule.TriggerPlatforms {
		platforms = append(platforms, string(p))
	}
	words := rule.TriggerWords
	if words == nil {
		words = []string{}
	}
	return &AutomationRuleResponse{
		ID:                   rule.ID,
		WorkspaceID:          rule.WorkspaceID,
		AgentID:              rule.AgentID,
		Name:                 rule.Name,
		Enabled:              rule.Enabled,
		TriggerType:          string(rule.TriggerType),
		TriggerWords:         words,
		TriggerPlatforms:     platforms,
		SendPublicReply:      rule.SendPublicReply,
		PublicReplyTemplate:  rule.PublicReplyTemplate,
		SendPrivateReply:     rule.SendPrivateReply,
		PrivateReplyTemplate: rule.PrivateReplyTemplate,
		AutoSkipReplies:      rule.AutoSkipReplies,
		CreatedAt:            rule.CreatedAt,
		UpdatedAt:            rule.UpdatedAt,
	}
}

func toPlatforms(in []string) []model.Platform {
	out := make([]model.Platform, 0, len(in))
	for _, p := range in {
		out = append(out, model.Platform(p))
	}
	return out
}
