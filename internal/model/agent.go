package model

import "time"

type Agent struct {
	ID           int64     `json:"id"`
	WorkspaceID  int64     `json:"workspace_id"`
	Name         string    `json:"name"`
	SystemPrompt string    `json:"system_prompt"`
	Model        string    `json:"model"`
	Temperature  *float64  `json:"temperature,omitempty"`
	MaxTokens    *int      `json:"max_tokens,omitempty"`
	Greeting     *string   `json:"greeting,omitempty"`
	Fallback     *string   `json:"fallback,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	IsDeleted    bool      `json:"-"`
}

func (a Agent) FallbackText() string {
	if a.Fallback == nil {
		return ""
	}
	return *a.Fallback
}
