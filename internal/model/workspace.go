package model

import "time"

type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

func (p Platform) Valid() bool {
	return p == PlatformFacebook || p == PlatformInstagram
}

// Workspace is the tenant. A workspace owns one channel, identified by MetaPageID.
type Workspace struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	MetaPageID      *string   `json:"meta_page_id,omitempty"`
	ChannelPlatform Platform  `json:"channel_platform"`
	PageAccessToken *string   `json:"-"` // per-channel credential, never exposed in API
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	IsDeleted       bool      `json:"-"`
}

// AccessToken returns the workspace token, or fallback when the workspace has none.
func (w Workspace) AccessToken(fallback string) string {
	if w.PageAccessToken != nil && *w.PageAccessToken != "" {
		return *w.PageAccessToken
	}
	return fallback
}
