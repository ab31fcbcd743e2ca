package store

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"retailassist.app/relay/internal/model"
)

//go:embed seed_default.yaml
var defaultSeed []byte

// Seed is the YAML fixture loaded into the memory store in mock mode.
type Seed struct {
	Workspaces []SeedWorkspace `yaml:"workspaces"`
	Agents     []SeedAgent     `yaml:"agents"`
	Rules      []SeedRule      `yaml:"rules"`
}

type SeedWorkspace struct {
	ID              int64  `yaml:"id"`
	Name            string `yaml:"name"`
	MetaPageID      string `yaml:"meta_page_id"`
	ChannelPlatform string `yaml:"channel_platform"`
	PageAccessToken string `yaml:"page_access_token"`
}

type SeedAgent struct {
	ID           int64    `yaml:"id"`
	WorkspaceID  int64    `yaml:"workspace_id"`
	Name         string   `yaml:"name"`
	SystemPrompt string   `yaml:"system_prompt"`
	Model        string   `yaml:"model"`
	Temperature  *float64 `yaml:"temperature"`
	MaxTokens    *int     `yaml:"max_tokens"`
	Greeting     *string  `yaml:"greeting"`
	Fallback     *string  `yaml:"fallback"`
}

type SeedRule struct {
	ID                   int64    `yaml:"id"`
	WorkspaceID          int64    `yaml:"workspace_id"`
	AgentID              int64    `yaml:"agent_id"`
	Name                 string   `yaml:"name"`
	Enabled              *bool    `yaml:"enabled"`
	TriggerType          string   `yaml:"trigger_type"`
	TriggerWords         []string `yaml:"trigger_words"`
	TriggerPlatforms     []string `yaml:"trigger_platforms"`
	SendPublicReply      bool     `yaml:"send_public_reply"`
	PublicReplyTemplate  *string  `yaml:"public_reply_template"`
	SendPrivateReply     bool     `yaml:"send_private_reply"`
	PrivateReplyTemplate *string  `yaml:"private_reply_template"`
	AutoSkipReplies      *bool    `yaml:"auto_skip_replies"`
}

// LoadSeed reads a seed file, or the built-in demo seed when path is empty.
func LoadSeed(path string) (*Seed, error) {
	data := defaultSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading seed file: %w", err)
		}
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	if err := seed.validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (s *Seed) validate() error {
	workspaces := make(map[int64]bool, len(s.Workspaces))
	pages := make(map[string]bool, len(s.Workspaces))
	for _, ws := range s.Workspaces {
		if ws.ID <= 0 {
			return fmt.Errorf("workspace %q: id must be positive", ws.Name)
		}
		if ws.ChannelPlatform != "" && !model.Platform(ws.ChannelPlatform).Valid() {
			return fmt.Errorf("workspace %d: unknown channel_platform %q", ws.ID, ws.ChannelPlatform)
		}
		if ws.MetaPageID != "" {
			if pages[ws.MetaPageID] {
				return fmt.Errorf("workspace %d: duplicate meta_page_id %q", ws.ID, ws.MetaPageID)
			}
			pages[ws.MetaPageID] = true
		}
		workspaces[ws.ID] = true
	}

	agents := make(map[int64]bool, len(s.Agents))
	for _, a := range s.Agents {
		if !workspaces[a.WorkspaceID] {
			return fmt.Errorf("agent %d: unknown workspace %d", a.ID, a.WorkspaceID)
		}
		agents[a.ID] = true
	}

	for _, r := range s.Rules {
		if !workspaces[r.WorkspaceID] {
			return fmt.Errorf("rule %d: unknown workspace %d", r.ID, r.WorkspaceID)
		}
		if r.TriggerType != "" && !model.TriggerType(r.TriggerType).Valid() {
			return fmt.Errorf("rule %d: unknown trigger_type %q", r.ID, r.TriggerType)
		}
		for _, p := range r.TriggerPlatforms {
			if !model.Platform(p).Valid() {
				return fmt.Errorf("rule %d: unknown trigger platform %q", r.ID, p)
			}
		}
	}
	return nil
}

// Apply loads the seed into m. Rules keep their file order as creation order.
func (m *Memory) Apply(seed *Seed) {
	for _, ws := range seed.Workspaces {
		w := model.Workspace{
			ID:              ws.ID,
			Name:            ws.Name,
			ChannelPlatform: model.Platform(ws.ChannelPlatform),
		}
		if w.ChannelPlatform == "" {
			w.ChannelPlatform = model.PlatformFacebook
		}
		if ws.MetaPageID != "" {
			w.MetaPageID = &ws.MetaPageID
		}
		if ws.PageAccessToken != "" {
			w.PageAccessToken = &ws.PageAccessToken
		}
		m.AddWorkspace(w)
	}

	for _, a := range seed.Agents {
		agent := model.Agent{
			ID:           a.ID,
			WorkspaceID:  a.WorkspaceID,
			Name:         a.Name,
			SystemPrompt: a.SystemPrompt,
			Model:        a.Model,
			Temperature:  a.Temperature,
			MaxTokens:    a.MaxTokens,
			Greeting:     a.Greeting,
			Fallback:     a.Fallback,
		}
		m.AddAgent(agent)
	}

	base := m.clock()
	for i, r := range seed.Rules {
		rule := model.AutomationRule{
			ID:                   r.ID,
			WorkspaceID:          r.WorkspaceID,
			AgentID:              r.AgentID,
			Name:                 r.Name,
			Enabled:              r.Enabled == nil || *r.Enabled,
			TriggerType:          model.TriggerType(r.TriggerType),
			TriggerWords:         r.TriggerWords,
			SendPublicReply:      r.SendPublicReply,
			PublicReplyTemplate:  r.PublicReplyTemplate,
			SendPrivateReply:     r.SendPrivateReply,
			PrivateReplyTemplate: r.PrivateReplyTemplate,
			AutoSkipReplies:      r.AutoSkipReplies == nil || *r.AutoSkipReplies,
			CreatedAt:            base.Add(time.Duration(i) * time.Millisecond),
		}
		if rule.TriggerType == "" {
			rule.TriggerType = model.TriggerTypeAny
		}
		for _, p := range r.TriggerPlatforms {
			rule.TriggerPlatforms = append(rule.TriggerPlatforms, model.Platform(p))
		}
		rule.UpdatedAt = rule.CreatedAt
		m.AddRule(rule)
	}
}
