package responder

import (
	"strings"

	"retailassist.app/relay/internal/model"
)

// BuildPrompt turns an agent, the applied rule and the customer's text into a
// generation request. The rule's template for the event type is appended to
// the agent's instructions as reply guidance.
func BuildPrompt(agent model.Agent, rule model.AutomationRule, eventType model.EventType, text string) Prompt {
	system := strings.TrimSpace(agent.SystemPrompt)
	if tmpl := rule.Template(eventType); tmpl != "" {
		if system != "" {
			system += "\n\n"
		}
		system += "Reply guidance: " + tmpl
	}

	var user string
	switch eventType {
	case model.EventTypeComment:
		user = `Reply to this comment: "` + text + `"`
	default:
		user = `Respond to this message: "` + text + `"`
	}

	p := Prompt{
		System:      system,
		User:        user,
		Model:       agent.Model,
		Temperature: agent.Temperature,
	}
	if agent.MaxTokens != nil {
		p.MaxTokens = *agent.MaxTokens
	}
	return p
}
