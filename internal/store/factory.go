package store

import (
	"retailassist.app/relay/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Workspaces() WorkspaceStore {
	return newWorkspaceStore(s.queries)
}

func (s *Stores) Agents() AgentStore {
	return newAgentStore(s.queries)
}

func (s *Stores) AutomationRules() AutomationRuleStore {
	return newAutomationRuleStore(s.queries)
}

func (s *Stores) InboundEvents() InboundEventStore {
	return newInboundEventStore(s.queries)
}
