package store

import (
	"context"
	"errors"
	"time"

	"retailassist.app/relay/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrNotClaimable is returned when an event was already sent or another run
// holds an unexpired claim on it.
var ErrNotClaimable = errors.New("event not claimable")

// WorkspaceStore resolves tenants. GetByPageID is the webhook's tenant lookup.
type WorkspaceStore interface {
	GetByID(ctx context.Context, id int64) (*model.Workspace, error)
	GetByPageID(ctx context.Context, pageID string) (*model.Workspace, error)
}

// AgentStore is read-only to the pipeline.
type AgentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Agent, error)
}

// AutomationRuleStore defines the contract for automation rule data access.
// List methods order by created_at ascending, then id ascending.
type AutomationRuleStore interface {
	GetByID(ctx context.Context, id int64) (*model.AutomationRule, error)
	ListEnabledByWorkspace(ctx context.Context, workspaceID int64) ([]model.AutomationRule, error)
	ListByWorkspace(ctx context.Context, workspaceID int64) ([]model.AutomationRule, error)
	Create(ctx context.Context, rule *model.AutomationRule) error
	Update(ctx context.Context, rule *model.AutomationRule) error
	Delete(ctx context.Context, id int64) error
}

// InboundEventStore records deliveries and their outcomes.
type InboundEventStore interface {
	// Create persists a new event. When the dedupe key already exists it returns
	// the stored row and created=false.
	Create(ctx context.Context, event *model.InboundEvent) (*model.InboundEvent, bool, error)
	GetByID(ctx context.Context, id int64) (*model.InboundEvent, error)
	MarkProcessed(ctx context.Context, id int64, result model.ProcessingResult) (*model.InboundEvent, error)
	ListByWorkspace(ctx context.Context, workspaceID int64, limit, offset int32) ([]model.InboundEvent, error)
	// ListStaleUnprocessed returns unprocessed events whose claim (or receipt)
	// is older than olderThan and that have fewer than maxAttempts attempts.
	ListStaleUnprocessed(ctx context.Context, olderThan time.Time, maxAttempts, limit int32) ([]model.InboundEvent, error)
	// ClaimForReprocess atomically takes an event that was not sent and is not
	// held by a claim younger than lease, clears its outcome and counts the
	// attempt. Returns ErrNotFound or ErrNotClaimable.
	ClaimForReprocess(ctx context.Context, id int64, lease time.Duration) (*model.InboundEvent, error)
	// ReleaseClaim drops the claim of a run that ended without an outcome.
	ReleaseClaim(ctx context.Context, id int64) error
}

// Provider hands out the stores of one backend (Postgres or memory).
type Provider interface {
	Workspaces() WorkspaceStore
	Agents() AgentStore
	AutomationRules() AutomationRuleStore
	InboundEvents() InboundEventStore
}
