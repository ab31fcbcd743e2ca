package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"retailassist.app/relay/common/id"
	"retailassist.app/relay/common/logger"
	"retailassist.app/relay/internal/meta"
	"retailassist.app/relay/internal/model"
	"retailassist.app/relay/internal/responder"
	"retailassist.app/relay/internal/store"
)

// Outcome reasons recorded on skipped events.
const (
	ReasonNoAutomation       = "no automation configured"
	ReasonNoMatchingRule     = "no matching automation rule"
	ReasonAgentNotFound      = "agent not found"
	ReasonPublicReplyOff     = "public reply not enabled for this rule"
	ReasonPrivateReplyOff    = "private reply not enabled for this rule"
	ReasonOwnComment         = "comment authored by the page"
	ReasonWorkspaceNotFound  = "workspace not found"
	ReasonStoredPayloadError = "stored payload could not be parsed"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrAlreadyProcessed = errors.New("event already processed")
)

type AutomationConfig struct {
	// PageAccessToken is used for workspaces without a token of their own.
	PageAccessToken string
	// DedupeDeliveries gives each (platform, type, external id) a unique key,
	// so provider retries are recorded once and answered once.
	DedupeDeliveries bool
	// ClaimLease is how long a run owns an event before a reprocess may take
	// it over. It must outlast generation plus sending.
	ClaimLease time.Duration
}

const defaultClaimLease = 5 * time.Minute

// EntryResult summarizes one webhook entry.
type EntryResult struct {
	PageID         string
	WorkspaceID    int64
	WorkspaceFound bool
	Events         []EventResult
}

// EventResult is what happened to one comment or message.
type EventResult struct {
	EventID    int64
	ExternalID string
	EventType  model.EventType
	Outcome    model.Outcome
	Reason     string
	ResponseID string
	Duplicate  bool
	Unhandled  bool
}

// AutomationService runs the webhook pipeline:
// resolve workspace, record event, pick rule, generate, send, record outcome.
type AutomationService interface {
	ProcessEntry(ctx context.Context, raw json.RawMessage) (*EntryResult, error)
	Reprocess(ctx context.Context, eventID int64) (*EventResult, error)
}

type automationService struct {
	stores    store.Provider
	generator responder.Generator
	sender    meta.Sender
	cfg       AutomationConfig
}

func NewAutomationService(stores store.Provider, generator responder.Generator, sender meta.Sender, cfg AutomationConfig) AutomationService {
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = defaultClaimLease
	}
	return &automationService{
		stores:    stores,
		generator: generator,
		sender:    sender,
		cfg:       cfg,
	}
}

// ProcessEntry handles one delivery entry. The returned error means part of
// the entry was not handled (store failures); a missing workspace is not an
// error and writes nothing.
func (s *automationService) ProcessEntry(ctx context.Context, raw json.RawMessage) (*EntryResult, error) {
	entry, err := meta.ParseEntry(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing entry: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		PageID:    &entry.PageID,
		Component: "relay.service.automation",
	})
	result := &EntryResult{PageID: entry.PageID}

	ws, err := s.stores.Workspaces().GetByPageID(ctx, entry.PageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "no workspace for page, dropping entry", "event_count", len(entry.Events))
			return result, nil
		}
		return nil, fmt.Errorf("resolving workspace: %w", err)
	}
	result.WorkspaceID = ws.ID
	result.WorkspaceFound = true
	ctx = logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: &ws.ID})

	var errs []error
	for _, ev := range entry.Events {
		if !ev.Handled() {
			slog.InfoContext(ctx, "ignoring unhandled event", "reason", ev.Reason)
			result.Events = append(result.Events, EventResult{Unhandled: true, Reason: ev.Reason})
			continue
		}

		er, err := s.processEvent(ctx, ws, ev)
		if err != nil {
			slog.ErrorContext(ctx, "event not handled", "error", err, "external_id", ev.ExternalID)
			errs = append(errs, err)
			continue
		}
		result.Events = append(result.Events, *er)
	}

	return result, errors.Join(errs...)
}

func (s *automationService) processEvent(ctx context.Context, ws *model.Workspace, ev meta.Event) (*EventResult, error) {
	eventType := ev.EventType()
	platform := channelPlatform(ws)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventType: logger.Ptr(string(eventType)),
		Platform:  logger.Ptr(string(platform)),
	})

	sc := logger.StartSpan(ctx, "automation.process_event")
	defer sc.End()
	ctx = sc.Context()

	event := &model.InboundEvent{
		ID:          id.New(),
		WorkspaceID: ws.ID,
		PageID:      ev.PageID,
		EventType:   eventType,
		Platform:    platform,
		ExternalID:  ev.ExternalID,
		RawPayload:  ev.Raw,
	}
	if s.cfg.DedupeDeliveries {
		event.DedupeKey = logger.Ptr(model.EventDedupeKey(platform, eventType, ev.ExternalID))
	}

	// Persist before any side effect so a crash leaves the event for the sweeper.
	stored, created, err := s.stores.InboundEvents().Create(ctx, event)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("recording event %s: %w", ev.ExternalID, err)
	}
	if !created {
		slog.InfoContext(ctx, "duplicate delivery, already recorded",
			"existing_event_id", stored.ID,
			"dedupe_key", *event.DedupeKey)
		er := &EventResult{
			EventID:    stored.ID,
			ExternalID: stored.ExternalID,
			EventType:  stored.EventType,
			Duplicate:  true,
			Reason:     "already processed",
		}
		if stored.Outcome != nil {
			er.Outcome = *stored.Outcome
		}
		return er, nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{EventID: &stored.ID})
	slog.InfoContext(ctx, "inbound event recorded", "external_id", ev.ExternalID)

	outcome := s.run(ctx, ws, ev)
	return s.record(ctx, stored, outcome)
}

// Reprocess reruns rule selection, generation and sending for a stored event
// that was not sent, e.g. after a failure or a crash mid-pipeline. The event
// is claimed first, so concurrent reprocesses and a live request never both
// reply; the loser gets ErrAlreadyProcessed.
func (s *automationService) Reprocess(ctx context.Context, eventID int64) (*EventResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:   &eventID,
		Component: "relay.service.automation",
	})

	event, err := s.stores.InboundEvents().GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("loading event: %w", err)
	}
	if event.Outcome != nil && *event.Outcome == model.OutcomeSent {
		return nil, ErrAlreadyProcessed
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceID: &event.WorkspaceID,
		PageID:      &event.PageID,
		EventType:   logger.Ptr(string(event.EventType)),
		Platform:    logger.Ptr(string(event.Platform)),
	})

	sc := logger.StartSpan(ctx, "automation.reprocess_event")
	defer sc.End()
	ctx = sc.Context()

	claimed, err := s.stores.InboundEvents().ClaimForReprocess(ctx, eventID, s.cfg.ClaimLease)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrEventNotFound
		case errors.Is(err, store.ErrNotClaimable):
			// Sent in the meantime, or another run owns it.
			return nil, fmt.Errorf("%w: claimed by another run", ErrAlreadyProcessed)
		}
		return nil, fmt.Errorf("claiming event: %w", err)
	}

	slog.InfoContext(ctx, "reprocessing inbound event",
		"external_id", claimed.ExternalID,
		"attempt", claimed.Attempts)

	ws, err := s.stores.Workspaces().GetByID(ctx, claimed.WorkspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.record(ctx, claimed, skipped(ReasonWorkspaceNotFound))
		}
		s.release(ctx, claimed.ID)
		return nil, fmt.Errorf("loading workspace: %w", err)
	}

	ev, err := meta.ReparseStored(claimed.EventType, claimed.PageID, claimed.RawPayload)
	if err != nil {
		return s.record(ctx, claimed, failed(fmt.Sprintf("%s: %v", ReasonStoredPayloadError, err), nil))
	}

	// A failed record keeps the claim: the reply may already be out, so only
	// lease expiry lets another run retry.
	return s.record(ctx, claimed, s.run(ctx, ws, ev))
}

// release hands back a claim taken by a run that sent nothing.
func (s *automationService) release(ctx context.Context, eventID int64) {
	if err := s.stores.InboundEvents().ReleaseClaim(ctx, eventID); err != nil {
		slog.WarnContext(ctx, "failed to release event claim, it expires with the lease", "error", err)
	}
}

// run never returns an error: every failure becomes a recorded outcome.
func (s *automationService) run(ctx context.Context, ws *model.Workspace, ev meta.Event) model.ProcessingResult {
	eventType := ev.EventType()
	platform := channelPlatform(ws)

	rules, err := s.stores.AutomationRules().ListEnabledByWorkspace(ctx, ws.ID)
	if err != nil {
		return failed(fmt.Sprintf("loading automation rules: %v", err), nil)
	}
	if len(rules) == 0 {
		return skipped(ReasonNoAutomation)
	}

	var rule *model.AutomationRule
	for i := range rules {
		if rules[i].Matches(eventType, platform, ev.Text) {
			rule = &rules[i]
			break
		}
	}
	if rule == nil {
		return skipped(ReasonNoMatchingRule)
	}

	ruleID := rule.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{RuleID: &ruleID})
	slog.DebugContext(ctx, "automation rule selected", "rule_name", rule.Name, "candidates", len(rules))

	if !rule.ReplyEnabled(eventType) {
		if eventType == model.EventTypeComment {
			return withRule(skipped(ReasonPublicReplyOff), ruleID)
		}
		return withRule(skipped(ReasonPrivateReplyOff), ruleID)
	}

	if rule.AutoSkipReplies && eventType == model.EventTypeComment && ev.AuthorID != "" && ev.AuthorID == ev.PageID {
		return withRule(skipped(ReasonOwnComment), ruleID)
	}

	agent, err := s.stores.Agents().GetByID(ctx, rule.AgentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return withRule(skipped(ReasonAgentNotFound), ruleID)
		}
		return failed(fmt.Sprintf("loading agent: %v", err), &ruleID)
	}
	if agent.WorkspaceID != ws.ID {
		return withRule(skipped(ReasonAgentNotFound), ruleID)
	}

	text, err := s.generate(ctx, *agent, *rule, ev)
	if err != nil {
		return failed(err.Error(), &ruleID)
	}

	return s.send(ctx, ws, ev, text, ruleID)
}

func (s *automationService) generate(ctx context.Context, agent model.Agent, rule model.AutomationRule, ev meta.Event) (string, error) {
	sc := logger.StartSpan(ctx, "automation.generate_reply")
	defer sc.End()
	ctx = sc.Context()

	prompt := responder.BuildPrompt(agent, rule, ev.EventType(), ev.Text)
	text, err := s.generator.Generate(ctx, prompt)
	if err == nil {
		return text, nil
	}

	if errors.Is(err, responder.ErrEmptyReply) && agent.FallbackText() != "" {
		slog.InfoContext(ctx, "empty reply, using agent fallback", "agent_id", agent.ID)
		return agent.FallbackText(), nil
	}

	sc.RecordError(err)
	return "", fmt.Errorf("generating reply: %w", err)
}

func (s *automationService) send(ctx context.Context, ws *model.Workspace, ev meta.Event, text string, ruleID int64) model.ProcessingResult {
	sc := logger.StartSpan(ctx, "automation.send_reply")
	defer sc.End()
	ctx = sc.Context()

	token := ws.AccessToken(s.cfg.PageAccessToken)

	var (
		res          meta.SendResult
		responseType model.ResponseType
	)
	switch ev.Kind {
	case meta.EventKindComment:
		responseType = model.ResponseTypeCommentReply
		res = s.sender.ReplyToComment(ctx, ev.ExternalID, text, token)
	default:
		responseType = model.ResponseTypeDirectMessage
		res = s.sender.SendDirectMessage(ctx, ev.AuthorID, text, token)
	}

	if !res.OK {
		sc.RecordError(errors.New(res.Error))
		return failed(fmt.Sprintf("sending %s: %s", responseType, res.Error), &ruleID)
	}

	return model.ProcessingResult{
		Outcome: model.OutcomeSent,
		ResponseData: &model.ResponseData{
			Type:       responseType,
			ProviderID: res.MessageID,
			Text:       text,
		},
		RuleID: &ruleID,
	}
}

func (s *automationService) record(ctx context.Context, event *model.InboundEvent, outcome model.ProcessingResult) (*EventResult, error) {
	sc := logger.StartSpan(ctx, "automation.record_outcome")
	defer sc.End()
	sc.SetAttributes(
		attribute.String("outcome", string(outcome.Outcome)),
		attribute.Int64("event_id", event.ID),
	)

	updated, err := s.stores.InboundEvents().MarkProcessed(sc.Context(), event.ID, outcome)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("recording outcome for event %d: %w", event.ID, err)
	}

	er := &EventResult{
		EventID:    updated.ID,
		ExternalID: updated.ExternalID,
		EventType:  updated.EventType,
		Outcome:    outcome.Outcome,
	}
	if outcome.ErrorMessage != nil {
		er.Reason = *outcome.ErrorMessage
	}
	if outcome.ResponseData != nil {
		er.ResponseID = outcome.ResponseData.ProviderID
	}

	level := slog.LevelInfo
	if outcome.Outcome == model.OutcomeFailed {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "inbound event processed",
		"outcome", outcome.Outcome,
		"reason", er.Reason,
		"response_id", er.ResponseID)

	return er, nil
}

func channelPlatform(ws *model.Workspace) model.Platform {
	if ws.ChannelPlatform.Valid() {
		return ws.ChannelPlatform
	}
	return model.PlatformFacebook
}

func skipped(reason string) model.ProcessingResult {
	return model.ProcessingResult{Outcome: model.OutcomeSkipped, ErrorMessage: &reason}
}

func failed(reason string, ruleID *int64) model.ProcessingResult {
	return model.ProcessingResult{Outcome: model.OutcomeFailed, ErrorMessage: &reason, RuleID: ruleID}
}

func withRule(r model.ProcessingResult, ruleID int64) model.ProcessingResult {
	r.RuleID = &ruleID
	return r
}
