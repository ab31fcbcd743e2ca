package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// The webhook handler and the worker set them once per entry/event so that every
// store, generator and sender log line carries the tenant and event it belongs to.
type LogFields struct {
	WorkspaceID *int64  // Tenant owning the channel
	EventID     *int64  // Inbound event row ID
	RuleID      *int64  // Automation rule applied to the event
	PageID      *string // External page/channel ID
	EventType   *string // "comment" or "message"
	Platform    *string // "facebook" or "instagram"
	MessageID   *string // Redis stream message ID
	Component   string  // Component name, e.g. "relay.service.automation"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.WorkspaceID != nil {
		result.WorkspaceID = new.WorkspaceID
	}
	if new.EventID != nil {
		result.EventID = new.EventID
	}
	if new.RuleID != nil {
		result.RuleID = new.RuleID
	}
	if new.PageID != nil {
		result.PageID = new.PageID
	}
	if new.EventType != nil {
		result.EventType = new.EventType
	}
	if new.Platform != nil {
		result.Platform = new.Platform
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{EventID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
// Used for reply text and provider error bodies in log lines.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
