package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"retailassist.app/relay/internal/http/dto"
	"retailassist.app/relay/internal/service"
)

type InboundEventHandler struct {
	events      service.InboundEventService
	traceHeader string
}

func NewInboundEventHandler(events service.InboundEventService, traceHeader string) *InboundEventHandler {
	return &InboundEventHandler{
		events:      events,
		traceHeader: traceHeader,
	}
}

func (h *InboundEventHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	workspaceID, ok := pathID(c, "workspace_id")
	if !ok {
		return
	}

	var query dto.ListEventsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.events.List(ctx, workspaceID, query.Limit, query.Offset)
	if err != nil {
		h.respondError(c, err, "failed to list events")
		return
	}

	resp := dto.ListEventsResponse{
		Events: make([]*dto.InboundEventResponse, 0, len(events)),
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	for i := range events {
		resp.Events = append(resp.Events, dto.ToInboundEventResponse(&events[i], false))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InboundEventHandler) Get(c *gin.Context) {
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}

	event, err := h.events.Get(c.Request.Context(), eventID)
	if err != nil {
		h.respondError(c, err, "failed to load event")
		return
	}
	c.JSON(http.StatusOK, dto.ToInboundEventResponse(event, true))
}

func (h *InboundEventHandler) Reprocess(c *gin.Context) {
	ctx := c.Request.Context()
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}

	traceID := c.GetHeader(h.traceHeader)
	if traceID == "" {
		if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
			traceID = spanCtx.TraceID().String()
		}
	}
	var tracePtr *string
	if traceID != "" {
		tracePtr = &traceID
	}

	res, err := h.events.RequestReprocess(ctx, eventID, tracePtr)
	if err != nil {
		h.respondError(c, err, "failed to reprocess event")
		return
	}

	status := http.StatusOK
	if res.Enqueued {
		status = http.StatusAccepted
	}
	c.JSON(status, dto.ToReprocessEventResponse(eventID, res))
}

func (h *InboundEventHandler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrWorkspaceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
	case errors.Is(err, service.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	case errors.Is(err, service.ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "event already answered"})
	default:
		slog.ErrorContext(c.Request.Context(), msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
