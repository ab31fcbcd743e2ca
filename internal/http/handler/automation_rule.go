package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"retailassist.app/relay/internal/http/dto"
	"retailassist.app/relay/internal/service"
)

type AutomationRuleHandler struct {
	rules service.AutomationRuleService
}

func NewAutomationRuleHandler(rules service.AutomationRuleService) *AutomationRuleHandler {
	return &AutomationRuleHandler{rules: rules}
}

func (h *AutomationRuleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	workspaceID, ok := pathID(c, "workspace_id")
	if !ok {
		return
	}

	rules, err := h.rules.List(ctx, workspaceID)
	if err != nil {
		h.respondError(c, err, "failed to list automation rules")
		return
	}

	resp := make([]*dto.AutomationRuleResponse, 0, len(rules))
	for i := range rules {
		resp = append(resp, dto.ToAutomationRuleResponse(&rules[i]))
	}
	c.JSON(http.StatusOK, gin.H{"rules": resp})
}

func (h *AutomationRuleHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	workspaceID, ok := pathID(c, "workspace_id")
	if !ok {
		return
	}

	var req dto.CreateAutomationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.rules.Create(ctx, workspaceID, req.ToInput())
	if err != nil {
		h.respondError(c, err, "failed to create automation rule")
		return
	}

	slog.InfoContext(ctx, "automation rule created", "rule_id", rule.ID, "workspace_id", workspaceID)
	c.JSON(http.StatusCreated, dto.ToAutomationRuleResponse(rule))
}

func (h *AutomationRuleHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	ruleID, ok := pathID(c, "rule_id")
	if !ok {
		return
	}

	var req dto.UpdateAutomationRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.rules.Update(ctx, ruleID, req.ToPatch())
	if err != nil {
		h.respondError(c, err, "failed to update automation rule")
		return
	}

	c.JSON(http.StatusOK, dto.ToAutomationRuleResponse(rule))
}

func (h *AutomationRuleHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	ruleID, ok := pathID(c, "rule_id")
	if !ok {
		return
	}

	if err := h.rules.Delete(ctx, ruleID); err != nil {
		h.respondError(c, err, "failed to delete automation rule")
		return
	}

	slog.InfoContext(ctx, "automation rule deleted", "rule_id", ruleID)
	c.Status(http.StatusNoContent)
}

func (h *AutomationRuleHandler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrWorkspaceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
	case errors.Is(err, service.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "automation rule not found"})
	case errors.Is(err, service.ErrInvalidRule):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(c.Request.Context(), msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
