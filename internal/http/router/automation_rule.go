package router

import (
	"github.com/gin-gonic/gin"

	"retailassist.app/relay/internal/http/handler"
)

func AutomationRuleRouter(rg *gin.RouterGroup, h *handler.AutomationRuleHandler) {
	rg.GET("/workspaces/:workspace_id/rules", h.List)
	rg.POST("/workspaces/:workspace_id/rules", h.Create)
	rg.PATCH("/rules/:rule_id", h.Update)
	rg.DELETE("/rules/:rule_id", h.Delete)
}
