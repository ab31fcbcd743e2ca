package router

import (
	"github.com/gin-gonic/gin"

	"retailassist.app/relay/internal/http/handler"
)

func EventRouter(rg *gin.RouterGroup, h *handler.InboundEventHandler) {
	rg.GET("/workspaces/:workspace_id/events", h.List)
	rg.GET("/events/:event_id", h.Get)
	rg.POST("/events/:event_id/reprocess", h.Reprocess)
}
