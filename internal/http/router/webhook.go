package router

import (
	"github.com/gin-gonic/gin"

	"retailassist.app/relay/internal/http/handler/webhook"
)

func WebhookRouter(rg *gin.RouterGroup, h *webhook.MetaWebhookHandler) {
	rg.GET("/meta", h.Verify)
	rg.POST("/meta", h.HandleEvent)
}
