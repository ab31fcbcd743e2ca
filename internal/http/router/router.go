package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailassist.app/relay/internal/http/handler"
	"retailassist.app/relay/internal/http/handler/webhook"
	"retailassist.app/relay/internal/http/middleware"
	"retailassist.app/relay/internal/meta"
	"retailassist.app/relay/internal/service"
)

type RouterConfig struct {
	VerifyToken      string
	AppSecret        string
	RequireSignature bool
	AdminAPIKey      string
	TraceHeaderName  string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	metaHandler := webhook.NewMetaWebhookHandler(
		meta.NewVerifier(cfg.VerifyToken, cfg.AppSecret),
		services.Automation(),
		cfg.RequireSignature,
	)
	WebhookRouter(router.Group("/webhooks"), metaHandler)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAdminKey(cfg.AdminAPIKey))
	{
		eventHandler := handler.NewInboundEventHandler(services.InboundEvents(), cfg.TraceHeaderName)
		EventRouter(v1, eventHandler)

		ruleHandler := handler.NewAutomationRuleHandler(services.AutomationRules())
		AutomationRuleRouter(v1, ruleHandler)
	}
}
