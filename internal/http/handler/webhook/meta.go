package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"retailassist.app/relay/common/logger"
	"retailassist.app/relay/internal/meta"
	"retailassist.app/relay/internal/service"
)

const maxDeliveryBytes = 1 << 20

type MetaWebhookHandler struct {
	verifier         *meta.Verifier
	automation       service.AutomationService
	requireSignature bool
}

// NewMetaWebhookHandler builds the Meta page webhook. With requireSignature
// false, signature problems are logged and the delivery is still processed.
func NewMetaWebhookHandler(verifier *meta.Verifier, automation service.AutomationService, requireSignature bool) *MetaWebhookHandler {
	return &MetaWebhookHandler{
		verifier:         verifier,
		automation:       automation,
		requireSignature: requireSignature,
	}
}

// Verify answers the subscription handshake Meta sends when the webhook is configured.
func (h *MetaWebhookHandler) Verify(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{Component: "relay.http.webhook.meta"})

	challenge, err := h.verifier.VerifyHandshake(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, meta.ErrVerifyTokenNotConfigured):
			status = http.StatusInternalServerError
			slog.ErrorContext(ctx, "webhook verify token not configured")
		case errors.Is(err, meta.ErrInvalidVerifyToken):
			status = http.StatusForbidden
			slog.WarnContext(ctx, "webhook handshake with invalid verify token")
		default:
			slog.WarnContext(ctx, "webhook handshake rejected", "error", err, "mode", c.Query("hub.mode"))
		}
		c.String(status, err.Error())
		return
	}

	slog.InfoContext(ctx, "webhook handshake verified")
	c.String(http.StatusOK, challenge)
}

// HandleEvent processes a delivery. Every entry is handled independently and
// the delivery is acknowledged with 200 once it has been decoded.
func (h *MetaWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{Component: "relay.http.webhook.meta"})

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxDeliveryBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if err := h.verifier.VerifySignature(body, c.GetHeader(meta.SignatureHeader)); err != nil {
		if h.requireSignature {
			if errors.Is(err, meta.ErrSecretNotConfigured) {
				slog.ErrorContext(ctx, "webhook app secret not configured")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook secret not configured"})
				return
			}
			slog.WarnContext(ctx, "rejecting webhook with bad signature", "error", err)
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		slog.WarnContext(ctx, "webhook signature not verified, continuing in development", "error", err)
	}

	delivery, err := meta.DecodeDelivery(body)
	if err != nil {
		slog.WarnContext(ctx, "invalid webhook payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}

	if delivery.Object != meta.ObjectPage {
		slog.InfoContext(ctx, "ignoring non-page webhook", "object", delivery.Object)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	if len(delivery.Entry) == 0 {
		slog.InfoContext(ctx, "webhook without entries")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	processed := 0
	for i, entry := range delivery.Entry {
		if err := h.processEntry(c, entry); err != nil {
			slog.ErrorContext(ctx, "failed to process webhook entry", "error", err, "entry_index", i)
			continue
		}
		processed++
	}

	slog.InfoContext(ctx, "webhook processed", "processed", processed, "total", len(delivery.Entry))
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"processed": processed,
		"total":     len(delivery.Entry),
	})
}

func (h *MetaWebhookHandler) processEntry(c *gin.Context, entry json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing entry: %v", r)
		}
	}()

	_, err = h.automation.ProcessEntry(c.Request.Context(), entry)
	return err
}
