package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizfunnel/leadsync/internal/api/dto"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/service"
	"github.com/quizfunnel/leadsync/internal/svix"
	"github.com/quizfunnel/leadsync/internal/types"
)

// maxWebhookBodyBytes bounds provider payloads, both providers stay far below it
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives provider webhooks and exposes the notification dashboard
type WebhookHandler struct {
	service    service.WebhookService
	svixClient *svix.Client
	logger     *logger.Logger
}

func NewWebhookHandler(
	service service.WebhookService,
	svixClient *svix.Client,
	logger *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		service:    service,
		svixClient: svixClient,
		logger:     logger,
	}
}

// @Summary Handle payment webhook events
// @Description Verifies the Stripe signature and reconciles checkout completion. Processing failures are logged and still acknowledged.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe webhook signature"
// @Success 200 {object} dto.WebhookResponse
// @Failure 401 {object} ierr.ErrorResponse
// @Router /webhooks/payment [post]
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}

	if err := h.service.HandlePaymentWebhook(c.Request.Context(), body, c.GetHeader(types.HeaderStripeSignature)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}

// @Summary Handle entitlement webhook events
// @Description Verifies the RevenueCat HMAC signature and applies subscriber lifecycle events
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-RevenueCat-Signature header string true "RevenueCat webhook signature"
// @Success 200 {object} dto.WebhookResponse
// @Failure 401 {object} ierr.ErrorResponse
// @Router /webhooks/entitlement [post]
func (h *WebhookHandler) HandleEntitlementWebhook(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}

	signature := c.GetHeader(types.HeaderRevenueCatSignature)
	if err := h.service.HandleEntitlementWebhook(c.Request.Context(), body, signature); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}

// @Summary Get notification dashboard URL
// @Tags Webhooks
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} ierr.ErrorResponse
// @Router /admin/notifications/dashboard [get]
func (h *WebhookHandler) GetDashboardURL(c *gin.Context) {
	if !h.svixClient.Enabled() {
		c.JSON(http.StatusOK, gin.H{
			"url":          "",
			"svix_enabled": false,
		})
		return
	}

	url, err := h.svixClient.GetDashboardURL(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to get Svix dashboard URL", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":          url,
		"svix_enabled": true,
	})
}

func (h *WebhookHandler) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Errorw("failed to read webhook body", "path", c.FullPath(), "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return nil, false
	}
	return body, true
}
