package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/httpclient"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/pubsub"
	pubsubRouter "github.com/quizfunnel/leadsync/internal/pubsub/router"
	"github.com/quizfunnel/leadsync/internal/svix"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
)

const (
	headerEventName = "X-Leadsync-Event"
	headerEventID   = "X-Leadsync-Event-ID"
)

// Handler delivers queued lead notifications
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

// SvixSender is the part of the svix client the handler needs
type SvixSender interface {
	Enabled() bool
	SendMessage(ctx context.Context, eventType string, payload json.RawMessage) error
}

var _ SvixSender = (*svix.Client)(nil)

type handler struct {
	pubSub     pubsub.PubSub
	config     *config.Webhook
	client     httpclient.Client
	logger     *logger.Logger
	svixClient SvixSender
}

// NewHandler creates a notification handler reading from pubSub
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	client httpclient.Client,
	logger *logger.Logger,
	svixClient *svix.Client,
) (Handler, error) {
	return newHandler(pubSub, cfg, client, logger, svixClient), nil
}

func newHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	client httpclient.Client,
	logger *logger.Logger,
	svixClient SvixSender,
) *handler {
	return &handler{
		pubSub:     pubSub,
		config:     &cfg.Webhook,
		client:     client,
		logger:     logger,
		svixClient: svixClient,
	}
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"lead_notification_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage delivers a single notification
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal lead notification",
			"error", err,
			"message_uuid", msg.UUID,
		)
		// a malformed message will not decode on a retry either
		return nil
	}

	if event.RequestID != "" {
		ctx = types.SetRequestID(ctx, event.RequestID)
	}

	if h.config.Svix.Enabled && h.svixClient != nil && h.svixClient.Enabled() {
		return h.processMessageSvix(ctx, &event, msg)
	}

	return h.processMessageNative(ctx, &event, msg)
}

func (h *handler) processMessageSvix(ctx context.Context, event *types.WebhookEvent, msg *message.Message) error {
	if err := h.svixClient.SendMessage(ctx, event.EventName, json.RawMessage(msg.Payload)); err != nil {
		h.logger.Errorw("failed to send lead notification via svix",
			"error", err,
			"message_uuid", msg.UUID,
			"lead_id", event.LeadID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("lead notification sent via svix",
		"message_uuid", msg.UUID,
		"lead_id", event.LeadID,
		"event", event.EventName,
	)
	return nil
}

func (h *handler) processMessageNative(ctx context.Context, event *types.WebhookEvent, msg *message.Message) error {
	if h.config.Endpoint == "" {
		h.logger.Warnw("no notification endpoint configured, dropping event",
			"message_uuid", msg.UUID,
			"event", event.EventName,
		)
		return nil
	}

	headers := lo.Assign(h.config.Headers, map[string]string{
		headerEventName: event.EventName,
		headerEventID:   event.ID,
	})

	req := &httpclient.Request{
		Method:     http.MethodPost,
		URL:        h.config.Endpoint,
		Headers:    headers,
		Body:       msg.Payload,
		Idempotent: true,
	}

	resp, err := h.client.Send(ctx, req)
	if err != nil {
		h.logger.Errorw("failed to send lead notification",
			"error", err,
			"message_uuid", msg.UUID,
			"lead_id", event.LeadID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("lead notification sent",
		"message_uuid", msg.UUID,
		"lead_id", event.LeadID,
		"event", event.EventName,
		"status_code", resp.StatusCode,
	)
	return nil
}
