package publisher

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/pubsub"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
)

// WebhookPublisher queues lead lifecycle notifications for delivery
type WebhookPublisher interface {
	PublishWebhook(ctx context.Context, event *types.WebhookEvent) error
	Close() error
}

type webhookPublisher struct {
	pubSub pubsub.PubSub
	config *config.Webhook
	logger *logger.Logger
}

// NewPublisher creates a publisher on top of the configured pubsub
func NewPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) (WebhookPublisher, error) {
	return &webhookPublisher{
		pubSub: pubSub,
		config: &cfg.Webhook,
		logger: logger,
	}, nil
}

func (p *webhookPublisher) PublishWebhook(ctx context.Context, event *types.WebhookEvent) error {
	if !p.config.Enabled {
		return nil
	}

	if lo.Contains(p.config.ExcludedEvents, event.EventName) {
		p.logger.Debugw("skipping excluded lead notification",
			"event_name", event.EventName,
			"lead_id", event.LeadID,
		)
		return nil
	}

	if event.ID == "" {
		event.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFICATION_EVENT)
	}
	if event.RequestID == "" {
		event.RequestID = types.GetRequestID(ctx)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode lead notification").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("lead_id", event.LeadID)
	msg.Metadata.Set("event_name", event.EventName)
	if event.RequestID != "" {
		msg.Metadata.Set("request_id", event.RequestID)
	} else {
		msg.Metadata.Set("request_id", watermill.NewUUID())
	}

	p.logger.Debugw("publishing lead notification",
		"event_id", event.ID,
		"event_name", event.EventName,
		"lead_id", event.LeadID,
		"topic", p.config.Topic,
	)

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish lead notification",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
			"lead_id", event.LeadID,
		)
		return ierr.WithError(err).
			WithHint("Failed to publish lead notification").
			Mark(ierr.ErrSystem)
	}

	return nil
}

// Close closes the publisher
func (p *webhookPublisher) Close() error {
	return p.pubSub.Close()
}
