package router

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/sentry"
)

const deadLetterTopic = "lead_notifications_dlq"

// Router manages all message routing
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
	config *config.Webhook
	dlq    *gochannel.GoChannel
}

// NewRouter creates a new message router
func NewRouter(cfg *config.Configuration, logger *logger.Logger, sentry *sentry.Service) (*Router, error) {
	wmLogger := watermill.NewStdLogger(false, false)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	dlq := newDeadLetterQueue(wmLogger)
	poisonQueue, err := middleware.PoisonQueue(dlq, deadLetterTopic)
	if err != nil {
		return nil, err
	}

	// order matters: retries run inside the poison queue so only exhausted messages land there
	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:          cfg.Webhook.MaxRetries,
			InitialInterval:     cfg.Webhook.InitialInterval,
			MaxInterval:         cfg.Webhook.MaxInterval,
			Multiplier:          cfg.Webhook.Multiplier,
			MaxElapsedTime:      cfg.Webhook.MaxElapsedTime,
			RandomizationFactor: 0.5,
			Logger:              wmLogger,
			OnRetryHook: func(retryNum int, delay time.Duration) {
				logger.Infow("retrying lead notification",
					"retry_number", retryNum,
					"max_retries", cfg.Webhook.MaxRetries,
					"delay", delay,
				)
			},
		}.Middleware,
	)

	return &Router{
		router: router,
		logger: logger,
		sentry: sentry,
		config: &cfg.Webhook,
		dlq:    dlq,
	}, nil
}

// AddNoPublishHandler adds a handler that doesn't publish messages.
// Errors that cannot succeed on a retry are acknowledged and dropped.
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err == nil {
				return nil
			}

			if !shouldRetry(r.logger, err) {
				r.logger.Warnw("dropping lead notification after non-retryable error",
					"error", err,
					"correlation_id", middleware.MessageCorrelationID(msg),
					"message_uuid", msg.UUID,
				)
				return nil
			}

			r.sentry.CaptureWithTags(err, map[string]string{
				"handler":    handlerName,
				"lead_id":    msg.Metadata.Get("lead_id"),
				"event_name": msg.Metadata.Get("event_name"),
			})
			r.logger.Errorw("handler failed",
				"error", err,
				"correlation_id", middleware.MessageCorrelationID(msg),
				"message_uuid", msg.UUID,
			)
			return err
		},
	)

	for _, m := range middlewares {
		handler.AddMiddleware(m)
	}
}

// Running is closed once all handlers are subscribed
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Run starts the router and blocks until ctx is done or Close is called
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting notification router")
	return r.router.Run(ctx)
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing notification router")
	if err := r.router.Close(); err != nil {
		return err
	}
	return r.dlq.Close()
}

// newDeadLetterQueue keeps poisoned messages in memory, they are only visible in logs
func newDeadLetterQueue(l watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			Persistent: false,
		},
		l,
	)
}
