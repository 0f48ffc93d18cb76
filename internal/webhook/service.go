package webhook

import (
	"context"

	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	pubsubRouter "github.com/quizfunnel/leadsync/internal/pubsub/router"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/quizfunnel/leadsync/internal/webhook/handler"
	"github.com/quizfunnel/leadsync/internal/webhook/publisher"
)

// WebhookService runs delivery of lead notifications
type WebhookService struct {
	config    *config.Configuration
	publisher publisher.WebhookPublisher
	handler   handler.Handler
	router    *pubsubRouter.Router
	logger    *logger.Logger
	cancel    context.CancelFunc
}

// NewWebhookService creates a new notification service
func NewWebhookService(
	cfg *config.Configuration,
	publisher publisher.WebhookPublisher,
	h handler.Handler,
	router *pubsubRouter.Router,
	l *logger.Logger,
) *WebhookService {
	return &WebhookService{
		config:    cfg,
		publisher: publisher,
		handler:   h,
		router:    router,
		logger:    l,
	}
}

// Start registers the delivery handler and runs the router in the background.
// In api mode notifications are only published.
func (s *WebhookService) Start(ctx context.Context) error {
	if !s.config.Webhook.Enabled {
		s.logger.Info("lead notifications disabled")
		return nil
	}
	if s.config.Deployment.Mode == types.ModeAPI {
		s.logger.Info("notification delivery not started in api mode")
		return nil
	}

	s.handler.RegisterHandler(s.router)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	errCh := make(chan error, 1)
	go func() {
		if err := s.router.Run(runCtx); err != nil {
			s.logger.Errorw("notification router stopped", "error", err)
			errCh <- err
		}
	}()

	select {
	case <-s.router.Running():
	case err := <-errCh:
		return ierr.WithError(err).
			WithHint("Failed to start notification delivery").
			Mark(ierr.ErrSystem)
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Infow("lead notification delivery started",
		"topic", s.config.Webhook.Topic,
		"svix", s.config.Webhook.Svix.Enabled,
	)
	return nil
}

// Stop stops delivery and closes the publisher
func (s *WebhookService) Stop() error {
	s.logger.Debug("stopping notification service")

	if s.cancel != nil {
		s.cancel()
		if err := s.router.Close(); err != nil {
			s.logger.Errorw("failed to close notification router", "error", err)
			return err
		}
	}

	if err := s.publisher.Close(); err != nil {
		s.logger.Errorw("failed to close notification publisher", "error", err)
		return err
	}

	s.logger.Info("notification service stopped")
	return nil
}
