package webhook

import (
	"context"

	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/pubsub"
	"github.com/quizfunnel/leadsync/internal/pubsub/memory"
	pubsubRouter "github.com/quizfunnel/leadsync/internal/pubsub/router"
	"github.com/quizfunnel/leadsync/internal/svix"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/quizfunnel/leadsync/internal/webhook/handler"
	"github.com/quizfunnel/leadsync/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides all lead notification dependencies
var Module = fx.Options(
	fx.Provide(
		providePubSub,
		pubsubRouter.NewRouter,
		svix.NewClient,
	),

	fx.Provide(
		publisher.NewPublisher,
		handler.NewHandler,
		NewWebhookService,
	),

	fx.Invoke(registerLifecycle),
)

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	switch cfg.Webhook.PubSub {
	case types.MemoryPubSub, "":
		return memory.NewPubSub(cfg, logger)
	}
	logger.Warnw("unsupported notification pubsub, falling back to memory", "pubsub", cfg.Webhook.PubSub)
	return memory.NewPubSub(cfg, logger)
}

func registerLifecycle(lc fx.Lifecycle, svc *WebhookService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return svc.Stop()
		},
	})
}
