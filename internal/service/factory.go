package service

import (
	"github.com/quizfunnel/leadsync/internal/cache"
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/domain/lead"
	"github.com/quizfunnel/leadsync/internal/domain/plan"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/logger"
	webhookPublisher "github.com/quizfunnel/leadsync/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	LeadRepo lead.Repository

	// Plan catalog
	Plans *plan.Catalog

	// External providers
	IdentityClient     interfaces.IdentityClient
	PaymentClient      interfaces.PaymentClient
	EntitlementClient  interfaces.EntitlementClient
	EntitlementGranter interfaces.EntitlementGranter

	// Publishers
	WebhookPublisher webhookPublisher.WebhookPublisher

	// Cache remembers processed webhook event ids
	Cache cache.Cache
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	leadRepo lead.Repository,
	plans *plan.Catalog,
	identityClient interfaces.IdentityClient,
	paymentClient interfaces.PaymentClient,
	entitlementClient interfaces.EntitlementClient,
	entitlementGranter interfaces.EntitlementGranter,
	webhookPublisher webhookPublisher.WebhookPublisher,
	cache cache.Cache,
) ServiceParams {
	return ServiceParams{
		Logger:             logger,
		Config:             config,
		LeadRepo:           leadRepo,
		Plans:              plans,
		IdentityClient:     identityClient,
		PaymentClient:      paymentClient,
		EntitlementClient:  entitlementClient,
		EntitlementGranter: entitlementGranter,
		WebhookPublisher:   webhookPublisher,
		Cache:              cache,
	}
}
