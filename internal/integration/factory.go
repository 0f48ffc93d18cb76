package integration

import (
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/httpclient"
	"github.com/quizfunnel/leadsync/internal/integration/clerk"
	"github.com/quizfunnel/leadsync/internal/integration/revenuecat"
	"github.com/quizfunnel/leadsync/internal/integration/stripe"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/logger"
)

// Factory builds the provider clients from configuration. Each client carries its own
// credentials so nothing is kept in package level state.
type Factory struct {
	config     *config.Configuration
	logger     *logger.Logger
	httpClient httpclient.Client
}

// NewFactory creates a new integration factory
func NewFactory(config *config.Configuration, logger *logger.Logger, httpClient httpclient.Client) *Factory {
	return &Factory{
		config:     config,
		logger:     logger,
		httpClient: httpClient,
	}
}

func (f *Factory) GetIdentityClient() interfaces.IdentityClient {
	if f.config.Identity.SecretKey == "" {
		f.logger.Warnw("identity secret key not configured, identity calls will fail")
	}
	return clerk.NewClient(f.config, f.httpClient, f.logger.With("provider", "clerk"))
}

func (f *Factory) GetPaymentClient() interfaces.PaymentClient {
	if f.config.Payment.WebhookSecret == "" {
		f.logger.Warnw("payment webhook secret not configured, payment webhooks will be rejected")
	}
	return stripe.NewClient(f.config, f.logger.With("provider", "stripe"))
}

func (f *Factory) GetEntitlementClient() interfaces.EntitlementClient {
	if f.config.Entitlement.WebhookSecret == "" {
		f.logger.Warnw("entitlement webhook secret not configured, entitlement webhooks will be rejected")
	}
	return revenuecat.NewClient(f.config, f.httpClient, f.logger.With("provider", "revenuecat"))
}

// GetEntitlementGranter returns the grant strategy chosen by entitlement.grant_strategy
func (f *Factory) GetEntitlementGranter(client interfaces.EntitlementClient) (interfaces.EntitlementGranter, error) {
	return revenuecat.NewGranter(f.config.Entitlement.GrantStrategy, client, f.logger.With("provider", "revenuecat"))
}
