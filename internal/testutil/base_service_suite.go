package testutil

import (
	"context"
	"time"

	"github.com/quizfunnel/leadsync/internal/cache"
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/domain/plan"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/quizfunnel/leadsync/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repositories and provider fakes used by service tests
type Stores struct {
	LeadRepo          *InMemoryLeadStore
	Identity          *FakeIdentityClient
	Payment           *FakePaymentClient
	Entitlement       *FakeEntitlementClient
	Granter           *FakeGranter
	WebhookPublisher  *InMemoryWebhookPublisher
	ProcessedEventIDs cache.Cache
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	plans  *plan.Catalog
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = NewTestConfig()
	s.logger = logger.NewNoopLogger()

	plans, err := plan.NewCatalog(s.config)
	if err != nil {
		s.T().Fatalf("failed to build plan catalog: %v", err)
	}
	s.plans = plans
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.LeadRepo.Clear()
	s.stores.WebhookPublisher.Clear()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		LeadRepo:          NewInMemoryLeadStore(),
		Identity:          NewFakeIdentityClient(),
		Payment:           NewFakePaymentClient(),
		Entitlement:       NewFakeEntitlementClient(),
		Granter:           NewFakeGranter(),
		WebhookPublisher:  NewInMemoryWebhookPublisher(),
		ProcessedEventIDs: cache.NewInMemoryCache(s.config),
	}
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns the test repositories and fakes
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPlans returns the test plan catalog
func (s *BaseServiceTestSuite) GetPlans() *plan.Catalog {
	return s.plans
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// NewTestConfig returns a configuration carrying the standard three plan catalog
func NewTestConfig() *config.Configuration {
	return &config.Configuration{
		Deployment: config.DeploymentConfig{Mode: types.ModeLocal},
		Logging:    config.LoggingConfig{Level: types.LogLevelInfo},
		Frontend:   config.FrontendConfig{BaseURL: "https://quiz.test"},
		Payment: config.PaymentConfig{
			SecretKey:     "sk_test",
			WebhookSecret: "whsec_test",
			Currency:      "usd",
		},
		Entitlement: config.EntitlementConfig{
			BaseURL:       "https://api.revenuecat.test/v1",
			SecretKey:     "rc_test",
			WebhookSecret: "rc_whsec",
			EntitlementID: "premium",
			GrantStrategy: types.GrantStrategyPromotional,
			EventDedupTTL: time.Hour,
		},
		Plans: map[string]config.PlanConfig{
			string(types.PlanTypeOneMonth): {
				Label:         "1 Month",
				AmountInCents: 1299,
				PriceID:       "price_1m",
				ProductID:     "premium_monthly",
				Duration:      string(types.DurationMonthly),
			},
			string(types.PlanTypeThreeMonths): {
				Label:         "3 Months",
				AmountInCents: 2999,
				PriceID:       "price_3m",
				ProductID:     "premium_quarterly",
				Duration:      string(types.DurationThreeMonth),
			},
			string(types.PlanTypeOneYear): {
				Label:         "1 Year",
				AmountInCents: 6999,
				PriceID:       "price_1y",
				ProductID:     "premium_yearly",
				Duration:      string(types.DurationYearly),
			},
		},
		PlanProductAliases: map[string]string{
			"new_monthly": string(types.PlanTypeOneMonth),
		},
		Auth: config.AuthConfig{
			Provider: types.AuthProviderLocal,
			Secret:   "test-secret",
			APIKey:   config.APIKeyConfig{Header: "x-api-key"},
		},
	}
}
