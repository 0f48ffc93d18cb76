package service

import (
	"testing"
	"time"

	"github.com/quizfunnel/leadsync/internal/domain/lead"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/testutil"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type WebhookServiceSuite struct {
	testutil.BaseServiceTestSuite
	service WebhookService
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceSuite))
}

func (s *WebhookServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewWebhookService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *WebhookServiceSuite) seedLead(mutate func(l *lead.Lead)) *lead.Lead {
	now := s.GetNow()
	l := &lead.Lead{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEAD),
		Email1:         "a@x.com",
		IdentityUserID: lo.ToPtr("user_1"),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if mutate != nil {
		mutate(l)
	}
	s.GetStores().LeadRepo.Seed(l)
	return l
}

func (s *WebhookServiceSuite) paidActiveLead() *lead.Lead {
	paidAt := s.GetNow().Add(-24 * time.Hour)
	return s.seedLead(func(l *lead.Lead) {
		l.Paid = true
		l.PaidAt = &paidAt
		l.PlanType = lo.ToPtr(types.PlanTypeOneMonth)
		l.AmountInCents = lo.ToPtr(int64(1299))
		l.SubscriberID = lo.ToPtr("user_1")
		l.SubscriptionStatus = lo.ToPtr(types.SubscriptionStatusActive)
		l.EntitlementGrantedAt = &paidAt
	})
}

func (s *WebhookServiceSuite) getLead(id string) *lead.Lead {
	l, err := s.GetStores().LeadRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	return l
}

func (s *WebhookServiceSuite) TestInvalidSignatureLeavesLeadUnchanged() {
	l := s.seedLead(nil)
	s.GetStores().Payment.Event = &types.PaymentEvent{
		ID:          "evt_1",
		Type:        types.PaymentEventCheckoutCompleted,
		SessionID:   "cs_1",
		AmountTotal: lo.ToPtr(int64(1299)),
		Metadata:    map[string]string{types.CheckoutMetadataLeadID: l.ID},
	}
	s.GetStores().Entitlement.Event = &types.EntitlementEvent{
		ID:        "rc_1",
		Type:      types.EntitlementEventExpiration,
		AppUserID: "user_1",
	}

	tests := []struct {
		name string
		call func() error
	}{
		{
			name: "payment",
			call: func() error { return s.service.HandlePaymentWebhook(s.GetContext(), []byte(`{}`), "forged") },
		},
		{
			name: "entitlement",
			call: func() error { return s.service.HandleEntitlementWebhook(s.GetContext(), []byte(`{}`), "") },
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := tt.call()
			s.Error(err)
			s.True(ierr.IsUnauthorized(err))
			s.Equal(l, s.getLead(l.ID))
		})
	}
	s.Empty(s.GetStores().WebhookPublisher.Events())
}

func (s *WebhookServiceSuite) TestUndecodableWebhookIsAcknowledged() {
	l := s.seedLead(nil)
	decodeErr := ierr.NewError("invalid character").Mark(ierr.ErrValidation)
	s.GetStores().Payment.ParseErr = decodeErr
	s.GetStores().Entitlement.ParseErr = decodeErr

	s.NoError(s.service.HandlePaymentWebhook(s.GetContext(), []byte(`{`), "valid"))
	s.NoError(s.service.HandleEntitlementWebhook(s.GetContext(), []byte(`{`), "valid"))

	s.Equal(l, s.getLead(l.ID))
	s.Empty(s.GetStores().WebhookPublisher.Events())

	err := s.service.HandlePaymentWebhook(s.GetContext(), []byte(`{`), "forged")
	s.True(ierr.IsUnauthorized(err))
}

func (s *WebhookServiceSuite) TestPaymentCompletedMarksPaid() {
	l := s.seedLead(func(l *lead.Lead) {
		l.ExternalSessionID = lo.ToPtr("cs_1")
	})
	s.GetStores().Payment.Event = &types.PaymentEvent{
		ID:              "evt_1",
		Type:            types.PaymentEventCheckoutCompleted,
		SessionID:       "cs_1",
		PaymentIntentID: "pi_1",
		AmountTotal:     lo.ToPtr(int64(2999)),
		Metadata: map[string]string{
			types.CheckoutMetadataLeadID:   l.ID,
			types.CheckoutMetadataPlanType: string(types.PlanTypeThreeMonths),
		},
	}

	err := s.service.HandlePaymentWebhook(s.GetContext(), []byte(`{}`), "valid")
	s.Require().NoError(err)

	got := s.getLead(l.ID)
	s.True(got.Paid)
	s.NotNil(got.PaidAt)
	s.Equal(types.PlanTypeThreeMonths, *got.PlanType)
	s.Equal(int64(2999), *got.AmountInCents)
	s.Equal("pi_1", *got.ExternalTransactionID)
	s.NotNil(got.EntitlementGrantedAt)
	s.Equal(1, s.GetStores().Granter.GrantCount())
	s.Equal("cs_1", s.GetStores().Granter.Requests[0].SessionID)
	s.Equal([]string{
		types.WebhookEventLeadPaid,
		types.WebhookEventLeadEntitlementGranted,
	}, s.GetStores().WebhookPublisher.EventNames())
}

func (s *WebhookServiceSuite) TestPaymentCompletedAfterSuccessPageMarkedPaid() {
	paidAt := s.GetNow().Add(-time.Minute)
	l := s.seedLead(func(l *lead.Lead) {
		l.Paid = true
		l.PaidAt = &paidAt
		l.ExternalSessionID = lo.ToPtr("cs_1")
	})
	s.GetStores().Payment.Event = &types.PaymentEvent{
		ID:              "evt_1",
		Type:            types.PaymentEventCheckoutCompleted,
		SessionID:       "cs_1",
		PaymentIntentID: "pi_1",
		AmountTotal:     lo.ToPtr(int64(2999)),
		Metadata: map[string]string{
			types.CheckoutMetadataLeadID:   l.ID,
			types.CheckoutMetadataPlanType: string(types.PlanTypeThreeMonths),
		},
	}

	err := s.service.HandlePaymentWebhook(s.GetContext(), []byte(`{}`), "valid")
	s.Require().NoError(err)

	got := s.getLead(l.ID)
	s.True(got.Paid)
	s.Require().NotNil(got.PaidAt)
	s.True(paidAt.Equal(*got.PaidAt))
	s.Require().NotNil(got.ExternalTransactionID)
	s.Equal("pi_1", *got.ExternalTransactionID)
	s.Require().NotNil(got.AmountInCents)
	s.Equal(int64(2999), *got.AmountInCents)
	s.Require().NotNil(got.PlanType)
	s.Equal(types.PlanTypeThreeMonths, *got.PlanType)
	s.Equal("cs_1", *got.ExternalSessionID)
	s.Equal(1, s.GetStores().Granter.GrantCount())
	s.NotContains(s.GetStores().WebhookPublisher.EventNames(), types.WebhookEventLeadPaid)
}

func (s *WebhookServiceSuite) TestPaymentCompletedFallsBackToSession() {
	l := s.seedLead(func(l *lead.Lead) {
		l.ExternalSessionID = lo.ToPtr("cs_9")
		l.PlanType = lo.ToPtr(types.PlanTypeOneYear)
	})

	err := s.service.HandlePaymentEvent(s.GetContext(), &types.PaymentEvent{
		Type:      types.PaymentEventCheckoutCompleted,
		SessionID: "cs_9",
	})
	s.Require().NoError(err)

	got := s.getLead(l.ID)
	s.True(got.Paid)
	s.Equal(int64(6999), *got.AmountInCents)
}

func (s *WebhookServiceSuite) TestPaymentReplayIsIdempotent() {
	l := s.seedLead(nil)
	event := &types.PaymentEvent{
		Type:        types.PaymentEventCheckoutCompleted,
		SessionID:   "cs_1",
		AmountTotal: lo.ToPtr(int64(1299)),
		Metadata:    map[string]string{types.CheckoutMetadataLeadID: l.ID},
	}

	s.Require().NoError(s.service.HandlePaymentEvent(s.GetContext(), event))
	first := s.getLead(l.ID)
	s.Require().NoError(s.service.HandlePaymentEvent(s.GetContext(), event))
	second := s.getLead(l.ID)

	s.Equal(first.PaidAt, second.PaidAt)
	s.Equal(first.AmountInCents, second.AmountInCents)
	s.Equal(1, s.GetStores().Granter.GrantCount())
	s.Equal(1, lo.Count(s.GetStores().WebhookPublisher.EventNames(), types.WebhookEventLeadPaid))
}

func (s *WebhookServiceSuite) TestPaymentRedeliveryIsDropped() {
	l := s.seedLead(nil)
	s.GetStores().Payment.Event = &types.PaymentEvent{
		ID:        "evt_dup",
		Type:      types.PaymentEventCheckoutCompleted,
		SessionID: "cs_1",
		Metadata:  map[string]string{types.CheckoutMetadataLeadID: l.ID},
	}

	s.Require().NoError(s.service.HandlePaymentWebhook(s.GetContext(), nil, "valid"))
	s.Require().NoError(s.service.HandlePaymentWebhook(s.GetContext(), nil, "valid"))

	s.Len(s.GetStores().WebhookPublisher.Events(), 2)
}

func (s *WebhookServiceSuite) TestPaymentFailureAllowsRedelivery() {
	l := s.seedLead(nil)
	s.GetStores().Payment.Event = &types.PaymentEvent{
		ID:        "evt_retry",
		Type:      types.PaymentEventCheckoutCompleted,
		SessionID: "cs_1",
		Metadata:  map[string]string{types.CheckoutMetadataLeadID: l.ID},
	}
	s.GetStores().LeadRepo.UpdateErr = ierr.NewError("db down").Mark(ierr.ErrDatabase)

	// processing errors are swallowed once the signature is valid
	s.Require().NoError(s.service.HandlePaymentWebhook(s.GetContext(), nil, "valid"))
	s.False(s.getLead(l.ID).Paid)

	s.GetStores().LeadRepo.UpdateErr = nil
	s.Require().NoError(s.service.HandlePaymentWebhook(s.GetContext(), nil, "valid"))
	s.True(s.getLead(l.ID).Paid)
}

func (s *WebhookServiceSuite) TestPaymentUnmatchedAndExpired() {
	l := s.seedLead(func(l *lead.Lead) {
		l.ExternalSessionID = lo.ToPtr("cs_1")
	})

	tests := []struct {
		name  string
		event *types.PaymentEvent
	}{
		{
			name:  "unmatched completion",
			event: &types.PaymentEvent{Type: types.PaymentEventCheckoutCompleted, SessionID: "cs_other"},
		},
		{
			name: "unknown lead id in metadata",
			event: &types.PaymentEvent{
				Type:      types.PaymentEventCheckoutCompleted,
				SessionID: "cs_other",
				Metadata:  map[string]string{types.CheckoutMetadataLeadID: "lead_missing"},
			},
		},
		{
			name:  "expired session",
			event: &types.PaymentEvent{Type: types.PaymentEventCheckoutExpired, SessionID: "cs_1"},
		},
		{
			name:  "ignored event",
			event: &types.PaymentEvent{Type: types.PaymentEventIgnored},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.NoError(s.service.HandlePaymentEvent(s.GetContext(), tt.event))
			s.Equal(l, s.getLead(l.ID))
		})
	}
	s.Equal(0, s.GetStores().Granter.GrantCount())
}

func (s *WebhookServiceSuite) TestInitialPurchaseReplay() {
	l := s.seedLead(nil)
	expires := s.GetNow().Add(30 * 24 * time.Hour).Truncate(time.Second)
	event := &types.EntitlementEvent{
		ID:        "rc_1",
		Type:      types.EntitlementEventInitialPurchase,
		AppUserID: "user_1",
		ProductID: "premium_monthly",
		Price:     lo.ToPtr(12.99),
		ExpiresAt: &expires,
	}

	s.Require().NoError(s.service.HandleEntitlementEvent(s.GetContext(), event))
	first := s.getLead(l.ID)
	s.Require().NoError(s.service.HandleEntitlementEvent(s.GetContext(), event))
	second := s.getLead(l.ID)

	s.True(second.Paid)
	s.Equal(types.SubscriptionStatusActive, *second.SubscriptionStatus)
	s.Equal(int64(1299), *second.AmountInCents)
	s.Equal(first.AmountInCents, second.AmountInCents)
	s.Equal(first.PaidAt, second.PaidAt)
	s.Equal(types.PlanTypeOneMonth, *second.PlanType)
	s.Equal("user_1", *second.SubscriberID)
	s.True(expires.Equal(*second.SubscriptionExpiresAt))
	s.Equal(1, lo.Count(s.GetStores().WebhookPublisher.EventNames(), types.WebhookEventLeadPaid))
}

func (s *WebhookServiceSuite) TestEntitlementTransitions() {
	expires := s.GetNow().Add(time.Hour)

	tests := []struct {
		name       string
		event      *types.EntitlementEvent
		wantPaid   bool
		wantStatus types.SubscriptionStatus
		wantPlan   types.PlanType
		wantAmount int64
		premium    bool
	}{
		{
			name:       "renewal keeps amount without price",
			event:      &types.EntitlementEvent{Type: types.EntitlementEventRenewal, ExpiresAt: &expires},
			wantPaid:   true,
			wantStatus: types.SubscriptionStatusActive,
			wantPlan:   types.PlanTypeOneMonth,
			wantAmount: 1299,
			premium:    true,
		},
		{
			name: "renewal of unmapped product keeps plan",
			event: &types.EntitlementEvent{
				Type:      types.EntitlementEventRenewal,
				ProductID: "legacy_weekly",
				ExpiresAt: &expires,
			},
			wantPaid:   true,
			wantStatus: types.SubscriptionStatusActive,
			wantPlan:   types.PlanTypeOneMonth,
			wantAmount: 1299,
			premium:    true,
		},
		{
			name:       "cancellation keeps access",
			event:      &types.EntitlementEvent{Type: types.EntitlementEventCancellation},
			wantPaid:   true,
			wantStatus: types.SubscriptionStatusCancelled,
			wantPlan:   types.PlanTypeOneMonth,
			wantAmount: 1299,
			premium:    true,
		},
		{
			name:       "uncancellation reactivates",
			event:      &types.EntitlementEvent{Type: types.EntitlementEventUncancellation},
			wantPaid:   true,
			wantStatus: types.SubscriptionStatusActive,
			wantPlan:   types.PlanTypeOneMonth,
			wantAmount: 1299,
			premium:    true,
		},
		{
			name:       "expiration revokes payment only",
			event:      &types.EntitlementEvent{Type: types.EntitlementEventExpiration},
			wantPaid:   false,
			wantStatus: types.SubscriptionStatusExpired,
			wantPlan:   types.PlanTypeOneMonth,
			wantAmount: 1299,
		},
		{
			name:       "billing issue",
			event:      &types.EntitlementEvent{Type: types.EntitlementEventBillingIssue},
			wantPaid:   true,
			wantStatus: types.SubscriptionStatusBillingIssue,
			wantPlan:   types.PlanTypeOneMonth,
			wantAmount: 1299,
		},
		{
			name: "product change swaps plan and keeps amount",
			event: &types.EntitlementEvent{
				Type:       types.EntitlementEventProductChange,
				ProductID:  "premium_monthly",
				NewProduct: "premium_yearly:annual-base",
			},
			wantPaid:   true,
			wantStatus: types.SubscriptionStatusActive,
			wantPlan:   types.PlanTypeOneYear,
			wantAmount: 1299,
			premium:    true,
		},
		{
			name:       "unrecognized event is ignored",
			event:      &types.EntitlementEvent{Type: types.EntitlementEventTransfer},
			wantPaid:   true,
			wantStatus: types.SubscriptionStatusActive,
			wantPlan:   types.PlanTypeOneMonth,
			wantAmount: 1299,
			premium:    true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			l := s.paidActiveLead()
			tt.event.AppUserID = "user_1"

			s.Require().NoError(s.service.HandleEntitlementEvent(s.GetContext(), tt.event))

			got := s.getLead(l.ID)
			s.Equal(tt.wantPaid, got.Paid)
			s.Equal(tt.wantPaid, got.PaidAt != nil)
			s.Equal(tt.wantStatus, *got.SubscriptionStatus)
			s.Equal(tt.wantPlan, *got.PlanType)
			s.Equal(tt.wantAmount, *got.AmountInCents)
			s.Equal(tt.premium, got.IsPremium(time.Now()))

			s.GetStores().LeadRepo.Clear()
		})
	}
}

func (s *WebhookServiceSuite) TestExpirationAllowsRegrant() {
	l := s.paidActiveLead()

	s.Require().NoError(s.service.HandleEntitlementEvent(s.GetContext(), &types.EntitlementEvent{
		Type:      types.EntitlementEventExpiration,
		AppUserID: "user_1",
	}))
	s.Nil(s.getLead(l.ID).EntitlementGrantedAt)

	s.Require().NoError(s.service.HandlePaymentEvent(s.GetContext(), &types.PaymentEvent{
		Type:      types.PaymentEventCheckoutCompleted,
		SessionID: "cs_2",
		Metadata:  map[string]string{types.CheckoutMetadataLeadID: l.ID},
	}))
	s.True(s.getLead(l.ID).Paid)
	s.Equal(1, s.GetStores().Granter.GrantCount())
}

func (s *WebhookServiceSuite) TestEntitlementLeadLookup() {
	tests := []struct {
		name      string
		seed      func(l *lead.Lead)
		appUserID string
		aliases   []string
		wantMatch bool
	}{
		{
			name:      "by subscriber id",
			seed:      func(l *lead.Lead) { l.SubscriberID = lo.ToPtr("rc_anon") },
			appUserID: "rc_anon",
			wantMatch: true,
		},
		{
			name:      "by identity user id",
			appUserID: "user_1",
			wantMatch: true,
		},
		{
			name:      "by alias",
			appUserID: "$RCAnonymousID:abc",
			aliases:   []string{"$RCAnonymousID:abc", "user_1"},
			wantMatch: true,
		},
		{
			name:      "unknown subscriber",
			appUserID: "user_other",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			l := s.seedLead(tt.seed)

			err := s.service.HandleEntitlementEvent(s.GetContext(), &types.EntitlementEvent{
				Type:      types.EntitlementEventInitialPurchase,
				AppUserID: tt.appUserID,
				Aliases:   tt.aliases,
				ProductID: "premium_monthly",
			})
			s.Require().NoError(err)
			s.Equal(tt.wantMatch, s.getLead(l.ID).Paid)

			s.GetStores().LeadRepo.Clear()
		})
	}
}

func (s *WebhookServiceSuite) TestEntitlementRedeliveryIsDropped() {
	l := s.paidActiveLead()
	s.GetStores().Entitlement.Event = &types.EntitlementEvent{
		ID:        "rc_evt_1",
		Type:      types.EntitlementEventCancellation,
		AppUserID: "user_1",
	}

	s.Require().NoError(s.service.HandleEntitlementWebhook(s.GetContext(), nil, "valid"))
	s.Equal(types.SubscriptionStatusCancelled, *s.getLead(l.ID).SubscriptionStatus)

	// a newer state must not be overwritten by the redelivered cancellation
	s.Require().NoError(s.service.HandleEntitlementEvent(s.GetContext(), &types.EntitlementEvent{
		Type:      types.EntitlementEventUncancellation,
		AppUserID: "user_1",
	}))
	s.Require().NoError(s.service.HandleEntitlementWebhook(s.GetContext(), nil, "valid"))
	s.Equal(types.SubscriptionStatusActive, *s.getLead(l.ID).SubscriptionStatus)
}

func TestPriceToCents(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{price: 12.99, want: 1299},
		{price: 29.99, want: 2999},
		{price: 69.99, want: 6999},
		{price: 0.015, want: 2},
		{price: 10, want: 1000},
		{price: 0, want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, priceToCents(tt.price), "price %v", tt.price)
	}
}
