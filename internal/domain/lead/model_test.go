package lead

import (
	"testing"
	"time"

	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestLeadState(t *testing.T) {
	tests := []struct {
		name string
		lead Lead
		want types.LeadState
	}{
		{
			name: "email only",
			lead: Lead{Email1: "a@x.com"},
			want: types.LeadStateCaptured,
		},
		{
			name: "identity linked",
			lead: Lead{IdentityUserID: lo.ToPtr("user_1")},
			want: types.LeadStateIdentified,
		},
		{
			name: "checkout started",
			lead: Lead{IdentityUserID: lo.ToPtr("user_1"), ExternalSessionID: lo.ToPtr("cs_1")},
			want: types.LeadStateCheckoutStarted,
		},
		{
			name: "paid without subscription",
			lead: Lead{Paid: true},
			want: types.LeadStateConfirmed,
		},
		{
			name: "active",
			lead: Lead{Paid: true, SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusActive)},
			want: types.LeadStateActive,
		},
		{
			name: "cancelled",
			lead: Lead{Paid: true, SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusCancelled)},
			want: types.LeadStateCancelled,
		},
		{
			name: "billing issue",
			lead: Lead{Paid: true, SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusBillingIssue)},
			want: types.LeadStateBillingIssue,
		},
		{
			name: "expired",
			lead: Lead{SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusExpired)},
			want: types.LeadStateExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lead.State())
		})
	}
}

func TestLeadIsPremium(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		lead Lead
		want bool
	}{
		{name: "never paid", lead: Lead{}, want: false},
		{name: "paid without status", lead: Lead{Paid: true}, want: false},
		{name: "active no expiry", lead: Lead{Paid: true, SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusActive)}, want: true},
		{name: "active future expiry", lead: Lead{Paid: true, SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusActive), SubscriptionExpiresAt: &future}, want: true},
		{name: "active past expiry", lead: Lead{Paid: true, SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusActive), SubscriptionExpiresAt: &past}, want: false},
		{name: "cancelled in grace period", lead: Lead{Paid: true, SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusCancelled), SubscriptionExpiresAt: &future}, want: true},
		{name: "billing issue", lead: Lead{Paid: true, SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusBillingIssue)}, want: false},
		{name: "expired", lead: Lead{Paid: false, SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusExpired)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lead.IsPremium(now))
		})
	}
}

func TestMarkPaidKeepsFirstTimestamp(t *testing.T) {
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := &Lead{}

	l.MarkPaid(first)
	l.MarkPaid(first.Add(time.Hour))

	assert.True(t, l.Paid)
	assert.Equal(t, first, *l.PaidAt)

	l.RevokePayment()
	assert.False(t, l.Paid)
	assert.Nil(t, l.PaidAt)
}

func TestNormalize(t *testing.T) {
	now := time.Now().UTC()

	paid := &Lead{Paid: true}
	paid.Normalize(now)
	assert.NotNil(t, paid.PaidAt)

	unpaid := &Lead{PaidAt: &now}
	unpaid.Normalize(now)
	assert.Nil(t, unpaid.PaidAt)
}

func TestEmailHelpers(t *testing.T) {
	l := &Lead{Email1: "A@X.com "}
	assert.True(t, l.MatchesEmail1("a@x.COM"))
	assert.False(t, l.MatchesEmail1("b@x.com"))
	assert.Equal(t, "A@X.com ", l.ContactEmail())

	l.Email2 = lo.ToPtr("b@x.com")
	assert.Equal(t, "b@x.com", l.ContactEmail())
}

func TestClone(t *testing.T) {
	l := &Lead{ID: "lead_1", Email2: lo.ToPtr("b@x.com")}
	c := l.Clone()
	*c.Email2 = "changed@x.com"
	assert.Equal(t, "b@x.com", *l.Email2)
}
