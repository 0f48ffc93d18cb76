package types

import (
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus mirrors the entitlement provider's view of a paid lead
type SubscriptionStatus string

const (
	SubscriptionStatusActive       SubscriptionStatus = "active"
	SubscriptionStatusCancelled    SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired      SubscriptionStatus = "expired"
	SubscriptionStatusBillingIssue SubscriptionStatus = "billing_issue"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusCancelled,
		SubscriptionStatusExpired,
		SubscriptionStatusBillingIssue,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHintf("Subscription status must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// GrantsPremium reports whether the status still carries premium access.
// Cancelled subscriptions keep access until they expire.
func (s SubscriptionStatus) GrantsPremium() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusCancelled
}

// LeadState is the funnel stage derived from a lead's fields
type LeadState string

const (
	LeadStateCaptured        LeadState = "CAPTURED"
	LeadStateIdentified      LeadState = "IDENTIFIED"
	LeadStateCheckoutStarted LeadState = "CHECKOUT_STARTED"
	LeadStateConfirmed       LeadState = "CONFIRMED"
	LeadStateActive          LeadState = "ACTIVE"
	LeadStateCancelled       LeadState = "CANCELLED"
	LeadStateExpired         LeadState = "EXPIRED"
	LeadStateBillingIssue    LeadState = "BILLING_ISSUE"
)
