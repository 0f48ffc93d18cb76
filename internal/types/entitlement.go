package types

import (
	"time"

	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/samber/lo"
)

// GrantStrategy selects how a confirmed payment becomes an entitlement
type GrantStrategy string

const (
	// GrantStrategyPromotional grants the entitlement directly for a plan duration
	GrantStrategyPromotional GrantStrategy = "promotional"
	// GrantStrategyReceipt submits the payment session so the provider grants by itself
	GrantStrategyReceipt GrantStrategy = "receipt"
)

func (s GrantStrategy) Validate() error {
	allowed := []GrantStrategy{GrantStrategyPromotional, GrantStrategyReceipt}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid grant strategy").
			WithHintf("Grant strategy must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// EntitlementEventType is the subscriber lifecycle event kind sent by the provider
type EntitlementEventType string

const (
	EntitlementEventInitialPurchase     EntitlementEventType = "INITIAL_PURCHASE"
	EntitlementEventRenewal             EntitlementEventType = "RENEWAL"
	EntitlementEventNonRenewingPurchase EntitlementEventType = "NON_RENEWING_PURCHASE"
	EntitlementEventCancellation        EntitlementEventType = "CANCELLATION"
	EntitlementEventUncancellation      EntitlementEventType = "UNCANCELLATION"
	EntitlementEventExpiration          EntitlementEventType = "EXPIRATION"
	EntitlementEventBillingIssue        EntitlementEventType = "BILLING_ISSUE"
	EntitlementEventProductChange       EntitlementEventType = "PRODUCT_CHANGE"
	EntitlementEventSubscriptionPaused  EntitlementEventType = "SUBSCRIPTION_PAUSED"
	EntitlementEventTransfer            EntitlementEventType = "TRANSFER"
	EntitlementEventTest                EntitlementEventType = "TEST"
)

// EntitlementEvent is a verified entitlement webhook in normalized form
type EntitlementEvent struct {
	ID          string
	Type        EntitlementEventType
	AppUserID   string
	Aliases     []string
	ProductID   string
	NewProduct  string
	Price       *float64
	Currency    string
	PurchasedAt *time.Time
	ExpiresAt   *time.Time
	Environment string
	Store       string
}

// SubscriberIDs returns every id the provider knows the subscriber by, app user id first
func (e *EntitlementEvent) SubscriberIDs() []string {
	ids := make([]string, 0, len(e.Aliases)+1)
	if e.AppUserID != "" {
		ids = append(ids, e.AppUserID)
	}
	for _, a := range e.Aliases {
		if a != "" && !lo.Contains(ids, a) {
			ids = append(ids, a)
		}
	}
	return ids
}

// Subscriber is the entitlement provider's subscriber record
type Subscriber struct {
	AppUserID    string
	Entitlements map[string]SubscriberEntitlement
}

// SubscriberEntitlement is one entitlement on a subscriber
type SubscriberEntitlement struct {
	ProductIdentifier string
	ExpiresAt         *time.Time
}

// IsActive reports whether the named entitlement is currently in force
func (s *Subscriber) IsActive(entitlementID string, now time.Time) bool {
	if s == nil {
		return false
	}
	ent, ok := s.Entitlements[entitlementID]
	if !ok {
		return false
	}
	return ent.ExpiresAt == nil || ent.ExpiresAt.After(now)
}

// GrantRequest carries what either grant strategy needs
type GrantRequest struct {
	SubscriberID string
	Email        string
	PlanType     PlanType
	Duration     EntitlementDuration
	SessionID    string
	ProductID    string
	Price        *int64
	Currency     string
}

// GrantResult reports the outcome of a grant without failing the caller
type GrantResult struct {
	Strategy GrantStrategy
	Success  bool
	Skipped  bool
	Error    error
}
