package lead

import (
	"strings"
	"time"

	"github.com/quizfunnel/leadsync/internal/types"
)

// Lead tracks one quiz taker from email capture to a paid entitlement
type Lead struct {
	// ID is the unique identifier for the lead
	ID string `db:"id" json:"id"`

	// Email1 is captured before payment and never changes
	Email1 string `db:"email1" json:"email1"`

	// Email2 is captured after payment or skip and may differ from Email1
	Email2 *string `db:"email2" json:"email2"`

	QuizID         *string `db:"quiz_id" json:"quiz_id"`
	QuizResponseID *string `db:"quiz_response_id" json:"quiz_response_id"`

	PlanType *types.PlanType `db:"plan_type" json:"plan_type"`

	Paid bool `db:"paid" json:"paid"`

	// AmountInCents is the price snapshot taken when the plan was chosen or confirmed
	AmountInCents *int64 `db:"amount_in_cents" json:"amount_in_cents"`

	// PaidAt is set once, the first time Paid becomes true
	PaidAt *time.Time `db:"paid_at" json:"paid_at"`

	// IdentityUserID is the identity provider user backing this lead
	IdentityUserID *string `db:"identity_user_id" json:"identity_user_id"`

	// SubscriberID is the entitlement provider app user id, usually the identity user id
	SubscriberID *string `db:"subscriber_id" json:"subscriber_id"`

	ExternalSessionID     *string `db:"external_session_id" json:"external_session_id"`
	ExternalTransactionID *string `db:"external_transaction_id" json:"external_transaction_id"`

	SubscriptionStatus    *types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	SubscriptionExpiresAt *time.Time                `db:"subscription_expires_at" json:"subscription_expires_at"`

	// EntitlementGrantedAt marks a successful grant so replays do not grant twice
	EntitlementGrantedAt *time.Time `db:"entitlement_granted_at" json:"entitlement_granted_at"`

	DeviceType *string `db:"device_type" json:"device_type"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// State derives the funnel stage from the lead's fields
func (l *Lead) State() types.LeadState {
	if l.Paid {
		if l.SubscriptionStatus == nil {
			return types.LeadStateConfirmed
		}
		switch *l.SubscriptionStatus {
		case types.SubscriptionStatusActive:
			return types.LeadStateActive
		case types.SubscriptionStatusCancelled:
			return types.LeadStateCancelled
		case types.SubscriptionStatusBillingIssue:
			return types.LeadStateBillingIssue
		}
		return types.LeadStateConfirmed
	}
	if l.SubscriptionStatus != nil && *l.SubscriptionStatus == types.SubscriptionStatusExpired {
		return types.LeadStateExpired
	}
	if l.ExternalSessionID != nil {
		return types.LeadStateCheckoutStarted
	}
	if l.IdentityUserID != nil {
		return types.LeadStateIdentified
	}
	return types.LeadStateCaptured
}

// MarkPaid flips the lead to paid. PaidAt keeps its first value on replays.
func (l *Lead) MarkPaid(now time.Time) {
	l.Paid = true
	if l.PaidAt == nil {
		l.PaidAt = &now
	}
}

// RevokePayment is the only way paid goes back to false: expiration or operator revoke
func (l *Lead) RevokePayment() {
	l.Paid = false
	l.PaidAt = nil
}

// IsPremium reports premium access. Cancelled leads keep access until expiry.
func (l *Lead) IsPremium(now time.Time) bool {
	if !l.Paid || l.SubscriptionStatus == nil {
		return false
	}
	if !l.SubscriptionStatus.GrantsPremium() {
		return false
	}
	return l.SubscriptionExpiresAt == nil || l.SubscriptionExpiresAt.After(now)
}

// HasIdentity reports whether an identity user is linked
func (l *Lead) HasIdentity() bool {
	return l.IdentityUserID != nil && *l.IdentityUserID != ""
}

// MatchesEmail1 compares email with Email1 ignoring case and surrounding space
func (l *Lead) MatchesEmail1(email string) bool {
	return NormalizeEmail(l.Email1) == NormalizeEmail(email)
}

// ContactEmail is the most recent address the lead gave
func (l *Lead) ContactEmail() string {
	if l.Email2 != nil && *l.Email2 != "" {
		return *l.Email2
	}
	return l.Email1
}

// EntitlementSubscriberID is the app user id used towards the entitlement provider
func (l *Lead) EntitlementSubscriberID() string {
	if l.SubscriberID != nil && *l.SubscriberID != "" {
		return *l.SubscriberID
	}
	if l.HasIdentity() {
		return *l.IdentityUserID
	}
	return ""
}

// Normalize enforces that PaidAt is set if and only if Paid
func (l *Lead) Normalize(now time.Time) {
	if l.Paid && l.PaidAt == nil {
		l.PaidAt = &now
	}
	if !l.Paid {
		l.PaidAt = nil
	}
}

// Clone returns a deep copy so stores never share pointers with callers
func (l *Lead) Clone() *Lead {
	if l == nil {
		return nil
	}
	c := *l
	c.Email2 = clonePtr(l.Email2)
	c.QuizID = clonePtr(l.QuizID)
	c.QuizResponseID = clonePtr(l.QuizResponseID)
	c.PlanType = clonePtr(l.PlanType)
	c.AmountInCents = clonePtr(l.AmountInCents)
	c.PaidAt = clonePtr(l.PaidAt)
	c.IdentityUserID = clonePtr(l.IdentityUserID)
	c.SubscriberID = clonePtr(l.SubscriberID)
	c.ExternalSessionID = clonePtr(l.ExternalSessionID)
	c.ExternalTransactionID = clonePtr(l.ExternalTransactionID)
	c.SubscriptionStatus = clonePtr(l.SubscriptionStatus)
	c.SubscriptionExpiresAt = clonePtr(l.SubscriptionExpiresAt)
	c.EntitlementGrantedAt = clonePtr(l.EntitlementGrantedAt)
	c.DeviceType = clonePtr(l.DeviceType)
	return &c
}

// NormalizeEmail lowercases and trims an address for comparisons
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
