package interfaces

import (
	"context"

	"github.com/quizfunnel/leadsync/internal/types"
)

// IdentityClient is the contract required from the identity provider
type IdentityClient interface {
	// CreateOrGetUser returns the existing user owning email or creates one
	CreateOrGetUser(ctx context.Context, email string) (*types.IdentityUser, error)
	GetUser(ctx context.Context, userID string) (*types.IdentityUser, error)
	// FindUserByEmail returns nil, nil when no user owns email
	FindUserByEmail(ctx context.Context, email string) (*types.IdentityUser, error)
	// ChangePrimaryEmail adds email as verified primary address and detaches every other address
	ChangePrimaryEmail(ctx context.Context, userID string, email string) (*types.IdentityUser, error)
	DeleteEmailAddress(ctx context.Context, emailAddressID string) error
	CreateSignInToken(ctx context.Context, userID string) (string, error)
}

// PaymentClient is the contract required from the payment provider
type PaymentClient interface {
	CreateCheckoutSession(ctx context.Context, req *types.CheckoutSessionRequest) (*types.CheckoutSession, error)
	// ParseWebhook verifies the signature before decoding, ErrUnauthorized on mismatch
	ParseWebhook(payload []byte, signature string) (*types.PaymentEvent, error)
}

// EntitlementClient is the contract required from the subscriber entitlement provider
type EntitlementClient interface {
	GetOrCreateSubscriber(ctx context.Context, appUserID string) (*types.Subscriber, error)
	SetEmailAttribute(ctx context.Context, appUserID string, email string) error
	GrantPromotional(ctx context.Context, appUserID string, duration types.EntitlementDuration) error
	RevokePromotional(ctx context.Context, appUserID string) error
	RecordReceipt(ctx context.Context, req *types.GrantRequest) error
	HasActiveEntitlement(ctx context.Context, appUserID string) (bool, error)
	// ParseWebhook verifies the signature before decoding, ErrUnauthorized on mismatch
	ParseWebhook(payload []byte, signature string) (*types.EntitlementEvent, error)
}

// EntitlementGranter turns a confirmed payment into an entitlement. Grant never panics
// and reports failure through the result.
type EntitlementGranter interface {
	Strategy() types.GrantStrategy
	Grant(ctx context.Context, req *types.GrantRequest) *types.GrantResult
	// Revoke is only supported by strategies that granted the entitlement themselves
	Revoke(ctx context.Context, subscriberID string) error
}
