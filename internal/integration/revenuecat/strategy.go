package revenuecat

import (
	"context"

	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/types"
)

// NewGranter returns the grant strategy selected by configuration
func NewGranter(strategy types.GrantStrategy, client interfaces.EntitlementClient, logger *logger.Logger) (interfaces.EntitlementGranter, error) {
	switch strategy {
	case types.GrantStrategyPromotional:
		return NewPromotionalGranter(client, logger), nil
	case types.GrantStrategyReceipt:
		return NewReceiptGranter(client, logger), nil
	default:
		return nil, ierr.NewError("unknown grant strategy").
			WithHintf("Grant strategy %q is not supported", strategy).
			Mark(ierr.ErrValidation)
	}
}

// PromotionalGranter grants the entitlement directly for the plan duration
type PromotionalGranter struct {
	client interfaces.EntitlementClient
	logger *logger.Logger
}

func NewPromotionalGranter(client interfaces.EntitlementClient, logger *logger.Logger) *PromotionalGranter {
	return &PromotionalGranter{client: client, logger: logger}
}

func (g *PromotionalGranter) Strategy() types.GrantStrategy {
	return types.GrantStrategyPromotional
}

// Grant runs get-or-create subscriber, set email, then the promotional grant. A subscriber
// whose entitlement is already active is left alone.
func (g *PromotionalGranter) Grant(ctx context.Context, req *types.GrantRequest) *types.GrantResult {
	result := &types.GrantResult{Strategy: g.Strategy()}

	if req.Duration == "" {
		result.Error = ierr.NewError("no entitlement duration for plan").
			WithHintf("Plan %s has no entitlement duration", req.PlanType).
			Mark(ierr.ErrValidation)
		return result
	}

	if _, err := g.client.GetOrCreateSubscriber(ctx, req.SubscriberID); err != nil {
		result.Error = err
		return result
	}

	if err := g.client.SetEmailAttribute(ctx, req.SubscriberID, req.Email); err != nil {
		// the grant does not depend on the attribute
		g.logger.Warnw("failed to set subscriber email attribute",
			"subscriber_id", req.SubscriberID,
			"error", err)
	}

	active, err := g.client.HasActiveEntitlement(ctx, req.SubscriberID)
	if err != nil {
		result.Error = err
		return result
	}
	if active {
		g.logger.Infow("entitlement already active, skipping promotional grant",
			"subscriber_id", req.SubscriberID,
			"plan_type", req.PlanType)
		result.Success = true
		result.Skipped = true
		return result
	}

	if err := g.client.GrantPromotional(ctx, req.SubscriberID, req.Duration); err != nil {
		result.Error = err
		return result
	}

	g.logger.Infow("granted promotional entitlement",
		"subscriber_id", req.SubscriberID,
		"plan_type", req.PlanType,
		"duration", req.Duration)
	result.Success = true
	return result
}

func (g *PromotionalGranter) Revoke(ctx context.Context, subscriberID string) error {
	return g.client.RevokePromotional(ctx, subscriberID)
}

// ReceiptGranter records the payment session so the provider verifies and grants itself
type ReceiptGranter struct {
	client interfaces.EntitlementClient
	logger *logger.Logger
}

func NewReceiptGranter(client interfaces.EntitlementClient, logger *logger.Logger) *ReceiptGranter {
	return &ReceiptGranter{client: client, logger: logger}
}

func (g *ReceiptGranter) Strategy() types.GrantStrategy {
	return types.GrantStrategyReceipt
}

func (g *ReceiptGranter) Grant(ctx context.Context, req *types.GrantRequest) *types.GrantResult {
	result := &types.GrantResult{Strategy: g.Strategy()}

	if req.SessionID == "" {
		result.Error = ierr.NewError("no payment session to record").
			WithHint("Receipt recording needs the payment session id").
			Mark(ierr.ErrValidation)
		return result
	}

	if _, err := g.client.GetOrCreateSubscriber(ctx, req.SubscriberID); err != nil {
		result.Error = err
		return result
	}

	if err := g.client.SetEmailAttribute(ctx, req.SubscriberID, req.Email); err != nil {
		g.logger.Warnw("failed to set subscriber email attribute",
			"subscriber_id", req.SubscriberID,
			"error", err)
	}

	// the provider dedups receipts by fetch token
	if err := g.client.RecordReceipt(ctx, req); err != nil {
		result.Error = err
		return result
	}

	g.logger.Infow("recorded payment receipt",
		"subscriber_id", req.SubscriberID,
		"session_id", req.SessionID)
	result.Success = true
	return result
}

// Revoke is not available, receipt based entitlements follow the provider's own lifecycle
func (g *ReceiptGranter) Revoke(ctx context.Context, subscriberID string) error {
	return ierr.NewError("receipt entitlements cannot be revoked").
		WithHint("Entitlements recorded from receipts cannot be revoked from here").
		Mark(ierr.ErrInvalidOperation)
}
