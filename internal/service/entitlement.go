package service

import (
	"context"
	"time"

	"github.com/quizfunnel/leadsync/internal/domain/lead"
	"github.com/quizfunnel/leadsync/internal/types"
)

// grantEntitlement turns a paid lead into an entitlement through the configured strategy.
// It is a no-op for unpaid leads, leads without a subscriber id and leads already granted.
// Failures are logged and the lead is returned unchanged.
func (p ServiceParams) grantEntitlement(ctx context.Context, l *lead.Lead) *lead.Lead {
	if l == nil || !l.Paid {
		return l
	}

	log := p.Logger.With("lead_id", l.ID)

	if l.EntitlementGrantedAt != nil {
		log.Debugw("entitlement already granted, skipping",
			"granted_at", l.EntitlementGrantedAt,
		)
		return l
	}

	subscriberID := l.EntitlementSubscriberID()
	if subscriberID == "" {
		log.Warnw("paid lead has no identity, entitlement grant deferred")
		return l
	}

	req := &types.GrantRequest{
		SubscriberID: subscriberID,
		Email:        l.ContactEmail(),
		SessionID:    types.FromNillableString(l.ExternalSessionID),
		Price:        l.AmountInCents,
		Currency:     p.Config.Payment.Currency,
	}
	if l.PlanType != nil {
		req.PlanType = *l.PlanType
		if pl, ok := p.Plans.Lookup(*l.PlanType); ok {
			req.Duration = pl.Duration
			req.ProductID = pl.ProductID
		}
	}

	result := p.EntitlementGranter.Grant(ctx, req)
	if result == nil || !result.Success {
		var grantErr error
		if result != nil {
			grantErr = result.Error
		}
		log.Errorw("entitlement grant failed, payment confirmation kept",
			"subscriber_id", subscriberID,
			"strategy", p.EntitlementGranter.Strategy(),
			"error", grantErr,
		)
		return l
	}

	now := time.Now().UTC()
	updated, err := p.LeadRepo.Update(ctx, l.ID, func(x *lead.Lead) error {
		if x.EntitlementGrantedAt == nil {
			x.EntitlementGrantedAt = &now
		}
		if x.SubscriberID == nil {
			x.SubscriberID = &subscriberID
		}
		return nil
	})
	if err != nil {
		log.Errorw("failed to record entitlement grant", "error", err)
		return l
	}

	log.Infow("entitlement granted",
		"subscriber_id", subscriberID,
		"strategy", result.Strategy,
		"skipped_upstream", result.Skipped,
	)
	p.publishLeadEvent(ctx, types.WebhookEventLeadEntitlementGranted, updated)
	return updated
}
