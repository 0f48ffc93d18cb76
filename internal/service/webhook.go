package service

import (
	"context"
	"time"

	"github.com/quizfunnel/leadsync/internal/cache"
	"github.com/quizfunnel/leadsync/internal/domain/lead"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type WebhookService = interfaces.WebhookService

type webhookService struct {
	ServiceParams
}

func NewWebhookService(params ServiceParams) WebhookService {
	return &webhookService{
		ServiceParams: params,
	}
}

// HandlePaymentWebhook verifies and applies a payment provider webhook. Only a failed
// signature check is returned, processing errors are logged so the provider stops retrying.
func (s *webhookService) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.PaymentClient.ParseWebhook(payload, signature)
	if err != nil {
		if ierr.IsUnauthorized(err) {
			s.Logger.Warnw("rejected payment webhook", "error", err)
			return err
		}
		// a signed but undecodable body is acknowledged so the provider stops retrying
		s.Logger.Errorw("dropping undecodable payment webhook", "error", err)
		return nil
	}

	key := cache.GenerateKey(cache.PrefixPaymentEvent, event.ID)
	if !s.claimEvent(ctx, event.ID, key) {
		s.Logger.Infow("duplicate payment webhook delivery ignored", "event_id", event.ID)
		return nil
	}

	if err := s.HandlePaymentEvent(ctx, event); err != nil {
		s.releaseEvent(ctx, event.ID, key)
		s.Logger.Errorw("failed to process payment webhook",
			"event_id", event.ID,
			"event_type", event.Type,
			"session_id", event.SessionID,
			"error", err,
		)
	}
	return nil
}

// HandleEntitlementWebhook verifies and applies an entitlement provider webhook
func (s *webhookService) HandleEntitlementWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.EntitlementClient.ParseWebhook(payload, signature)
	if err != nil {
		if ierr.IsUnauthorized(err) {
			s.Logger.Warnw("rejected entitlement webhook", "error", err)
			return err
		}
		// a signed but undecodable body is acknowledged so the provider stops retrying
		s.Logger.Errorw("dropping undecodable entitlement webhook", "error", err)
		return nil
	}

	key := cache.GenerateKey(cache.PrefixEntitlementEvent, event.ID)
	if !s.claimEvent(ctx, event.ID, key) {
		s.Logger.Infow("duplicate entitlement webhook delivery ignored", "event_id", event.ID)
		return nil
	}

	if err := s.HandleEntitlementEvent(ctx, event); err != nil {
		s.releaseEvent(ctx, event.ID, key)
		s.Logger.Errorw("failed to process entitlement webhook",
			"event_id", event.ID,
			"event_type", event.Type,
			"app_user_id", event.AppUserID,
			"error", err,
		)
	}
	return nil
}

// claimEvent reports whether eventID is seen for the first time. Events without an id
// rely on state based idempotency alone.
func (s *webhookService) claimEvent(ctx context.Context, eventID, key string) bool {
	if eventID == "" || s.Cache == nil {
		return true
	}
	return s.Cache.Add(ctx, key, time.Now().UTC(), 0)
}

// releaseEvent forgets a failed event so a redelivery is processed again
func (s *webhookService) releaseEvent(ctx context.Context, eventID, key string) {
	if eventID == "" || s.Cache == nil {
		return
	}
	s.Cache.Delete(ctx, key)
}

func (s *webhookService) HandlePaymentEvent(ctx context.Context, event *types.PaymentEvent) error {
	if event == nil {
		return nil
	}

	switch event.Type {
	case types.PaymentEventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case types.PaymentEventCheckoutExpired:
		s.Logger.Infow("checkout session expired",
			"session_id", event.SessionID,
			"lead_id", event.LeadID(),
		)
		return nil
	default:
		s.Logger.Debugw("ignoring payment event", "event_id", event.ID)
		return nil
	}
}

func (s *webhookService) handleCheckoutCompleted(ctx context.Context, event *types.PaymentEvent) error {
	l, err := s.findLeadForPayment(ctx, event)
	if err != nil {
		return err
	}
	if l == nil {
		s.Logger.Warnw("no lead matches completed checkout",
			"session_id", event.SessionID,
			"lead_id", event.LeadID(),
		)
		return nil
	}

	if l.Paid {
		s.Logger.Infow("lead already paid, recording checkout details",
			"lead_id", l.ID,
			"session_id", event.SessionID,
		)
	}

	planType := event.PlanType()
	now := time.Now().UTC()
	var transitioned bool

	// the provider's session is authoritative even when the success page marked the lead paid first
	updated, err := s.LeadRepo.Update(ctx, l.ID, func(x *lead.Lead) error {
		transitioned = !x.Paid
		x.MarkPaid(now)

		if planType != "" {
			x.PlanType = lo.ToPtr(planType)
		}
		switch {
		case event.AmountTotal != nil:
			x.AmountInCents = lo.ToPtr(*event.AmountTotal)
		case x.PlanType != nil && (transitioned || x.AmountInCents == nil):
			if amount := s.Plans.AmountInCents(x.PlanType); amount != nil {
				x.AmountInCents = amount
			}
		}

		if event.PaymentIntentID != "" {
			x.ExternalTransactionID = lo.ToPtr(event.PaymentIntentID)
		}
		if event.SessionID != "" {
			x.ExternalSessionID = lo.ToPtr(event.SessionID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if transitioned {
		s.Logger.Infow("payment confirmed",
			"lead_id", updated.ID,
			"session_id", event.SessionID,
			"amount_in_cents", updated.AmountInCents,
		)
		s.publishLeadEvent(ctx, types.WebhookEventLeadPaid, updated)
	}

	s.grantEntitlement(ctx, updated)
	return nil
}

// findLeadForPayment prefers the lead id carried in the session metadata and falls back
// to the session id stored at checkout
func (s *webhookService) findLeadForPayment(ctx context.Context, event *types.PaymentEvent) (*lead.Lead, error) {
	if leadID := event.LeadID(); leadID != "" {
		l, err := s.LeadRepo.Get(ctx, leadID)
		if err == nil {
			return l, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}
	return s.LeadRepo.FindBySessionID(ctx, event.SessionID)
}

func (s *webhookService) HandleEntitlementEvent(ctx context.Context, event *types.EntitlementEvent) error {
	if event == nil {
		return nil
	}

	log := s.Logger.With(
		"event_id", event.ID,
		"event_type", event.Type,
		"app_user_id", event.AppUserID,
	)

	if !isHandledEntitlementEvent(event.Type) {
		log.Infow("ignoring entitlement event")
		return nil
	}

	l, err := s.findLeadForSubscriber(ctx, event)
	if err != nil {
		return err
	}
	if l == nil {
		log.Warnw("no lead matches entitlement subscriber", "aliases", event.Aliases)
		return nil
	}
	log = log.With("lead_id", l.ID)

	productID := event.ProductID
	if event.Type == types.EntitlementEventProductChange && event.NewProduct != "" {
		productID = event.NewProduct
	}
	planType, mapped := s.Plans.PlanForProduct(productID)
	if !mapped && productID != "" {
		log.Warnw("entitlement product does not map to a plan", "product_id", productID)
	}

	now := time.Now().UTC()
	var wasPaid bool
	updated, err := s.LeadRepo.Update(ctx, l.ID, func(x *lead.Lead) error {
		wasPaid = x.Paid
		if x.SubscriberID == nil && event.AppUserID != "" {
			x.SubscriberID = lo.ToPtr(event.AppUserID)
		}
		applyEntitlementTransition(x, event, planType, mapped, s.Plans.AmountInCents, now)
		return nil
	})
	if err != nil {
		return err
	}

	log.Infow("entitlement event applied",
		"state", updated.State(),
		"plan_type", updated.PlanType,
	)
	s.publishLeadEvent(ctx, types.WebhookEventLeadSubscriptionUpdated, updated)
	if !wasPaid && updated.Paid {
		s.publishLeadEvent(ctx, types.WebhookEventLeadPaid, updated)
	}
	return nil
}

// findLeadForSubscriber looks the lead up by every subscriber id of the event,
// then by identity user id
func (s *webhookService) findLeadForSubscriber(ctx context.Context, event *types.EntitlementEvent) (*lead.Lead, error) {
	ids := event.SubscriberIDs()

	for _, id := range ids {
		l, err := s.LeadRepo.FindBySubscriberID(ctx, id)
		if err != nil {
			return nil, err
		}
		if l != nil {
			return l, nil
		}
	}

	for _, id := range ids {
		l, err := s.LeadRepo.FindByIdentityUserID(ctx, id)
		if err != nil {
			return nil, err
		}
		if l != nil {
			return l, nil
		}
	}
	return nil, nil
}

func isHandledEntitlementEvent(t types.EntitlementEventType) bool {
	switch t {
	case types.EntitlementEventInitialPurchase,
		types.EntitlementEventRenewal,
		types.EntitlementEventNonRenewingPurchase,
		types.EntitlementEventCancellation,
		types.EntitlementEventUncancellation,
		types.EntitlementEventExpiration,
		types.EntitlementEventBillingIssue,
		types.EntitlementEventProductChange:
		return true
	}
	return false
}

// applyEntitlementTransition applies exactly one lifecycle transition to l
func applyEntitlementTransition(
	l *lead.Lead,
	event *types.EntitlementEvent,
	planType types.PlanType,
	mapped bool,
	amountFor func(*types.PlanType) *int64,
	now time.Time,
) {
	switch event.Type {
	case types.EntitlementEventInitialPurchase,
		types.EntitlementEventRenewal,
		types.EntitlementEventNonRenewingPurchase:
		l.MarkPaid(now)
		// an unmapped product keeps the plan already on the lead
		if mapped {
			l.PlanType = lo.ToPtr(planType)
		}
		if event.Price != nil {
			l.AmountInCents = lo.ToPtr(priceToCents(*event.Price))
		} else if l.AmountInCents == nil && l.PlanType != nil {
			l.AmountInCents = amountFor(l.PlanType)
		}
		l.SubscriptionStatus = lo.ToPtr(types.SubscriptionStatusActive)
		l.SubscriptionExpiresAt = event.ExpiresAt
		// the provider already holds the entitlement, a later checkout replay must not grant again
		if l.EntitlementGrantedAt == nil {
			l.EntitlementGrantedAt = &now
		}

	case types.EntitlementEventCancellation:
		l.SubscriptionStatus = lo.ToPtr(types.SubscriptionStatusCancelled)

	case types.EntitlementEventUncancellation:
		l.SubscriptionStatus = lo.ToPtr(types.SubscriptionStatusActive)

	case types.EntitlementEventExpiration:
		l.SubscriptionStatus = lo.ToPtr(types.SubscriptionStatusExpired)
		l.RevokePayment()
		// a later purchase must be able to grant again
		l.EntitlementGrantedAt = nil

	case types.EntitlementEventBillingIssue:
		l.SubscriptionStatus = lo.ToPtr(types.SubscriptionStatusBillingIssue)

	case types.EntitlementEventProductChange:
		// the amount stays the snapshot taken when the lead was paid
		if mapped {
			l.PlanType = lo.ToPtr(planType)
		}
		l.SubscriptionStatus = lo.ToPtr(types.SubscriptionStatusActive)
	}
}

// priceToCents converts a major unit price to minor units, rounding half away from zero
func priceToCents(price float64) int64 {
	return decimal.NewFromFloat(price).Shift(2).Round(0).IntPart()
}
