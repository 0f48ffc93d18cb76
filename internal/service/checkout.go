package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/quizfunnel/leadsync/internal/api/dto"
	"github.com/quizfunnel/leadsync/internal/domain/lead"
	"github.com/quizfunnel/leadsync/internal/domain/plan"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
)

// checkoutSessionPlaceholder is substituted by the payment provider on redirect
const checkoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

type CheckoutService = interfaces.CheckoutService

type checkoutService struct {
	ServiceParams
}

func NewCheckoutService(params ServiceParams) CheckoutService {
	return &checkoutService{
		ServiceParams: params,
	}
}

func (s *checkoutService) CreateCheckout(ctx context.Context, req dto.CreateCheckoutRequest) (*dto.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	l, err := s.LeadRepo.Get(ctx, req.LeadID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHintf("Lead %s does not exist", req.LeadID).
				WithReportableDetails(map[string]any{
					"lead_id": req.LeadID,
				}).
				Mark(ierr.ErrValidation)
		}
		return nil, err
	}

	p, err := s.Plans.Get(req.PlanType)
	if err != nil {
		return nil, err
	}
	if p.PriceID == "" {
		return nil, ierr.NewError("plan has no checkout price").
			WithHintf("Plan %s is not available for checkout", p.Key).
			WithReportableDetails(map[string]any{
				"plan_type": p.Key,
			}).
			Mark(ierr.ErrValidation)
	}

	session, err := s.PaymentClient.CreateCheckoutSession(ctx, &types.CheckoutSessionRequest{
		LeadID:        l.ID,
		PlanType:      p.Key,
		PriceID:       p.PriceID,
		CustomerEmail: l.ContactEmail(),
		SuccessURL:    s.redirectURL("/checkout/success", l.ID, true),
		CancelURL:     s.redirectURL("/checkout/cancel", l.ID, false),
	})
	if err != nil {
		return nil, err
	}

	amount := p.AmountInCents
	_, err = s.LeadRepo.Update(ctx, l.ID, func(x *lead.Lead) error {
		x.ExternalSessionID = lo.ToPtr(session.ID)
		if !x.Paid {
			x.PlanType = lo.ToPtr(p.Key)
			x.AmountInCents = lo.ToPtr(amount)
		}
		return nil
	})
	if err != nil {
		// the webhook still finds the lead through the session metadata
		s.Logger.Errorw("failed to store checkout session on lead",
			"lead_id", l.ID,
			"session_id", session.ID,
			"error", err,
		)
	}

	s.Logger.Infow("checkout session created",
		"lead_id", l.ID,
		"plan_type", p.Key,
		"session_id", session.ID,
	)

	return &dto.CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (s *checkoutService) ListPlans(_ context.Context) ([]*dto.PlanResponse, error) {
	return lo.Map(s.Plans.List(), func(p *plan.Plan, _ int) *dto.PlanResponse {
		return &dto.PlanResponse{
			Key:           p.Key.String(),
			Label:         p.Label,
			AmountInCents: p.AmountInCents,
			Currency:      p.Currency,
		}
	}), nil
}

// redirectURL builds a funnel page link. The session placeholder is left unescaped
// so the provider can substitute it.
func (s *checkoutService) redirectURL(path, leadID string, withSession bool) string {
	base := strings.TrimRight(s.Config.Frontend.BaseURL, "/")
	query := "lead_id=" + url.QueryEscape(leadID)
	if withSession {
		query = "session_id=" + checkoutSessionPlaceholder + "&" + query
	}
	return fmt.Sprintf("%s%s?%s", base, path, query)
}
