package stripe

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	ProviderType = "stripe"

	checkoutModePayment = "payment"

	eventCheckoutSessionCompleted = "checkout.session.completed"
	eventCheckoutSessionExpired   = "checkout.session.expired"
	eventAsyncPaymentSucceeded    = "checkout.session.async_payment_succeeded"
)

type createSessionFunc func(ctx context.Context, params *stripeapi.CheckoutSessionCreateParams) (*stripeapi.CheckoutSession, error)

// Client creates Stripe Checkout sessions and verifies Stripe webhooks
type Client struct {
	webhookSecret string
	currency      string
	createSession createSessionFunc
	logger        *logger.Logger
}

var _ interfaces.PaymentClient = (*Client)(nil)

// NewClient creates a new Stripe client
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	sc := stripeapi.NewClient(cfg.Payment.SecretKey, nil)
	return &Client{
		webhookSecret: cfg.Payment.WebhookSecret,
		currency:      strings.ToLower(cfg.Payment.Currency),
		createSession: sc.V1CheckoutSessions.Create,
		logger:        logger,
	}
}

// CreateCheckoutSession opens a one-time payment session for a single plan price
func (c *Client) CreateCheckoutSession(ctx context.Context, req *types.CheckoutSessionRequest) (*types.CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, ierr.NewError("plan has no payment price").
			WithHintf("Plan %s is not available for checkout", req.PlanType).
			Mark(ierr.ErrValidation)
	}

	params := &stripeapi.CheckoutSessionCreateParams{
		LineItems: []*stripeapi.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripeapi.String(req.PriceID),
				Quantity: stripeapi.Int64(1),
			},
		},
		Mode:              stripeapi.String(checkoutModePayment),
		SuccessURL:        stripeapi.String(req.SuccessURL),
		CancelURL:         stripeapi.String(req.CancelURL),
		ClientReferenceID: stripeapi.String(req.LeadID),
		Metadata: map[string]string{
			types.CheckoutMetadataLeadID:   req.LeadID,
			types.CheckoutMetadataPlanType: req.PlanType.String(),
		},
		PaymentIntentData: &stripeapi.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: map[string]string{
				types.CheckoutMetadataLeadID:   req.LeadID,
				types.CheckoutMetadataPlanType: req.PlanType.String(),
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripeapi.String(req.CustomerEmail)
	}

	session, err := c.createSession(ctx, params)
	if err != nil {
		c.logger.Errorw("failed to create Stripe checkout session",
			"error", err,
			"lead_id", req.LeadID,
			"plan_type", req.PlanType)
		return nil, ierr.WithError(err).
			WithHint("Unable to create checkout session").
			WithReportableDetails(map[string]interface{}{
				"lead_id":   req.LeadID,
				"plan_type": req.PlanType,
			}).
			Mark(ierr.ErrExternalService)
	}

	c.logger.Infow("created Stripe checkout session",
		"session_id", session.ID,
		"lead_id", req.LeadID,
		"plan_type", req.PlanType)

	return &types.CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and reduces checkout events
// to a PaymentEvent. Other event types come back as PaymentEventIgnored.
func (c *Client) ParseWebhook(payload []byte, signature string) (*types.PaymentEvent, error) {
	if c.webhookSecret == "" {
		c.logger.Errorw("payment webhook secret is not configured, rejecting webhook")
		return nil, ierr.NewError("payment webhook secret not configured").
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrUnauthorized)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		c.logger.Warnw("Stripe webhook verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrUnauthorized)
	}

	result := &types.PaymentEvent{
		ID:           event.ID,
		ProviderType: ProviderType,
	}

	switch string(event.Type) {
	case eventCheckoutSessionCompleted, eventAsyncPaymentSucceeded:
		result.Type = types.PaymentEventCheckoutCompleted
	case eventCheckoutSessionExpired:
		result.Type = types.PaymentEventCheckoutExpired
	default:
		result.Type = types.PaymentEventIgnored
		return result, nil
	}

	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid checkout session payload").
			Mark(ierr.ErrValidation)
	}

	// async payment methods complete the session before the money arrives
	if string(event.Type) == eventCheckoutSessionCompleted &&
		session.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusUnpaid {
		c.logger.Infow("checkout session completed without payment, waiting for async payment",
			"session_id", session.ID)
		result.Type = types.PaymentEventIgnored
	}

	result.SessionID = session.ID
	result.Currency = string(session.Currency)
	result.Metadata = session.Metadata
	if session.AmountTotal > 0 {
		result.AmountTotal = lo.ToPtr(session.AmountTotal)
	}
	if session.PaymentIntent != nil {
		result.PaymentIntentID = session.PaymentIntent.ID
	}
	result.CustomerEmail = session.CustomerEmail
	if result.CustomerEmail == "" && session.CustomerDetails != nil {
		result.CustomerEmail = session.CustomerDetails.Email
	}
	if result.LeadID() == "" && session.ClientReferenceID != "" {
		if result.Metadata == nil {
			result.Metadata = map[string]string{}
		}
		result.Metadata[types.CheckoutMetadataLeadID] = session.ClientReferenceID
	}

	return result, nil
}
