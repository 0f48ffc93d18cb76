package interfaces

import (
	"context"

	"github.com/quizfunnel/leadsync/internal/api/dto"
	"github.com/quizfunnel/leadsync/internal/types"
)

// LeadService drives a lead from email capture to entitlement
type LeadService interface {
	CreateLead(ctx context.Context, req dto.CreateLeadRequest) (*dto.CreateLeadResponse, error)
	UpdateLead(ctx context.Context, id string, req dto.UpdateLeadRequest) (*dto.LeadResponse, error)
	GetLead(ctx context.Context, id string) (*dto.LeadResponse, error)
	GetLeadBySession(ctx context.Context, sessionID string) (*dto.LeadResponse, error)
	CheckSubscriptionStatus(ctx context.Context, id string) (*dto.SubscriptionStatusResponse, error)
	ListLeads(ctx context.Context, filter *types.LeadFilter) ([]*dto.LeadResponse, error)
	ListLeadsByQuiz(ctx context.Context, quizID string) ([]*dto.LeadResponse, error)
	ListPaidLeads(ctx context.Context) ([]*dto.LeadResponse, error)
	RevokeEntitlement(ctx context.Context, id string) (*dto.LeadResponse, error)
}

// CheckoutService opens payment sessions for leads
type CheckoutService interface {
	CreateCheckout(ctx context.Context, req dto.CreateCheckoutRequest) (*dto.CheckoutResponse, error)
	ListPlans(ctx context.Context) ([]*dto.PlanResponse, error)
}

// WebhookService consumes provider webhooks. Only signature failures are returned,
// processing failures are logged.
type WebhookService interface {
	HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error
	HandleEntitlementWebhook(ctx context.Context, payload []byte, signature string) error
	HandlePaymentEvent(ctx context.Context, event *types.PaymentEvent) error
	HandleEntitlementEvent(ctx context.Context, event *types.EntitlementEvent) error
}

// AuthService logs operators in
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
}
