package dto

import (
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/quizfunnel/leadsync/internal/validator"
)

type CreateCheckoutRequest struct {
	LeadID   string         `json:"leadId" binding:"required" validate:"required"`
	PlanType types.PlanType `json:"planType" binding:"required" validate:"required"`
}

func (r *CreateCheckoutRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}
