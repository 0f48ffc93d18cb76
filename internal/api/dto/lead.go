package dto

import (
	"time"

	"github.com/quizfunnel/leadsync/internal/domain/lead"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/quizfunnel/leadsync/internal/validator"
)

// CreateLeadRequest captures the first email of a quiz taker
type CreateLeadRequest struct {
	Email1         string  `json:"email1" binding:"required" validate:"required,email"`
	QuizID         *string `json:"quizId,omitempty" validate:"omitempty,max=255"`
	QuizResponseID *string `json:"quizResponseId,omitempty" validate:"omitempty,max=255"`
}

func (r *CreateLeadRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// CreateLeadResponse is returned once the lead row is written
type CreateLeadResponse struct {
	ID             string  `json:"id"`
	Email1         string  `json:"email1"`
	QuizID         *string `json:"quizId"`
	IdentityUserID *string `json:"identityUserId,omitempty"`
	// SignInToken lets the funnel sign the new identity in without a password
	SignInToken *string `json:"signInToken,omitempty"`
}

// UpdateLeadRequest is sent after payment or skip with the second email
type UpdateLeadRequest struct {
	Email2            *string         `json:"email2,omitempty" validate:"omitempty,email"`
	PlanType          *types.PlanType `json:"planType,omitempty"`
	Paid              bool            `json:"paid"`
	ExternalSessionID *string         `json:"externalSessionId,omitempty" validate:"omitempty,max=255"`
	DeviceType        *string         `json:"deviceType,omitempty" validate:"omitempty,max=64"`
}

func (r *UpdateLeadRequest) Validate() error {
	if r.Email2 != nil && *r.Email2 == "" {
		return ierr.NewError("email2 must not be empty").
			WithHint("Provide a valid email2 or omit the field").
			Mark(ierr.ErrValidation)
	}
	return validator.ValidateRequest(r)
}

// LeadResponse is the lead projection served to the funnel and to operators
type LeadResponse struct {
	ID                    string                    `json:"id"`
	Email1                string                    `json:"email1"`
	Email2                *string                   `json:"email2"`
	QuizID                *string                   `json:"quizId"`
	QuizResponseID        *string                   `json:"quizResponseId"`
	PlanType              *types.PlanType           `json:"planType"`
	Paid                  bool                      `json:"paid"`
	AmountInCents         *int64                    `json:"amountInCents"`
	PaidAt                *time.Time                `json:"paidAt"`
	IdentityUserID        *string                   `json:"identityUserId"`
	ExternalSessionID     *string                   `json:"externalSessionId"`
	ExternalTransactionID *string                   `json:"externalTransactionId"`
	SubscriptionStatus    *types.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time                `json:"subscriptionExpiresAt"`
	DeviceType            *string                   `json:"deviceType"`
	State                 types.LeadState           `json:"state"`
	CreatedAt             time.Time                 `json:"createdAt"`
	UpdatedAt             time.Time                 `json:"updatedAt"`
}

// NewLeadResponse converts a domain lead to its API projection
func NewLeadResponse(l *lead.Lead) *LeadResponse {
	if l == nil {
		return nil
	}
	return &LeadResponse{
		ID:                    l.ID,
		Email1:                l.Email1,
		Email2:                l.Email2,
		QuizID:                l.QuizID,
		QuizResponseID:        l.QuizResponseID,
		PlanType:              l.PlanType,
		Paid:                  l.Paid,
		AmountInCents:         l.AmountInCents,
		PaidAt:                l.PaidAt,
		IdentityUserID:        l.IdentityUserID,
		ExternalSessionID:     l.ExternalSessionID,
		ExternalTransactionID: l.ExternalTransactionID,
		SubscriptionStatus:    l.SubscriptionStatus,
		SubscriptionExpiresAt: l.SubscriptionExpiresAt,
		DeviceType:            l.DeviceType,
		State:                 l.State(),
		CreatedAt:             l.CreatedAt,
		UpdatedAt:             l.UpdatedAt,
	}
}

// NewLeadResponses converts a slice of leads
func NewLeadResponses(leads []*lead.Lead) []*LeadResponse {
	items := make([]*LeadResponse, 0, len(leads))
	for _, l := range leads {
		items = append(items, NewLeadResponse(l))
	}
	return items
}

// SubscriptionStatusResponse answers whether a lead currently has premium access
type SubscriptionStatusResponse struct {
	IsPremium bool                      `json:"isPremium"`
	Status    *types.SubscriptionStatus `json:"status"`
	ExpiresAt *time.Time                `json:"expiresAt"`
}

// NewSubscriptionStatusResponse evaluates premium access for l at now
func NewSubscriptionStatusResponse(l *lead.Lead, now time.Time) *SubscriptionStatusResponse {
	if l == nil {
		return &SubscriptionStatusResponse{}
	}
	return &SubscriptionStatusResponse{
		IsPremium: l.IsPremium(now),
		Status:    l.SubscriptionStatus,
		ExpiresAt: l.SubscriptionExpiresAt,
	}
}
