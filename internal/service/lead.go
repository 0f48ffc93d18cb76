package service

import (
	"context"
	"time"

	"github.com/quizfunnel/leadsync/internal/api/dto"
	"github.com/quizfunnel/leadsync/internal/domain/lead"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/interfaces"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
)

type LeadService = interfaces.LeadService

type leadService struct {
	ServiceParams
}

func NewLeadService(params ServiceParams) LeadService {
	return &leadService{
		ServiceParams: params,
	}
}

// CreateLead stores the first email and links an identity. An identity provider outage
// never blocks the funnel, the lead is stored without identity instead.
func (s *leadService) CreateLead(ctx context.Context, req dto.CreateLeadRequest) (*dto.CreateLeadResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	l := &lead.Lead{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEAD),
		Email1:         req.Email1,
		QuizID:         req.QuizID,
		QuizResponseID: req.QuizResponseID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	user, err := s.IdentityClient.CreateOrGetUser(ctx, req.Email1)
	if err != nil {
		s.Logger.Errorw("identity create-or-get failed, storing lead without identity",
			"lead_id", l.ID,
			"error", err,
		)
	} else {
		l.IdentityUserID = lo.ToPtr(user.ID)
	}

	if err := s.LeadRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	resp := &dto.CreateLeadResponse{
		ID:             l.ID,
		Email1:         l.Email1,
		QuizID:         l.QuizID,
		IdentityUserID: l.IdentityUserID,
	}

	if l.HasIdentity() {
		token, err := s.IdentityClient.CreateSignInToken(ctx, *l.IdentityUserID)
		if err != nil {
			s.Logger.Warnw("failed to create sign-in token",
				"lead_id", l.ID,
				"identity_user_id", *l.IdentityUserID,
				"error", err,
			)
		} else {
			resp.SignInToken = lo.ToPtr(token)
		}
	}

	s.Logger.Infow("lead created",
		"lead_id", l.ID,
		"quiz_id", l.QuizID,
		"has_identity", l.HasIdentity(),
	)
	s.publishLeadEvent(ctx, types.WebhookEventLeadCreated, l)

	return resp, nil
}

// UpdateLead records the second email, the chosen plan and the payment flag
func (s *leadService) UpdateLead(ctx context.Context, id string, req dto.UpdateLeadRequest) (*dto.LeadResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.LeadRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var amount *int64
	if req.PlanType != nil {
		amount = s.Plans.AmountInCents(req.PlanType)
		if amount == nil {
			s.Logger.Warnw("unrecognized plan type on lead update",
				"lead_id", id,
				"plan_type", *req.PlanType,
			)
		}
	}

	// external identity calls happen before the row is locked
	identityUserID := current.IdentityUserID
	if req.Email2 != nil {
		identityUserID = s.reconcileIdentity(ctx, current, *req.Email2)
	}

	now := time.Now().UTC()
	var wasPaid bool
	updated, err := s.LeadRepo.Update(ctx, id, func(l *lead.Lead) error {
		wasPaid = l.Paid

		if req.Email2 != nil {
			l.Email2 = req.Email2
		}
		if identityUserID != nil {
			l.IdentityUserID = identityUserID
		}
		if req.ExternalSessionID != nil {
			l.ExternalSessionID = req.ExternalSessionID
		}
		if req.DeviceType != nil {
			l.DeviceType = req.DeviceType
		}

		// a confirmed plan and its price are owned by the payment webhooks
		if !l.Paid && req.PlanType != nil {
			l.PlanType = req.PlanType
			l.AmountInCents = amount
		}

		// paid=false never demotes a paid lead
		if req.Paid {
			l.MarkPaid(now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("lead updated",
		"lead_id", id,
		"paid", updated.Paid,
		"state", updated.State(),
	)
	s.publishLeadEvent(ctx, types.WebhookEventLeadUpdated, updated)
	if !wasPaid && updated.Paid {
		s.publishLeadEvent(ctx, types.WebhookEventLeadPaid, updated)
	}

	if updated.Paid {
		updated = s.grantEntitlement(ctx, updated)
	}

	return dto.NewLeadResponse(updated), nil
}

// reconcileIdentity keeps one identity per lead. It returns the identity id to store,
// failures are logged and leave the current identity untouched.
func (s *leadService) reconcileIdentity(ctx context.Context, l *lead.Lead, email2 string) *string {
	log := s.Logger.With("lead_id", l.ID)

	if !l.HasIdentity() {
		user, err := s.IdentityClient.CreateOrGetUser(ctx, email2)
		if err != nil {
			log.Errorw("identity create-or-get for email2 failed", "error", err)
			return nil
		}
		log.Infow("identity linked from email2", "identity_user_id", user.ID)
		return lo.ToPtr(user.ID)
	}

	if l.MatchesEmail1(email2) {
		return l.IdentityUserID
	}
	if l.Email2 != nil && lead.NormalizeEmail(*l.Email2) == lead.NormalizeEmail(email2) {
		// already migrated on an earlier update
		return l.IdentityUserID
	}

	if _, err := s.IdentityClient.ChangePrimaryEmail(ctx, *l.IdentityUserID, email2); err != nil {
		log.Errorw("identity email migration failed, lead keeps its identity",
			"identity_user_id", *l.IdentityUserID,
			"error", err,
		)
		return l.IdentityUserID
	}

	log.Infow("identity email migrated", "identity_user_id", *l.IdentityUserID)
	return l.IdentityUserID
}

func (s *leadService) GetLead(ctx context.Context, id string) (*dto.LeadResponse, error) {
	if id == "" {
		return nil, ierr.NewError("lead ID is required").
			WithHint("Lead ID is required").
			Mark(ierr.ErrValidation)
	}

	l, err := s.LeadRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewLeadResponse(l), nil
}

func (s *leadService) GetLeadBySession(ctx context.Context, sessionID string) (*dto.LeadResponse, error) {
	if sessionID == "" {
		return nil, ierr.NewError("session ID is required").
			WithHint("Session ID is required").
			Mark(ierr.ErrValidation)
	}

	l, err := s.LeadRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ierr.NewError("lead not found for session").
			WithHintf("No lead found for session %s", sessionID).
			WithReportableDetails(map[string]any{
				"session_id": sessionID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return dto.NewLeadResponse(l), nil
}

// CheckSubscriptionStatus answers premium access. Unknown leads are simply not premium.
func (s *leadService) CheckSubscriptionStatus(ctx context.Context, id string) (*dto.SubscriptionStatusResponse, error) {
	l, err := s.LeadRepo.Get(ctx, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return dto.NewSubscriptionStatusResponse(nil, time.Now()), nil
		}
		return nil, err
	}
	return dto.NewSubscriptionStatusResponse(l, time.Now().UTC()), nil
}

func (s *leadService) ListLeads(ctx context.Context, filter *types.LeadFilter) ([]*dto.LeadResponse, error) {
	if filter == nil {
		filter = types.NewLeadFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewNoLimitQueryFilter()
	}

	leads, err := s.LeadRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewLeadResponses(leads), nil
}

func (s *leadService) ListLeadsByQuiz(ctx context.Context, quizID string) ([]*dto.LeadResponse, error) {
	if quizID == "" {
		return nil, ierr.NewError("quiz ID is required").
			WithHint("Quiz ID is required").
			Mark(ierr.ErrValidation)
	}

	filter := types.NewLeadFilter()
	filter.QuizID = lo.ToPtr(quizID)
	return s.ListLeads(ctx, filter)
}

func (s *leadService) ListPaidLeads(ctx context.Context) ([]*dto.LeadResponse, error) {
	filter := types.NewLeadFilter()
	filter.Paid = lo.ToPtr(true)
	return s.ListLeads(ctx, filter)
}

// RevokeEntitlement is the operator override: the upstream entitlement is revoked first,
// then the lead is expired and its payment revoked.
func (s *leadService) RevokeEntitlement(ctx context.Context, id string) (*dto.LeadResponse, error) {
	l, err := s.LeadRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	subscriberID := l.EntitlementSubscriberID()
	if subscriberID == "" && !l.Paid {
		return nil, ierr.NewError("nothing to revoke").
			WithHint("Lead has neither a payment nor an entitlement subscriber").
			WithReportableDetails(map[string]any{
				"lead_id": id,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if subscriberID != "" {
		if err := s.EntitlementGranter.Revoke(ctx, subscriberID); err != nil {
			return nil, err
		}
	}

	updated, err := s.LeadRepo.Update(ctx, id, func(x *lead.Lead) error {
		x.RevokePayment()
		x.SubscriptionStatus = lo.ToPtr(types.SubscriptionStatusExpired)
		x.EntitlementGrantedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("entitlement revoked by operator",
		"lead_id", id,
		"subscriber_id", subscriberID,
		"operator", types.GetUserID(ctx),
	)
	s.publishLeadEvent(ctx, types.WebhookEventLeadEntitlementRevoked, updated)

	return dto.NewLeadResponse(updated), nil
}
