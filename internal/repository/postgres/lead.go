package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quizfunnel/leadsync/internal/domain/lead"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/postgres"
	"github.com/quizfunnel/leadsync/internal/types"
)

const leadColumns = `id, email1, email2, quiz_id, quiz_response_id, plan_type, paid,
	amount_in_cents, paid_at, identity_user_id, subscriber_id, external_session_id,
	external_transaction_id, subscription_status, subscription_expires_at,
	entitlement_granted_at, device_type, created_at, updated_at`

type leadRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewLeadRepository(client postgres.IClient, logger *logger.Logger) lead.Repository {
	return &leadRepository{client: client, logger: logger}
}

func (r *leadRepository) Create(ctx context.Context, l *lead.Lead) error {
	query := `
		INSERT INTO payment_leads (` + leadColumns + `) VALUES (
			:id, :email1, :email2, :quiz_id, :quiz_response_id, :plan_type, :paid,
			:amount_in_cents, :paid_at, :identity_user_id, :subscriber_id, :external_session_id,
			:external_transaction_id, :subscription_status, :subscription_expires_at,
			:entitlement_granted_at, :device_type, :created_at, :updated_at
		)`

	r.logger.Debugw("creating lead",
		"lead_id", l.ID,
		"quiz_id", l.QuizID,
	)

	l.Normalize(time.Now().UTC())
	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, l); err != nil {
		return r.writeError(err, l.ID)
	}
	return nil
}

func (r *leadRepository) Get(ctx context.Context, id string) (*lead.Lead, error) {
	var l lead.Lead
	query := `SELECT ` + leadColumns + ` FROM payment_leads WHERE id = $1`

	if err := r.client.Querier(ctx).GetContext(ctx, &l, query, id); err != nil {
		if postgres.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Lead %s not found", id).
				WithReportableDetails(map[string]any{"lead_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get lead").
			Mark(ierr.ErrDatabase)
	}
	return &l, nil
}

func (r *leadRepository) Update(ctx context.Context, id string, mutate lead.MutateFunc) (*lead.Lead, error) {
	var updated *lead.Lead

	err := r.client.WithTx(ctx, func(txCtx context.Context) error {
		q := r.client.Querier(txCtx)

		var current lead.Lead
		selectQuery := `SELECT ` + leadColumns + ` FROM payment_leads WHERE id = $1 FOR UPDATE`
		if err := q.GetContext(txCtx, &current, selectQuery, id); err != nil {
			if postgres.IsNoRows(err) {
				return ierr.WithError(err).
					WithHintf("Lead %s not found", id).
					WithReportableDetails(map[string]any{"lead_id": id}).
					Mark(ierr.ErrNotFound)
			}
			return ierr.WithError(err).
				WithHint("Failed to load lead for update").
				Mark(ierr.ErrDatabase)
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			return err
		}

		// immutable columns are never part of the SET clause, keep the struct honest too
		next.ID = current.ID
		next.Email1 = current.Email1
		next.QuizID = current.QuizID
		next.QuizResponseID = current.QuizResponseID
		next.CreatedAt = current.CreatedAt

		now := time.Now().UTC()
		next.Normalize(now)
		next.UpdatedAt = now

		updateQuery := `
			UPDATE payment_leads SET
				email2 = :email2,
				plan_type = :plan_type,
				paid = :paid,
				amount_in_cents = :amount_in_cents,
				paid_at = :paid_at,
				identity_user_id = :identity_user_id,
				subscriber_id = :subscriber_id,
				external_session_id = :external_session_id,
				external_transaction_id = :external_transaction_id,
				subscription_status = :subscription_status,
				subscription_expires_at = :subscription_expires_at,
				entitlement_granted_at = :entitlement_granted_at,
				device_type = :device_type,
				updated_at = :updated_at
			WHERE id = :id`

		r.logger.Debugw("updating lead",
			"lead_id", id,
			"paid", next.Paid,
			"state", next.State(),
		)

		if _, err := q.NamedExecContext(txCtx, updateQuery, next); err != nil {
			return r.writeError(err, id)
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *leadRepository) FindBySessionID(ctx context.Context, sessionID string) (*lead.Lead, error) {
	return r.findOne(ctx, "external_session_id", sessionID)
}

func (r *leadRepository) FindBySubscriberID(ctx context.Context, subscriberID string) (*lead.Lead, error) {
	return r.findOne(ctx, "subscriber_id", subscriberID)
}

func (r *leadRepository) FindByIdentityUserID(ctx context.Context, identityUserID string) (*lead.Lead, error) {
	return r.findOne(ctx, "identity_user_id", identityUserID)
}

// findOne returns the newest lead whose column equals value, nil when none matches
func (r *leadRepository) findOne(ctx context.Context, column, value string) (*lead.Lead, error) {
	if value == "" {
		return nil, nil
	}

	var l lead.Lead
	query := fmt.Sprintf(`SELECT %s FROM payment_leads WHERE %s = $1 ORDER BY created_at DESC LIMIT 1`, leadColumns, column)
	if err := r.client.Querier(ctx).GetContext(ctx, &l, query, value); err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHintf("Failed to find lead by %s", column).
			Mark(ierr.ErrDatabase)
	}
	return &l, nil
}

func (r *leadRepository) List(ctx context.Context, filter *types.LeadFilter) ([]*lead.Lead, error) {
	if filter == nil {
		filter = types.NewLeadFilter()
	}

	where, args := leadFilterClause(filter)
	query := `SELECT ` + leadColumns + ` FROM payment_leads` + where

	order := "DESC"
	if filter.QueryFilter != nil && filter.GetOrder() == types.OrderAsc {
		order = "ASC"
	}
	query += ` ORDER BY created_at ` + order + `, id ` + order

	if filter.QueryFilter != nil && !filter.IsUnlimited() {
		query += ` LIMIT :limit OFFSET :offset`
		args["limit"] = filter.GetLimit()
		args["offset"] = filter.GetOffset()
	}

	leads := make([]*lead.Lead, 0)
	if err := postgres.NamedSelect(ctx, r.client.Querier(ctx), &leads, query, args); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list leads").
			Mark(ierr.ErrDatabase)
	}
	return leads, nil
}

func (r *leadRepository) Count(ctx context.Context, filter *types.LeadFilter) (int, error) {
	if filter == nil {
		filter = types.NewLeadFilter()
	}

	where, args := leadFilterClause(filter)
	var count int
	if err := postgres.NamedGet(ctx, r.client.Querier(ctx), &count, `SELECT COUNT(*) FROM payment_leads`+where, args); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count leads").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func leadFilterClause(filter *types.LeadFilter) (string, map[string]interface{}) {
	conditions := make([]string, 0, 2)
	args := make(map[string]interface{})

	if filter.QuizID != nil {
		conditions = append(conditions, "quiz_id = :quiz_id")
		args["quiz_id"] = *filter.QuizID
	}
	if filter.Paid != nil {
		conditions = append(conditions, "paid = :paid")
		args["paid"] = *filter.Paid
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *leadRepository) writeError(err error, leadID string) error {
	if postgres.IsUniqueViolation(err) {
		return ierr.WithError(err).
			WithHint("Another lead already uses this checkout session").
			WithReportableDetails(map[string]any{"lead_id": leadID}).
			Mark(ierr.ErrAlreadyExists)
	}
	return ierr.WithError(err).
		WithHint("Failed to save lead").
		Mark(ierr.ErrDatabase)
}
