package dto

import (
	"testing"
	"time"

	"github.com/quizfunnel/leadsync/internal/domain/lead"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestCreateLeadRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateLeadRequest
		wantErr bool
	}{
		{name: "valid", req: CreateLeadRequest{Email1: "a@x.com", QuizID: lo.ToPtr("quiz_1")}},
		{name: "missing email", req: CreateLeadRequest{}, wantErr: true},
		{name: "malformed email", req: CreateLeadRequest{Email1: "not-an-email"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUpdateLeadRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     UpdateLeadRequest
		wantErr bool
	}{
		{name: "without email2", req: UpdateLeadRequest{Paid: true}},
		{name: "with email2", req: UpdateLeadRequest{Email2: lo.ToPtr("b@x.com")}},
		{name: "empty email2", req: UpdateLeadRequest{Email2: lo.ToPtr("")}, wantErr: true},
		{name: "malformed email2", req: UpdateLeadRequest{Email2: lo.ToPtr("b@")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewSubscriptionStatusResponse(t *testing.T) {
	now := time.Now().UTC()

	resp := NewSubscriptionStatusResponse(nil, now)
	assert.False(t, resp.IsPremium)
	assert.Nil(t, resp.Status)
	assert.Nil(t, resp.ExpiresAt)

	l := &lead.Lead{
		ID:                    "lead_1",
		Paid:                  true,
		SubscriptionStatus:    lo.ToPtr(types.SubscriptionStatusCancelled),
		SubscriptionExpiresAt: lo.ToPtr(now.Add(time.Hour)),
	}
	resp = NewSubscriptionStatusResponse(l, now)
	assert.True(t, resp.IsPremium)
	assert.Equal(t, types.SubscriptionStatusCancelled, *resp.Status)
}
