package validator

import (
	"testing"

	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"a@x.com", false},
		{"  padded@example.org ", false},
		{"", true},
		{"not-an-email", true},
		{"missing@", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, ierr.IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		LeadID string `validate:"required"`
	}

	assert.NoError(t, ValidateRequest(req{LeadID: "lead_1"}))

	err := ValidateRequest(req{})
	assert.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
