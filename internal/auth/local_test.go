package auth

import (
	"context"
	"testing"

	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestLocalAuth(t *testing.T) *localAuth {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Configuration{
		Auth: config.AuthConfig{
			Secret: "test-secret",
			Operators: []config.OperatorConfig{
				{Email: "ops@quiz.test", PasswordHash: string(hash)},
			},
		},
	}
	return NewLocalAuth(cfg)
}

func TestLocalAuthLogin(t *testing.T) {
	a := newTestLocalAuth(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{name: "valid credentials", email: "ops@quiz.test", password: "s3cret"},
		{name: "email is case insensitive", email: "OPS@quiz.test", password: "s3cret"},
		{name: "wrong password", email: "ops@quiz.test", password: "nope", wantErr: true},
		{name: "unknown operator", email: "who@quiz.test", password: "s3cret", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := a.Login(ctx, AuthRequest{Email: tt.email, Password: tt.password})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, ierr.IsUnauthorized(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, OperatorUserID("ops@quiz.test"), resp.UserID)

			claims, err := a.ValidateToken(ctx, resp.AuthToken)
			require.NoError(t, err)
			assert.Equal(t, resp.UserID, claims.UserID)
			assert.Equal(t, "ops@quiz.test", claims.Email)
		})
	}
}

func TestLocalAuthRejectsForeignToken(t *testing.T) {
	a := newTestLocalAuth(t)
	other := &localAuth{AuthConfig: config.AuthConfig{Secret: "other-secret"}}

	token, err := other.generateToken("user_1", "x@y.z")
	require.NoError(t, err)

	_, err = a.ValidateToken(context.Background(), token)
	require.Error(t, err)
	assert.True(t, ierr.IsUnauthorized(err))
}

func TestValidateAPIKey(t *testing.T) {
	cfg := &config.Configuration{
		Auth: config.AuthConfig{
			APIKey: config.APIKeyConfig{
				Keys: map[string]config.APIKeyDetails{
					HashAPIKey("live-key"):    {UserID: "user_ops", IsActive: true},
					HashAPIKey("revoked-key"): {UserID: "user_old", IsActive: false},
				},
			},
		},
	}

	userID, ok := ValidateAPIKey(cfg, "live-key")
	assert.True(t, ok)
	assert.Equal(t, "user_ops", userID)

	_, ok = ValidateAPIKey(cfg, "revoked-key")
	assert.False(t, ok)

	_, ok = ValidateAPIKey(cfg, "")
	assert.False(t, ok)
}
