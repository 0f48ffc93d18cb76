package auth

import (
	"context"

	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/types"
)

type AuthRequest struct {
	Email    string
	Password string
}

type AuthResponse struct {
	AuthToken string
	UserID    string
}

// Claims identifies the operator behind a validated token
type Claims struct {
	UserID string
	Email  string
}

// Provider authenticates operators for the admin routes
type Provider interface {
	GetProvider() types.AuthProvider
	Login(ctx context.Context, req AuthRequest) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

func NewProvider(cfg *config.Configuration) Provider {
	switch cfg.Auth.Provider {
	case types.AuthProviderSupabase:
		return NewSupabaseAuth(cfg)
	default:
		return NewLocalAuth(cfg)
	}
}
