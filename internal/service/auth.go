package service

import (
	"context"

	"github.com/quizfunnel/leadsync/internal/api/dto"
	"github.com/quizfunnel/leadsync/internal/auth"
	"github.com/quizfunnel/leadsync/internal/interfaces"
)

type AuthService = interfaces.AuthService

type authService struct {
	ServiceParams
	authProvider auth.Provider
}

func NewAuthService(params ServiceParams) AuthService {
	return &authService{
		ServiceParams: params,
		authProvider:  auth.NewProvider(params.Config),
	}
}

// Login authenticates an operator against the configured provider
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	authResponse, err := s.authProvider.Login(ctx, auth.AuthRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.Logger.Warnw("operator login failed", "email", req.Email)
		return nil, err
	}

	s.Logger.Infow("operator logged in", "user_id", authResponse.UserID)
	return &dto.AuthResponse{
		Token:  authResponse.AuthToken,
		UserID: authResponse.UserID,
	}, nil
}
