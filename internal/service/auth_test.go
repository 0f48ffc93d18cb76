package service

import (
	"testing"

	"github.com/quizfunnel/leadsync/internal/api/dto"
	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/testutil"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceSuite struct {
	testutil.BaseServiceTestSuite
	service AuthService
}

func TestAuthService(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	s.Require().NoError(err)

	params := newTestServiceParams(&s.BaseServiceTestSuite)
	cfg := *params.Config
	cfg.Auth.Operators = []config.OperatorConfig{{Email: "ops@quiz.test", PasswordHash: string(hash)}}
	params.Config = &cfg

	s.service = NewAuthService(params)
}

func (s *AuthServiceSuite) TestLogin() {
	tests := []struct {
		name    string
		req     dto.LoginRequest
		wantErr func(error) bool
	}{
		{
			name: "valid credentials",
			req:  dto.LoginRequest{Email: "ops@quiz.test", Password: "s3cret"},
		},
		{
			name:    "email is case insensitive",
			req:     dto.LoginRequest{Email: "OPS@quiz.test", Password: "s3cret"},
			wantErr: nil,
		},
		{
			name:    "wrong password",
			req:     dto.LoginRequest{Email: "ops@quiz.test", Password: "nope"},
			wantErr: ierr.IsUnauthorized,
		},
		{
			name:    "unknown operator",
			req:     dto.LoginRequest{Email: "who@quiz.test", Password: "s3cret"},
			wantErr: ierr.IsUnauthorized,
		},
		{
			name:    "malformed email",
			req:     dto.LoginRequest{Email: "ops", Password: "s3cret"},
			wantErr: ierr.IsValidation,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.service.Login(s.GetContext(), tt.req)
			if tt.wantErr != nil {
				s.Error(err)
				s.True(tt.wantErr(err))
				return
			}
			s.Require().NoError(err)
			s.NotEmpty(resp.Token)
			s.NotEmpty(resp.UserID)
		})
	}
}
