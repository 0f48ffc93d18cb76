package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// localAuth checks operators listed in config and issues HS256 tokens
type localAuth struct {
	AuthConfig config.AuthConfig
}

func NewLocalAuth(cfg *config.Configuration) *localAuth {
	return &localAuth{
		AuthConfig: cfg.Auth,
	}
}

func (a *localAuth) GetProvider() types.AuthProvider {
	return types.AuthProviderLocal
}

func (a *localAuth) Login(ctx context.Context, req AuthRequest) (*AuthResponse, error) {
	operator, found := lo.Find(a.AuthConfig.Operators, func(o config.OperatorConfig) bool {
		return strings.EqualFold(o.Email, req.Email)
	})
	if !found {
		return nil, ierr.NewError("unknown operator").
			WithHint("Invalid email or password").
			Mark(ierr.ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ierr.NewError("invalid password").
			WithHint("Invalid email or password").
			Mark(ierr.ErrUnauthorized)
	}

	userID := OperatorUserID(operator.Email)
	authToken, err := a.generateToken(userID, operator.Email)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}

	return &AuthResponse{
		AuthToken: authToken,
		UserID:    userID,
	}, nil
}

func (a *localAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(a.AuthConfig.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrUnauthorized)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrUnauthorized)
	}

	userID, userOk := claims["user_id"].(string)
	if !userOk {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrUnauthorized)
	}
	email, _ := claims["email"].(string)

	return &Claims{UserID: userID, Email: email}, nil
}

func (a *localAuth) generateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     now.Add(tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.AuthConfig.Secret))
}

// OperatorUserID derives a stable user id for a configured operator
func OperatorUserID(email string) string {
	return types.UUID_PREFIX_USER + "_" + HashAPIKey(strings.ToLower(email))[:16]
}

// HashPassword is used by tooling to produce operator password hashes for config
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to hash password").
			Mark(ierr.ErrSystem)
	}
	return string(hash), nil
}
