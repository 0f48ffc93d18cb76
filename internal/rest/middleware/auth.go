package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quizfunnel/leadsync/internal/auth"
	"github.com/quizfunnel/leadsync/internal/config"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/types"
)

// AuthenticateMiddleware guards operator routes. A request passes with either:
// 1. an API key in the configured header (x-api-key by default)
// 2. a JWT in the Authorization header as a Bearer token
// The operator user ID is set in the request context for downstream handlers.
func AuthenticateMiddleware(cfg *config.Configuration, logger *logger.Logger) gin.HandlerFunc {
	authProvider := auth.NewProvider(cfg)

	return func(c *gin.Context) {
		// First check for API key
		apiKeyHeader := c.GetHeader(cfg.Auth.APIKey.Header)
		if apiKeyHeader != "" {
			userID, valid := auth.ValidateAPIKey(cfg, apiKeyHeader)
			if !valid || userID == "" {
				logger.Debugw("invalid api key", "path", c.Request.URL.Path)
				abortUnauthorized(c, "Invalid API key")
				return
			}

			c.Request = c.Request.WithContext(types.SetUserID(c.Request.Context(), userID))
			c.Next()
			return
		}

		// If no API key, check for JWT token
		authHeader := c.GetHeader(types.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := authProvider.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Warnw("failed to validate token", "error", err)
			abortUnauthorized(c, "Invalid token")
			return
		}

		if claims == nil || claims.UserID == "" {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		c.Request = c.Request.WithContext(types.SetUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		ierr.NewErrorResponse(message, nil, types.GetRequestID(c.Request.Context())))
}
