package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quizfunnel/leadsync/internal/config"
)

// CORSMiddleware lets the funnel frontend call the public routes from the browser
func CORSMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	origin := "*"
	if cfg != nil && cfg.Frontend.BaseURL != "" {
		origin = strings.TrimRight(cfg.Frontend.BaseURL, "/")
	}

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "*")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
