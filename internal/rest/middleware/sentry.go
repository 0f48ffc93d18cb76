package middleware

import (
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/quizfunnel/leadsync/internal/config"
	"github.com/quizfunnel/leadsync/internal/types"
)

// SentryMiddleware attaches a sentry hub to every request when sentry is enabled
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryTagsMiddleware tags the request hub with the request id, the matched route and
// the lead id path param so events can be traced back to a funnel visitor.
// It must run after RequestIDMiddleware and SentryMiddleware.
func SentryTagsMiddleware(c *gin.Context) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.Scope().SetTag("request_id", types.GetRequestID(c.Request.Context()))
		hub.Scope().SetTag("route", c.FullPath())
		if leadID := c.Param("id"); leadID != "" {
			hub.Scope().SetTag("lead_id", leadID)
		}
	}
	c.Next()
}
