package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/types"
)

// ErrorHandler turns the last error attached by a handler into the standard envelope.
// Server side failures are logged with full detail, clients only see the hint.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			status := ierr.HTTPStatusFromErr(err)

			requestID := types.GetRequestID(c.Request.Context())
			response := ierr.NewErrorResponse(ierr.DisplayMessage(err), ierr.ReportableDetails(err), requestID)

			if status >= http.StatusInternalServerError {
				log.Errorw("request failed",
					"path", c.FullPath(),
					"status", status,
					"request_id", requestID,
					"error", err,
				)
				response.Error.Details = nil
			}

			c.JSON(status, response)
		}
	}
}
