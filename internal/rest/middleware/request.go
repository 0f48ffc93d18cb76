package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quizfunnel/leadsync/internal/types"
)

func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	c.Request = c.Request.WithContext(types.SetRequestID(c.Request.Context(), requestID))

	// Add headers for response
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}
