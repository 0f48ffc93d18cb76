package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/quizfunnel/leadsync/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantDetails map[string]any
	}{
		{
			name: "validation with details",
			err: ierr.NewError("bad plan").
				WithHint("Plan is not available").
				WithReportableDetails(map[string]any{"plan_type": "2_week"}).
				Mark(ierr.ErrValidation),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Plan is not available",
			wantDetails: map[string]any{"plan_type": "2_week"},
		},
		{
			name:        "not found",
			err:         ierr.NewError("missing").WithHint("Lead not found").Mark(ierr.ErrNotFound),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Lead not found",
		},
		{
			name:        "unauthorized wins over other marks",
			err:         ierr.WithError(ierr.NewError("sig").Mark(ierr.ErrValidation)).WithHint("Bad signature").Mark(ierr.ErrUnauthorized),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Bad signature",
		},
		{
			name:        "external service",
			err:         ierr.NewError("stripe").WithHint("Payment provider unavailable").Mark(ierr.ErrExternalService),
			wantStatus:  http.StatusBadGateway,
			wantMessage: "Payment provider unavailable",
		},
		{
			name: "internal error hides details",
			err: ierr.NewError("pq: connection refused").
				WithReportableDetails(map[string]any{"query": "select"}).
				Mark(ierr.ErrDatabase),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(ErrorHandler(logger.NewNoopLogger()))
			router.GET("/", func(c *gin.Context) {
				c.Error(tt.err)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp ierr.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
			if tt.wantDetails == nil {
				assert.Empty(t, resp.Error.Details)
			} else {
				assert.Equal(t, tt.wantDetails, resp.Error.Details)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestIDMiddleware)
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, types.GetRequestID(c.Request.Context()))
	})

	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated", incoming: ""},
		{name: "propagated", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(types.HeaderRequestID, tt.incoming)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			got := w.Header().Get(types.HeaderRequestID)
			require.NotEmpty(t, got)
			assert.Equal(t, got, w.Body.String())
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, got)
			}
		})
	}
}
