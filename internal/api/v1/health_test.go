package v1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(ctx context.Context) error {
	return p.err
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
	}{
		{name: "liveness only", db: nil, wantStatus: http.StatusOK},
		{name: "postgres reachable", db: stubPinger{}, wantStatus: http.StatusOK},
		{name: "postgres down", db: stubPinger{err: errors.New("dial tcp: connection refused")}, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", NewHealthHandler(tt.db, logger.NewNoopLogger()).Health)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
