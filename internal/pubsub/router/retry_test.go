package router

import (
	"context"
	"net"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/httpclient"
	"github.com/quizfunnel/leadsync/internal/logger"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestShouldRetry(t *testing.T) {
	log := logger.NewNoopLogger()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "service unavailable is retried",
			err:  httpclient.NewError(http.StatusServiceUnavailable, nil),
			want: true,
		},
		{
			name: "rate limited is retried",
			err:  ierr.WithError(httpclient.NewError(http.StatusTooManyRequests, nil)).Mark(ierr.ErrHTTPClient),
			want: true,
		},
		{
			name: "bad request is dropped",
			err:  httpclient.NewError(http.StatusBadRequest, []byte(`{"error":"bad"}`)),
			want: false,
		},
		{
			name: "network timeout is retried",
			err:  errors.Wrap(timeoutErr{}, "post"),
			want: true,
		},
		{
			name: "validation error is dropped",
			err:  ierr.NewError("bad payload").Mark(ierr.ErrValidation),
			want: false,
		},
		{
			name: "unauthorized is dropped",
			err:  ierr.NewError("bad token").Mark(ierr.ErrUnauthorized),
			want: false,
		},
		{
			name: "unknown error is retried",
			err:  context.DeadlineExceeded,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRetry(log, tt.err))
		})
	}
}
