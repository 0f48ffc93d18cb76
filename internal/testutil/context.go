package testutil

import (
	"context"

	"github.com/quizfunnel/leadsync/internal/types"
)

// SetupContext returns a context carrying an operator and request id
func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetUserID(ctx, types.DefaultUserID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	return ctx
}
