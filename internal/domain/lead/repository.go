package lead

import (
	"context"

	"github.com/quizfunnel/leadsync/internal/types"
)

// MutateFunc edits a freshly loaded lead inside Update
type MutateFunc func(l *Lead) error

// Repository defines the interface for lead data access
type Repository interface {
	Create(ctx context.Context, lead *Lead) error
	// Get returns a NotFound error for unknown ids
	Get(ctx context.Context, id string) (*Lead, error)
	// Update loads the row under a lock, applies mutate and persists the mutable columns.
	// Email1, quiz references and CreatedAt are never written.
	Update(ctx context.Context, id string, mutate MutateFunc) (*Lead, error)
	// Find* return nil, nil when no lead matches
	FindBySessionID(ctx context.Context, sessionID string) (*Lead, error)
	FindBySubscriberID(ctx context.Context, subscriberID string) (*Lead, error)
	FindByIdentityUserID(ctx context.Context, identityUserID string) (*Lead, error)
	// List orders by CreatedAt using the filter order, newest first by default
	List(ctx context.Context, filter *types.LeadFilter) ([]*Lead, error)
	Count(ctx context.Context, filter *types.LeadFilter) (int, error)
}
