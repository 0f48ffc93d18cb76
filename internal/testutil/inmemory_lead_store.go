package testutil

import (
	"context"
	"time"

	"github.com/quizfunnel/leadsync/internal/domain/lead"
	ierr "github.com/quizfunnel/leadsync/internal/errors"
	"github.com/quizfunnel/leadsync/internal/types"
)

var _ lead.Repository = (*InMemoryLeadStore)(nil)

// InMemoryLeadStore implements lead.Repository and hands out copies only
type InMemoryLeadStore struct {
	*InMemoryStore[*lead.Lead]
	// UpdateErr, when set, is returned by every Update
	UpdateErr error
}

func NewInMemoryLeadStore() *InMemoryLeadStore {
	return &InMemoryLeadStore{
		InMemoryStore: NewInMemoryStore[*lead.Lead](),
	}
}

func (s *InMemoryLeadStore) Create(ctx context.Context, l *lead.Lead) error {
	if l == nil {
		return ierr.NewError("lead cannot be nil").Mark(ierr.ErrValidation)
	}

	if l.ExternalSessionID != nil {
		if _, ok := s.InMemoryStore.Find(ctx, sameSession(*l.ExternalSessionID)); ok {
			return ierr.NewError("duplicate session").
				WithHint("Another lead already uses this checkout session").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	l.Normalize(time.Now().UTC())
	return s.InMemoryStore.Create(ctx, l.ID, l.Clone())
}

func (s *InMemoryLeadStore) Get(ctx context.Context, id string) (*lead.Lead, error) {
	l, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Lead %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return l.Clone(), nil
}

func (s *InMemoryLeadStore) Update(ctx context.Context, id string, mutate lead.MutateFunc) (*lead.Lead, error) {
	if s.UpdateErr != nil {
		return nil, s.UpdateErr
	}

	updated, err := s.InMemoryStore.Mutate(ctx, id, func(current *lead.Lead) (*lead.Lead, error) {
		next := current.Clone()
		if err := mutate(next); err != nil {
			return nil, err
		}

		next.ID = current.ID
		next.Email1 = current.Email1
		next.QuizID = current.QuizID
		next.QuizResponseID = current.QuizResponseID
		next.CreatedAt = current.CreatedAt

		now := time.Now().UTC()
		next.Normalize(now)
		next.UpdatedAt = now
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

func (s *InMemoryLeadStore) FindBySessionID(ctx context.Context, sessionID string) (*lead.Lead, error) {
	return s.findNewest(ctx, sessionID, sameSession(sessionID))
}

func (s *InMemoryLeadStore) FindBySubscriberID(ctx context.Context, subscriberID string) (*lead.Lead, error) {
	return s.findNewest(ctx, subscriberID, func(l *lead.Lead) bool {
		return l.SubscriberID != nil && *l.SubscriberID == subscriberID
	})
}

func (s *InMemoryLeadStore) FindByIdentityUserID(ctx context.Context, identityUserID string) (*lead.Lead, error) {
	return s.findNewest(ctx, identityUserID, func(l *lead.Lead) bool {
		return l.IdentityUserID != nil && *l.IdentityUserID == identityUserID
	})
}

func (s *InMemoryLeadStore) findNewest(ctx context.Context, value string, match func(*lead.Lead) bool) (*lead.Lead, error) {
	if value == "" {
		return nil, nil
	}
	leads, err := s.InMemoryStore.List(ctx, nil, match, newestFirst)
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return nil, nil
	}
	return leads[0].Clone(), nil
}

func (s *InMemoryLeadStore) List(ctx context.Context, filter *types.LeadFilter) ([]*lead.Lead, error) {
	if filter == nil {
		filter = types.NewLeadFilter()
	}

	sortFn := newestFirst
	if filter.QueryFilter != nil && filter.GetOrder() == types.OrderAsc {
		sortFn = func(a, b *lead.Lead) bool { return newestFirst(b, a) }
	}

	var page any
	if filter.QueryFilter != nil {
		page = filter.QueryFilter
	}

	leads, err := s.InMemoryStore.List(ctx, page, leadFilterFn(filter), sortFn)
	if err != nil {
		return nil, err
	}

	result := make([]*lead.Lead, 0, len(leads))
	for _, l := range leads {
		result = append(result, l.Clone())
	}
	return result, nil
}

func (s *InMemoryLeadStore) Count(ctx context.Context, filter *types.LeadFilter) (int, error) {
	if filter == nil {
		filter = types.NewLeadFilter()
	}
	return s.InMemoryStore.Count(ctx, leadFilterFn(filter))
}

// Seed stores l as is, bypassing normalization
func (s *InMemoryLeadStore) Seed(l *lead.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[l.ID] = l.Clone()
}

func leadFilterFn(filter *types.LeadFilter) func(*lead.Lead) bool {
	return func(l *lead.Lead) bool {
		if filter.QuizID != nil && (l.QuizID == nil || *l.QuizID != *filter.QuizID) {
			return false
		}
		if filter.Paid != nil && l.Paid != *filter.Paid {
			return false
		}
		return true
	}
}

func sameSession(sessionID string) func(*lead.Lead) bool {
	return func(l *lead.Lead) bool {
		return l.ExternalSessionID != nil && *l.ExternalSessionID == sessionID
	}
}

func newestFirst(a, b *lead.Lead) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}
