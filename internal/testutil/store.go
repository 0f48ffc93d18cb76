package testutil

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/quizfunnel/leadsync/internal/errors"
)

// SortFunc is a generic sort function type
type SortFunc[T any] func(i, j T) bool

// PageFilter is implemented by filters that paginate
type PageFilter interface {
	IsUnlimited() bool
	GetLimit() int
	GetOffset() int
}

// InMemoryStore implements a generic in-memory store
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewInMemoryStore creates a new InMemoryStore
func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{
		items: make(map[string]T),
	}
}

// Create adds a new item to the store
func (s *InMemoryStore[T]) Create(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return ierr.NewError("item already exists").
			WithHintf("Item %s already exists", id).
			Mark(ierr.ErrAlreadyExists)
	}

	s.items[id] = item
	return nil
}

// Get retrieves an item by ID
func (s *InMemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[id]; exists {
		return item, nil
	}

	var zero T
	return zero, ierr.NewError("item not found").
		WithHintf("Item %s was not found", id).
		Mark(ierr.ErrNotFound)
}

// Mutate runs fn on the stored item while holding the write lock and stores the result
func (s *InMemoryStore[T]) Mutate(ctx context.Context, id string, fn func(T) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	item, exists := s.items[id]
	if !exists {
		return zero, ierr.NewError("item not found").
			WithHintf("Item %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	updated, err := fn(item)
	if err != nil {
		return zero, err
	}
	s.items[id] = updated
	return updated, nil
}

// Find returns the first item matching fn
func (s *InMemoryStore[T]) Find(ctx context.Context, fn func(T) bool) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if fn(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// List retrieves items based on filter
func (s *InMemoryStore[T]) List(ctx context.Context, filter any, filterFn func(T) bool, sortFn SortFunc[T]) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if filterFn == nil || filterFn(item) {
			result = append(result, item)
		}
	}

	if sortFn != nil {
		sort.SliceStable(result, func(i, j int) bool {
			return sortFn(result[i], result[j])
		})
	}

	if f, ok := filter.(PageFilter); ok && !f.IsUnlimited() {
		start := f.GetOffset()
		if start >= len(result) {
			return []T{}, nil
		}

		end := start + f.GetLimit()
		if end > len(result) {
			end = len(result)
		}
		return result[start:end], nil
	}

	return result, nil
}

// Count returns the total number of items matching the filter
func (s *InMemoryStore[T]) Count(ctx context.Context, filterFn func(T) bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		if filterFn == nil || filterFn(item) {
			count++
		}
	}

	return count, nil
}

// Clear removes all items from the store
func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}
