package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"money-matters-dashboard/internal/ledger"
	"money-matters-dashboard/internal/store"

	"github.com/google/uuid"
)

// Store keeps transactions in process. It is the default development backend
// and the fake used by handler tests.
type Store struct {
	mu    sync.Mutex
	items []ledger.Transaction
	names map[string]string
}

func New(names map[string]string, seed ...ledger.Transaction) *Store {
	n := make(map[string]string, len(names))
	for k, v := range names {
		n[k] = v
	}
	return &Store{items: slices.Clone(seed), names: n}
}

// List returns a copy of the scope's transactions, newest first.
func (s *Store) List(_ context.Context, scope store.Scope) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ledger.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if scope.All || t.UserID == scope.UserID {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b ledger.Transaction) int { return b.Date.Compare(a.Date) })
	return out, nil
}

func (s *Store) Create(_ context.Context, d store.Draft) (ledger.Transaction, error) {
	t := d.Transaction(uuid.NewString())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return t, nil
}

func (s *Store) Update(_ context.Context, scope store.Scope, id string, d store.Draft) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(scope, id)
	if i < 0 {
		return ledger.Transaction{}, store.ErrNotFound
	}
	d.UserID = s.items[i].UserID
	s.items[i] = d.Transaction(id)
	return s.items[i], nil
}

func (s *Store) Delete(_ context.Context, scope store.Scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(scope, id)
	if i < 0 {
		return store.ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *Store) UserNames(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.names))
	for k, v := range s.names {
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) find(scope store.Scope, id string) int {
	return slices.IndexFunc(s.items, func(t ledger.Transaction) bool {
		return t.ID == id && (scope.All || t.UserID == scope.UserID)
	})
}
