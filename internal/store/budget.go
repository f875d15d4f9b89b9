package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"classroom/internal/core"
	"classroom/internal/log"
	"classroom/internal/storage"
)

// ExpenseStore is the append-only list of recorded transactions.
type ExpenseStore struct {
	mu    sync.Mutex
	doc   document[[]core.Transaction]
	newID func() string
}

func NewExpenseStore(kv storage.KV, logger *log.Logger) *ExpenseStore {
	return &ExpenseStore{
		doc:   document[[]core.Transaction]{kv: kv, key: storage.KeyTransactions, logger: logger},
		newID: uuid.NewString,
	}
}

func (s *ExpenseStore) List(ctx context.Context) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txs := s.doc.get(ctx); txs != nil {
		return txs
	}
	return []core.Transaction{}
}

// Append assigns an id when t has none and stores it at the end of the list.
func (s *ExpenseStore) Append(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = s.newID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	txs, err := s.doc.load(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.doc.save(ctx, append(txs, t)); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// Delete removes the transaction. Unknown ids are ignored.
func (s *ExpenseStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs, err := s.doc.load(ctx)
	if err != nil {
		return err
	}
	out, removed := without(txs, func(t core.Transaction) bool { return t.ID == id })
	if !removed {
		return nil
	}
	return s.doc.save(ctx, out)
}

// WishlistStore holds planned purchases.
type WishlistStore struct {
	mu    sync.Mutex
	doc   document[[]core.PlannedExpense]
	newID func() string
}

func NewWishlistStore(kv storage.KV, logger *log.Logger) *WishlistStore {
	return &WishlistStore{
		doc:   document[[]core.PlannedExpense]{kv: kv, key: storage.KeyPlannedExpenses, logger: logger},
		newID: uuid.NewString,
	}
}

func (s *WishlistStore) List(ctx context.Context) []core.PlannedExpense {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items := s.doc.get(ctx); items != nil {
		return items
	}
	return []core.PlannedExpense{}
}

// Get looks up a planned item with a strict read.
func (s *WishlistStore) Get(ctx context.Context, id string) (core.PlannedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.doc.load(ctx)
	if err != nil {
		return core.PlannedExpense{}, err
	}
	for _, p := range items {
		if p.ID == id {
			return p, nil
		}
	}
	return core.PlannedExpense{}, core.ErrNotFound
}

func (s *WishlistStore) Add(ctx context.Context, p core.PlannedExpense) (core.PlannedExpense, error) {
	if err := p.Validate(); err != nil {
		return core.PlannedExpense{}, err
	}
	if p.ID == "" {
		p.ID = s.newID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.doc.load(ctx)
	if err != nil {
		return core.PlannedExpense{}, err
	}
	if err := s.doc.save(ctx, append(items, p)); err != nil {
		return core.PlannedExpense{}, err
	}
	return p, nil
}

// Delete removes the planned item. Unknown ids are ignored.
func (s *WishlistStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.doc.load(ctx)
	if err != nil {
		return err
	}
	out, removed := without(items, func(p core.PlannedExpense) bool { return p.ID == id })
	if !removed {
		return nil
	}
	return s.doc.save(ctx, out)
}

func without[T any](in []T, match func(T) bool) ([]T, bool) {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !match(v) {
			out = append(out, v)
		}
	}
	return out, len(out) != len(in)
}
