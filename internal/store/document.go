// Package store keeps each classroom collection as one JSON document in a
// storage.KV. Every mutation is a read-modify-write of the whole document
// under the store's mutex.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"classroom/internal/log"
	"classroom/internal/storage"
)

type document[T any] struct {
	kv     storage.KV
	key    string
	logger *log.Logger
}

// load reads the document. A key that was never written yields the zero
// value; a failed read or a corrupt document is an error so that callers
// about to write do not overwrite data they could not see.
func (d document[T]) load(ctx context.Context) (T, error) {
	var v T
	raw, ok, err := d.kv.Read(ctx, d.key)
	if err != nil {
		return v, fmt.Errorf("read %s: %w", d.key, err)
	}
	if !ok || len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", d.key, err)
	}
	return v, nil
}

// get is load for readers: failures are logged and the zero value returned.
func (d document[T]) get(ctx context.Context) T {
	v, err := d.load(ctx)
	if err != nil {
		d.logger.WarnContext(ctx, "Falling back to default",
			log.FieldKey, d.key, log.FieldOperation, log.OpRead, log.FieldError, err)
		var zero T
		return zero
	}
	return v
}

func (d document[T]) save(ctx context.Context, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.key, err)
	}
	if err := d.kv.Write(ctx, d.key, raw); err != nil {
		d.logger.ErrorContext(ctx, "Failed to save collection",
			log.FieldKey, d.key, log.FieldOperation, log.OpUpdate, log.FieldError, err)
		return err
	}
	return nil
}

// Stores bundles every collection over one KV.
type Stores struct {
	Settings *SettingsStore
	Roster   *RosterStore
	Expenses *ExpenseStore
	Wishlist *WishlistStore
	Board    *BoardStore
}

func NewStores(kv storage.KV, logger *log.Logger) *Stores {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentStore)
	return &Stores{
		Settings: NewSettingsStore(kv, logger),
		Roster:   NewRosterStore(kv, logger),
		Expenses: NewExpenseStore(kv, logger),
		Wishlist: NewWishlistStore(kv, logger),
		Board:    NewBoardStore(kv, logger),
	}
}
