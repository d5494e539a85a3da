package cart

import (
	"context"

	"builders-pos/internal/store"
)

// Repository persists each customer's cart under its own key. Only that
// customer's session writes it, so whole-value writes are enough.
type Repository interface {
	Load(ctx context.Context, customerID int64) ([]Item, error)
	Save(ctx context.Context, customerID int64, items []Item) error
}

type repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) Load(ctx context.Context, customerID int64) ([]Item, error) {
	return store.ReadCollection[Item](ctx, r.store, store.CartKey(customerID))
}

func (r *repository) Save(ctx context.Context, customerID int64, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	return r.store.Write(ctx, store.CartKey(customerID), items)
}
