package order

import (
	"context"
	"fmt"

	"builders-pos/internal/store"
	"builders-pos/internal/utils"
)

type Repository interface {
	List(ctx context.Context) ([]Order, error)
	// Append stores o under a fresh id built from prefix and o.Date. If that
	// id is taken, the timestamp is bumped by a millisecond until it is not.
	Append(ctx context.Context, prefix string, o Order) (*Order, error)
	Update(ctx context.Context, id string, fn func(o *Order) error) (*Order, error)
}

type repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) List(ctx context.Context) ([]Order, error) {
	return store.ReadCollection[Order](ctx, r.store, store.KeyOrders)
}

func (r *repository) Append(ctx context.Context, prefix string, o Order) (*Order, error) {
	var created Order
	_, err := store.UpdateCollection(ctx, r.store, store.KeyOrders, func(orders []Order) ([]Order, error) {
		ids := make(map[string]struct{}, len(orders))
		for _, existing := range orders {
			ids[existing.ID] = struct{}{}
		}
		created = o
		created.ID = utils.UniqueRecordID(prefix, o.Date, func(id string) bool {
			_, dup := ids[id]
			return dup
		})
		return append(orders, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) Update(ctx context.Context, id string, fn func(o *Order) error) (*Order, error) {
	var updated Order
	_, err := store.UpdateCollection(ctx, r.store, store.KeyOrders, func(orders []Order) ([]Order, error) {
		for i := range orders {
			if orders[i].ID != id {
				continue
			}
			if err := fn(&orders[i]); err != nil {
				return nil, err
			}
			updated = orders[i]
			return orders, nil
		}
		return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
