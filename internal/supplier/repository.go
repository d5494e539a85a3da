package supplier

import (
	"context"
	"fmt"
	"slices"

	"builders-pos/internal/store"
)

type Repository interface {
	List(ctx context.Context) ([]Supplier, error)
	Create(ctx context.Context, s Supplier) (*Supplier, error)
	Delete(ctx context.Context, id int64) (*Supplier, error)
}

type repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) List(ctx context.Context) ([]Supplier, error) {
	return store.ReadCollection[Supplier](ctx, r.store, store.KeySuppliers)
}

// Create assigns max(id)+1 so a delete never causes an id to be reused
// by the next insert.
func (r *repository) Create(ctx context.Context, s Supplier) (*Supplier, error) {
	var created Supplier
	_, err := store.UpdateCollection(ctx, r.store, store.KeySuppliers, func(all []Supplier) ([]Supplier, error) {
		var next int64 = 1
		for _, x := range all {
			if x.ID >= next {
				next = x.ID + 1
			}
		}
		created = s
		created.ID = next
		return append(all, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) Delete(ctx context.Context, id int64) (*Supplier, error) {
	var deleted Supplier
	_, err := store.UpdateCollection(ctx, r.store, store.KeySuppliers, func(all []Supplier) ([]Supplier, error) {
		i := slices.IndexFunc(all, func(x Supplier) bool { return x.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("supplier %d: %w", id, ErrSupplierNotFound)
		}
		deleted = all[i]
		return slices.Delete(all, i, i+1), nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
