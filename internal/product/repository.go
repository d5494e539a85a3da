package product

import (
	"context"
	"fmt"
	"time"

	"builders-pos/internal/store"
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Update(ctx context.Context, id int64, fn func(p *Product) error) (*Product, error)
	// AdjustStock applies every change or none. A change that would take
	// stock below zero fails the whole batch with ErrInsufficientStock.
	AdjustStock(ctx context.Context, changes []StockChange, at time.Time) ([]Product, error)
}

type repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) List(ctx context.Context) ([]Product, error) {
	return store.ReadCollection[Product](ctx, r.store, store.KeyProducts)
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if p := Find(products, id); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
}

// Create assigns id = max(existing)+1.
func (r *repository) Create(ctx context.Context, p Product) (*Product, error) {
	var created Product
	_, err := store.UpdateCollection(ctx, r.store, store.KeyProducts, func(products []Product) ([]Product, error) {
		var maxID int64
		for _, existing := range products {
			maxID = max(maxID, existing.ID)
		}
		created = p
		created.ID = maxID + 1
		return append(products, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) Update(ctx context.Context, id int64, fn func(p *Product) error) (*Product, error) {
	var updated Product
	_, err := store.UpdateCollection(ctx, r.store, store.KeyProducts, func(products []Product) ([]Product, error) {
		for i := range products {
			if products[i].ID != id {
				continue
			}
			if err := fn(&products[i]); err != nil {
				return nil, err
			}
			updated = products[i]
			return products, nil
		}
		return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *repository) AdjustStock(ctx context.Context, changes []StockChange, at time.Time) ([]Product, error) {
	return store.UpdateCollection(ctx, r.store, store.KeyProducts, func(products []Product) ([]Product, error) {
		index := make(map[int64]int, len(products))
		for i, p := range products {
			index[p.ID] = i
		}

		// 1. Validate the whole batch first
		pending := make(map[int64]int, len(changes))
		for _, c := range changes {
			i, ok := index[c.ProductID]
			if !ok {
				return nil, fmt.Errorf("product %d: %w", c.ProductID, ErrProductNotFound)
			}
			pending[c.ProductID] += c.Delta
			if products[i].Stock+pending[c.ProductID] < 0 {
				return nil, fmt.Errorf("%s: only %d available: %w",
					products[i].Name, products[i].Stock, ErrInsufficientStock)
			}
		}

		// 2. Apply
		for id, delta := range pending {
			p := &products[index[id]]
			p.Stock += delta
			stamp := at
			p.LastUpdated = &stamp
		}
		return products, nil
	})
}

// Find returns a copy of the product with id, or nil.
func Find(products []Product, id int64) *Product {
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p
		}
	}
	return nil
}
