package quotation

import (
	"context"
	"slices"

	"builders-pos/internal/store"
	"builders-pos/internal/utils"
)

type Repository interface {
	List(ctx context.Context) ([]Quotation, error)
	Append(ctx context.Context, q Quotation) (*Quotation, error)
}

type repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) List(ctx context.Context) ([]Quotation, error) {
	return store.ReadCollection[Quotation](ctx, r.store, store.KeyQuotations)
}

func (r *repository) Append(ctx context.Context, q Quotation) (*Quotation, error) {
	var created Quotation
	_, err := store.UpdateCollection(ctx, r.store, store.KeyQuotations, func(all []Quotation) ([]Quotation, error) {
		created = q
		created.ID = utils.UniqueRecordID(utils.PrefixQuotation, q.Date, func(id string) bool {
			return slices.ContainsFunc(all, func(x Quotation) bool { return x.ID == id })
		})
		return append(all, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}
