package feedback

import (
	"context"

	"builders-pos/internal/store"
	"builders-pos/internal/utils"
)

type Repository interface {
	List(ctx context.Context) ([]Feedback, error)
	Append(ctx context.Context, f Feedback) (*Feedback, error)
}

type repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) List(ctx context.Context) ([]Feedback, error) {
	return store.ReadCollection[Feedback](ctx, r.store, store.KeyFeedbacks)
}

// Append stores f under an FB id derived from f.Date.
func (r *repository) Append(ctx context.Context, f Feedback) (*Feedback, error) {
	var created Feedback
	_, err := store.UpdateCollection(ctx, r.store, store.KeyFeedbacks, func(all []Feedback) ([]Feedback, error) {
		created = f
		created.ID = utils.UniqueRecordID(utils.PrefixFeedback, f.Date, func(id string) bool {
			for _, x := range all {
				if x.ID == id {
					return true
				}
			}
			return false
		})
		return append(all, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}
