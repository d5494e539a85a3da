package notification

import (
	"context"

	"builders-pos/internal/store"
)

type Repository interface {
	List(ctx context.Context) ([]Notification, error)
	Append(ctx context.Context, n Notification) error
	// SetVerified flips matching not_verified records and returns how many
	// changed. Already verified records are left alone.
	SetVerified(ctx context.Context, match func(Notification) bool) (int, error)
}

type repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) List(ctx context.Context) ([]Notification, error) {
	return store.ReadCollection[Notification](ctx, r.store, store.KeyNotifications)
}

func (r *repository) Append(ctx context.Context, n Notification) error {
	_, err := store.UpdateCollection(ctx, r.store, store.KeyNotifications, func(ns []Notification) ([]Notification, error) {
		return append(ns, n), nil
	})
	return err
}

func (r *repository) SetVerified(ctx context.Context, match func(Notification) bool) (int, error) {
	changed := 0
	var (
		ns      []Notification
		matched bool
	)
	err := r.store.Update(ctx, store.KeyNotifications, &ns, func(bool) error {
		changed, matched = 0, false
		for i := range ns {
			if !match(ns[i]) {
				continue
			}
			matched = true
			if ns[i].Status != StatusVerified {
				ns[i].Status = StatusVerified
				changed++
			}
		}
		if changed == 0 {
			return errUnchanged
		}
		return nil
	})
	if err == errUnchanged {
		if !matched {
			return 0, ErrNotificationNotFound
		}
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return changed, nil
}
