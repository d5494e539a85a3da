package user

import (
	"context"
	"strings"
	"time"

	"builders-pos/internal/store"
)

// KeyResetRequests holds pending password reset codes.
const KeyResetRequests = "passwordResetRequests"

type Repository interface {
	List(ctx context.Context) ([]User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindActive(ctx context.Context, usernameOrEmail string) (*User, error)
	Create(ctx context.Context, u User) (*User, error)
	UpdatePassword(ctx context.Context, username, password string) error
	TouchLogin(ctx context.Context, id int64, at time.Time) error
	SaveResetRequest(ctx context.Context, r ResetRequest) error
	ResetRequests(ctx context.Context) ([]ResetRequest, error)
}

type repository struct {
	store *store.Store
}

func NewRepository(s *store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	return store.ReadCollection[User](ctx, r.store, store.KeyUsers)
}

func (r *repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repository) FindActive(ctx context.Context, usernameOrEmail string) (*User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		u := users[i]
		if u.Status != StatusActive {
			continue
		}
		if u.Username == usernameOrEmail || (u.Email != "" && strings.EqualFold(u.Email, usernameOrEmail)) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

// Create assigns id = max(existing)+1 and rejects duplicate usernames.
func (r *repository) Create(ctx context.Context, u User) (*User, error) {
	var created User
	_, err := store.UpdateCollection(ctx, r.store, store.KeyUsers, func(users []User) ([]User, error) {
		var maxID int64
		for _, existing := range users {
			if existing.Username == u.Username {
				return nil, ErrUsernameExists
			}
			maxID = max(maxID, existing.ID)
		}
		created = u
		created.ID = maxID + 1
		return append(users, created), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) UpdatePassword(ctx context.Context, username, password string) error {
	_, err := store.UpdateCollection(ctx, r.store, store.KeyUsers, func(users []User) ([]User, error) {
		for i := range users {
			if users[i].Username == username {
				users[i].Password = password
				return users, nil
			}
		}
		return nil, ErrUserNotFound
	})
	return err
}

func (r *repository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := store.UpdateCollection(ctx, r.store, store.KeyUsers, func(users []User) ([]User, error) {
		for i := range users {
			if users[i].ID == id {
				users[i].LastLogin = &at
			}
		}
		return users, nil
	})
	return err
}

func (r *repository) SaveResetRequest(ctx context.Context, req ResetRequest) error {
	_, err := store.UpdateCollection(ctx, r.store, KeyResetRequests, func(reqs []ResetRequest) ([]ResetRequest, error) {
		return append(reqs, req), nil
	})
	return err
}

func (r *repository) ResetRequests(ctx context.Context) ([]ResetRequest, error) {
	return store.ReadCollection[ResetRequest](ctx, r.store, KeyResetRequests)
}
