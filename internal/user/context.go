package user

import (
	"context"
	"slices"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// RequireRole returns the identity in ctx when its role is one of roles.
func RequireRole(ctx context.Context, roles ...Role) (Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	if len(roles) > 0 && !slices.Contains(roles, id.Role) {
		return id, ErrForbidden
	}
	return id, nil
}
