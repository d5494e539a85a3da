package supplier

import (
	"context"
	"testing"
	"time"

	"builders-pos/internal/apperr"
	"builders-pos/internal/store"
	"builders-pos/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

func newTestService() Service {
	s := store.New(store.NewMemoryBackend())
	return NewService(NewRepository(s), WithClock(func() time.Time { return fixedNow }))
}

func managerCtx() context.Context {
	return user.WithIdentity(context.Background(), user.Identity{ID: 2, Role: user.RoleManager, Name: "Grace Mwale"})
}

func validInput() NewSupplierInput {
	return NewSupplierInput{
		Name:     "Lilongwe Cement Ltd",
		Contact:  "Peter Zulu",
		Phone:    "0888123456",
		Products: "Cement, sand",
	}
}

func TestService_Add(t *testing.T) {
	svc := newTestService()
	ctx := managerCtx()

	first, err := svc.Add(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, fixedNow, first.CreatedAt)

	second, err := svc.Add(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestService_AddValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewSupplierInput)
		wantErr error
	}{
		{"missing name", func(in *NewSupplierInput) { in.Name = "  " }, ErrMissingField},
		{"missing products", func(in *NewSupplierInput) { in.Products = "" }, ErrMissingField},
		{"short phone", func(in *NewSupplierInput) { in.Phone = "088812345" }, ErrInvalidPhone},
		{"no leading zero", func(in *NewSupplierInput) { in.Phone = "8881234567" }, ErrInvalidPhone},
		{"letters", func(in *NewSupplierInput) { in.Phone = "08881234a6" }, ErrInvalidPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService()
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Add(managerCtx(), in)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestService_AddRequiresManager(t *testing.T) {
	svc := newTestService()
	ctx := user.WithIdentity(context.Background(), user.Identity{ID: 3, Role: user.RoleStaff})

	_, err := svc.Add(ctx, validInput())

	assert.ErrorIs(t, err, user.ErrForbidden)
}

func TestService_DeleteDoesNotReuseIDs(t *testing.T) {
	svc := newTestService()
	ctx := managerCtx()

	_, err := svc.Add(ctx, validInput())
	require.NoError(t, err)
	second, err := svc.Add(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1))
	assert.ErrorIs(t, svc.Delete(ctx, 1), ErrSupplierNotFound)

	third, err := svc.Add(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, second.ID+1, third.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
}
