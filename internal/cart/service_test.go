package cart

import (
	"context"
	"errors"
	"testing"

	"builders-pos/internal/apperr"
	"builders-pos/internal/product"
	"builders-pos/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Load(ctx context.Context, customerID int64) ([]Item, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Item), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, customerID int64, items []Item) error {
	return m.Called(ctx, customerID, items).Error(0)
}

const customerID = int64(11)

func setup(t *testing.T) (Service, *store.Store) {
	t.Helper()
	s := store.New(store.NewMemoryBackend())
	require.NoError(t, s.Write(context.Background(), store.KeyProducts, []product.Product{
		{ID: 1, Name: "Cement 50kg", Category: "cement", Price: 45000, Stock: 200, LowStockThreshold: 50, Icon: "🏗️"},
		{ID: 6, Name: "Hammer", Category: "tools", Price: 15000, Stock: 3, LowStockThreshold: 5, Icon: "🔨"},
	}))
	return NewService(NewRepository(s), product.NewRepository(s)), s
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("NewLineSnapshotsPrice", func(t *testing.T) {
		svc, _ := setup(t)

		items, err := svc.Add(ctx, customerID, 1, 2)

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, Item{ProductID: 1, Name: "Cement 50kg", Price: 45000, Quantity: 2, Icon: "🏗️"}, items[0])
		assert.Equal(t, int64(90000), Total(items))
	})

	t.Run("MergesExistingLine", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.Add(ctx, customerID, 6, 2)
		require.NoError(t, err)
		items, err := svc.Add(ctx, customerID, 6, 1)

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)
	})

	t.Run("RejectsBeyondStock", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.Add(ctx, customerID, 6, 2)
		require.NoError(t, err)
		_, err = svc.Add(ctx, customerID, 6, 2)

		assert.ErrorIs(t, err, ErrInsufficientStock)
		items, err := svc.Get(ctx, customerID)
		require.NoError(t, err)
		assert.Equal(t, 2, items[0].Quantity)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.Add(ctx, customerID, 99, 1)

		assert.ErrorIs(t, err, product.ErrProductNotFound)
	})

	t.Run("ZeroQuantity", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.Add(ctx, customerID, 1, 0)

		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	_, err := svc.Add(ctx, customerID, 1, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, customerID, 6, 1)
	require.NoError(t, err)

	items, err := svc.UpdateQuantity(ctx, customerID, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 6, Count(items))

	_, err = svc.UpdateQuantity(ctx, customerID, 6, 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	items, err = svc.UpdateQuantity(ctx, customerID, 6, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ProductID)

	_, err = svc.UpdateQuantity(ctx, customerID, 6, 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestService_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	svc, s := setup(t)

	_, err := svc.Add(ctx, customerID, 1, 1)
	require.NoError(t, err)

	_, err = svc.Remove(ctx, customerID, 6)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	require.NoError(t, svc.Clear(ctx, customerID))

	var raw []Item
	found, err := s.Read(ctx, store.CartKey(customerID), &raw)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, raw)
}

func TestService_SaveFailureKeepsPersistenceKind(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend())
	require.NoError(t, s.Write(ctx, store.KeyProducts, []product.Product{{ID: 1, Name: "Cement", Price: 1, Stock: 5}}))

	repo := new(MockRepository)
	svc := NewService(repo, product.NewRepository(s))

	repo.On("Load", ctx, customerID).Return([]Item{}, nil)
	repo.On("Save", ctx, customerID, mock.Anything).Return(apperr.Persistence("store.Write cart_11", errors.New("quota")))

	_, err := svc.Add(ctx, customerID, 1, 1)

	assert.True(t, apperr.IsPersistence(err))
	repo.AssertExpectations(t)
}
