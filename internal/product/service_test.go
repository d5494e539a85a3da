package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"builders-pos/internal/apperr"
	"builders-pos/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordInventoryTransaction(ctx context.Context, tx Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

// --- Helpers ---

var testNow = time.Date(2025, 6, 2, 14, 30, 0, 0, time.Local)

func seedCatalog(t *testing.T) (*store.Store, Repository) {
	t.Helper()
	s := store.New(store.NewMemoryBackend())
	require.NoError(t, s.Write(context.Background(), store.KeyProducts, []Product{
		{ID: 1, Name: "Cement 50kg", Category: "cement", Price: 45000, Stock: 200, LowStockThreshold: 50, Icon: "🏗️"},
		{ID: 2, Name: "Red Bricks", Category: "bricks", Price: 350, Stock: 5000, LowStockThreshold: 1000, Icon: "🧱"},
		{ID: 6, Name: "Hammer", Category: "tools", Price: 15000, Stock: 30, LowStockThreshold: 5, Icon: "🔨"},
	}))
	return s, NewRepository(s)
}

func newTestService(repo Repository, opts ...ServiceOption) Service {
	opts = append([]ServiceOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewService(repo, opts...)
}

// --- Tests ---

func TestService_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("AssignsNextIDAndDefaults", func(t *testing.T) {
		_, repo := seedCatalog(t)
		svc := newTestService(repo)

		p, err := svc.Add(ctx, NewProductInput{Name: " Timber 4x2 ", Category: "Timber", Price: 8000, Stock: 80, LowStockThreshold: 20})

		require.NoError(t, err)
		assert.Equal(t, int64(7), p.ID)
		assert.Equal(t, "Timber 4x2", p.Name)
		assert.Equal(t, "timber", p.Category)
		assert.Equal(t, DefaultIcon, p.Icon)
		assert.Equal(t, StatusActive, p.Status)
		require.NotNil(t, p.LastUpdated)
		assert.True(t, testNow.Equal(*p.LastUpdated))
	})

	t.Run("Validation", func(t *testing.T) {
		_, repo := seedCatalog(t)
		svc := newTestService(repo)

		_, err := svc.Add(ctx, NewProductInput{Name: "", Price: 1})
		assert.ErrorIs(t, err, ErrInvalidName)

		_, err = svc.Add(ctx, NewProductInput{Name: "x", Price: 0})
		assert.ErrorIs(t, err, ErrInvalidPrice)

		_, err = svc.Add(ctx, NewProductInput{Name: "x", Price: 1, Stock: -1})
		assert.ErrorIs(t, err, ErrNegativeStock)
		assert.True(t, apperr.IsValidation(err))

		products, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 3)
	})
}

func TestService_Edit(t *testing.T) {
	ctx := context.Background()
	_, repo := seedCatalog(t)
	svc := newTestService(repo)

	p, err := svc.Edit(ctx, EditInput{ID: 6, Name: "Claw Hammer", Price: 16000, Stock: 4, LowStockThreshold: 5})
	require.NoError(t, err)
	assert.Equal(t, "Claw Hammer", p.Name)
	assert.Equal(t, "tools", p.Category)
	assert.Equal(t, StockLow, Classify(*p))

	_, err = svc.Edit(ctx, EditInput{ID: 99, Name: "x", Price: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_RecordTransaction(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		tx        Transaction
		wantStock int
		wantErr   error
	}{
		{"Purchase", Transaction{ProductID: 6, Type: TxPurchase, Quantity: 10}, 40, nil},
		{"Return", Transaction{ProductID: 6, Type: TxReturn, Quantity: 2}, 32, nil},
		{"Sale", Transaction{ProductID: 6, Type: TxSale, Quantity: 5}, 25, nil},
		{"Damage", Transaction{ProductID: 6, Type: TxDamage, Quantity: 30}, 0, nil},
		{"AdjustmentSetsLevel", Transaction{ProductID: 6, Type: TxAdjustment, Quantity: 12}, 12, nil},
		{"AdjustmentToZero", Transaction{ProductID: 6, Type: TxAdjustment, Quantity: 0}, 0, nil},
		{"DamageBeyondStock", Transaction{ProductID: 6, Type: TxDamage, Quantity: 31}, 30, ErrInsufficientStock},
		{"UnknownType", Transaction{ProductID: 6, Type: "theft", Quantity: 1}, 30, ErrInvalidTransaction},
		{"ZeroQuantity", Transaction{ProductID: 6, Type: TxPurchase}, 30, ErrInvalidQuantity},
		{"UnknownProduct", Transaction{ProductID: 42, Type: TxPurchase, Quantity: 1}, 30, ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, repo := seedCatalog(t)
			svc := newTestService(repo)

			_, err := svc.RecordTransaction(ctx, tt.tx)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			p, err := repo.GetByID(ctx, 6)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, p.Stock)
		})
	}
}

func TestService_RecordTransactionMirrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Recorded", func(t *testing.T) {
		_, repo := seedCatalog(t)
		rec := new(MockRecorder)
		svc := newTestService(repo, WithRecorder(rec))

		rec.On("RecordInventoryTransaction", ctx, mock.MatchedBy(func(tx Transaction) bool {
			return tx.ProductID == 1 && tx.Type == TxPurchase && tx.Date.Equal(testNow)
		})).Return(nil)

		p, err := svc.RecordTransaction(ctx, Transaction{ProductID: 1, Type: TxPurchase, Quantity: 50, StaffID: 4})

		require.NoError(t, err)
		assert.Equal(t, 250, p.Stock)
		rec.AssertExpectations(t)
	})

	t.Run("MirrorFailureDoesNotFail", func(t *testing.T) {
		_, repo := seedCatalog(t)
		rec := new(MockRecorder)
		svc := newTestService(repo, WithRecorder(rec))

		rec.On("RecordInventoryTransaction", ctx, mock.Anything).Return(errors.New("db down"))

		p, err := svc.RecordTransaction(ctx, Transaction{ProductID: 1, Type: TxSale, Quantity: 1})

		require.NoError(t, err)
		assert.Equal(t, 199, p.Stock)
	})
}

func TestRepository_AdjustStockIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	_, repo := seedCatalog(t)

	_, err := repo.AdjustStock(ctx, []StockChange{
		{ProductID: 1, Delta: -2},
		{ProductID: 6, Delta: -31},
	}, testNow)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	p, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 200, p.Stock)

	// Two lines on the same product are summed before checking.
	_, err = repo.AdjustStock(ctx, []StockChange{
		{ProductID: 6, Delta: -20},
		{ProductID: 6, Delta: -11},
	}, testNow)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	products, err := repo.AdjustStock(ctx, []StockChange{
		{ProductID: 1, Delta: -2},
		{ProductID: 6, Delta: -30},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 198, Find(products, 1).Stock)
	assert.Equal(t, 0, Find(products, 6).Stock)
	assert.True(t, testNow.Equal(*Find(products, 6).LastUpdated))

	_, err = repo.AdjustStock(ctx, []StockChange{{ProductID: 77, Delta: 1}}, testNow)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_Inventory(t *testing.T) {
	ctx := context.Background()
	_, repo := seedCatalog(t)
	svc := newTestService(repo)

	_, err := svc.Edit(ctx, EditInput{ID: 2, Name: "Red Bricks", Price: 350, Stock: 0, LowStockThreshold: 1000})
	require.NoError(t, err)

	out, err := svc.Inventory(ctx, FilterOut)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].ID)
}
