package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"builders-pos/internal/apperr"
	"builders-pos/internal/cart"
	"builders-pos/internal/notification"
	"builders-pos/internal/payment"
	"builders-pos/internal/product"
	"builders-pos/internal/store"
	"builders-pos/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordOrder(ctx context.Context, o Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockRecorder) RecordRelease(ctx context.Context, o Order) error {
	return m.Called(ctx, o).Error(0)
}

type MockPaymentRecorder struct {
	mock.Mock
}

func (m *MockPaymentRecorder) SavePayment(ctx context.Context, p payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

type fixedToken string

func (f fixedToken) Generate(func(string) bool) (string, error) { return string(f), nil }

// failingOrders rejects every order write, as a full localStorage would.
type failingOrders struct {
	Repository
}

func (failingOrders) Append(context.Context, string, Order) (*Order, error) {
	return nil, apperr.Persistence("store.Update orders", store.ErrQuotaExceeded)
}

// --- Fixture ---

type fixture struct {
	store    *store.Store
	svc      Service
	products product.Repository
	carts    cart.Repository
	notes    notification.Service
	clock    *time.Time
}

var (
	customer = user.Identity{ID: 11, Role: user.RoleCustomer, Name: "Mary Phiri"}
	staff    = user.Identity{ID: 3, Role: user.RoleStaff, Name: "John Banda"}
	manager  = user.Identity{ID: 2, Role: user.RoleManager, Name: "Grace Mwale"}
)

func newFixture(t *testing.T, opts ...ServiceOption) *fixture {
	t.Helper()
	s := store.New(store.NewMemoryBackend())
	require.NoError(t, s.Write(context.Background(), store.KeyProducts, []product.Product{
		{ID: 1, Name: "Cement 50kg", Category: "cement", Price: 45000, Stock: 200, LowStockThreshold: 50, Icon: "🏗️"},
		{ID: 2, Name: "Red Bricks", Category: "bricks", Price: 350, Stock: 5000, LowStockThreshold: 1000, Icon: "🧱"},
		{ID: 6, Name: "Hammer", Category: "tools", Price: 15000, Stock: 3, LowStockThreshold: 5, Icon: "🔨"},
	}))

	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.Local)
	f := &fixture{
		store:    s,
		products: product.NewRepository(s),
		carts:    cart.NewRepository(s),
		notes:    notification.NewService(notification.NewRepository(s)),
		clock:    &now,
	}
	base := []ServiceOption{
		WithClock(func() time.Time { return *f.clock }),
		WithLocation(time.Local),
	}
	f.svc = NewService(NewRepository(s), f.products, f.carts, f.notes, append(base, opts...)...)
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func as(id user.Identity) context.Context {
	return user.WithIdentity(context.Background(), id)
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) fillCart(t *testing.T, items ...cart.Item) {
	t.Helper()
	require.NoError(t, f.carts.Save(context.Background(), customer.ID, items))
}

var cementLine = cart.Item{ProductID: 1, Name: "Cement 50kg", Price: 45000, Quantity: 2, Icon: "🏗️"}

// --- Checkout ---

func TestService_CheckoutEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := as(customer)
	f.fillCart(t, cementLine)

	o, err := f.svc.Checkout(ctx, CheckoutInput{Method: payment.MethodMobile, Phone: "0991234567"})
	require.NoError(t, err)

	assert.Equal(t, "ORD"+itoa(f.clock.UnixMilli()), o.ID)
	assert.Equal(t, int64(90000), o.Total)
	assert.Equal(t, cart.Total(o.Items), o.Total)
	assert.Equal(t, StatusPaid, o.Status)
	assert.Len(t, o.Token, TokenLength)
	assert.Equal(t, TypeOnline, o.Type)
	require.NotNil(t, o.CustomerID)
	assert.Equal(t, customer.ID, *o.CustomerID)
	assert.Nil(t, o.StaffID)
	assert.Equal(t, 198, f.stock(t, 1))

	notes, err := f.notes.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, o.ID, notes[0].OrderID)
	assert.Equal(t, o.Token, notes[0].Token)
	assert.Equal(t, notification.StatusNotVerified, notes[0].Status)

	items, err := f.carts.Load(ctx, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestService_CheckoutValidation(t *testing.T) {
	t.Run("RequiresCustomer", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(as(staff), CheckoutInput{Method: payment.MethodCash, Phone: "0991234567"})
		assert.ErrorIs(t, err, user.ErrForbidden)
	})

	t.Run("RequiresPaymentMethod", func(t *testing.T) {
		f := newFixture(t)
		f.fillCart(t, cementLine)
		_, err := f.svc.Checkout(as(customer), CheckoutInput{Phone: "0991234567"})
		assert.ErrorIs(t, err, payment.ErrMethodRequired)
	})

	t.Run("RequiresPhone", func(t *testing.T) {
		f := newFixture(t)
		f.fillCart(t, cementLine)
		_, err := f.svc.Checkout(as(customer), CheckoutInput{Method: payment.MethodCard})
		assert.ErrorIs(t, err, payment.ErrPhoneRequired)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(as(customer), CheckoutInput{Method: payment.MethodCard, Phone: "0991234567"})
		assert.ErrorIs(t, err, cart.ErrCartEmpty)
	})

	t.Run("StockShrankSinceAdd", func(t *testing.T) {
		f := newFixture(t)
		f.fillCart(t, cementLine, cart.Item{ProductID: 6, Name: "Hammer", Price: 15000, Quantity: 4})

		_, err := f.svc.Checkout(as(customer), CheckoutInput{Method: payment.MethodCard, Phone: "0991234567"})

		assert.ErrorIs(t, err, product.ErrInsufficientStock)
		assert.True(t, apperr.IsValidation(err))
		assert.Equal(t, 200, f.stock(t, 1), "no partial stock change")
		assert.Equal(t, 3, f.stock(t, 6))
		orders, err := f.svc.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, orders)
		items, err := f.carts.Load(context.Background(), customer.ID)
		require.NoError(t, err)
		assert.Len(t, items, 2, "cart kept for retry")
	})
}

func TestService_CheckoutRestoresStockWhenOrderWriteFails(t *testing.T) {
	f := newFixture(t)
	svc := NewService(failingOrders{NewRepository(f.store)}, f.products, f.carts, f.notes,
		WithClock(func() time.Time { return *f.clock }))
	f.fillCart(t, cementLine)

	_, err := svc.Checkout(as(customer), CheckoutInput{Method: payment.MethodCash, Phone: "0991234567"})

	assert.True(t, apperr.IsPersistence(err))
	assert.Equal(t, 200, f.stock(t, 1))
	items, err := f.carts.Load(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestService_CheckoutSameMillisecondGetsDistinctIDs(t *testing.T) {
	f := newFixture(t)
	ctx := as(customer)

	f.fillCart(t, cementLine)
	first, err := f.svc.Checkout(ctx, CheckoutInput{Method: payment.MethodCash, Phone: "0991234567"})
	require.NoError(t, err)
	f.fillCart(t, cementLine)
	second, err := f.svc.Checkout(ctx, CheckoutInput{Method: payment.MethodCash, Phone: "0991234567"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestService_CheckoutMirrorsOrder(t *testing.T) {
	rec := new(MockRecorder)
	f := newFixture(t, WithRecorder(rec), WithTokenGenerator(fixedToken("ABCD1234")))
	f.fillCart(t, cementLine)

	rec.On("RecordOrder", mock.Anything, mock.MatchedBy(func(o Order) bool {
		return o.Token == "ABCD1234" && o.Total == 90000
	})).Return(errors.New("mirror offline"))

	o, err := f.svc.Checkout(as(customer), CheckoutInput{Method: payment.MethodCash, Phone: "0991234567"})

	require.NoError(t, err, "mirror failures are logged only")
	assert.Equal(t, "ABCD1234", o.Token)
	rec.AssertExpectations(t)
}

// --- In-store sale ---

func TestService_CompleteSale(t *testing.T) {
	t.Run("CashSale", func(t *testing.T) {
		f := newFixture(t)

		o, err := f.svc.CompleteSale(as(staff), SaleInput{
			Lines:  []SaleLine{{ProductID: 2, Quantity: 100}, {ProductID: 6, Quantity: 1}},
			Method: payment.MethodCash,
		})

		require.NoError(t, err)
		assert.Equal(t, "SALE"+itoa(f.clock.UnixMilli()), o.ID)
		assert.Equal(t, StatusCompleted, o.Status)
		assert.Empty(t, o.Token)
		assert.Equal(t, WalkInCustomer, o.CustomerName)
		assert.Equal(t, TypeInStore, o.Type)
		assert.Equal(t, int64(100*350+15000), o.Total)
		require.NotNil(t, o.StaffID)
		assert.Equal(t, staff.ID, *o.StaffID)
		assert.Nil(t, o.CustomerID)
		assert.Equal(t, 4900, f.stock(t, 2))
		assert.Equal(t, 2, f.stock(t, 6))

		notes, err := f.notes.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, notes, "in-store sales raise no notification")
	})

	t.Run("MobileNeedsPIN", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CompleteSale(as(staff), SaleInput{
			Lines:  []SaleLine{{ProductID: 1, Quantity: 1}},
			Method: payment.MethodMobile,
			PIN:    "12",
		})

		assert.ErrorIs(t, err, payment.ErrInvalidPIN)
		assert.Equal(t, 200, f.stock(t, 1))
	})

	t.Run("BeyondStock", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CompleteSale(as(staff), SaleInput{Lines: []SaleLine{{ProductID: 6, Quantity: 4}}})

		assert.ErrorIs(t, err, product.ErrInsufficientStock)
	})

	t.Run("Validation", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.CompleteSale(as(staff), SaleInput{})
		assert.ErrorIs(t, err, ErrNoSaleItems)

		_, err = f.svc.CompleteSale(as(staff), SaleInput{Lines: []SaleLine{{ProductID: 1, Quantity: 0}}})
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = f.svc.CompleteSale(as(staff), SaleInput{Lines: []SaleLine{{ProductID: 99, Quantity: 1}}})
		assert.ErrorIs(t, err, product.ErrProductNotFound)

		_, err = f.svc.CompleteSale(as(customer), SaleInput{Lines: []SaleLine{{ProductID: 1, Quantity: 1}}})
		assert.ErrorIs(t, err, user.ErrForbidden)
	})

	t.Run("RecordsPayment", func(t *testing.T) {
		pay := new(MockPaymentRecorder)
		f := newFixture(t, WithPaymentRecorder(pay))

		pay.On("SavePayment", mock.Anything, mock.MatchedBy(func(p payment.Payment) bool {
			return p.Method == payment.MethodBankTransfer &&
				p.Amount == 45000 &&
				p.Reference == "MOCKREF"+itoa(f.clock.UnixMilli()) &&
				p.Status == payment.StatusCompleted
		})).Return(nil)

		o, err := f.svc.CompleteSale(as(manager), SaleInput{
			Lines:        []SaleLine{{ProductID: 1, Quantity: 1}},
			Method:       payment.MethodBankTransfer,
			PIN:          "9876",
			CustomerName: "Builder Co",
		})

		require.NoError(t, err)
		assert.Equal(t, "Builder Co", o.CustomerName)
		pay.AssertExpectations(t)
	})
}

// --- Token verification and release ---

func TestService_ReleaseEndToEnd(t *testing.T) {
	f := newFixture(t, WithTokenGenerator(fixedToken("K7Q2MX9A")))
	f.fillCart(t, cementLine)
	o, err := f.svc.Checkout(as(customer), CheckoutInput{Method: payment.MethodMobile, Phone: "0991234567"})
	require.NoError(t, err)

	f.advance(2 * time.Hour)
	ctx := as(staff)

	found, err := f.svc.VerifyToken(ctx, "  k7q2mx9a ")
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)

	released, err := f.svc.ReleaseByToken(ctx, "K7Q2MX9A")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, released.Status)
	assert.Equal(t, staff.Name, released.ReleasedBy)
	require.NotNil(t, released.ReleasedByID)
	assert.Equal(t, staff.ID, *released.ReleasedByID)
	require.NotNil(t, released.ReleasedAt)
	assert.True(t, f.clock.Equal(*released.ReleasedAt))
	assert.Nil(t, released.StaffID, "release does not turn an online order into a staff sale")
	assert.Equal(t, 198, f.stock(t, 1), "stock is not touched at release")

	notes, err := f.notes.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, notification.StatusVerified, notes[0].Status)

	_, err = f.svc.ReleaseByToken(ctx, "K7Q2MX9A")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.svc.Release(ctx, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	notes, err = f.notes.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, notification.CountUnverified(notes))
}

func TestService_VerifyToken(t *testing.T) {
	f := newFixture(t, WithTokenGenerator(fixedToken("ABCD1234")), WithTokenTTL(DefaultTokenTTL))
	f.fillCart(t, cementLine)
	_, err := f.svc.Checkout(as(customer), CheckoutInput{Method: payment.MethodCash, Phone: "0991234567"})
	require.NoError(t, err)
	ctx := as(staff)

	_, err = f.svc.VerifyToken(ctx, "ABC")
	assert.ErrorIs(t, err, ErrMalformedToken)
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.VerifyToken(ctx, "ZZZZ9999")
	assert.ErrorIs(t, err, ErrInvalidToken)

	f.advance(DefaultTokenTTL - time.Minute)
	_, err = f.svc.VerifyToken(ctx, "abcd1234")
	assert.NoError(t, err)

	f.advance(2 * time.Minute)
	_, err = f.svc.VerifyToken(ctx, "ABCD1234")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestService_ReleaseByIDHonoursTokenExpiry(t *testing.T) {
	f := newFixture(t, WithTokenGenerator(fixedToken("ABCD1234")), WithTokenTTL(DefaultTokenTTL))
	f.fillCart(t, cementLine)
	o, err := f.svc.Checkout(as(customer), CheckoutInput{Method: payment.MethodMobile, Phone: "0991234567"})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, o.Status)

	f.advance(DefaultTokenTTL + time.Minute)
	_, err = f.svc.Release(as(staff), o.ID)
	assert.ErrorIs(t, err, ErrTokenExpired)

	orders, err := f.svc.ListByCustomer(as(customer), customer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, StatusPaid, orders[0].Status, "an expired order stays paid")
	assert.Nil(t, orders[0].ReleasedAt)
}

func TestService_TokenTTLDisabled(t *testing.T) {
	f := newFixture(t, WithTokenGenerator(fixedToken("ABCD1234")), WithTokenTTL(0))
	f.fillCart(t, cementLine)
	_, err := f.svc.Checkout(as(customer), CheckoutInput{Method: payment.MethodCash, Phone: "0991234567"})
	require.NoError(t, err)

	f.advance(365 * 24 * time.Hour)
	_, err = f.svc.VerifyToken(as(staff), "ABCD1234")
	assert.NoError(t, err)
}

func TestService_ReleaseRequiresStaff(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Release(as(customer), "ORD1")
	assert.ErrorIs(t, err, user.ErrForbidden)

	_, err = f.svc.Release(as(staff), "ORD1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestService_ReleaseMirrors(t *testing.T) {
	rec := new(MockRecorder)
	f := newFixture(t, WithRecorder(rec), WithTokenGenerator(fixedToken("ABCD1234")))
	rec.On("RecordOrder", mock.Anything, mock.Anything).Return(nil)
	rec.On("RecordRelease", mock.Anything, mock.MatchedBy(func(o Order) bool {
		return o.Status == StatusCompleted && o.ReleasedBy == manager.Name
	})).Return(nil)

	f.fillCart(t, cementLine)
	_, err := f.svc.Checkout(as(customer), CheckoutInput{Method: payment.MethodCash, Phone: "0991234567"})
	require.NoError(t, err)

	_, err = f.svc.ReleaseByToken(as(manager), "ABCD1234")
	require.NoError(t, err)
	rec.AssertExpectations(t)
}

// --- Listings ---

func TestService_ListByCustomerNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := as(customer)

	f.fillCart(t, cementLine)
	first, err := f.svc.Checkout(ctx, CheckoutInput{Method: payment.MethodCash, Phone: "0991234567"})
	require.NoError(t, err)
	f.advance(time.Minute)
	f.fillCart(t, cementLine)
	second, err := f.svc.Checkout(ctx, CheckoutInput{Method: payment.MethodCash, Phone: "0991234567"})
	require.NoError(t, err)
	_, err = f.svc.CompleteSale(as(staff), SaleInput{Lines: []SaleLine{{ProductID: 2, Quantity: 1}}})
	require.NoError(t, err)

	got, err := f.svc.ListByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestService_SalesHistory(t *testing.T) {
	f := newFixture(t)
	sell := func(id user.Identity) {
		_, err := f.svc.CompleteSale(as(id), SaleInput{Lines: []SaleLine{{ProductID: 2, Quantity: 1}}})
		require.NoError(t, err)
	}

	// Eight days ago, two days ago, today.
	sell(staff)
	f.advance(6 * 24 * time.Hour)
	sell(staff)
	sell(manager)
	f.advance(2 * 24 * time.Hour)
	sell(staff)

	ctx := as(staff)
	all, err := f.svc.SalesHistory(ctx, staff.ID, PeriodAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	week, err := f.svc.SalesHistory(ctx, staff.ID, PeriodWeek)
	require.NoError(t, err)
	assert.Len(t, week, 2)

	today, err := f.svc.SalesHistory(ctx, staff.ID, PeriodToday)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.True(t, f.clock.Equal(today[0].Date))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPaid, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusPaid))
	assert.False(t, CanTransition(StatusPaid, StatusPending))
	assert.False(t, CanTransition(StatusCompleted, StatusCompleted))
	assert.True(t, CanTransition(StatusPending, StatusPaid))
}
