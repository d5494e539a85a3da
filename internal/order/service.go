package order

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"builders-pos/internal/cart"
	"builders-pos/internal/logger"
	"builders-pos/internal/notification"
	"builders-pos/internal/payment"
	"builders-pos/internal/product"
	"builders-pos/internal/user"
	"builders-pos/internal/utils"

	"go.uber.org/zap"
)

// DefaultTokenTTL is how long a customer has to collect an online order.
const DefaultTokenTTL = 14 * 24 * time.Hour

// Recorder mirrors order events outside the key-value store.
type Recorder interface {
	RecordOrder(ctx context.Context, o Order) error
	RecordRelease(ctx context.Context, o Order) error
}

type Service interface {
	List(ctx context.Context) ([]Order, error)
	Checkout(ctx context.Context, in CheckoutInput) (*Order, error)
	CompleteSale(ctx context.Context, in SaleInput) (*Order, error)
	VerifyToken(ctx context.Context, token string) (*Order, error)
	Release(ctx context.Context, orderID string) (*Order, error)
	ReleaseByToken(ctx context.Context, token string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	SalesHistory(ctx context.Context, staffID int64, period Period) ([]Order, error)
}

type service struct {
	repo          Repository
	productRepo   product.Repository
	cartRepo      cart.Repository
	notifications notification.Service
	gateway       payment.Gateway

	tokens   TokenGenerator
	tokenTTL time.Duration
	recorder Recorder
	payments payment.Recorder
	now      func() time.Time
	loc      *time.Location
}

type ServiceOption func(*service)

func WithTokenGenerator(g TokenGenerator) ServiceOption {
	return func(s *service) { s.tokens = g }
}

// WithTokenTTL sets token expiry. Zero disables it.
func WithTokenTTL(d time.Duration) ServiceOption {
	return func(s *service) { s.tokenTTL = d }
}

func WithRecorder(r Recorder) ServiceOption {
	return func(s *service) { s.recorder = r }
}

func WithPaymentRecorder(r payment.Recorder) ServiceOption {
	return func(s *service) { s.payments = r }
}

func WithGateway(g payment.Gateway) ServiceOption {
	return func(s *service) { s.gateway = g }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) { s.now = now }
}

func WithLocation(loc *time.Location) ServiceOption {
	return func(s *service) { s.loc = loc }
}

func NewService(
	repo Repository,
	productRepo product.Repository,
	cartRepo cart.Repository,
	notifications notification.Service,
	opts ...ServiceOption,
) Service {
	s := &service{
		repo:          repo,
		productRepo:   productRepo,
		cartRepo:      cartRepo,
		notifications: notifications,
		tokens:        WeakGenerator{},
		tokenTTL:      DefaultTokenTTL,
		now:           time.Now,
		loc:           time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gateway == nil {
		s.gateway = payment.NewMockGateway(s.now)
	}
	return s
}

func (s *service) List(ctx context.Context) ([]Order, error) {
	return s.repo.List(ctx)
}

// Checkout turns the customer's cart into a paid online order. Stock is
// taken at this point, not at release.
func (s *service) Checkout(ctx context.Context, in CheckoutInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
	)

	// 1️⃣ Identity and payment details
	customer, err := user.RequireRole(ctx, user.RoleCustomer)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.Int64("customer_id", customer.ID))

	if err := payment.ValidateOnline(in.Method, in.Phone); err != nil {
		return nil, err
	}

	// 2️⃣ Load cart
	items, err := s.cartRepo.Load(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, cart.ErrCartEmpty
	}

	// 3️⃣ Issue token
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Generate(openTokens(orders))
	if err != nil {
		log.Error("failed to generate token", zap.Error(err))
		return nil, err
	}

	// 4️⃣ Take stock; any line above current stock aborts with nothing written
	now := s.now()
	changes := stockChanges(items, -1)
	if _, err := s.productRepo.AdjustStock(ctx, changes, now); err != nil {
		log.Info("checkout rejected", zap.Error(err))
		return nil, err
	}

	// 5️⃣ Append order, giving stock back if that fails
	customerID := customer.ID
	created, err := s.repo.Append(ctx, utils.PrefixOrder, Order{
		CustomerID:    &customerID,
		CustomerName:  customer.Name,
		Items:         items,
		Total:         cart.Total(items),
		Status:        StatusPaid,
		Token:         token,
		PaymentMethod: in.Method,
		Phone:         strings.TrimSpace(in.Phone),
		Type:          TypeOnline,
		Date:          now,
	})
	if err != nil {
		log.Error("failed to save order, restoring stock", zap.Error(err))
		if _, rerr := s.productRepo.AdjustStock(ctx, stockChanges(items, 1), now); rerr != nil {
			log.Error("failed to restore stock", zap.Error(rerr))
		}
		return nil, err
	}

	// 6️⃣ Staff notification and cart; the order already stands
	if err := s.notifications.Create(ctx, notification.Notification{
		ID:           utils.NewRecordID(utils.PrefixNotification, now),
		OrderID:      created.ID,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Token:        created.Token,
		Items:        created.Items,
		Total:        created.Total,
		Status:       notification.StatusNotVerified,
		Date:         now,
	}); err != nil {
		log.Error("failed to create notification", zap.String("order_id", created.ID), zap.Error(err))
	}
	if err := s.cartRepo.Save(ctx, customer.ID, nil); err != nil {
		log.Warn("failed to clear cart", zap.Error(err))
	}

	s.mirrorOrder(ctx, *created)

	log.Info("online order paid",
		zap.String("order_id", created.ID),
		zap.Int64("total", created.Total),
		zap.String("payment_method", string(created.PaymentMethod)),
	)
	return created, nil
}

// CompleteSale records an in-store sale. It is completed immediately and
// carries no token.
func (s *service) CompleteSale(ctx context.Context, in SaleInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CompleteSale"),
	)

	// 1. Identity and input
	staff, err := user.RequireRole(ctx, user.RoleStaff, user.RoleManager)
	if err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, ErrNoSaleItems
	}
	if in.Method == "" {
		in.Method = payment.DefaultMethod
	}
	if err := payment.ValidateInStore(in.Method, in.PIN); err != nil {
		return nil, err
	}

	// 2. Snapshot lines from the current catalog
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]cart.Item, 0, len(in.Lines))
	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		p := product.Find(products, line.ProductID)
		if p == nil {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, product.ErrProductNotFound)
		}
		items = append(items, cart.Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  line.Quantity,
			Icon:      p.Icon,
		})
	}
	total := cart.Total(items)

	// 3. Authorize
	receipt, err := s.gateway.Authorize(ctx, payment.Request{
		Amount: total,
		Method: in.Method,
		PIN:    in.PIN,
	})
	if err != nil {
		return nil, err
	}

	// 4. Take stock, then append the sale
	now := s.now()
	if _, err := s.productRepo.AdjustStock(ctx, stockChanges(items, -1), now); err != nil {
		log.Info("sale rejected", zap.Error(err))
		return nil, err
	}

	customerName := strings.TrimSpace(in.CustomerName)
	if customerName == "" {
		customerName = WalkInCustomer
	}
	staffID := staff.ID
	created, err := s.repo.Append(ctx, utils.PrefixSale, Order{
		StaffID:       &staffID,
		StaffName:     staff.Name,
		CustomerName:  customerName,
		Items:         items,
		Total:         total,
		Status:        StatusCompleted,
		PaymentMethod: in.Method,
		Type:          TypeInStore,
		Date:          now,
	})
	if err != nil {
		log.Error("failed to save sale, restoring stock", zap.Error(err))
		if _, rerr := s.productRepo.AdjustStock(ctx, stockChanges(items, 1), now); rerr != nil {
			log.Error("failed to restore stock", zap.Error(rerr))
		}
		return nil, err
	}

	// 5. Mirror order and payment
	s.mirrorOrder(ctx, *created)
	if s.payments != nil {
		if err := s.payments.SavePayment(ctx, payment.Payment{
			OrderID:   created.ID,
			Amount:    created.Total,
			Method:    created.PaymentMethod,
			Reference: receipt.Reference,
			Status:    receipt.Status,
			Date:      receipt.PaidAt,
		}); err != nil {
			log.Warn("failed to mirror payment", zap.String("order_id", created.ID), zap.Error(err))
		}
	}

	log.Info("in-store sale completed",
		zap.String("order_id", created.ID),
		zap.Int64("total", created.Total),
		zap.String("reference", receipt.Reference),
	)
	return created, nil
}

// VerifyToken finds the open order holding token. Completed orders never
// match, so a token works once.
func (s *service) VerifyToken(ctx context.Context, raw string) (*Order, error) {
	token, err := NormalizeToken(raw)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, o := range orders {
		if o.Token != token || o.Status == StatusCompleted {
			continue
		}
		if s.tokenExpired(o, s.now()) {
			logger.FromCtx(ctx).Info("expired token presented",
				zap.String("layer", "service"),
				zap.String("method", "VerifyToken"),
				zap.String("order_id", o.ID),
			)
			return nil, ErrTokenExpired
		}
		found := o
		return &found, nil
	}
	return nil, ErrInvalidToken
}

func (s *service) tokenExpired(o Order, now time.Time) bool {
	return o.Token != "" && s.tokenTTL > 0 && now.Sub(o.Date) > s.tokenTTL
}

// Release hands over a paid order. It stamps who released it and when,
// then verifies the matching notification. Orders whose token has expired
// are refused here too.
func (s *service) Release(ctx context.Context, orderID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Release"),
		zap.String("order_id", orderID),
	)

	// 1️⃣ Identity
	staff, err := user.RequireRole(ctx, user.RoleStaff, user.RoleManager)
	if err != nil {
		return nil, err
	}

	// 2️⃣ Transition paid -> completed
	now := s.now()
	released, err := s.repo.Update(ctx, orderID, func(o *Order) error {
		// Only paid orders are handed over; pending ones have not been paid.
		if o.Status != StatusPaid || !CanTransition(o.Status, StatusCompleted) {
			return ErrInvalidTransition
		}
		if s.tokenExpired(*o, now) {
			return ErrTokenExpired
		}
		staffID := staff.ID
		at := now
		o.Status = StatusCompleted
		o.ReleasedBy = staff.Name
		o.ReleasedByID = &staffID
		o.ReleasedAt = &at
		return nil
	})
	if err != nil {
		log.Info("release rejected", zap.Error(err))
		return nil, err
	}

	// 3️⃣ Notification; idempotent, so a failure here can be retried by hand
	if _, err := s.notifications.MarkVerifiedByOrderID(ctx, orderID); err != nil {
		log.Warn("failed to verify notification", zap.Error(err))
	}

	if s.recorder != nil {
		if err := s.recorder.RecordRelease(ctx, *released); err != nil {
			log.Warn("failed to mirror release", zap.Error(err))
		}
	}

	log.Info("goods released", zap.String("released_by", staff.Name))
	return released, nil
}

func (s *service) ReleaseByToken(ctx context.Context, token string) (*Order, error) {
	o, err := s.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	released, err := s.Release(ctx, o.ID)
	if errors.Is(err, ErrInvalidTransition) {
		// Someone else released it between verify and release.
		return nil, ErrInvalidToken
	}
	return released, err
}

// ListByCustomer returns the customer's orders, newest first.
func (s *service) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return ForCustomer(orders, customerID), nil
}

func (s *service) SalesHistory(ctx context.Context, staffID int64, period Period) ([]Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return StaffSales(orders, staffID, period, s.now(), s.loc), nil
}

// ForCustomer keeps the customer's orders, newest first.
func ForCustomer(orders []Order, customerID int64) []Order {
	var out []Order
	for _, o := range orders {
		if o.CustomerID != nil && *o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	slices.Reverse(out)
	return out
}

// StaffSales keeps a staff member's in-store sales within period, newest
// first. Week means the trailing seven days, not the calendar week.
func StaffSales(orders []Order, staffID int64, period Period, now time.Time, loc *time.Location) []Order {
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var out []Order
	for _, o := range orders {
		if o.StaffID == nil || *o.StaffID != staffID {
			continue
		}
		switch period {
		case PeriodToday:
			if !utils.SameDay(o.Date, now, loc) {
				continue
			}
		case PeriodWeek:
			if o.Date.Before(weekAgo) {
				continue
			}
		}
		out = append(out, o)
	}
	slices.Reverse(out)
	return out
}

func (s *service) mirrorOrder(ctx context.Context, o Order) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordOrder(ctx, o); err != nil {
		logger.FromCtx(ctx).Warn("failed to mirror order",
			zap.String("layer", "service"),
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func stockChanges(items []cart.Item, sign int) []product.StockChange {
	changes := make([]product.StockChange, 0, len(items))
	for _, it := range items {
		changes = append(changes, product.StockChange{ProductID: it.ProductID, Delta: sign * it.Quantity})
	}
	return changes
}

// openTokens reports tokens held by orders that can still be released.
func openTokens(orders []Order) func(string) bool {
	open := make(map[string]struct{})
	for _, o := range orders {
		if o.Token != "" && o.Status != StatusCompleted {
			open[o.Token] = struct{}{}
		}
	}
	return func(t string) bool {
		_, ok := open[t]
		return ok
	}
}
