package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"builders-pos/internal/cart"
	"builders-pos/internal/config"
	"builders-pos/internal/db"
	"builders-pos/internal/feedback"
	"builders-pos/internal/logger"
	"builders-pos/internal/metrics"
	"builders-pos/internal/mirror"
	"builders-pos/internal/notification"
	"builders-pos/internal/order"
	"builders-pos/internal/product"
	"builders-pos/internal/quotation"
	"builders-pos/internal/store"
	"builders-pos/internal/supplier"
	"builders-pos/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// app is one process's wiring: a store handle, every workflow service and,
// when configured, the relational mirror.
type app struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.Collectors
	backend  store.Backend
	store    *store.Store
	now      func() time.Time
	loc      *time.Location

	sqlDB  *sql.DB
	mirror mirror.Repository

	users         user.Service
	products      product.Service
	carts         cart.Service
	notifications notification.Service
	orders        order.Service
	suppliers     supplier.Service
	feedback      feedback.Service
	quotations    quotation.Service
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
		metrics:  metrics.New(),
		now:      time.Now,
		loc:      time.Local,
	}
	if err := a.metrics.Register(a.registry); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	backend, err := openBackend(cfg, a.metrics)
	if err != nil {
		return nil, err
	}
	a.backend = backend
	a.store = store.New(backend, store.WithMetrics(a.metrics))

	productOpts := []product.ServiceOption{product.WithClock(a.now)}
	orderOpts := []order.ServiceOption{
		order.WithClock(a.now),
		order.WithLocation(a.loc),
		order.WithTokenTTL(cfg.TokenTTL),
		order.WithTokenGenerator(tokenGenerator(cfg.TokenMode)),
	}

	if cfg.DSN() != "" {
		conn, err := db.NewDatabase(cfg)
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		a.sqlDB = conn
		a.mirror = mirror.NewRepository(conn)
		productOpts = append(productOpts, product.WithRecorder(a.mirror))
		orderOpts = append(orderOpts, order.WithRecorder(a.mirror), order.WithPaymentRecorder(a.mirror))
	}

	productRepo := product.NewRepository(a.store)
	cartRepo := cart.NewRepository(a.store)

	a.users = user.NewService(user.NewRepository(a.store), user.WithClock(a.now))
	a.products = product.NewService(productRepo, productOpts...)
	a.carts = cart.NewService(cartRepo, productRepo)
	a.notifications = notification.NewService(notification.NewRepository(a.store))
	a.orders = order.NewService(order.NewRepository(a.store), productRepo, cartRepo, a.notifications, orderOpts...)
	a.suppliers = supplier.NewService(supplier.NewRepository(a.store), supplier.WithClock(a.now))
	a.feedback = feedback.NewService(feedback.NewRepository(a.store), feedback.WithClock(a.now))
	a.quotations = quotation.NewService(quotation.NewRepository(a.store), quotation.WithClock(a.now))
	return a, nil
}

// openBackend builds the configured backend with its drop hook counting
// into the shared collectors.
func openBackend(cfg *config.Config, m *metrics.Collectors) (store.Backend, error) {
	dropped := func() { m.DroppedEvents.Inc() }
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryBackend(
			store.WithQuota(cfg.StoreQuotaBytes),
			store.WithDropHook(dropped),
		), nil
	case config.BackendFile:
		return store.NewFileBackend(cfg.DataDir,
			store.WithMaxValueBytes(cfg.StoreQuotaBytes),
			store.WithFileLogger(logger.L()),
			store.WithFileDropHook(dropped),
		)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func tokenGenerator(mode string) order.TokenGenerator {
	if mode == config.TokenModeSecure {
		return order.SecureGenerator{}
	}
	return order.WeakGenerator{}
}

// login authenticates and returns a context carrying the identity and a
// fresh session id.
func (a *app) login(ctx context.Context, username, password string) (context.Context, user.Identity, error) {
	ctx = logger.WithSessionID(ctx, "")
	id, err := a.users.Authenticate(ctx, username, password)
	if err != nil {
		return ctx, user.Identity{}, err
	}
	return user.WithIdentity(ctx, id), id, nil
}

// audit writes an audit_log row when the relational mirror is on. Failures
// are logged only.
func (a *app) audit(ctx context.Context, e mirror.AuditEntry) {
	if a.mirror == nil {
		return
	}
	if id, ok := user.IdentityFrom(ctx); ok && e.UserID == nil {
		uid := id.ID
		e.UserID = &uid
	}
	if e.At.IsZero() {
		e.At = a.now()
	}
	if err := a.mirror.LogAudit(ctx, e); err != nil {
		logger.FromCtx(ctx).Warn("audit row not written", zap.String("action", e.Action), zap.Error(err))
	}
}

func (a *app) Close() error {
	var errs []error
	if a.sqlDB != nil {
		errs = append(errs, a.sqlDB.Close())
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	return errors.Join(errs...)
}
