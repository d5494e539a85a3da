package product

import (
	"context"
	"sort"
	"strings"
	"time"

	"builders-pos/internal/logger"

	"go.uber.org/zap"
)

// TransactionRecorder receives every inventory movement. The relational
// mirror implements it.
type TransactionRecorder interface {
	RecordInventoryTransaction(ctx context.Context, tx Transaction) error
}

type Service interface {
	List(ctx context.Context) ([]Product, error)
	Add(ctx context.Context, input NewProductInput) (*Product, error)
	Edit(ctx context.Context, input EditInput) (*Product, error)
	RecordTransaction(ctx context.Context, tx Transaction) (*Product, error)
	Inventory(ctx context.Context, filter Filter) ([]Product, error)
}

type service struct {
	repo     Repository
	recorder TransactionRecorder
	now      func() time.Time
}

type ServiceOption func(*service)

func WithRecorder(r TransactionRecorder) ServiceOption {
	return func(s *service) { s.recorder = r }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *service) Add(ctx context.Context, input NewProductInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Add"),
	)

	/* ---------- VALIDATION ---------- */

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrInvalidName
	}
	if input.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if input.Stock < 0 || input.LowStockThreshold < 0 {
		return nil, ErrNegativeStock
	}

	/* ---------- PERSIST ---------- */

	now := s.now()
	p, err := s.repo.Create(ctx, Product{
		Name:              input.Name,
		Category:          strings.ToLower(strings.TrimSpace(input.Category)),
		Price:             input.Price,
		Stock:             input.Stock,
		LowStockThreshold: input.LowStockThreshold,
		Icon:              DefaultIcon,
		Status:            StatusActive,
		LastUpdated:       &now,
	})
	if err != nil {
		log.Error("failed to add product", zap.String("name", input.Name), zap.Error(err))
		return nil, err
	}

	log.Info("product added", zap.Int64("product_id", p.ID))
	return p, nil
}

func (s *service) Edit(ctx context.Context, input EditInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Edit"),
		zap.Int64("product_id", input.ID),
	)

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrInvalidName
	}
	if input.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if input.Stock < 0 || input.LowStockThreshold < 0 {
		return nil, ErrNegativeStock
	}

	now := s.now()
	p, err := s.repo.Update(ctx, input.ID, func(p *Product) error {
		p.Name = input.Name
		p.Price = input.Price
		p.Stock = input.Stock
		p.LowStockThreshold = input.LowStockThreshold
		p.LastUpdated = &now
		return nil
	})
	if err != nil {
		log.Warn("failed to edit product", zap.Error(err))
		return nil, err
	}

	log.Info("product updated", zap.Int("stock", p.Stock))
	return p, nil
}

// RecordTransaction applies a stock movement: purchase and return add,
// sale and damage subtract, adjustment sets the absolute level.
func (s *service) RecordTransaction(ctx context.Context, tx Transaction) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RecordTransaction"),
		zap.Int64("product_id", tx.ProductID),
		zap.String("type", string(tx.Type)),
	)

	// 1. Validate
	if !tx.Type.Valid() {
		return nil, ErrInvalidTransaction
	}
	if tx.Quantity < 0 || (tx.Quantity == 0 && tx.Type != TxAdjustment) {
		return nil, ErrInvalidQuantity
	}
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}

	// 2. Apply to the products collection
	p, err := s.repo.Update(ctx, tx.ProductID, func(p *Product) error {
		next := p.Stock
		switch tx.Type {
		case TxPurchase, TxReturn:
			next += tx.Quantity
		case TxSale, TxDamage:
			next -= tx.Quantity
		case TxAdjustment:
			next = tx.Quantity
		}
		if next < 0 {
			return ErrInsufficientStock
		}
		p.Stock = next
		stamp := tx.Date
		p.LastUpdated = &stamp
		return nil
	})
	if err != nil {
		log.Warn("inventory transaction rejected", zap.Error(err))
		return nil, err
	}

	// 3. Mirror; the store is the source of truth so a mirror failure is only logged
	if s.recorder != nil {
		if err := s.recorder.RecordInventoryTransaction(ctx, tx); err != nil {
			log.Warn("failed to mirror inventory transaction", zap.Error(err))
		}
	}

	log.Info("inventory transaction recorded", zap.Int("stock", p.Stock))
	return p, nil
}

func (s *service) Inventory(ctx context.Context, filter Filter) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterStock(products, filter), nil
}

// FilterStock narrows an inventory listing. Low excludes out-of-stock
// products, which have their own filter.
func FilterStock(products []Product, filter Filter) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		level := Classify(p)
		switch filter {
		case FilterLow:
			if level != StockLow {
				continue
			}
		case FilterOut:
			if level != StockOut {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// Search matches name or category case-insensitively. With inStockOnly set,
// products with no stock are skipped, as the staff sale screen does.
func Search(products []Product, term string, inStockOnly bool) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if inStockOnly && p.Stock <= 0 {
			continue
		}
		if term == "" ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Category), term) {
			out = append(out, p)
		}
	}
	return out
}

// LowStockActive lists active products at or below threshold, lowest stock
// first.
func LowStockActive(products []Product) []Product {
	var out []Product
	for _, p := range products {
		if p.Status == StatusInactive {
			continue
		}
		if p.Stock <= p.LowStockThreshold {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out
}
