package cart

import (
	"context"
	"fmt"

	"builders-pos/internal/logger"
	"builders-pos/internal/product"

	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	Get(ctx context.Context, customerID int64) ([]Item, error)
	Add(ctx context.Context, customerID, productID int64, qty int) ([]Item, error)
	UpdateQuantity(ctx context.Context, customerID, productID int64, qty int) ([]Item, error)
	Remove(ctx context.Context, customerID, productID int64) ([]Item, error)
	Clear(ctx context.Context, customerID int64) error
}

type service struct {
	repo        Repository
	productRepo product.Repository
}

func NewService(repo Repository, productRepo product.Repository) Service {
	return &service{repo: repo, productRepo: productRepo}
}

func (s *service) Get(ctx context.Context, customerID int64) ([]Item, error) {
	return s.repo.Load(ctx, customerID)
}

// Add puts qty units of a product in the cart, merging with an existing
// line. The merged quantity may not exceed current stock.
func (s *service) Add(ctx context.Context, customerID, productID int64, qty int) ([]Item, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Add"),
		zap.Int64("customer_id", customerID),
		zap.Int64("product_id", productID),
	)

	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	// 1️⃣ Get product
	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	// 2️⃣ Load cart
	items, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}

	// 3️⃣ Merge and validate stock
	idx := indexOf(items, productID)
	finalQty := qty
	if idx >= 0 {
		finalQty += items[idx].Quantity
	}
	if finalQty > p.Stock {
		log.Info("add to cart rejected", zap.Int("requested", finalQty), zap.Int("stock", p.Stock))
		return nil, fmt.Errorf("%s: %w", p.Name, ErrInsufficientStock)
	}

	if idx >= 0 {
		items[idx].Quantity = finalQty
	} else {
		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			Icon:      p.Icon,
		})
	}

	// 4️⃣ Save
	if err := s.repo.Save(ctx, customerID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
func (s *service) UpdateQuantity(ctx context.Context, customerID, productID int64, qty int) ([]Item, error) {
	if qty <= 0 {
		return s.Remove(ctx, customerID, productID)
	}

	items, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(items, productID)
	if idx < 0 {
		return nil, ErrCartItemNotFound
	}

	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > p.Stock {
		return nil, fmt.Errorf("%s: %w", p.Name, ErrInsufficientStock)
	}

	items[idx].Quantity = qty
	if err := s.repo.Save(ctx, customerID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *service) Remove(ctx context.Context, customerID, productID int64) ([]Item, error) {
	items, err := s.repo.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(items, productID)
	if idx < 0 {
		return nil, ErrCartItemNotFound
	}

	items = append(items[:idx], items[idx+1:]...)
	if err := s.repo.Save(ctx, customerID, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *service) Clear(ctx context.Context, customerID int64) error {
	return s.repo.Save(ctx, customerID, nil)
}

func indexOf(items []Item, productID int64) int {
	for i, it := range items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
