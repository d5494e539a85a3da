// Package seed loads the starting catalog and demo accounts into a store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"builders-pos/internal/logger"
	"builders-pos/internal/product"
	"builders-pos/internal/store"
	"builders-pos/internal/user"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Catalog struct {
	Products []ProductSeed `yaml:"products"`
	Users    []UserSeed    `yaml:"users"`
}

type ProductSeed struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Price    int64  `yaml:"price"`
	Stock    int    `yaml:"stock"`
	LowStock int    `yaml:"low_stock"`
	Icon     string `yaml:"icon"`
}

type UserSeed struct {
	Username string    `yaml:"username"`
	Password string    `yaml:"password"`
	Email    string    `yaml:"email"`
	Phone    string    `yaml:"phone"`
	Role     user.Role `yaml:"role"`
	Name     string    `yaml:"name"`
}

// Result counts what Seed actually added.
type Result struct {
	Products int
	Users    int
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, u := range c.Users {
		if !u.Role.Valid() {
			return nil, fmt.Errorf("seed user %q: unknown role %q", u.Username, u.Role)
		}
	}
	return &c, nil
}

// Seed writes the catalog's products when the products collection is empty
// and adds any seeded user whose username is not taken. Running it twice
// changes nothing.
func Seed(ctx context.Context, s *store.Store, c *Catalog, now time.Time) (Result, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "seed"))
	var res Result

	_, err := store.UpdateCollection(ctx, s, store.KeyProducts, func(products []product.Product) ([]product.Product, error) {
		res.Products = 0
		if len(products) > 0 {
			return products, nil
		}
		for _, p := range c.Products {
			stamp := now
			products = append(products, product.Product{
				ID:                p.ID,
				Name:              p.Name,
				Category:          p.Category,
				Price:             p.Price,
				Stock:             p.Stock,
				LowStockThreshold: p.LowStock,
				Icon:              p.Icon,
				Status:            product.StatusActive,
				LastUpdated:       &stamp,
			})
		}
		res.Products = len(c.Products)
		return products, nil
	})
	if err != nil {
		return res, fmt.Errorf("seed products: %w", err)
	}

	_, err = store.UpdateCollection(ctx, s, store.KeyUsers, func(users []user.User) ([]user.User, error) {
		res.Users = 0
		taken := make(map[string]bool, len(users))
		var maxID int64
		for _, u := range users {
			taken[u.Username] = true
			maxID = max(maxID, u.ID)
		}
		for _, u := range c.Users {
			if taken[u.Username] {
				continue
			}
			maxID++
			users = append(users, user.User{
				ID:        maxID,
				Username:  u.Username,
				Password:  u.Password,
				Email:     u.Email,
				Phone:     u.Phone,
				Role:      u.Role,
				Name:      u.Name,
				Status:    user.StatusActive,
				CreatedAt: now,
			})
			taken[u.Username] = true
			res.Users++
		}
		return users, nil
	})
	if err != nil {
		return res, fmt.Errorf("seed users: %w", err)
	}

	log.Info("store seeded", zap.Int("products", res.Products), zap.Int("users", res.Users))
	return res, nil
}
