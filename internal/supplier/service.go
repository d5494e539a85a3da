package supplier

import (
	"context"
	"regexp"
	"strings"
	"time"

	"builders-pos/internal/logger"
	"builders-pos/internal/user"

	"go.uber.org/zap"
)

var phonePattern = regexp.MustCompile(`^0\d{9}$`)

type Service interface {
	List(ctx context.Context) ([]Supplier, error)
	Add(ctx context.Context, in NewSupplierInput) (*Supplier, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

type ServiceOption func(*service)

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

func (s *service) List(ctx context.Context) ([]Supplier, error) {
	return s.repo.List(ctx)
}

func (s *service) Add(ctx context.Context, in NewSupplierInput) (*Supplier, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Add"),
	)

	if _, err := user.RequireRole(ctx, user.RoleManager, user.RoleAdmin); err != nil {
		return nil, err
	}

	/* ---------- VALIDATION ---------- */
	sup := Supplier{
		Name:     strings.TrimSpace(in.Name),
		Contact:  strings.TrimSpace(in.Contact),
		Phone:    strings.TrimSpace(in.Phone),
		Email:    strings.TrimSpace(in.Email),
		Products: strings.TrimSpace(in.Products),
	}
	if sup.Name == "" || sup.Contact == "" || sup.Phone == "" || sup.Products == "" {
		return nil, ErrMissingField
	}
	if !phonePattern.MatchString(sup.Phone) {
		return nil, ErrInvalidPhone
	}
	sup.CreatedAt = s.now()

	created, err := s.repo.Create(ctx, sup)
	if err != nil {
		log.Error("failed to save supplier", zap.Error(err))
		return nil, err
	}

	log.Info("supplier added", zap.Int64("supplier_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := user.RequireRole(ctx, user.RoleManager, user.RoleAdmin); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	logger.FromCtx(ctx).Info("supplier deleted",
		zap.String("layer", "service"),
		zap.String("method", "Delete"),
		zap.Int64("supplier_id", id),
		zap.String("name", deleted.Name),
	)
	return nil
}
