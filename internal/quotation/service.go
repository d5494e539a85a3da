package quotation

import (
	"context"
	"slices"
	"strings"
	"time"

	"builders-pos/internal/logger"
	"builders-pos/internal/user"

	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context) ([]Quotation, error)
	Request(ctx context.Context, in RequestInput) (*Quotation, error)
	ListMine(ctx context.Context) ([]Quotation, error)
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

func (s *service) List(ctx context.Context) ([]Quotation, error) {
	return s.repo.List(ctx)
}

// Request files a quotation in pending state for the calling customer.
func (s *service) Request(ctx context.Context, in RequestInput) (*Quotation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Request"),
	)

	// 1. Validate
	customer, err := user.RequireRole(ctx, user.RoleCustomer)
	if err != nil {
		return nil, err
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, ErrEmptyDescription
	}
	if in.Budget < 0 {
		return nil, ErrInvalidBudget
	}
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}

	// 2. Persist
	created, err := s.repo.Append(ctx, Quotation{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Description:  desc,
		Budget:       in.Budget,
		Phone:        phone,
		Status:       StatusPending,
		Date:         s.now(),
	})
	if err != nil {
		log.Error("failed to save quotation", zap.Error(err))
		return nil, err
	}

	log.Info("quotation requested", zap.String("quotation_id", created.ID), zap.Int64("budget", created.Budget))
	return created, nil
}

// ListMine returns the caller's quotations, newest first.
func (s *service) ListMine(ctx context.Context) ([]Quotation, error) {
	customer, err := user.RequireRole(ctx, user.RoleCustomer)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.DeleteFunc(all, func(q Quotation) bool { return q.CustomerID != customer.ID })
	slices.Reverse(out)
	return out, nil
}
