package feedback

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
	List(ctx context.Context) ([]Feedback, error)
	Submit(ctx context.Context, rating int, comment string) (*Feedback, error)
	// ListMine returns the caller's feedback, newest first.
	ListMine(ctx context.Context) ([]Feedback, error)
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

func (s *service) List(ctx context.Context) ([]Feedback, error) {
	return s.repo.List(ctx)
}

func (s *service) Submit(ctx context.Context, rating int, comment string) (*Feedback, error) {
	customer, err := user.RequireRole(ctx, user.RoleCustomer)
	if err != nil {
		return nil, err
	}
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrEmptyComment
	}

	created, err := s.repo.Append(ctx, Feedback{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Rating:       rating,
		Comment:      comment,
		Date:         s.now(),
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("feedback submitted",
		zap.String("layer", "service"),
		zap.String("method", "Submit"),
		zap.String("feedback_id", created.ID),
		zap.Int("rating", rating),
	)
	return created, nil
}

func (s *service) ListMine(ctx context.Context) ([]Feedback, error) {
	customer, err := user.RequireRole(ctx, user.RoleCustomer)
	if err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Feedback
	for _, f := range all {
		if f.CustomerID == customer.ID {
			out = append(out, f)
		}
	}
	slices.Reverse(out)
	return out, nil
}
