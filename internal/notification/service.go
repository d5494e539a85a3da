package notification

import (
	"context"
	"errors"

	"builders-pos/internal/logger"

	"go.uber.org/zap"
)

// errUnchanged aborts an Update that would write identical data.
var errUnchanged = errors.New("no change")

type Service interface {
	List(ctx context.Context) ([]Notification, error)
	Create(ctx context.Context, n Notification) error
	MarkVerified(ctx context.Context, id string) (bool, error)
	MarkVerifiedByOrderID(ctx context.Context, orderID string) (bool, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]Notification, error) {
	return s.repo.List(ctx)
}

func (s *service) Create(ctx context.Context, n Notification) error {
	if n.Status == "" {
		n.Status = StatusNotVerified
	}
	return s.repo.Append(ctx, n)
}

// MarkVerified is the explicit staff action. It reports whether the record
// changed; verifying twice is a no-op.
func (s *service) MarkVerified(ctx context.Context, id string) (bool, error) {
	n, err := s.repo.SetVerified(ctx, func(x Notification) bool { return x.ID == id })
	if err != nil {
		return false, err
	}

	logger.FromCtx(ctx).Info("notification verification",
		zap.String("layer", "service"),
		zap.String("method", "MarkVerified"),
		zap.String("notification_id", id),
		zap.Bool("changed", n > 0),
	)
	return n > 0, nil
}

// MarkVerifiedByOrderID runs after a release. A missing notification is not
// an error: in-store sales never had one.
func (s *service) MarkVerifiedByOrderID(ctx context.Context, orderID string) (bool, error) {
	n, err := s.repo.SetVerified(ctx, func(x Notification) bool { return x.OrderID == orderID })
	if errors.Is(err, ErrNotificationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logger.FromCtx(ctx).Info("notification verification",
		zap.String("layer", "service"),
		zap.String("method", "MarkVerifiedByOrderID"),
		zap.String("order_id", orderID),
		zap.Int("changed", n),
	)
	return n > 0, nil
}
