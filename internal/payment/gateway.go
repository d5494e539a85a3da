package payment

import (
	"context"
	"regexp"
	"strings"
	"time"

	"builders-pos/internal/logger"
	"builders-pos/internal/utils"

	"go.uber.org/zap"
)

var pinPattern = regexp.MustCompile(`^[0-9]{3,6}$`)

// Gateway authorizes a payment and returns a reference for the receipt.
type Gateway interface {
	Authorize(ctx context.Context, req Request) (*Receipt, error)
}

// Recorder persists payment records outside the key-value store.
type Recorder interface {
	SavePayment(ctx context.Context, p Payment) error
}

// ValidateOnline checks what customer checkout needs: a known method and a
// paying phone number.
func ValidateOnline(method Method, phone string) error {
	if method == "" {
		return ErrMethodRequired
	}
	if !method.Valid() {
		return ErrUnknownMethod
	}
	if strings.TrimSpace(phone) == "" {
		return ErrPhoneRequired
	}
	return nil
}

// ValidateInStore checks the till's method and, for mobile money and bank
// transfer, the 3 to 6 digit mock PIN.
func ValidateInStore(method Method, pin string) error {
	if method == "" {
		method = DefaultMethod
	}
	if !method.Valid() {
		return ErrUnknownMethod
	}
	if method.RequiresPIN() && !pinPattern.MatchString(pin) {
		return ErrInvalidPIN
	}
	return nil
}

// MockGateway approves every well-formed request with a MOCKREF reference.
type MockGateway struct {
	now func() time.Time
}

func NewMockGateway(now func() time.Time) *MockGateway {
	if now == nil {
		now = time.Now
	}
	return &MockGateway{now: now}
}

func (g *MockGateway) Authorize(ctx context.Context, req Request) (*Receipt, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "gateway"),
		zap.String("order_id", req.OrderID),
		zap.String("method", string(req.Method)),
		zap.Int64("amount", req.Amount),
	)

	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := ValidateInStore(req.Method, req.PIN); err != nil {
		log.Info("payment declined", zap.Error(err))
		return nil, err
	}

	now := g.now()
	receipt := &Receipt{
		Reference: utils.NewRecordID(utils.PrefixPaymentRef, now),
		Status:    StatusCompleted,
		PaidAt:    now,
	}

	log.Info("mock payment authorized", zap.String("reference", receipt.Reference))
	return receipt, nil
}
