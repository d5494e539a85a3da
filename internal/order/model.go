package order

import (
	"time"

	"builders-pos/internal/cart"
	"builders-pos/internal/payment"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// CanTransition encodes the order state machine. Paid orders only move to
// completed, and completed is terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusPaid || to == StatusCompleted || to == StatusCancelled
	case StatusPaid:
		return to == StatusCompleted
	default:
		return false
	}
}

type Type string

const (
	TypeOnline  Type = "online"
	TypeInStore Type = "in-store"
)

// WalkInCustomer names in-store buyers who gave no name.
const WalkInCustomer = "Walk-in Customer"

// Order is both an online order (CustomerID set, token issued) and an
// in-store sale (StaffID set, no token). Items are frozen snapshots.
type Order struct {
	ID            string         `json:"id"`
	CustomerID    *int64         `json:"customerId,omitempty"`
	CustomerName  string         `json:"customerName,omitempty"`
	StaffID       *int64         `json:"staffId,omitempty"`
	StaffName     string         `json:"staffName,omitempty"`
	Items         []cart.Item    `json:"items"`
	Total         int64          `json:"total"`
	Status        Status         `json:"status"`
	Token         string         `json:"token,omitempty"`
	PaymentMethod payment.Method `json:"paymentMethod,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	Type          Type           `json:"type,omitempty"`
	Date          time.Time      `json:"date"`
	ReleasedBy    string         `json:"releasedBy,omitempty"`
	ReleasedByID  *int64         `json:"releasedById,omitempty"`
	ReleasedAt    *time.Time     `json:"releasedAt,omitempty"`
}

func (o Order) IsOnline() bool {
	return o.CustomerID != nil
}

// Method falls back to cash for records stored without a payment method.
func (o Order) Method() payment.Method {
	if o.PaymentMethod == "" {
		return payment.DefaultMethod
	}
	return o.PaymentMethod
}

// SaleLine is one product on the staff till.
type SaleLine struct {
	ProductID int64
	Quantity  int
}

type CheckoutInput struct {
	Method payment.Method
	Phone  string
}

type SaleInput struct {
	Lines        []SaleLine
	Method       payment.Method
	PIN          string
	CustomerName string
}

// Period narrows staff sales history.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodAll   Period = "all"
)
