package payment

import "time"

type Method string

const (
	MethodCash         Method = "cash"
	MethodCard         Method = "card"
	MethodMobile       Method = "mobile"
	MethodBankTransfer Method = "bank_transfer"
	MethodCheque       Method = "cheque"
)

// DefaultMethod is assumed for orders stored without a payment method.
const DefaultMethod = MethodCash

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodMobile, MethodBankTransfer, MethodCheque:
		return true
	}
	return false
}

// RequiresPIN reports whether an in-store sale needs a mock PIN.
func (m Method) RequiresPIN() bool {
	return m == MethodMobile || m == MethodBankTransfer
}

type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Payment is the record mirrored to the payments table.
type Payment struct {
	OrderID    string    `json:"orderId"`
	CustomerID *int64    `json:"customerId,omitempty"`
	Amount     int64     `json:"paymentAmount"`
	Method     Method    `json:"paymentMethod"`
	Reference  string    `json:"referenceNumber,omitempty"`
	Status     Status    `json:"status"`
	Date       time.Time `json:"paymentDate"`
	Notes      string    `json:"notes,omitempty"`
}

// Request is what the till hands the gateway.
type Request struct {
	OrderID string
	Amount  int64
	Method  Method
	Phone   string
	PIN     string
}

type Receipt struct {
	Reference string
	Status    Status
	PaidAt    time.Time
}
