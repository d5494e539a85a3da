package product

import "time"

// DefaultIcon is given to products added from the manager dashboard.
const DefaultIcon = "📦"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Product struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Category          string     `json:"category"`
	Price             int64      `json:"price"`
	Stock             int        `json:"stock"`
	LowStockThreshold int        `json:"lowStockThreshold"`
	Icon              string     `json:"icon,omitempty"`
	Status            Status     `json:"status,omitempty"`
	LastUpdated       *time.Time `json:"lastUpdated,omitempty"`
}

// StockLevel is the inventory badge shown for a product.
type StockLevel string

const (
	StockOK  StockLevel = "ok"
	StockLow StockLevel = "low"
	StockOut StockLevel = "out"
)

// Classify reports out for zero stock and low for stock at or below the
// threshold. The boundary is inclusive.
func Classify(p Product) StockLevel {
	switch {
	case p.Stock <= 0:
		return StockOut
	case p.Stock <= p.LowStockThreshold:
		return StockLow
	default:
		return StockOK
	}
}

// Filter selects which products an inventory listing shows.
type Filter string

const (
	FilterAll Filter = "all"
	FilterLow Filter = "low"
	FilterOut Filter = "out"
)

type TransactionType string

const (
	TxPurchase   TransactionType = "purchase"
	TxSale       TransactionType = "sale"
	TxAdjustment TransactionType = "adjustment"
	TxDamage     TransactionType = "damage"
	TxReturn     TransactionType = "return"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxPurchase, TxSale, TxAdjustment, TxDamage, TxReturn:
		return true
	}
	return false
}

// Transaction is one stock movement. Adjustment sets stock to Quantity; the
// other types move stock by Quantity.
type Transaction struct {
	ProductID int64           `json:"productId"`
	Type      TransactionType `json:"transactionType"`
	Quantity  int             `json:"quantity"`
	Reason    string          `json:"reason,omitempty"`
	StaffID   int64           `json:"staffId,omitempty"`
	Date      time.Time       `json:"transactionDate"`
}

// StockChange moves one product's stock by Delta.
type StockChange struct {
	ProductID int64
	Delta     int
}

type NewProductInput struct {
	Name              string
	Category          string
	Price             int64
	Stock             int
	LowStockThreshold int
}

type EditInput struct {
	ID                int64
	Name              string
	Price             int64
	Stock             int
	LowStockThreshold int
}
