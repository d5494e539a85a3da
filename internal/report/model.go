package report

import (
	"time"

	"builders-pos/internal/order"
	"builders-pos/internal/payment"
	"builders-pos/internal/product"

	"github.com/shopspring/decimal"
)

// Bucket is one row of a grouped sales report.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Total int64  `json:"total"`
}

type MethodTotal struct {
	Method payment.Method `json:"method"`
	Count  int            `json:"count"`
	Total  int64          `json:"total"`
}

type DailyReport struct {
	Day      string        `json:"day"`
	Orders   []order.Order `json:"orders"`
	Payments []MethodTotal `json:"payments"`
	Count    int           `json:"count"`
	Total    int64         `json:"total"`
	Average  int64         `json:"average"`
}

type PeriodReport struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Buckets []Bucket `json:"buckets"`
	Count   int      `json:"count"`
	Total   int64    `json:"total"`
}

type StockAlerts struct {
	Low []product.Product `json:"low"`
	Out []product.Product `json:"out"`
}

type InventoryReport struct {
	StockAlerts
	TotalProducts int   `json:"totalProducts"`
	TotalValue    int64 `json:"totalValue"`
}

type ProductSales struct {
	ProductID int64  `json:"productId,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

type CategoryShare struct {
	Category string          `json:"category"`
	Revenue  int64           `json:"revenue"`
	Percent  decimal.Decimal `json:"percent"`
}

type TrendPoint struct {
	Day      string          `json:"day"`
	Revenue  int64           `json:"revenue"`
	BarWidth decimal.Decimal `json:"barWidth"`
}

type Analytics struct {
	TotalRevenue    int64           `json:"totalRevenue"`
	TotalOrders     int             `json:"totalOrders"`
	UniqueCustomers int             `json:"uniqueCustomers"`
	Categories      []CategoryShare `json:"categories"`
	TopProducts     []ProductSales  `json:"topProducts"`
	Trend           []TrendPoint    `json:"trend"`
}

type StaffRecord struct {
	StaffID  int64  `json:"staffId,omitempty"`
	Name     string `json:"name"`
	Sales    int    `json:"sales"`
	Revenue  int64  `json:"revenue"`
	Releases int    `json:"releases"`
}

type ManagerStats struct {
	TodaySales    int64 `json:"todaySales"`
	TodayOrders   int   `json:"todayOrders"`
	LowStockCount int   `json:"lowStockCount"`
	TotalProducts int   `json:"totalProducts"`
}

type StaffStats struct {
	TodaySalesCount  int   `json:"todaySalesCount"`
	TodaySalesAmount int64 `json:"todaySalesAmount"`
	VerifiedTokens   int   `json:"verifiedTokens"`
	Unverified       int   `json:"unverifiedNotifications"`
}

type FeedbackSummary struct {
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
}

type ActivityType string

const (
	ActivitySale      ActivityType = "Sale"
	ActivityInventory ActivityType = "Inventory"
	ActivityUser      ActivityType = "User"
	ActivitySystem    ActivityType = "System"
)

type Activity struct {
	Timestamp time.Time    `json:"timestamp"`
	Type      ActivityType `json:"type"`
	User      string       `json:"user"`
	Action    string       `json:"action"`
	Details   string       `json:"details"`
}

// AuditRow is an activity as displayed. Day is set on the first row of
// each calendar day only.
type AuditRow struct {
	Day string `json:"day,omitempty"`
	Activity
}

type AuditTrail struct {
	Activities []Activity `json:"activities"`
	Rows       []AuditRow `json:"rows"`
}
