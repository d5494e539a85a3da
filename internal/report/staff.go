package report

import (
	"time"

	"builders-pos/internal/feedback"
	"builders-pos/internal/notification"
	"builders-pos/internal/order"
	"builders-pos/internal/product"
	"builders-pos/internal/user"

	"github.com/shopspring/decimal"
)

// StaffPerformance counts sales and revenue per staff id, in first-seen
// order, plus token releases per staff member. Someone who only released
// orders still gets a row.
func StaffPerformance(orders []order.Order) []StaffRecord {
	var out []StaffRecord
	byID := make(map[int64]int)
	byName := make(map[string]int)

	// rows are keyed by id; a release recorded without one joins the first
	// row with the same name
	row := func(id int64, name string) int {
		if id != 0 {
			if i, ok := byID[id]; ok {
				return i
			}
		} else if i, ok := byName[name]; ok {
			return i
		}
		out = append(out, StaffRecord{StaffID: id, Name: name})
		i := len(out) - 1
		if id != 0 {
			byID[id] = i
		}
		if _, ok := byName[name]; !ok {
			byName[name] = i
		}
		return i
	}

	for _, o := range orders {
		if o.StaffID == nil || o.StaffName == "" {
			continue
		}
		i := row(*o.StaffID, o.StaffName)
		out[i].Sales++
		out[i].Revenue += o.Total
	}
	for _, o := range orders {
		if o.ReleasedBy == "" {
			continue
		}
		var id int64
		if o.ReleasedByID != nil {
			id = *o.ReleasedByID
		}
		out[row(id, o.ReleasedBy)].Releases++
	}
	return out
}

// CollectManagerStats fills the manager dashboard counters. The low stock
// count includes products that are out but skips inactive ones.
func CollectManagerStats(orders []order.Order, products []product.Product, now time.Time, loc *time.Location) ManagerStats {
	today := OnDay(orders, now, loc)
	return ManagerStats{
		TodaySales:    Sum(today),
		TodayOrders:   len(today),
		TotalProducts: len(products),
		LowStockCount: len(product.LowStockActive(products)),
	}
}

// CollectStaffStats fills the staff dashboard counters for staff.
func CollectStaffStats(orders []order.Order, notes []notification.Notification, staff user.Identity, now time.Time, loc *time.Location) StaffStats {
	var s StaffStats
	for _, o := range OnDay(orders, now, loc) {
		if o.StaffID != nil && *o.StaffID == staff.ID {
			s.TodaySalesCount++
			s.TodaySalesAmount += o.Total
		}
	}
	for _, o := range orders {
		if o.ReleasedBy != "" && o.ReleasedBy == staff.Name {
			s.VerifiedTokens++
		}
	}
	s.Unverified = notification.CountUnverified(notes)
	return s
}

// SummarizeFeedback averages ratings to one decimal place.
func SummarizeFeedback(fs []feedback.Feedback) FeedbackSummary {
	if len(fs) == 0 {
		return FeedbackSummary{Average: decimal.Zero}
	}
	var sum int64
	for _, f := range fs {
		sum += int64(f.Rating)
	}
	return FeedbackSummary{
		Average: decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(fs)))).Round(1),
		Count:   len(fs),
	}
}
