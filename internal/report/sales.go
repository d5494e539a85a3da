// Package report derives read-only views from store snapshots. Every function
// here is pure: callers pass the orders and products they already hold.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"builders-pos/internal/order"
	"builders-pos/internal/payment"
	"builders-pos/internal/product"
	"builders-pos/internal/utils"

	"github.com/shopspring/decimal"
)

const (
	// OtherCategory labels revenue whose product no longer resolves.
	OtherCategory = "other"

	DefaultTopProducts     = 5
	ProductPerformanceSize = 20
	TrendDays              = 7
)

var hundred = decimal.NewFromInt(100)

// OnDay keeps the orders placed on day's local calendar date. Time of day
// does not matter.
func OnDay(orders []order.Order, day time.Time, loc *time.Location) []order.Order {
	var out []order.Order
	for _, o := range orders {
		if utils.SameDay(o.Date, day, loc) {
			out = append(out, o)
		}
	}
	return out
}

// Between keeps orders dated within [from, to].
func Between(orders []order.Order, from, to time.Time) []order.Order {
	var out []order.Order
	for _, o := range orders {
		if !o.Date.Before(from) && !o.Date.After(to) {
			out = append(out, o)
		}
	}
	return out
}

func Sum(orders []order.Order) int64 {
	var total int64
	for _, o := range orders {
		total += o.Total
	}
	return total
}

// Average is round(total/count), halves away from zero. Zero orders
// average to zero.
func Average(total int64, count int) int64 {
	if count == 0 {
		return 0
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(count))).Round(0).IntPart()
}

// Daily is the day's orders with a payment-method breakdown in the order
// methods were first seen.
func Daily(orders []order.Order, day time.Time, loc *time.Location) DailyReport {
	matched := OnDay(orders, day, loc)
	r := DailyReport{
		Day:      utils.DayKey(day, loc),
		Orders:   matched,
		Payments: PaymentBreakdown(matched),
		Count:    len(matched),
		Total:    Sum(matched),
	}
	r.Average = Average(r.Total, r.Count)
	return r
}

func PaymentBreakdown(orders []order.Order) []MethodTotal {
	var out []MethodTotal
	index := make(map[payment.Method]int)
	for _, o := range orders {
		m := o.Method()
		i, ok := index[m]
		if !ok {
			i = len(out)
			index[m] = i
			out = append(out, MethodTotal{Method: m})
		}
		out[i].Count++
		out[i].Total += o.Total
	}
	return out
}

// Weekly buckets the seven local days ending on endDay, oldest first.
func Weekly(orders []order.Order, endDay time.Time, loc *time.Location) PeriodReport {
	end := utils.EndOfDay(endDay, loc)
	start := utils.StartOfDay(endDay, loc).AddDate(0, 0, -(TrendDays - 1))
	matched := Between(orders, start, end)

	r := PeriodReport{From: utils.DayKey(start, loc), To: utils.DayKey(end, loc)}
	for d := 0; d < TrendDays; d++ {
		day := start.AddDate(0, 0, d)
		b := Bucket{Label: utils.DayKey(day, loc)}
		for _, o := range OnDay(matched, day, loc) {
			b.Count++
			b.Total += o.Total
		}
		r.Buckets = append(r.Buckets, b)
	}
	r.Count, r.Total = len(matched), Sum(matched)
	return r
}

// Monthly buckets the calendar month of day into "Week 1".."Week 5", where
// week n covers days 7n-6 to 7n.
func Monthly(orders []order.Order, day time.Time, loc *time.Location) PeriodReport {
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	matched := Between(orders, start, end)

	weeks := (end.Day() + 6) / 7
	r := PeriodReport{
		From:    utils.DayKey(start, loc),
		To:      utils.DayKey(end, loc),
		Buckets: make([]Bucket, weeks),
	}
	for i := range r.Buckets {
		r.Buckets[i].Label = fmt.Sprintf("Week %d", i+1)
	}
	for _, o := range matched {
		i := (o.Date.In(loc).Day() - 1) / 7
		r.Buckets[i].Count++
		r.Buckets[i].Total += o.Total
	}
	r.Count, r.Total = len(matched), Sum(matched)
	return r
}

// ProductPerformance groups items by name and returns the top sellers by
// revenue. Items stored without a quantity count as one.
func ProductPerformance(orders []order.Order) []ProductSales {
	var out []ProductSales
	index := make(map[string]int)
	for _, o := range orders {
		for _, it := range o.Items {
			qty := it.Quantity
			if qty == 0 {
				qty = 1
			}
			i, ok := index[it.Name]
			if !ok {
				i = len(out)
				index[it.Name] = i
				out = append(out, ProductSales{Name: it.Name})
			}
			out[i].Quantity += qty
			out[i].Revenue += it.Price * int64(qty)
		}
	}
	return topByRevenue(out, ProductPerformanceSize)
}

// TopProducts groups items by product id and returns the n best by revenue.
func TopProducts(orders []order.Order, n int) []ProductSales {
	var out []ProductSales
	index := make(map[int64]int)
	for _, o := range orders {
		for _, it := range o.Items {
			i, ok := index[it.ProductID]
			if !ok {
				i = len(out)
				index[it.ProductID] = i
				out = append(out, ProductSales{ProductID: it.ProductID, Name: it.Name})
			}
			out[i].Quantity += it.Quantity
			out[i].Revenue += it.Subtotal()
		}
	}
	return topByRevenue(out, n)
}

func topByRevenue(sales []ProductSales, n int) []ProductSales {
	slices.SortStableFunc(sales, func(a, b ProductSales) int {
		return cmp.Compare(b.Revenue, a.Revenue)
	})
	if n >= 0 && len(sales) > n {
		sales = sales[:n]
	}
	return sales
}

// CategoryBreakdown buckets item revenue by the category of the product it
// was sold as. Unknown products fall into OtherCategory. Percentages are
// rounded to one place and are all zero when there is no revenue.
func CategoryBreakdown(orders []order.Order, products []product.Product) []CategoryShare {
	categories := make(map[int64]string, len(products))
	for _, p := range products {
		categories[p.ID] = p.Category
	}

	var (
		out   []CategoryShare
		total int64
	)
	index := make(map[string]int)
	for _, o := range orders {
		for _, it := range o.Items {
			cat, ok := categories[it.ProductID]
			if !ok || cat == "" {
				cat = OtherCategory
			}
			i, seen := index[cat]
			if !seen {
				i = len(out)
				index[cat] = i
				out = append(out, CategoryShare{Category: cat})
			}
			out[i].Revenue += it.Subtotal()
			total += it.Subtotal()
		}
	}

	for i := range out {
		out[i].Percent = percent(out[i].Revenue, total)
	}
	return out
}

func percent(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole)).Round(1)
}

// Trend is revenue for the last seven local days including now's, oldest
// first. Bar widths are relative to the best day.
func Trend(orders []order.Order, now time.Time, loc *time.Location) []TrendPoint {
	start := utils.StartOfDay(now, loc).AddDate(0, 0, -(TrendDays - 1))
	points := make([]TrendPoint, TrendDays)
	index := make(map[string]int, TrendDays)
	for d := range points {
		key := utils.DayKey(start.AddDate(0, 0, d), loc)
		points[d].Day = key
		index[key] = d
	}

	var best int64
	for _, o := range orders {
		if i, ok := index[utils.DayKey(o.Date, loc)]; ok {
			points[i].Revenue += o.Total
			best = max(best, points[i].Revenue)
		}
	}
	best = max(best, 1)
	for i := range points {
		points[i].BarWidth = percent(points[i].Revenue, best)
	}
	return points
}

// UniqueCustomers counts distinct buyers by id, or by name for walk-in sales.
func UniqueCustomers(orders []order.Order) int {
	seen := make(map[string]struct{})
	for _, o := range orders {
		key := "name:" + o.CustomerName
		if o.CustomerID != nil {
			key = fmt.Sprintf("id:%d", *o.CustomerID)
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}

func SalesAnalytics(orders []order.Order, products []product.Product, now time.Time, loc *time.Location) Analytics {
	return Analytics{
		TotalRevenue:    Sum(orders),
		TotalOrders:     len(orders),
		UniqueCustomers: UniqueCustomers(orders),
		Categories:      CategoryBreakdown(orders, products),
		TopProducts:     TopProducts(orders, DefaultTopProducts),
		Trend:           Trend(orders, now, loc),
	}
}
