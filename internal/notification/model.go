package notification

import (
	"time"

	"builders-pos/internal/cart"
)

type Status string

const (
	StatusNotVerified Status = "not_verified"
	StatusVerified    Status = "verified"
)

// Notification shadows an online order until staff release it.
type Notification struct {
	ID           string      `json:"id"`
	OrderID      string      `json:"orderId"`
	CustomerID   int64       `json:"customerId"`
	CustomerName string      `json:"customerName"`
	Token        string      `json:"token"`
	Items        []cart.Item `json:"items"`
	Total        int64       `json:"total"`
	Status       Status      `json:"status"`
	Date         time.Time   `json:"date"`
}

// CountUnverified is the staff dashboard badge.
func CountUnverified(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if x.Status == StatusNotVerified {
			n++
		}
	}
	return n
}

// Newest returns a copy ordered newest first, as the staff list shows them.
func Newest(ns []Notification) []Notification {
	out := make([]Notification, len(ns))
	for i, x := range ns {
		out[len(ns)-1-i] = x
	}
	return out
}
