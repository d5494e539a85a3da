package quotation

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusAnswered Status = "answered"
)

type Quotation struct {
	ID           string    `json:"id"`
	CustomerID   int64     `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Description  string    `json:"description"`
	Budget       int64     `json:"budget"`
	Phone        string    `json:"phone"`
	Status       Status    `json:"status"`
	Date         time.Time `json:"date"`
}

type RequestInput struct {
	Description string
	Budget      int64
	Phone       string
}
