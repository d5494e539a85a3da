package feedback

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Feedback struct {
	ID           string    `json:"id"`
	CustomerID   int64     `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Date         time.Time `json:"date"`
}
