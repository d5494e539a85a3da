package cart

// Item is a line in a customer's cart. Name and Price are snapshots taken
// when the product was first added.
type Item struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Icon      string `json:"icon,omitempty"`
}

func (i Item) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Count is the badge number: total units across lines.
func Count(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func Total(items []Item) int64 {
	var total int64
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}
