package report

import "builders-pos/internal/product"

// LowStock splits products needing attention. Low is at or under the
// threshold but above zero; out is zero stock.
func LowStock(products []product.Product) StockAlerts {
	var a StockAlerts
	for _, p := range products {
		switch product.Classify(p) {
		case product.StockLow:
			a.Low = append(a.Low, p)
		case product.StockOut:
			a.Out = append(a.Out, p)
		}
	}
	return a
}

func Inventory(products []product.Product) InventoryReport {
	r := InventoryReport{
		StockAlerts:   LowStock(products),
		TotalProducts: len(products),
	}
	for _, p := range products {
		r.TotalValue += p.Price * int64(p.Stock)
	}
	return r
}
