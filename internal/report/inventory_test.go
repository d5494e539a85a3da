package report

import (
	"testing"

	"builders-pos/internal/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLowStock(t *testing.T) {
	products := []product.Product{
		{ID: 1, Name: "At threshold", Stock: 10, LowStockThreshold: 10},
		{ID: 2, Name: "Out", Stock: 0, LowStockThreshold: 10},
		{ID: 3, Name: "One above", Stock: 11, LowStockThreshold: 10},
	}

	a := LowStock(products)

	require.Len(t, a.Low, 1)
	assert.Equal(t, int64(1), a.Low[0].ID)
	require.Len(t, a.Out, 1)
	assert.Equal(t, int64(2), a.Out[0].ID)
}

func TestInventory(t *testing.T) {
	r := Inventory(catalog)

	assert.Equal(t, 4, r.TotalProducts)
	assert.Equal(t, int64(198*45000+1000*350+6*2500), r.TotalValue)
	assert.Len(t, r.Low, 1, "bricks at threshold")
	assert.Len(t, r.Out, 1)
}
