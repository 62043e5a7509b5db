package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSaleItemTotalPrice(t *testing.T) {
	item := SaleItem{Quantity: 3, PriceAtSale: dec("24.90")}
	assert.Equal(t, "74.70", item.TotalPrice().StringFixed(2))
}

func TestSaleBundleItemTotalPrice(t *testing.T) {
	item := SaleBundleItem{Quantity: 2, PriceAtSale: dec("72.00")}
	assert.Equal(t, "144.00", item.TotalPrice().StringFixed(2))
}

func TestSaleItemLabel(t *testing.T) {
	item := SaleItem{Product: &Product{Name: "Wireless Mouse"}}
	assert.Equal(t, "Wireless Mouse", item.Label())

	item = SaleItem{Bundle: &Bundle{Name: "Starter Kit"}}
	assert.Equal(t, "Starter Kit", item.Label())

	item = SaleItem{}
	assert.Equal(t, "unknown item", item.Label())
}

func TestSaleLineRequestValidate(t *testing.T) {
	productID := uuid.New()
	bundleID := uuid.New()

	tests := []struct {
		name    string
		req     SaleLineRequest
		wantErr bool
	}{
		{"product only", SaleLineRequest{ProductID: &productID, Quantity: 1}, false},
		{"bundle only", SaleLineRequest{BundleID: &bundleID, Quantity: 1}, false},
		{"neither", SaleLineRequest{Quantity: 1}, true},
		{"both", SaleLineRequest{ProductID: &productID, BundleID: &bundleID, Quantity: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSaleTarget)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
