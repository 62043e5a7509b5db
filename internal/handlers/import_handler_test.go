package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	h := &ImportHandler{}

	csvData := "name *,price,cost,stock\nWireless Mouse,24.90,14.50,12\nUSB-C Hub,39.00,22.00,\n"
	rows, err := h.parseCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// the " *" required marker is stripped from headers
	assert.Equal(t, "Wireless Mouse", rows[0]["name"])
	assert.Equal(t, "24.90", rows[0]["price"])
	assert.Equal(t, "2", rows[0]["_row"])
	assert.Equal(t, "3", rows[1]["_row"])
}

func TestParseRowValid(t *testing.T) {
	h := &ImportHandler{}
	var errs []ImportRowError

	product := h.parseRow(map[string]string{
		"name":            "Wireless Mouse",
		"price":           "24.90",
		"cost":            "14.50",
		"stock":           "12",
		"producttype":     "dropshipping",
		"competitorprice": "27.00",
	}, 2, &errs)

	require.Empty(t, errs)
	require.NotNil(t, product)
	assert.Equal(t, "Wireless Mouse", product.Name)
	assert.Equal(t, "24.90", product.Price.StringFixed(2))
	assert.Equal(t, 12, product.Stock)
	assert.Equal(t, "DROPSHIPPING", string(product.ProductType))
	require.NotNil(t, product.CompetitorPrice)
	assert.Equal(t, "27.00", product.CompetitorPrice.StringFixed(2))
}

func TestParseRowCollectsAllErrors(t *testing.T) {
	h := &ImportHandler{}
	var errs []ImportRowError

	product := h.parseRow(map[string]string{
		"name":  "",
		"price": "abc",
		"cost":  "",
		"stock": "-3",
	}, 5, &errs)

	assert.Nil(t, product)
	require.Len(t, errs, 4)
	for _, e := range errs {
		assert.Equal(t, 5, e.Row)
	}
}

func TestParseRowRejectsUnknownProductType(t *testing.T) {
	h := &ImportHandler{}
	var errs []ImportRowError

	product := h.parseRow(map[string]string{
		"name":        "Hub",
		"price":       "39.00",
		"cost":        "22.00",
		"producttype": "CONSIGNMENT",
	}, 2, &errs)

	assert.Nil(t, product)
	require.Len(t, errs, 1)
	assert.Equal(t, "INVALID_VALUE", errs[0].Code)
}

func TestProductImportTemplateColumns(t *testing.T) {
	template := ProductImportTemplate()
	assert.Equal(t, "products", template.Entity)

	required := map[string]bool{}
	for _, col := range template.Columns {
		if col.Required {
			required[col.Name] = true
		}
	}
	assert.Equal(t, map[string]bool{"name": true, "price": true, "cost": true}, required)
}
