package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlekeep/internal/models"
)

func TestNextStockClampFloorsAtZero(t *testing.T) {
	p := &models.Product{ID: uuid.New(), Name: "Wireless Mouse", Stock: 4}

	remaining, err := nextStock(p, 6, models.StockPolicyClamp)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestNextStockClampNormalDecrement(t *testing.T) {
	p := &models.Product{ID: uuid.New(), Name: "Wireless Mouse", Stock: 10}

	remaining, err := nextStock(p, 6, models.StockPolicyClamp)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

func TestNextStockStrictReportsShortfall(t *testing.T) {
	p := &models.Product{ID: uuid.New(), Name: "Wireless Mouse", Stock: 4}

	_, err := nextStock(p, 6, models.StockPolicyStrict)
	require.Error(t, err)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, p.ID, stockErr.ProductID)
	assert.Equal(t, "Wireless Mouse", stockErr.ProductName)
	assert.Equal(t, 6, stockErr.Required)
	assert.Equal(t, 4, stockErr.Available)
}

func TestNextStockStrictExactStockSucceeds(t *testing.T) {
	p := &models.Product{ID: uuid.New(), Name: "Wireless Mouse", Stock: 6}

	remaining, err := nextStock(p, 6, models.StockPolicyStrict)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestInsufficientStockErrorMessage(t *testing.T) {
	err := &InsufficientStockError{
		ProductID:   uuid.New(),
		ProductName: "USB-C Hub",
		Required:    4,
		Available:   1,
	}
	assert.Equal(t, "insufficient stock for product 'USB-C Hub': required 4, available 1", err.Error())
}
