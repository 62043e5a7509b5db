package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bundlekeep/internal/models"
	"bundlekeep/internal/repository"
	"bundlekeep/internal/services"
)

type stubSaleService struct {
	placeSaleFn     func(req models.CreateSaleRequest) (*models.Sale, error)
	addBundleItemFn func(saleID uuid.UUID, req models.AddSaleBundleItemRequest) (*models.SaleBundleItem, error)
	recalculateFn   func(saleID uuid.UUID) (decimal.Decimal, error)
	getSaleFn       func(id uuid.UUID) (*models.Sale, error)
	listSalesFn     func(filters models.SaleFilters, limit, offset int) ([]models.Sale, int64, error)
}

func (s *stubSaleService) PlaceSale(req models.CreateSaleRequest) (*models.Sale, error) {
	return s.placeSaleFn(req)
}

func (s *stubSaleService) AddBundleItem(saleID uuid.UUID, req models.AddSaleBundleItemRequest) (*models.SaleBundleItem, error) {
	return s.addBundleItemFn(saleID, req)
}

func (s *stubSaleService) RecalculateTotal(saleID uuid.UUID) (decimal.Decimal, error) {
	return s.recalculateFn(saleID)
}

func (s *stubSaleService) GetSale(id uuid.UUID) (*models.Sale, error) {
	return s.getSaleFn(id)
}

func (s *stubSaleService) ListSales(filters models.SaleFilters, limit, offset int) ([]models.Sale, int64, error) {
	return s.listSalesFn(filters, limit, offset)
}

func newSaleRouter(service SaleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewSaleHandler(service, 20, 100)

	router := gin.New()
	router.POST("/sales", handler.PlaceSale)
	router.GET("/sales", handler.GetSaleList)
	router.GET("/sales/:id", handler.GetSale)
	router.POST("/sales/:id/bundle-items", handler.AddBundleItem)
	router.POST("/sales/:id/recalculate", handler.RecalculateTotal)
	return router
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPlaceSaleCreated(t *testing.T) {
	productID := uuid.New()
	saleID := uuid.New()

	service := &stubSaleService{
		placeSaleFn: func(req models.CreateSaleRequest) (*models.Sale, error) {
			require.Len(t, req.Lines, 1)
			return &models.Sale{
				ID:          saleID,
				Date:        time.Now(),
				TotalAmount: decimal.RequireFromString("49.80"),
			}, nil
		},
	}
	router := newSaleRouter(service)

	w := postJSON(router, "/sales", models.CreateSaleRequest{
		Lines: []models.SaleLineRequest{{ProductID: &productID, Quantity: 2}},
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool        `json:"success"`
		Data    models.Sale `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, saleID, resp.Data.ID)
}

func TestPlaceSaleInsufficientStockConflict(t *testing.T) {
	productID := uuid.New()

	service := &stubSaleService{
		placeSaleFn: func(req models.CreateSaleRequest) (*models.Sale, error) {
			return nil, &services.InsufficientStockError{
				ProductID:   productID,
				ProductName: "Wireless Mouse",
				Required:    6,
				Available:   4,
			}
		},
	}
	router := newSaleRouter(service)

	w := postJSON(router, "/sales", models.CreateSaleRequest{
		Lines: []models.SaleLineRequest{{ProductID: &productID, Quantity: 6}},
	})

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Details struct {
				ProductName string `json:"productName"`
				Required    int    `json:"required"`
				Available   int    `json:"available"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
	assert.Equal(t, "Wireless Mouse", resp.Error.Details.ProductName)
	assert.Equal(t, 6, resp.Error.Details.Required)
	assert.Equal(t, 4, resp.Error.Details.Available)
}

func TestPlaceSaleInvalidTargetBadRequest(t *testing.T) {
	productID := uuid.New()

	service := &stubSaleService{
		placeSaleFn: func(req models.CreateSaleRequest) (*models.Sale, error) {
			return nil, models.ErrInvalidSaleTarget
		},
	}
	router := newSaleRouter(service)

	w := postJSON(router, "/sales", models.CreateSaleRequest{
		Lines: []models.SaleLineRequest{{ProductID: &productID, Quantity: 1}},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_SALE_TARGET")
}

func TestPlaceSaleRejectsEmptyLines(t *testing.T) {
	service := &stubSaleService{
		placeSaleFn: func(req models.CreateSaleRequest) (*models.Sale, error) {
			t.Fatal("service must not be called for an invalid request")
			return nil, nil
		},
	}
	router := newSaleRouter(service)

	w := postJSON(router, "/sales", models.CreateSaleRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSaleNotFound(t *testing.T) {
	service := &stubSaleService{
		getSaleFn: func(id uuid.UUID) (*models.Sale, error) {
			return nil, repository.ErrSaleNotFound
		},
	}
	router := newSaleRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/sales/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "SALE_NOT_FOUND")
}

func TestGetSaleRejectsMalformedID(t *testing.T) {
	router := newSaleRouter(&stubSaleService{})

	req := httptest.NewRequest(http.MethodGet, "/sales/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ID")
}

func TestAddBundleItemConflictOnShortage(t *testing.T) {
	service := &stubSaleService{
		addBundleItemFn: func(saleID uuid.UUID, req models.AddSaleBundleItemRequest) (*models.SaleBundleItem, error) {
			return nil, &services.InsufficientStockError{
				ProductID:   uuid.New(),
				ProductName: "USB-C Hub",
				Required:    4,
				Available:   1,
			}
		},
	}
	router := newSaleRouter(service)

	w := postJSON(router, "/sales/"+uuid.NewString()+"/bundle-items", models.AddSaleBundleItemRequest{
		BundleID: uuid.New(),
		Quantity: 2,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_STOCK")
}

func TestAddBundleItemCreated(t *testing.T) {
	bundleID := uuid.New()

	service := &stubSaleService{
		addBundleItemFn: func(saleID uuid.UUID, req models.AddSaleBundleItemRequest) (*models.SaleBundleItem, error) {
			return &models.SaleBundleItem{
				ID:          uuid.New(),
				SaleID:      saleID,
				BundleID:    req.BundleID,
				Quantity:    req.Quantity,
				PriceAtSale: decimal.RequireFromString("72.00"),
			}, nil
		},
	}
	router := newSaleRouter(service)

	w := postJSON(router, "/sales/"+uuid.NewString()+"/bundle-items", models.AddSaleBundleItemRequest{
		BundleID: bundleID,
		Quantity: 2,
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool                  `json:"success"`
		Data    models.SaleBundleItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, bundleID, resp.Data.BundleID)
	assert.Equal(t, 2, resp.Data.Quantity)
}

func TestRecalculateTotal(t *testing.T) {
	service := &stubSaleService{
		recalculateFn: func(saleID uuid.UUID) (decimal.Decimal, error) {
			return decimal.RequireFromString("121.70"), nil
		},
	}
	router := newSaleRouter(service)

	w := postJSON(router, "/sales/"+uuid.NewString()+"/recalculate", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "121.7")
}

func TestGetSaleListDateFilter(t *testing.T) {
	var captured models.SaleFilters
	service := &stubSaleService{
		listSalesFn: func(filters models.SaleFilters, limit, offset int) ([]models.Sale, int64, error) {
			captured = filters
			return []models.Sale{}, 0, nil
		},
	}
	router := newSaleRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/sales?dateFrom=2026-08-01T00:00:00Z&dateTo=2026-08-31T23:59:59Z", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured.DateFrom)
	require.NotNil(t, captured.DateTo)
	assert.Equal(t, 2026, captured.DateFrom.Year())
}

func TestGetSaleListRejectsBadDate(t *testing.T) {
	router := newSaleRouter(&stubSaleService{})

	req := httptest.NewRequest(http.MethodGet, "/sales?dateFrom=yesterday", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
