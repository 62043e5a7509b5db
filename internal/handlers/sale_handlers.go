package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bundlekeep/internal/models"
	"bundlekeep/internal/repository"
	"bundlekeep/internal/services"
)

// SaleService is the recording surface the handler drives. Satisfied by
// services.SaleService; narrowed here so tests can stub it.
type SaleService interface {
	PlaceSale(req models.CreateSaleRequest) (*models.Sale, error)
	AddBundleItem(saleID uuid.UUID, req models.AddSaleBundleItemRequest) (*models.SaleBundleItem, error)
	RecalculateTotal(saleID uuid.UUID) (decimal.Decimal, error)
	GetSale(id uuid.UUID) (*models.Sale, error)
	ListSales(filters models.SaleFilters, limit, offset int) ([]models.Sale, int64, error)
}

type SaleHandler struct {
	service         SaleService
	defaultPageSize int
	maxPageSize     int
}

func NewSaleHandler(service SaleService, defaultPageSize, maxPageSize int) *SaleHandler {
	return &SaleHandler{
		service:         service,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// respondSaleError maps service errors onto the HTTP surface. Insufficient
// stock is a conflict: the request was well-formed, the warehouse disagreed.
func respondSaleError(c *gin.Context, err error, fallback string) {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INSUFFICIENT_STOCK",
				"message": stockErr.Error(),
				"details": gin.H{
					"productId":   stockErr.ProductID,
					"productName": stockErr.ProductName,
					"required":    stockErr.Required,
					"available":   stockErr.Available,
				},
			},
		})
	case errors.Is(err, models.ErrInvalidSaleTarget):
		respondError(c, http.StatusBadRequest, "INVALID_SALE_TARGET", err.Error())
	case errors.Is(err, repository.ErrSaleNotFound):
		respondError(c, http.StatusNotFound, "SALE_NOT_FOUND", "Sale not found")
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(c, http.StatusBadRequest, "PRODUCT_NOT_FOUND", "Sale references a product that does not exist")
	case errors.Is(err, repository.ErrBundleNotFound):
		respondError(c, http.StatusBadRequest, "BUNDLE_NOT_FOUND", "Sale references a bundle that does not exist")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

// PlaceSale records a sale with all its lines in one transaction
func (h *SaleHandler) PlaceSale(c *gin.Context) {
	var req models.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	sale, err := h.service.PlaceSale(req)
	if err != nil {
		respondSaleError(c, err, "Failed to place sale")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": sale})
}

// GetSaleList returns sales filtered by date range, newest first
func (h *SaleHandler) GetSaleList(c *gin.Context) {
	page, limit, offset := parsePagination(c, h.defaultPageSize, h.maxPageSize)

	var filters models.SaleFilters
	if raw := c.Query("dateFrom"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "dateFrom must be RFC3339")
			return
		}
		filters.DateFrom = &t
	}
	if raw := c.Query("dateTo"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "dateTo must be RFC3339")
			return
		}
		filters.DateTo = &t
	}

	sales, total, err := h.service.ListSales(filters, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list sales")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       sales,
		"pagination": models.NewPaginationInfo(page, limit, total),
	})
}

// GetSale gets a sale with all lines
func (h *SaleHandler) GetSale(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	sale, err := h.service.GetSale(id)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			respondError(c, http.StatusNotFound, "SALE_NOT_FOUND", "Sale not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get sale")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": sale})
}

// AddBundleItem appends a stock-checked bundle line to an existing sale.
// Any constituent shortage rejects the whole line with 409.
func (h *SaleHandler) AddBundleItem(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.AddSaleBundleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	line, err := h.service.AddBundleItem(id, req)
	if err != nil {
		respondSaleError(c, err, "Failed to add bundle line")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": line})
}

// RecalculateTotal recomputes the cached sale total from line snapshots
func (h *SaleHandler) RecalculateTotal(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	total, err := h.service.RecalculateTotal(id)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			respondError(c, http.StatusNotFound, "SALE_NOT_FOUND", "Sale not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to recalculate total")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "totalAmount": total})
}
