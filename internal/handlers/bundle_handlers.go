package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bundlekeep/internal/models"
	"bundlekeep/internal/repository"
)

type BundleHandler struct {
	repo            *repository.BundleRepository
	weighted        bool
	defaultPageSize int
	maxPageSize     int
}

func NewBundleHandler(repo *repository.BundleRepository, weighted bool, defaultPageSize, maxPageSize int) *BundleHandler {
	return &BundleHandler{
		repo:            repo,
		weighted:        weighted,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// CreateBundle creates a bundle with its composition
func (h *BundleHandler) CreateBundle(c *gin.Context) {
	var req models.CreateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	discount := decimal.Zero
	if req.Discount != nil {
		discount = *req.Discount
	}
	if discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100)) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "discount must be between 0 and 100")
		return
	}

	bundle := models.Bundle{
		Name:     req.Name,
		Discount: discount,
		Items:    make([]models.BundleItem, len(req.Items)),
	}
	for i, item := range req.Items {
		bundle.Items[i] = models.BundleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	if err := h.repo.Create(&bundle); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondError(c, http.StatusBadRequest, "PRODUCT_NOT_FOUND", "Bundle references a product that does not exist")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create bundle")
		return
	}

	created, err := h.repo.GetByID(bundle.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create bundle")
		return
	}

	view := models.NewBundleView(*created, h.weighted)
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": view})
}

// GetBundleList returns bundles with derived totals computed per row
func (h *BundleHandler) GetBundleList(c *gin.Context) {
	page, limit, offset := parsePagination(c, h.defaultPageSize, h.maxPageSize)
	search := c.Query("search")

	bundles, total, err := h.repo.GetAll(search, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list bundles")
		return
	}

	views := make([]models.BundleView, len(bundles))
	for i := range bundles {
		views[i] = models.NewBundleView(bundles[i], h.weighted)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       views,
		"pagination": models.NewPaginationInfo(page, limit, total),
	})
}

// GetBundle gets a bundle by ID
func (h *BundleHandler) GetBundle(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	bundle, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrBundleNotFound) {
			respondError(c, http.StatusNotFound, "BUNDLE_NOT_FOUND", "Bundle not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get bundle")
		return
	}

	view := models.NewBundleView(*bundle, h.weighted)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

// UpdateBundle updates name/discount and, when items are given, replaces
// the composition wholesale
func (h *BundleHandler) UpdateBundle(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Discount != nil {
		if req.Discount.IsNegative() || req.Discount.GreaterThan(decimal.NewFromInt(100)) {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "discount must be between 0 and 100")
			return
		}
		updates["discount"] = *req.Discount
	}

	var items []models.BundleItem
	if req.Items != nil {
		if len(req.Items) == 0 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "a bundle must contain at least one product")
			return
		}
		items = make([]models.BundleItem, len(req.Items))
		for i, item := range req.Items {
			if item.Quantity <= 0 {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "item quantity must be positive")
				return
			}
			items[i] = models.BundleItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			}
		}
	}

	if err := h.repo.Update(id, updates, items); err != nil {
		switch {
		case errors.Is(err, repository.ErrBundleNotFound):
			respondError(c, http.StatusNotFound, "BUNDLE_NOT_FOUND", "Bundle not found")
		case errors.Is(err, repository.ErrProductNotFound):
			respondError(c, http.StatusBadRequest, "PRODUCT_NOT_FOUND", "Bundle references a product that does not exist")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update bundle")
		}
		return
	}

	bundle, err := h.repo.GetByID(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update bundle")
		return
	}

	view := models.NewBundleView(*bundle, h.weighted)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

// DeleteBundle deletes a bundle and its composition. Blocked while recorded
// sales reference the bundle.
func (h *BundleHandler) DeleteBundle(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(id); err != nil {
		switch {
		case errors.Is(err, repository.ErrBundleNotFound):
			respondError(c, http.StatusNotFound, "BUNDLE_NOT_FOUND", "Bundle not found")
		case errors.Is(err, repository.ErrBundleInUse):
			respondError(c, http.StatusConflict, "BUNDLE_IN_USE", "Bundle is referenced by recorded sales and cannot be deleted")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete bundle")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bundle deleted"})
}
