package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bundlekeep/internal/models"
	"bundlekeep/internal/repository"
)

type ProductHandler struct {
	repo            *repository.ProductRepository
	defaultPageSize int
	maxPageSize     int
}

func NewProductHandler(repo *repository.ProductRepository, defaultPageSize, maxPageSize int) *ProductHandler {
	return &ProductHandler{
		repo:            repo,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// CreateProduct creates a new product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	product := models.Product{
		Name:            req.Name,
		CategoryID:      req.CategoryID,
		Price:           req.Price,
		Cost:            req.Cost,
		ProductType:     models.ProductTypeOwn,
		CompetitorPrice: req.CompetitorPrice,
		SupplierURL:     req.SupplierURL,
		CompetitorURL:   req.CompetitorURL,
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.ProductType != nil {
		product.ProductType = *req.ProductType
	}
	if req.Description != nil {
		product.Description = *req.Description
	}

	if product.ProductType != models.ProductTypeOwn && product.ProductType != models.ProductTypeDropshipping {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "productType must be OWN or DROPSHIPPING")
		return
	}

	if err := h.repo.Create(&product); err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create product")
		return
	}

	created, err := h.repo.GetByID(product.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create product")
		return
	}

	view := models.NewProductView(*created)
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": view})
}

// GetProductList returns a paginated list of products with derived pricing
// fields computed per row
func (h *ProductHandler) GetProductList(c *gin.Context) {
	page, limit, offset := parsePagination(c, h.defaultPageSize, h.maxPageSize)

	filters := models.ProductFilters{
		Search:      c.Query("search"),
		InStockOnly: c.Query("inStock") == "true",
	}
	if raw := c.Query("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_ID", "categoryId must be a valid UUID")
			return
		}
		filters.CategoryID = &id
	}
	if raw := c.Query("productType"); raw != "" {
		pt := models.ProductType(raw)
		if pt != models.ProductTypeOwn && pt != models.ProductTypeDropshipping {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "productType must be OWN or DROPSHIPPING")
			return
		}
		filters.ProductType = &pt
	}

	products, total, err := h.repo.GetAll(filters, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list products")
		return
	}

	views := make([]models.ProductView, len(products))
	for i := range products {
		views[i] = models.NewProductView(products[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       views,
		"pagination": models.NewPaginationInfo(page, limit, total),
	})
}

// GetProduct gets a product by ID
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get product")
		return
	}

	view := models.NewProductView(*product)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

// UpdateProduct applies a partial product update
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Cost != nil {
		updates["cost"] = *req.Cost
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "stock cannot be negative")
			return
		}
		updates["stock"] = *req.Stock
	}
	if req.ProductType != nil {
		if *req.ProductType != models.ProductTypeOwn && *req.ProductType != models.ProductTypeDropshipping {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "productType must be OWN or DROPSHIPPING")
			return
		}
		updates["product_type"] = *req.ProductType
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CompetitorPrice != nil {
		updates["competitor_price"] = *req.CompetitorPrice
	}
	if req.SupplierURL != nil {
		updates["supplier_url"] = *req.SupplierURL
	}
	if req.CompetitorURL != nil {
		updates["competitor_url"] = *req.CompetitorURL
	}

	if err := h.repo.Update(id, updates); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update product")
		return
	}

	product, err := h.repo.GetByID(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update product")
		return
	}

	view := models.NewProductView(*product)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

// AdjustStock applies a manual stock correction. Negative deltas clamp at
// zero rather than fail: corrections reconcile the ledger with the shelf.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	product, err := h.repo.AdjustStock(id, req.Delta)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to adjust stock")
		return
	}

	view := models.NewProductView(*product)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

// DeleteProduct deletes a product. Products referenced by recorded sales are
// protected; bundle memberships are removed and ads are detached.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(id); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
		case errors.Is(err, repository.ErrProductInUse):
			respondError(c, http.StatusConflict, "PRODUCT_IN_USE", "Product is referenced by recorded sales and cannot be deleted")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete product")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted"})
}
