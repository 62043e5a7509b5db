package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bundlekeep/internal/models"
	"bundlekeep/internal/repository"
)

type CategoryHandler struct {
	repo            *repository.CategoryRepository
	defaultPageSize int
	maxPageSize     int
}

func NewCategoryHandler(repo *repository.CategoryRepository, defaultPageSize, maxPageSize int) *CategoryHandler {
	return &CategoryHandler{
		repo:            repo,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// CreateCategory creates a new category
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	exists, err := h.repo.NameExists(req.Name)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create category")
		return
	}
	if exists {
		respondError(c, http.StatusConflict, "CATEGORY_NAME_EXISTS", "A category with this name already exists")
		return
	}

	category := models.Category{Name: req.Name}
	if err := h.repo.Create(&category); err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": category})
}

// GetCategoryList returns a paginated list of categories
func (h *CategoryHandler) GetCategoryList(c *gin.Context) {
	page, limit, offset := parsePagination(c, h.defaultPageSize, h.maxPageSize)
	search := c.Query("search")

	categories, total, err := h.repo.GetAll(search, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       categories,
		"pagination": models.NewPaginationInfo(page, limit, total),
	})
}

// GetCategory gets a category by ID
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	category, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get category")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
}

// UpdateCategory renames a category
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	category, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update category")
		return
	}

	if category.Name != req.Name {
		exists, err := h.repo.NameExists(req.Name)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update category")
			return
		}
		if exists {
			respondError(c, http.StatusConflict, "CATEGORY_NAME_EXISTS", "A category with this name already exists")
			return
		}
	}

	category.Name = req.Name
	if err := h.repo.Update(category); err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update category")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
}

// DeleteCategory deletes a category. Products in the category are kept and
// detached, not removed.
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete category")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted"})
}
