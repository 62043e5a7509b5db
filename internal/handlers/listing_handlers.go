package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bundlekeep/internal/models"
	"bundlekeep/internal/repository"
)

type ListingHandler struct {
	repo            *repository.ListingRepository
	defaultPageSize int
	maxPageSize     int
}

func NewListingHandler(repo *repository.ListingRepository, defaultPageSize, maxPageSize int) *ListingHandler {
	return &ListingHandler{
		repo:            repo,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// ========== Cities ==========

// CreateCity creates a publish-target city
func (h *ListingHandler) CreateCity(c *gin.Context) {
	var req models.CreateCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	city := models.City{Name: req.Name}
	if err := h.repo.CreateCity(&city); err != nil {
		if errors.Is(err, repository.ErrCityNameExists) {
			respondError(c, http.StatusConflict, "CITY_NAME_EXISTS", "A city with this name already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create city")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": city})
}

// GetCityList returns all cities ordered by name
func (h *ListingHandler) GetCityList(c *gin.Context) {
	cities, err := h.repo.GetCities()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list cities")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": cities})
}

// UpdateCity renames a city
func (h *ListingHandler) UpdateCity(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.CreateCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	city, err := h.repo.UpdateCity(id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCityNotFound):
			respondError(c, http.StatusNotFound, "CITY_NOT_FOUND", "City not found")
		case errors.Is(err, repository.ErrCityNameExists):
			respondError(c, http.StatusConflict, "CITY_NAME_EXISTS", "A city with this name already exists")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update city")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": city})
}

// DeleteCity removes a city and detaches it from any ads
func (h *ListingHandler) DeleteCity(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.repo.DeleteCity(id); err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			respondError(c, http.StatusNotFound, "CITY_NOT_FOUND", "City not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete city")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "City deleted"})
}

// ========== Ads ==========

// CreateAd creates a marketplace ad, optionally linked to a product or
// bundle and targeted at a set of cities
func (h *ListingHandler) CreateAd(c *gin.Context) {
	var req models.CreateAvitoAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	ad := models.AvitoAd{
		Title:           req.Title,
		ProductID:       req.ProductID,
		BundleID:        req.BundleID,
		Price:           req.Price,
		CompetitorPrice: req.CompetitorPrice,
		AdURL:           req.AdURL,
		CompetitorURL:   req.CompetitorURL,
	}
	if req.Description != nil {
		ad.Description = *req.Description
	}

	if err := h.repo.CreateAd(&ad, req.CityIDs); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			respondError(c, http.StatusBadRequest, "PRODUCT_NOT_FOUND", "Ad references a product that does not exist")
		case errors.Is(err, repository.ErrBundleNotFound):
			respondError(c, http.StatusBadRequest, "BUNDLE_NOT_FOUND", "Ad references a bundle that does not exist")
		case errors.Is(err, repository.ErrCityNotFound):
			respondError(c, http.StatusBadRequest, "CITY_NOT_FOUND", "Ad references a city that does not exist")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create ad")
		}
		return
	}

	created, err := h.repo.GetAdByID(ad.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create ad")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
}

// GetAdList returns ads filtered by publish state and/or target city
func (h *ListingHandler) GetAdList(c *gin.Context) {
	page, limit, offset := parsePagination(c, h.defaultPageSize, h.maxPageSize)

	var filters models.AvitoAdFilters
	if raw := c.Query("published"); raw != "" {
		published := raw == "true"
		filters.Published = &published
	}
	if raw := c.Query("cityId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_ID", "cityId must be a valid UUID")
			return
		}
		filters.CityID = &id
	}

	ads, total, err := h.repo.GetAds(filters, limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list ads")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       ads,
		"pagination": models.NewPaginationInfo(page, limit, total),
	})
}

// GetAd gets an ad by ID with product/bundle and cities preloaded
func (h *ListingHandler) GetAd(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ad, err := h.repo.GetAdByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			respondError(c, http.StatusNotFound, "AD_NOT_FOUND", "Ad not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get ad")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": ad})
}

// UpdateAd applies a partial ad update; cityIds replaces the target set
func (h *ListingHandler) UpdateAd(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateAvitoAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ProductID != nil {
		updates["product_id"] = *req.ProductID
	}
	if req.BundleID != nil {
		updates["bundle_id"] = *req.BundleID
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.CompetitorPrice != nil {
		updates["competitor_price"] = *req.CompetitorPrice
	}
	if req.AdURL != nil {
		updates["ad_url"] = *req.AdURL
	}
	if req.CompetitorURL != nil {
		updates["competitor_url"] = *req.CompetitorURL
	}

	ad, err := h.repo.UpdateAd(id, updates, req.CityIDs)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAdNotFound):
			respondError(c, http.StatusNotFound, "AD_NOT_FOUND", "Ad not found")
		case errors.Is(err, repository.ErrCityNotFound):
			respondError(c, http.StatusBadRequest, "CITY_NOT_FOUND", "Ad references a city that does not exist")
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update ad")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": ad})
}

// DeleteAd deletes an ad and its city links
func (h *ListingHandler) DeleteAd(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.repo.DeleteAd(id); err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			respondError(c, http.StatusNotFound, "AD_NOT_FOUND", "Ad not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete ad")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ad deleted"})
}

// PublishAd marks an ad as published and stamps the publish time
func (h *ListingHandler) PublishAd(c *gin.Context) {
	h.setPublished(c, true)
}

// UnpublishAd takes an ad down and clears the publish time
func (h *ListingHandler) UnpublishAd(c *gin.Context) {
	h.setPublished(c, false)
}

func (h *ListingHandler) setPublished(c *gin.Context, published bool) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ad, err := h.repo.SetPublished(id, published)
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			respondError(c, http.StatusNotFound, "AD_NOT_FOUND", "Ad not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to change publish state")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": ad})
}
