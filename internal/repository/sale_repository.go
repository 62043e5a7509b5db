package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bundlekeep/internal/models"
)

var ErrSaleNotFound = errors.New("sale not found")

type SaleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// DB exposes the underlying handle for the sale service's transactions
func (r *SaleRepository) DB() *gorm.DB {
	return r.db
}

// GetByID retrieves a sale with all lines and their targets preloaded
func (r *SaleRepository) GetByID(id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.
		Preload("Items.Product").
		Preload("Items.Bundle").
		Preload("BundleItems.Bundle").
		Where("id = ?", id).
		First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// GetAll retrieves sales with date filters and pagination, newest first
func (r *SaleRepository) GetAll(filters models.SaleFilters, limit, offset int) ([]models.Sale, int64, error) {
	var sales []models.Sale
	var total int64

	query := r.db.Model(&models.Sale{})
	if filters.DateFrom != nil {
		query = query.Where("date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("date <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Preload("Items.Product").
		Preload("Items.Bundle").
		Preload("BundleItems.Bundle").
		Order("date DESC").
		Limit(limit).Offset(offset).
		Find(&sales).Error
	return sales, total, err
}
