package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bundlekeep/internal/models"
)

var (
	ErrBundleNotFound = errors.New("bundle not found")
	// ErrBundleInUse marks a delete attempt on a bundle referenced by
	// recorded sales (delete-protected)
	ErrBundleInUse = errors.New("bundle is referenced by recorded sales")
)

type BundleRepository struct {
	db *gorm.DB
}

func NewBundleRepository(db *gorm.DB) *BundleRepository {
	return &BundleRepository{db: db}
}

// Create creates a bundle with its items
func (r *BundleRepository) Create(bundle *models.Bundle) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range bundle.Items {
			var count int64
			if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrProductNotFound
			}
		}
		return tx.Create(bundle).Error
	})
}

// GetByID retrieves a bundle with items and their products preloaded.
// Pricing accessors need the full composition, so this is the only read shape.
func (r *BundleRepository) GetByID(id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	err := r.db.Preload("Items.Product").Where("id = ?", id).First(&bundle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBundleNotFound
		}
		return nil, err
	}
	return &bundle, nil
}

// GetAll retrieves bundles with pagination
func (r *BundleRepository) GetAll(search string, limit, offset int) ([]models.Bundle, int64, error) {
	var bundles []models.Bundle
	var total int64

	query := r.db.Model(&models.Bundle{})
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Items.Product").
		Order("name ASC").
		Limit(limit).Offset(offset).
		Find(&bundles).Error
	return bundles, total, err
}

// Update updates bundle fields and, when items are given, replaces the
// composition wholesale
func (r *BundleRepository) Update(id uuid.UUID, updates map[string]interface{}, items []models.BundleItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var bundle models.Bundle
		if err := tx.Where("id = ?", id).First(&bundle).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBundleNotFound
			}
			return err
		}

		if len(updates) > 0 {
			updates["updated_at"] = time.Now()
			if err := tx.Model(&models.Bundle{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}

		if items != nil {
			for _, item := range items {
				var count int64
				if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return ErrProductNotFound
				}
			}
			if err := tx.Where("bundle_id = ?", id).Delete(&models.BundleItem{}).Error; err != nil {
				return err
			}
			for i := range items {
				items[i].BundleID = id
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete deletes a bundle and its items. Blocked while recorded sales
// reference the bundle.
func (r *BundleRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var saleRefs int64
		if err := tx.Model(&models.SaleItem{}).Where("bundle_id = ?", id).Count(&saleRefs).Error; err != nil {
			return err
		}
		if saleRefs == 0 {
			if err := tx.Model(&models.SaleBundleItem{}).Where("bundle_id = ?", id).Count(&saleRefs).Error; err != nil {
				return err
			}
		}
		if saleRefs > 0 {
			return ErrBundleInUse
		}

		if err := tx.Model(&models.AvitoAd{}).Where("bundle_id = ?", id).Update("bundle_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("bundle_id = ?", id).Delete(&models.BundleItem{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Bundle{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBundleNotFound
		}
		return nil
	})
}

// GetBundleTx loads a bundle with composition inside an existing transaction
func GetBundleTx(tx *gorm.DB, id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	err := tx.Preload("Items.Product").Where("id = ?", id).First(&bundle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBundleNotFound
		}
		return nil, err
	}
	return &bundle, nil
}
