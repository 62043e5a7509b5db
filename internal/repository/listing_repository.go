package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bundlekeep/internal/models"
)

var (
	ErrCityNotFound   = errors.New("city not found")
	ErrCityNameExists = errors.New("city name already exists")
	ErrAdNotFound     = errors.New("ad not found")
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// ========== Cities ==========

func (r *ListingRepository) CreateCity(city *models.City) error {
	var count int64
	if err := r.db.Model(&models.City{}).Where("LOWER(name) = LOWER(?)", city.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCityNameExists
	}
	return r.db.Create(city).Error
}

func (r *ListingRepository) GetCities() ([]models.City, error) {
	var cities []models.City
	err := r.db.Order("name ASC").Find(&cities).Error
	return cities, err
}

func (r *ListingRepository) GetCityByID(id uuid.UUID) (*models.City, error) {
	var city models.City
	if err := r.db.Where("id = ?", id).First(&city).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCityNotFound
		}
		return nil, err
	}
	return &city, nil
}

// UpdateCity renames a city
func (r *ListingRepository) UpdateCity(id uuid.UUID, name string) (*models.City, error) {
	city, err := r.GetCityByID(id)
	if err != nil {
		return nil, err
	}
	if city.Name != name {
		var count int64
		if err := r.db.Model(&models.City{}).Where("LOWER(name) = LOWER(?) AND id <> ?", name, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrCityNameExists
		}
	}
	city.Name = name
	if err := r.db.Save(city).Error; err != nil {
		return nil, err
	}
	return city, nil
}

// DeleteCity removes a city and its ad associations
func (r *ListingRepository) DeleteCity(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM avito_ad_cities WHERE city_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.City{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCityNotFound
		}
		return nil
	})
}

// ========== Ads ==========

// CreateAd persists an ad and attaches its target cities
func (r *ListingRepository) CreateAd(ad *models.AvitoAd, cityIDs []uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if ad.ProductID != nil {
			var count int64
			if err := tx.Model(&models.Product{}).Where("id = ?", *ad.ProductID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrProductNotFound
			}
		}
		if ad.BundleID != nil {
			var count int64
			if err := tx.Model(&models.Bundle{}).Where("id = ?", *ad.BundleID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrBundleNotFound
			}
		}
		if err := tx.Create(ad).Error; err != nil {
			return err
		}
		return r.replaceCitiesTx(tx, ad, cityIDs)
	})
}

func (r *ListingRepository) replaceCitiesTx(tx *gorm.DB, ad *models.AvitoAd, cityIDs []uuid.UUID) error {
	if cityIDs == nil {
		return nil
	}
	cities := make([]models.City, 0, len(cityIDs))
	for _, id := range cityIDs {
		var city models.City
		if err := tx.Where("id = ?", id).First(&city).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCityNotFound
			}
			return err
		}
		cities = append(cities, city)
	}
	return tx.Model(ad).Association("Cities").Replace(cities)
}

func (r *ListingRepository) GetAdByID(id uuid.UUID) (*models.AvitoAd, error) {
	var ad models.AvitoAd
	err := r.db.
		Preload("Product").
		Preload("Bundle.Items.Product").
		Preload("Cities").
		Where("id = ?", id).
		First(&ad).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}
	return &ad, nil
}

func (r *ListingRepository) GetAds(filters models.AvitoAdFilters, limit, offset int) ([]models.AvitoAd, int64, error) {
	var ads []models.AvitoAd
	var total int64

	query := r.db.Model(&models.AvitoAd{})
	if filters.Published != nil {
		query = query.Where("published = ?", *filters.Published)
	}
	if filters.CityID != nil {
		query = query.
			Joins("JOIN avito_ad_cities ON avito_ad_cities.avito_ad_id = avito_ads.id").
			Where("avito_ad_cities.city_id = ?", *filters.CityID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Preload("Product").
		Preload("Bundle").
		Preload("Cities").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ads).Error
	return ads, total, err
}

// UpdateAd applies a partial update; cityIDs non-nil replaces the city set
func (r *ListingRepository) UpdateAd(id uuid.UUID, updates map[string]interface{}, cityIDs []uuid.UUID) (*models.AvitoAd, error) {
	var ad models.AvitoAd
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&ad).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAdNotFound
			}
			return err
		}
		if len(updates) > 0 {
			updates["updated_at"] = time.Now()
			if err := tx.Model(&ad).Updates(updates).Error; err != nil {
				return err
			}
		}
		return r.replaceCitiesTx(tx, &ad, cityIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.GetAdByID(id)
}

func (r *ListingRepository) DeleteAd(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM avito_ad_cities WHERE avito_ad_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.AvitoAd{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAdNotFound
		}
		return nil
	})
}

// SetPublished flips an ad's publish state. Publishing stamps PublishedAt;
// unpublishing clears it.
func (r *ListingRepository) SetPublished(id uuid.UUID, published bool) (*models.AvitoAd, error) {
	updates := map[string]interface{}{
		"published":  published,
		"updated_at": time.Now(),
	}
	if published {
		updates["published_at"] = time.Now()
	} else {
		updates["published_at"] = nil
	}

	result := r.db.Model(&models.AvitoAd{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrAdNotFound
	}

	logrus.WithFields(logrus.Fields{
		"ad_id":     id,
		"published": published,
	}).Info("Ad publish state changed")

	return r.GetAdByID(id)
}
