package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bundlekeep/internal/models"
)

// Cache TTL constants
const (
	CategoryCacheTTL     = 30 * time.Minute // Categories rarely change
	CategoryListCacheTTL = 15 * time.Minute // Category lists
)

var (
	ErrCategoryNotFound = errors.New("category not found")
)

type CategoryRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCategoryRepository(db *gorm.DB, redis *redis.Client) *CategoryRepository {
	return &CategoryRepository{
		db:    db,
		redis: redis,
	}
}

// invalidateCategoryCaches invalidates all caches related to categories
func (r *CategoryRepository) invalidateCategoryCaches(ctx context.Context, categoryID *uuid.UUID) {
	if r.redis == nil {
		return
	}

	if categoryID != nil {
		r.redis.Del(ctx, fmt.Sprintf("bundlekeep:categories:category:%s", categoryID))
	}
	// Invalidate category list caches using pattern
	keys, _ := r.redis.Keys(ctx, "bundlekeep:categories:list:*").Result()
	if len(keys) > 0 {
		r.redis.Del(ctx, keys...)
	}
}

// Create creates a new category
func (r *CategoryRepository) Create(category *models.Category) error {
	err := r.db.Create(category).Error
	if err == nil {
		r.invalidateCategoryCaches(context.Background(), nil)
	}
	return err
}

// GetByID retrieves a category by ID with caching
func (r *CategoryRepository) GetByID(id uuid.UUID) (*models.Category, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("bundlekeep:categories:category:%s", id)

	// Try to get from cache first
	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var category models.Category
			if err := json.Unmarshal([]byte(val), &category); err == nil {
				return &category, nil
			}
		}
	}

	var category models.Category
	err := r.db.Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	// Cache the result
	if r.redis != nil {
		data, err := json.Marshal(category)
		if err == nil {
			r.redis.Set(ctx, cacheKey, data, CategoryCacheTTL)
		}
	}

	return &category, nil
}

// GetAll retrieves categories with optional name search and caching
func (r *CategoryRepository) GetAll(search string, limit, offset int) ([]models.Category, int64, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("bundlekeep:categories:list:%s:%d:%d", search, limit, offset)

	type categoriesResult struct {
		Categories []models.Category `json:"categories"`
		Total      int64             `json:"total"`
	}

	// Try to get from cache first
	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var result categoriesResult
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Categories, result.Total, nil
			}
		}
	}

	var categories []models.Category
	var total int64
	query := r.db.Model(&models.Category{})
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&categories).Error
	if err != nil {
		return nil, 0, err
	}

	// Cache the result
	if r.redis != nil {
		data, err := json.Marshal(categoriesResult{Categories: categories, Total: total})
		if err == nil {
			r.redis.Set(ctx, cacheKey, data, CategoryListCacheTTL)
		}
	}

	return categories, total, nil
}

// Update updates a category
func (r *CategoryRepository) Update(category *models.Category) error {
	var existing models.Category
	err := r.db.Where("id = ?", category.ID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	err = r.db.Save(category).Error
	if err == nil {
		id := category.ID
		r.invalidateCategoryCaches(context.Background(), &id)
	}
	return err
}

// Delete deletes a category. Products referencing it are detached, not
// deleted: category_id is nullified first, in the same transaction.
func (r *CategoryRepository) Delete(id uuid.UUID) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateCategoryCaches(context.Background(), &id)
	return nil
}

// NameExists checks whether a category name is already taken
func (r *CategoryRepository) NameExists(name string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Category{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// GetOrCreateByName resolves a category by exact name, creating it when
// missing. Used by spreadsheet import where rows name categories in text.
func (r *CategoryRepository) GetOrCreateByName(name string) (*models.Category, error) {
	var category models.Category
	err := r.db.Where("name = ?", name).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = models.Category{Name: name}
	if err := r.Create(&category); err != nil {
		return nil, err
	}
	return &category, nil
}
