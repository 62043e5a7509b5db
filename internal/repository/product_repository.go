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
	"gorm.io/gorm/clause"

	"bundlekeep/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute // Stock changes on every sale
	ProductListCacheTTL = 2 * time.Minute
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrProductInUse marks a delete attempt on a product referenced by
	// recorded sales (delete-protected)
	ErrProductInUse = errors.New("product is referenced by recorded sales")
)

type ProductRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewProductRepository(db *gorm.DB, redis *redis.Client) *ProductRepository {
	return &ProductRepository{
		db:    db,
		redis: redis,
	}
}

func (r *ProductRepository) invalidateProductCaches(ctx context.Context, productID *uuid.UUID) {
	if r.redis == nil {
		return
	}

	if productID != nil {
		r.redis.Del(ctx, fmt.Sprintf("bundlekeep:products:product:%s", productID))
	}
	keys, _ := r.redis.Keys(ctx, "bundlekeep:products:list:*").Result()
	if len(keys) > 0 {
		r.redis.Del(ctx, keys...)
	}
}

// InvalidateCaches drops product caches; called after out-of-band stock
// mutations (sale recording runs its own transaction)
func (r *ProductRepository) InvalidateCaches(productIDs ...uuid.UUID) {
	ctx := context.Background()
	for i := range productIDs {
		r.invalidateProductCaches(ctx, &productIDs[i])
	}
	if len(productIDs) == 0 {
		r.invalidateProductCaches(ctx, nil)
	}
}

// Create creates a new product
func (r *ProductRepository) Create(product *models.Product) error {
	err := r.db.Create(product).Error
	if err == nil {
		r.invalidateProductCaches(context.Background(), nil)
	}
	return err
}

// GetByID retrieves a product by ID with its category preloaded and caching
func (r *ProductRepository) GetByID(id uuid.UUID) (*models.Product, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("bundlekeep:products:product:%s", id)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	err := r.db.Preload("Category").Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if r.redis != nil {
		data, err := json.Marshal(product)
		if err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// GetAll retrieves products with filters, pagination and caching
func (r *ProductRepository) GetAll(filters models.ProductFilters, limit, offset int) ([]models.Product, int64, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("bundlekeep:products:list:%s:%d:%d", filtersCacheKey(filters), limit, offset)

	type productsResult struct {
		Products []models.Product `json:"products"`
		Total    int64            `json:"total"`
	}

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var result productsResult
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Products, result.Total, nil
			}
		}
	}

	var products []models.Product
	var total int64
	query := r.db.Model(&models.Product{})

	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.ProductType != nil {
		query = query.Where("product_type = ?", *filters.ProductType)
	}
	if filters.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filters.Search+"%")
	}
	if filters.InStockOnly {
		query = query.Where("stock > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Category").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	if r.redis != nil {
		data, err := json.Marshal(productsResult{Products: products, Total: total})
		if err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductListCacheTTL)
		}
	}

	return products, total, nil
}

func filtersCacheKey(f models.ProductFilters) string {
	category := "all"
	if f.CategoryID != nil {
		category = f.CategoryID.String()
	}
	ptype := "all"
	if f.ProductType != nil {
		ptype = string(*f.ProductType)
	}
	return fmt.Sprintf("%s:%s:%s:%t", category, ptype, f.Search, f.InStockOnly)
}

// Update applies a partial update to a product
func (r *ProductRepository) Update(id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	r.invalidateProductCaches(context.Background(), &id)
	return nil
}

// Delete deletes a product. Deletion is blocked while any recorded sale
// references the product; bundle memberships cascade away with it.
func (r *ProductRepository) Delete(id uuid.UUID) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var saleRefs int64
		if err := tx.Model(&models.SaleItem{}).Where("product_id = ?", id).Count(&saleRefs).Error; err != nil {
			return err
		}
		if saleRefs > 0 {
			return ErrProductInUse
		}

		// Bundle membership cascades; ads keep running but lose the reference
		if err := tx.Where("product_id = ?", id).Delete(&models.BundleItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.AvitoAd{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateProductCaches(context.Background(), &id)
	return nil
}

// AdjustStock applies a manual stock correction. The result is clamped at
// zero; restocks and write-offs both go through here.
func (r *ProductRepository) AdjustStock(id uuid.UUID, delta int) (*models.Product, error) {
	var product models.Product
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		newStock := product.Stock + delta
		if newStock < 0 {
			newStock = 0
		}
		product.Stock = newStock

		return tx.Model(&models.Product{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"stock":      newStock,
				"updated_at": time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	r.invalidateProductCaches(context.Background(), &id)
	return &product, nil
}

// GetForUpdateTx loads a product inside tx with a row lock, for
// read-check-decrement sequences
func GetForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// SetStockTx writes a product's stock inside tx
func SetStockTx(tx *gorm.DB, id uuid.UUID, stock int) error {
	return tx.Model(&models.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      stock,
			"updated_at": time.Now(),
		}).Error
}
