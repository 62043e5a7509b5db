package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductType distinguishes own-stock products from dropshipped ones
type ProductType string

const (
	ProductTypeOwn          ProductType = "OWN"
	ProductTypeDropshipping ProductType = "DROPSHIPPING"
)

// Category represents a product category
type Category struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string          `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

// Product represents a sellable catalog item
type Product struct {
	ID              uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name            string           `json:"name" gorm:"type:varchar(200);not null;index"`
	CategoryID      *uuid.UUID       `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	Category        *Category        `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Price           decimal.Decimal  `json:"price" gorm:"type:decimal(10,2);not null"`
	Cost            decimal.Decimal  `json:"cost" gorm:"type:decimal(10,2);not null"`
	Stock           int              `json:"stock" gorm:"not null;default:0"`
	ProductType     ProductType      `json:"productType" gorm:"type:varchar(20);not null;default:'OWN';index"`
	Description     string           `json:"description,omitempty" gorm:"type:text"`
	CompetitorPrice *decimal.Decimal `json:"competitorPrice,omitempty" gorm:"type:decimal(10,2)"`
	SupplierURL     *string          `json:"supplierUrl,omitempty" gorm:"type:varchar(500)"`
	CompetitorURL   *string          `json:"competitorUrl,omitempty" gorm:"type:varchar(500)"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	DeletedAt       *gorm.DeletedAt  `json:"deletedAt,omitempty" gorm:"index"`
}

func (Category) TableName() string {
	return "categories"
}

func (Product) TableName() string {
	return "products"
}

// CreateCategoryRequest represents a request to create a new category
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name            string           `json:"name" binding:"required,min=1,max=200"`
	CategoryID      *uuid.UUID       `json:"categoryId,omitempty"`
	Price           decimal.Decimal  `json:"price" binding:"required"`
	Cost            decimal.Decimal  `json:"cost" binding:"required"`
	Stock           *int             `json:"stock,omitempty"`
	ProductType     *ProductType     `json:"productType,omitempty"`
	Description     *string          `json:"description,omitempty"`
	CompetitorPrice *decimal.Decimal `json:"competitorPrice,omitempty"`
	SupplierURL     *string          `json:"supplierUrl,omitempty"`
	CompetitorURL   *string          `json:"competitorUrl,omitempty"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name            *string          `json:"name,omitempty"`
	CategoryID      *uuid.UUID       `json:"categoryId,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Cost            *decimal.Decimal `json:"cost,omitempty"`
	Stock           *int             `json:"stock,omitempty"`
	ProductType     *ProductType     `json:"productType,omitempty"`
	Description     *string          `json:"description,omitempty"`
	CompetitorPrice *decimal.Decimal `json:"competitorPrice,omitempty"`
	SupplierURL     *string          `json:"supplierUrl,omitempty"`
	CompetitorURL   *string          `json:"competitorUrl,omitempty"`
}

// AdjustStockRequest represents a manual stock correction (restock or write-off)
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason,omitempty"`
}

// ProductFilters represents filters for product list queries
type ProductFilters struct {
	CategoryID  *uuid.UUID
	ProductType *ProductType
	Search      string
	InStockOnly bool
}

// ProductView is the admin display projection of a product with derived
// pricing fields. PriceDiff stays nil when no competitor price is tracked,
// so the UI can distinguish "no data" from "tied price".
type ProductView struct {
	Product
	Profit        decimal.Decimal  `json:"profit"`
	MarginPercent decimal.Decimal  `json:"marginPercent"`
	PriceDiff     *decimal.Decimal `json:"priceDiff,omitempty"`
}

// NewProductView computes the display projection for a product
func NewProductView(p Product) ProductView {
	return ProductView{
		Product:       p,
		Profit:        p.Profit(),
		MarginPercent: p.MarginPercent(),
		PriceDiff:     p.PriceDiff(),
	}
}

// CategoryResponse represents a single category response
type CategoryResponse struct {
	Success bool      `json:"success"`
	Data    *Category `json:"data"`
	Message *string   `json:"message,omitempty"`
}

// CategoryListResponse represents a list of categories response
type CategoryListResponse struct {
	Success    bool            `json:"success"`
	Data       []Category      `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// ProductResponse represents a single product response
type ProductResponse struct {
	Success bool         `json:"success"`
	Data    *ProductView `json:"data"`
	Message *string      `json:"message,omitempty"`
}

// ProductListResponse represents a list of products response
type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []ProductView   `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}
