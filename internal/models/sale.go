package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidSaleTarget is returned when a sale line does not reference
// exactly one of product or bundle
var ErrInvalidSaleTarget = errors.New("sale line must reference exactly one of product or bundle")

// StockPolicy controls how sale recording treats insufficient stock
type StockPolicy string

const (
	// StockPolicyClamp decrements stock down to a floor of 0 and never
	// fails a sale on shortage. Overselling is silent.
	StockPolicyClamp StockPolicy = "clamp"
	// StockPolicyStrict validates every line against available stock and
	// rejects the whole sale if any product would go negative.
	StockPolicyStrict StockPolicy = "strict"
)

// Sale represents one recorded transaction. TotalAmount is a cached
// aggregate of the sale's lines; it is written when the sale is placed and
// on explicit recalculation, never implicitly.
type Sale struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Date         time.Time       `json:"date" gorm:"not null;index"`
	CustomerName *string         `json:"customerName,omitempty" gorm:"type:varchar(200)"`
	TotalAmount  decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	Items       []SaleItem       `json:"items,omitempty" gorm:"foreignKey:SaleID"`
	BundleItems []SaleBundleItem `json:"bundleItems,omitempty" gorm:"foreignKey:SaleID"`
}

// SaleItem is one line of a sale, targeting a product or a bundle.
// PriceAtSale is a point-in-time snapshot of the unit price; it is never
// recomputed from the catalog after creation.
type SaleItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SaleID      uuid.UUID       `json:"saleId" gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `json:"productId,omitempty" gorm:"type:uuid;index"`
	Product     *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	BundleID    *uuid.UUID      `json:"bundleId,omitempty" gorm:"type:uuid;index"`
	Bundle      *Bundle         `json:"bundle,omitempty" gorm:"foreignKey:BundleID"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	PriceAtSale decimal.Decimal `json:"priceAtSale" gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// SaleBundleItem records a bundle sale through the stock-checked path:
// stock sufficiency for every constituent is validated before any
// decrement happens.
type SaleBundleItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SaleID      uuid.UUID       `json:"saleId" gorm:"type:uuid;not null;index"`
	BundleID    uuid.UUID       `json:"bundleId" gorm:"type:uuid;not null;index"`
	Bundle      *Bundle         `json:"bundle,omitempty" gorm:"foreignKey:BundleID"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	PriceAtSale decimal.Decimal `json:"priceAtSale" gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (Sale) TableName() string {
	return "sales"
}

func (SaleItem) TableName() string {
	return "sale_items"
}

func (SaleBundleItem) TableName() string {
	return "sale_bundle_items"
}

// TotalPrice returns the line total, price snapshot times quantity
func (i *SaleItem) TotalPrice() decimal.Decimal {
	return i.PriceAtSale.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalPrice returns the line total for a bundle sale line
func (i *SaleBundleItem) TotalPrice() decimal.Decimal {
	return i.PriceAtSale.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Label names the sold item for display, falling back when a line carries
// no resolvable target (legacy rows predating target validation).
func (i *SaleItem) Label() string {
	switch {
	case i.Product != nil:
		return i.Product.Name
	case i.Bundle != nil:
		return i.Bundle.Name
	default:
		return "unknown item"
	}
}

// SaleLineRequest is one requested line of a sale. Exactly one of ProductID
// and BundleID must be set.
type SaleLineRequest struct {
	ProductID *uuid.UUID `json:"productId,omitempty"`
	BundleID  *uuid.UUID `json:"bundleId,omitempty"`
	Quantity  int        `json:"quantity" binding:"required,gt=0"`
}

// Validate enforces the product-XOR-bundle invariant on a sale line
func (r SaleLineRequest) Validate() error {
	if (r.ProductID == nil) == (r.BundleID == nil) {
		return ErrInvalidSaleTarget
	}
	return nil
}

// CreateSaleRequest represents a request to place a sale
type CreateSaleRequest struct {
	Date         *time.Time        `json:"date,omitempty"`
	CustomerName *string           `json:"customerName,omitempty"`
	Lines        []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// AddSaleBundleItemRequest represents a request to append a stock-checked
// bundle line to an existing sale
type AddSaleBundleItemRequest struct {
	BundleID uuid.UUID `json:"bundleId" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,gt=0"`
}

// SaleFilters represents filters for sale list queries
type SaleFilters struct {
	DateFrom *time.Time
	DateTo   *time.Time
}

// SaleResponse represents a single sale response
type SaleResponse struct {
	Success bool    `json:"success"`
	Data    *Sale   `json:"data"`
	Message *string `json:"message,omitempty"`
}

// SaleListResponse represents a list of sales response
type SaleListResponse struct {
	Success    bool            `json:"success"`
	Data       []Sale          `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// SaleBundleItemResponse represents a single sale bundle line response
type SaleBundleItemResponse struct {
	Success bool            `json:"success"`
	Data    *SaleBundleItem `json:"data"`
	Message *string         `json:"message,omitempty"`
}

// SaleTotalResponse represents the result of a total recalculation
type SaleTotalResponse struct {
	Success     bool            `json:"success"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
