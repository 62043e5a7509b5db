package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bundle represents a named, discounted grouping of products sold as a unit.
// It carries no stored price or cost: totals are always recomputed from the
// current constituent products, so they go stale only as far as the catalog
// itself does.
type Bundle struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string          `json:"name" gorm:"type:varchar(200);not null"`
	Discount  decimal.Decimal `json:"discount" gorm:"type:decimal(5,2);not null;default:0"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Items []BundleItem `json:"items,omitempty" gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE"`
}

// BundleItem links a product into a bundle with a per-bundle quantity
type BundleItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BundleID  uuid.UUID `json:"bundleId" gorm:"type:uuid;not null;index;uniqueIndex:idx_bundle_product"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index;uniqueIndex:idx_bundle_product"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Bundle) TableName() string {
	return "bundles"
}

func (BundleItem) TableName() string {
	return "bundle_items"
}

// CreateBundleItemRequest represents one product line in a bundle request
type CreateBundleItemRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// CreateBundleRequest represents a request to create a new bundle
type CreateBundleRequest struct {
	Name     string                    `json:"name" binding:"required,min=1,max=200"`
	Discount *decimal.Decimal          `json:"discount,omitempty"`
	Items    []CreateBundleItemRequest `json:"items" binding:"required,min=1"`
}

// UpdateBundleRequest represents a request to update a bundle. When Items is
// present the bundle composition is replaced wholesale.
type UpdateBundleRequest struct {
	Name     *string                   `json:"name,omitempty"`
	Discount *decimal.Decimal          `json:"discount,omitempty"`
	Items    []CreateBundleItemRequest `json:"items,omitempty"`
}

// BundleView is the admin display projection of a bundle with derived totals
type BundleView struct {
	Bundle
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	TotalCost     decimal.Decimal `json:"totalCost"`
	Profit        decimal.Decimal `json:"profit"`
	MarginPercent decimal.Decimal `json:"marginPercent"`
}

// NewBundleView computes the display projection for a bundle. With weighted
// pricing enabled the totals multiply each constituent by its quantity;
// otherwise each distinct product counts once, as the original pricing rule
// had it.
func NewBundleView(b Bundle, weighted bool) BundleView {
	view := BundleView{Bundle: b}
	if weighted {
		view.TotalPrice = b.TotalPriceWeighted()
		view.TotalCost = b.TotalCostWeighted()
		view.Profit = view.TotalPrice.Sub(view.TotalCost).RoundBank(2)
		if view.TotalCost.IsPositive() {
			view.MarginPercent = view.Profit.Div(view.TotalCost).Mul(decimal.NewFromInt(100)).RoundBank(2)
		}
		return view
	}
	view.TotalPrice = b.TotalPrice()
	view.TotalCost = b.TotalCost()
	view.Profit = b.Profit()
	view.MarginPercent = b.MarginPercent()
	return view
}

// BundleResponse represents a single bundle response
type BundleResponse struct {
	Success bool        `json:"success"`
	Data    *BundleView `json:"data"`
	Message *string     `json:"message,omitempty"`
}

// BundleListResponse represents a list of bundles response
type BundleListResponse struct {
	Success    bool            `json:"success"`
	Data       []BundleView    `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}
