package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// City is a publish target for marketplace ads
type City struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string          `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// AvitoAd is a marketplace listing for a product or bundle, published across
// a set of target cities. Pure metadata: no derived computation beyond what
// the referenced product/bundle already exposes.
type AvitoAd struct {
	ID              uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title           string           `json:"title" gorm:"type:varchar(200);not null"`
	Description     string           `json:"description,omitempty" gorm:"type:text"`
	ProductID       *uuid.UUID       `json:"productId,omitempty" gorm:"type:uuid;index"`
	Product         *Product         `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
	BundleID        *uuid.UUID       `json:"bundleId,omitempty" gorm:"type:uuid;index"`
	Bundle          *Bundle          `json:"bundle,omitempty" gorm:"foreignKey:BundleID;constraint:OnDelete:SET NULL"`
	Price           decimal.Decimal  `json:"price" gorm:"type:decimal(10,2);not null"`
	CompetitorPrice *decimal.Decimal `json:"competitorPrice,omitempty" gorm:"type:decimal(10,2)"`
	Cities          []City           `json:"cities,omitempty" gorm:"many2many:avito_ad_cities"`
	Published       bool             `json:"published" gorm:"not null;default:false;index"`
	PublishedAt     *time.Time       `json:"publishedAt,omitempty"`
	AdURL           *string          `json:"adUrl,omitempty" gorm:"type:varchar(500)"`
	CompetitorURL   *string          `json:"competitorUrl,omitempty" gorm:"type:varchar(500)"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	DeletedAt       *gorm.DeletedAt  `json:"deletedAt,omitempty" gorm:"index"`
}

func (City) TableName() string {
	return "cities"
}

func (AvitoAd) TableName() string {
	return "avito_ads"
}

// CreateCityRequest represents a request to create a city
type CreateCityRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CreateAvitoAdRequest represents a request to create a marketplace ad
type CreateAvitoAdRequest struct {
	Title           string           `json:"title" binding:"required,min=1,max=200"`
	Description     *string          `json:"description,omitempty"`
	ProductID       *uuid.UUID       `json:"productId,omitempty"`
	BundleID        *uuid.UUID       `json:"bundleId,omitempty"`
	Price           decimal.Decimal  `json:"price" binding:"required"`
	CompetitorPrice *decimal.Decimal `json:"competitorPrice,omitempty"`
	CityIDs         []uuid.UUID      `json:"cityIds,omitempty"`
	AdURL           *string          `json:"adUrl,omitempty"`
	CompetitorURL   *string          `json:"competitorUrl,omitempty"`
}

// UpdateAvitoAdRequest represents a partial ad update. CityIDs, when
// present, replaces the target city set.
type UpdateAvitoAdRequest struct {
	Title           *string          `json:"title,omitempty"`
	Description     *string          `json:"description,omitempty"`
	ProductID       *uuid.UUID       `json:"productId,omitempty"`
	BundleID        *uuid.UUID       `json:"bundleId,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	CompetitorPrice *decimal.Decimal `json:"competitorPrice,omitempty"`
	CityIDs         []uuid.UUID      `json:"cityIds,omitempty"`
	AdURL           *string          `json:"adUrl,omitempty"`
	CompetitorURL   *string          `json:"competitorUrl,omitempty"`
}

// AvitoAdFilters represents filters for ad list queries
type AvitoAdFilters struct {
	Published *bool
	CityID    *uuid.UUID
}

// CityResponse represents a single city response
type CityResponse struct {
	Success bool    `json:"success"`
	Data    *City   `json:"data"`
	Message *string `json:"message,omitempty"`
}

// CityListResponse represents a list of cities response
type CityListResponse struct {
	Success bool   `json:"success"`
	Data    []City `json:"data"`
}

// AvitoAdResponse represents a single ad response
type AvitoAdResponse struct {
	Success bool     `json:"success"`
	Data    *AvitoAd `json:"data"`
	Message *string  `json:"message,omitempty"`
}

// AvitoAdListResponse represents a list of ads response
type AvitoAdListResponse struct {
	Success    bool            `json:"success"`
	Data       []AvitoAd       `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}
