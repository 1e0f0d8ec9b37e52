// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the publication state of a product
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Category groups products in the catalog
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product represents a sellable catalog item
type Product struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	CategoryID       *uint               `gorm:"index" json:"category_id"`
	Name             string              `gorm:"not null;size:255" json:"name"`
	Slug             string              `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	SKU              string              `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Description      string              `gorm:"type:text" json:"description"`
	ShortDescription string              `gorm:"type:text" json:"short_description"`
	Price            decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"price"`
	SalePrice        decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"sale_price"`
	StockQuantity    int                 `gorm:"not null;default:0" json:"stock_quantity"`
	ManageStock      bool                `gorm:"not null;default:true" json:"manage_stock"`
	InStock          bool                `gorm:"not null;default:true" json:"in_stock"`
	Weight           decimal.NullDecimal `gorm:"type:numeric(8,2)" json:"weight"`
	Status           Status              `gorm:"not null;size:20;default:'draft'" json:"status"`
	IsFeatured       bool                `gorm:"not null;default:false" json:"is_featured"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// TableName overrides
func (Category) TableName() string { return "categories" }
func (Product) TableName() string  { return "products" }

// EffectivePrice is the sale price when one is set, the list price otherwise
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// IsOnSale reports whether a sale price below the list price is set
func (p *Product) IsOnSale() bool {
	return p.SalePrice.Valid && p.SalePrice.Decimal.LessThan(p.Price)
}

// IsAvailable reports whether the product can be put in a cart
func (p *Product) IsAvailable() bool {
	return p.Status == StatusPublished && p.InStock
}
