package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products. Names are unique; lookups are
// case-insensitive.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProductCount int64 `gorm:"->;-:migration" json:"product_count"`
}

// Vendor is a product brand or supplier.
type Vendor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	Contact   string    `gorm:"size:50" json:"contact"`
	Stock     int       `gorm:"not null;default:0" json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProductCount int64 `gorm:"->;-:migration" json:"product_count"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	VendorID    *uint           `gorm:"index" json:"vendor_id"`
	Vendor      *Vendor         `json:"vendor,omitempty"`
	Title       string          `gorm:"size:255;not null;index" json:"title"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	Keywords    string          `gorm:"size:255" json:"keywords"`
	ImagePath   string          `gorm:"size:255" json:"image_path"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	CreatedBy   uint            `gorm:"index" json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InStock reports whether qty units can be sold.
func (p Product) InStock(qty int) bool { return qty > 0 && p.Stock >= qty }

// WishlistItem is a saved product. (customer, product) is unique.
type WishlistItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_wishlist_owner_product" json:"customer_id"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_wishlist_owner_product" json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
