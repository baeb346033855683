package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderPending    = "pending"
	OrderPaid       = "paid"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderStatuses lists every valid status, in lifecycle order.
var OrderStatuses = []string{OrderPending, OrderPaid, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// CartItem is one cart line. Owner is "c:<customer id>" for customers and
// "ip:<address>" for guests; (owner, product) is unique.
type CartItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Owner      string    `gorm:"size:80;not null;uniqueIndex:idx_cart_owner_product" json:"-"`
	CustomerID *uint     `gorm:"index" json:"customer_id"`
	IPAddress  string    `gorm:"size:64;index" json:"-"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_cart_owner_product" json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
	Quantity   int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CustomerOwner is the cart owner key of a logged-in customer.
func CustomerOwner(id uint) string { return fmt.Sprintf("c:%d", id) }

// GuestOwner is the cart owner key of an anonymous visitor.
func GuestOwner(ip string) string { return "ip:" + ip }

type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CustomerID  uint            `gorm:"not null;index" json:"customer_id"`
	Customer    *Customer       `json:"customer,omitempty"`
	InvoiceNo   string          `gorm:"size:40;not null;uniqueIndex" json:"invoice_no"`
	Status      string          `gorm:"size:20;not null;default:pending;index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency    string          `gorm:"size:3;not null" json:"currency"`
	Details     []OrderDetail   `json:"details,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type OrderDetail struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

// Payment records a verified gateway transaction. Reference is unique so
// a reference can place at most one order.
type Payment struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	CustomerID uint            `gorm:"not null;index" json:"customer_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency   string          `gorm:"size:3;not null" json:"currency"`
	Method     string          `gorm:"size:20;not null" json:"method"`
	Channel    string          `gorm:"size:30" json:"channel"`
	Reference  string          `gorm:"size:100;not null;uniqueIndex" json:"reference"`
	PaidAt     *time.Time      `json:"paid_at"`
	CreatedAt  time.Time       `json:"created_at"`
}
