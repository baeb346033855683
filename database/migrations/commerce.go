package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/pkg/migration"
)

func init() {
	migration.Register("20260301000300_create_commerce_tables", &CreateCommerceTables{})
}

// -------- 0300: cart, orders, payments, wishlist --------

type CreateCommerceTables struct{}

func (m *CreateCommerceTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.CartItem{},
		&models.Order{},
		&models.OrderDetail{},
		&models.Payment{},
		&models.WishlistItem{},
	)
}

func (m *CreateCommerceTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("wishlist_items", "payments", "order_details", "orders", "cart_items")
}
