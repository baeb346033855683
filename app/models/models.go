// Package models holds the gorm entities of the shop, the wellness hub
// and the community.
package models

// All lists every entity in migration order.
func All() []any {
	return []any{
		&Category{}, &Vendor{}, &Customer{}, &Product{},
		&CartItem{}, &Order{}, &OrderDetail{}, &Payment{},
		&Article{}, &ArticleView{},
		&Discussion{}, &Reply{},
		&Workshop{}, &WorkshopRegistration{},
		&WishlistItem{},
	}
}
