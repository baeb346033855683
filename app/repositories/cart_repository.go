package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
)

// CartRepository handles cart lines for one owner key at a time.
type CartRepository struct{ db *gorm.DB }

func NewCartRepository(db *gorm.DB) *CartRepository { return &CartRepository{db: db} }

func (r *CartRepository) WithTx(tx *gorm.DB) *CartRepository { return &CartRepository{db: tx} }

// Items returns the owner's lines with products loaded, oldest first.
func (r *CartRepository) Items(ctx context.Context, owner string) ([]models.CartItem, error) {
	var out []models.CartItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("owner = ?", owner).
		Order("id").
		Find(&out).Error
	return out, err
}

// Find returns the owner's line for productID, if any.
func (r *CartRepository) Find(ctx context.Context, owner string, productID uint) (models.CartItem, bool, error) {
	var it models.CartItem
	err := r.db.WithContext(ctx).Where("owner = ? AND product_id = ?", owner, productID).First(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return it, false, nil
	}
	return it, err == nil, err
}

func (r *CartRepository) Save(ctx context.Context, it *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Save(it).Error
}

// Remove deletes one line and reports whether it existed.
func (r *CartRepository) Remove(ctx context.Context, owner string, productID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("owner = ? AND product_id = ?", owner, productID).Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

// Clear empties the owner's cart.
func (r *CartRepository) Clear(ctx context.Context, owner string) error {
	return r.db.WithContext(ctx).Where("owner = ?", owner).Delete(&models.CartItem{}).Error
}

// PurgeGuests removes guest lines not touched since before.
func (r *CartRepository) PurgeGuests(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("customer_id IS NULL AND updated_at < ?", before).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
