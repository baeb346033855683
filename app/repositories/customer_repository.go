package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
)

// CustomerRepository handles customers.
type CustomerRepository struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) *CustomerRepository { return &CustomerRepository{db: db} }

// FindByEmail matches the lower-cased address.
func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (models.Customer, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&c).Error
	return c, err
}

func (r *CustomerRepository) Find(ctx context.Context, id uint) (models.Customer, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).First(&c, id).Error
	return c, err
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// UpdateFields writes only the given columns.
func (r *CustomerRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Customer{ID: id}).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Paginate lists customers, newest first.
func (r *CustomerRepository) Paginate(ctx context.Context, q string, p orm.Page) ([]models.Customer, orm.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if term := strings.ToLower(strings.TrimSpace(q)); term != "" {
		like := "%" + term + "%"
		query = query.Where("(LOWER(name) LIKE ? OR email LIKE ?)", like, like)
	}
	var out []models.Customer
	pg, err := orm.Paginate(query, p, "id DESC", &out)
	return out, pg, err
}

// Delete removes a customer and the rows that only make sense with them.
// Orders and payments are kept; callers refuse deletion when orders exist.
func (r *CustomerRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.CartItem{}, &models.WishlistItem{}, &models.WorkshopRegistration{}} {
			if err := tx.Where("customer_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		own := tx.Model(&models.Discussion{}).Select("id").Where("customer_id = ?", id)
		if err := tx.Where("discussion_id IN (?)", own).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("customer_id = ?", id).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("customer_id = ?", id).Delete(&models.Discussion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Customer{}, id).Error
	})
}

func (r *CustomerRepository) CountOrders(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", id).Count(&n).Error
	return n, err
}
