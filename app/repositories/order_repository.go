package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
)

// OrderRepository handles orders, their detail rows and payments.
type OrderRepository struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) *OrderRepository { return &OrderRepository{db: db} }

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository { return &OrderRepository{db: tx} }

// Transaction runs fn inside a DB transaction.
func (r *OrderRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Omit("Customer", "Details").Create(o).Error
}

func (r *OrderRepository) AddDetail(ctx context.Context, d *models.OrderDetail) error {
	return r.db.WithContext(ctx).Omit("Product").Create(d).Error
}

// Find loads an order with its lines and their products.
func (r *OrderRepository) Find(ctx context.Context, id uint) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Preload("Details.Product").Preload("Customer").First(&o, id).Error
	return o, err
}

// ForCustomer lists a customer's orders, newest first.
func (r *OrderRepository) ForCustomer(ctx context.Context, customerID uint, p orm.Page) ([]models.Order, orm.Pagination, error) {
	var out []models.Order
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", customerID)
	pg, err := orm.Paginate(q, p, "id DESC", &out, orm.Preload("Details"))
	return out, pg, err
}

// Paginate lists every order, optionally filtered by status.
func (r *OrderRepository) Paginate(ctx context.Context, status string, p orm.Page) ([]models.Order, orm.Pagination, error) {
	var out []models.Order
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	pg, err := orm.Paginate(q, p, "id DESC", &out, orm.Preload("Customer", customerColumns))
	return out, pg, err
}

func (r *OrderRepository) SetStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{ID: id}).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReferenceUsed reports whether a payment already carries reference.
func (r *OrderRepository) ReferenceUsed(ctx context.Context, reference string) (bool, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *OrderRepository) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func customerColumns(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }
