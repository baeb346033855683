package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/pkg/metrics"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
)

// CategoryRepository handles categories.
type CategoryRepository struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) *CategoryRepository { return &CategoryRepository{db: db} }

func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: tx}
}

// List returns every category with its product count, by name.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.db.WithContext(ctx).Model(&models.Category{}).
		Select("categories.*, (SELECT COUNT(*) FROM products WHERE products.category_id = categories.id) AS product_count").
		Order("categories.name").
		Find(&out).Error
	return out, err
}

func (r *CategoryRepository) Find(ctx context.Context, id uint) (models.Category, error) {
	var c models.Category
	err := r.db.WithContext(ctx).First(&c, id).Error
	return c, err
}

func (r *CategoryRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// FindByName is case-insensitive.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (models.Category, bool, error) {
	var c models.Category
	ok, err := findByName(ctx, r.db, name, &c)
	return c, ok, err
}

// FindOrCreate returns the category id for name and whether it was
// created by this call.
func (r *CategoryRepository) FindOrCreate(ctx context.Context, name string) (uint, bool, error) {
	return findOrCreateByName(ctx, r.db, name,
		func(n string) *models.Category { return &models.Category{Name: n} },
		func(c *models.Category) uint { return c.ID })
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CategoryRepository) Rename(ctx context.Context, id uint, name string) error {
	return r.db.WithContext(ctx).Model(&models.Category{ID: id}).Update("name", name).Error
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, id).Error
}

// VendorRepository handles vendors.
type VendorRepository struct{ db *gorm.DB }

func NewVendorRepository(db *gorm.DB) *VendorRepository { return &VendorRepository{db: db} }

func (r *VendorRepository) WithTx(tx *gorm.DB) *VendorRepository { return &VendorRepository{db: tx} }

func (r *VendorRepository) List(ctx context.Context) ([]models.Vendor, error) {
	var out []models.Vendor
	err := r.db.WithContext(ctx).Model(&models.Vendor{}).
		Select("vendors.*, (SELECT COUNT(*) FROM products WHERE products.vendor_id = vendors.id) AS product_count").
		Order("vendors.name").
		Find(&out).Error
	return out, err
}

func (r *VendorRepository) Find(ctx context.Context, id uint) (models.Vendor, error) {
	var v models.Vendor
	err := r.db.WithContext(ctx).First(&v, id).Error
	return v, err
}

func (r *VendorRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *VendorRepository) FindOrCreate(ctx context.Context, name string) (uint, bool, error) {
	return findOrCreateByName(ctx, r.db, name,
		func(n string) *models.Vendor { return &models.Vendor{Name: n} },
		func(v *models.Vendor) uint { return v.ID })
}

func (r *VendorRepository) Create(ctx context.Context, v *models.Vendor) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VendorRepository) Save(ctx context.Context, v *models.Vendor) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *VendorRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Vendor{}, id).Error
}

// ProductFilter narrows a product search. Zero values do not filter.
type ProductFilter struct {
	Query      string
	CategoryID uint
	VendorID   uint
	MinPrice   *float64
	MaxPrice   *float64
	Sort       string
}

var productSorts = map[string]string{
	"newest":     "products.created_at DESC, products.id DESC",
	"price_asc":  "products.price ASC, products.id ASC",
	"price_desc": "products.price DESC, products.id DESC",
	"title":      "products.title ASC, products.id ASC",
}

// ProductSortValid reports whether s is a known sort key.
func ProductSortValid(s string) bool {
	_, ok := productSorts[s]
	return ok
}

// ProductRepository handles products.
type ProductRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) *ProductRepository { return &ProductRepository{db: db} }

func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository { return &ProductRepository{db: tx} }

// Search returns one page of products with category and vendor loaded.
func (r *ProductRepository) Search(ctx context.Context, f ProductFilter, p orm.Page) ([]models.Product, orm.Pagination, error) {
	defer metrics.ObserveDBQuery("products.search", time.Now())

	q := r.db.WithContext(ctx).Model(&models.Product{})
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(products.title) LIKE ? OR LOWER(products.keywords) LIKE ? OR LOWER(products.description) LIKE ?)", like, like, like)
	}
	if f.CategoryID != 0 {
		q = q.Where("products.category_id = ?", f.CategoryID)
	}
	if f.VendorID != 0 {
		q = q.Where("products.vendor_id = ?", f.VendorID)
	}
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}
	order, ok := productSorts[f.Sort]
	if !ok {
		order = productSorts["newest"]
	}

	var out []models.Product
	pg, err := orm.Paginate(q, p, order, &out, orm.Preload("Category"), orm.Preload("Vendor"))
	return out, pg, err
}

// Find loads one product with category and vendor.
func (r *ProductRepository) Find(ctx context.Context, id uint) (models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Preload("Category").Preload("Vendor").First(&p, id).Error
	return p, err
}

// FindMany loads products keyed by id.
func (r *ProductRepository) FindMany(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// Related returns up to limit other products in p's category.
func (r *ProductRepository) Related(ctx context.Context, p models.Product, limit int) ([]models.Product, error) {
	var out []models.Product
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND id <> ?", p.CategoryID, p.ID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Latest returns the newest in-stock products.
func (r *ProductRepository) Latest(ctx context.Context, limit int) ([]models.Product, error) {
	var out []models.Product
	err := r.db.WithContext(ctx).Preload("Category").
		Where("stock > 0").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// All returns every product with names loaded, by id. Used by export.
func (r *ProductRepository) All(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := r.db.WithContext(ctx).Preload("Category").Preload("Vendor").Order("id").Find(&out).Error
	return out, err
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Vendor").Create(p).Error
}

func (r *ProductRepository) Save(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Vendor").Save(p).Error
}

func (r *ProductRepository) SetImage(ctx context.Context, id uint, path string) error {
	res := r.db.WithContext(ctx).Model(&models.Product{ID: id}).Update("image_path", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

// DecrementStock subtracts qty only when enough stock remains. It reports
// whether the row was updated.
func (r *ProductRepository) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected == 1, res.Error
}

// CountBy counts products whose column equals id (category_id, vendor_id).
func (r *ProductRepository) CountBy(ctx context.Context, column string, id uint) (int64, error) {
	if column != "category_id" && column != "vendor_id" {
		return 0, errors.New("repositories: unsupported product column " + column)
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where(column+" = ?", id).Count(&n).Error
	return n, err
}
