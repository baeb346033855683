package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/database"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

const (
	categoriesCacheKey = "wellness:catalog:categories"
	categoriesCacheTTL = 5 * time.Minute
	relatedLimit       = 4
	featuredLimit      = 8
)

// ProductInput is the admin create/update payload.
type ProductInput struct {
	CategoryID  uint        `json:"product_cat" validate:"required,gt=0"`
	VendorID    *uint       `json:"product_vendor"`
	Title       string      `json:"product_title" validate:"required,max=255"`
	Price       json.Number `json:"product_price" validate:"required,money"`
	Description string      `json:"product_desc"`
	Keywords    string      `json:"product_keywords" validate:"max=255"`
	Stock       int         `json:"stock" validate:"gte=0"`
}

type NameInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

type VendorInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"nullable,email"`
	Contact string `json:"contact" validate:"max=50"`
	Stock   int    `json:"stock" validate:"gte=0"`
}

// ProductDetail is one product and its neighbours in the category.
type ProductDetail struct {
	Product models.Product   `json:"product"`
	Related []models.Product `json:"related"`
}

// Shop is the shop landing aggregate.
type Shop struct {
	Featured   []models.Product  `json:"featured"`
	Categories []models.Category `json:"categories"`
	Vendors    []models.Vendor   `json:"vendors"`
}

type CatalogService struct {
	categories *repositories.CategoryRepository
	vendors    *repositories.VendorRepository
	products   *repositories.ProductRepository
	disk       func() storage.Disk
}

func NewCatalogService(c *repositories.CategoryRepository, v *repositories.VendorRepository, p *repositories.ProductRepository, disk func() storage.Disk) *CatalogService {
	return &CatalogService{categories: c, vendors: v, products: p, disk: disk}
}

func (s *CatalogService) Products(ctx context.Context, f repositories.ProductFilter, p orm.Page) ([]models.Product, orm.Pagination, error) {
	if f.Sort != "" && !repositories.ProductSortValid(f.Sort) {
		return nil, orm.Pagination{}, apperr.Invalid(map[string]string{"sort": "The sort must be one of newest, price_asc, price_desc, title."})
	}
	return s.products.Search(ctx, f, p)
}

func (s *CatalogService) Product(ctx context.Context, id uint) (ProductDetail, error) {
	p, err := s.products.Find(ctx, id)
	if err != nil {
		return ProductDetail{}, notFound(err, "Product not found.")
	}
	related, err := s.products.Related(ctx, p, relatedLimit)
	if err != nil {
		return ProductDetail{}, err
	}
	return ProductDetail{Product: p, Related: related}, nil
}

// Categories is served from the cache for five minutes.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := orm.Remember(ctx, categoriesCacheKey, categoriesCacheTTL, &out, func() (err error) {
		out, err = s.categories.List(ctx)
		return err
	})
	return out, err
}

func (s *CatalogService) Vendors(ctx context.Context) ([]models.Vendor, error) {
	return s.vendors.List(ctx)
}

func (s *CatalogService) Shop(ctx context.Context) (Shop, error) {
	featured, err := s.products.Latest(ctx, featuredLimit)
	if err != nil {
		return Shop{}, err
	}
	cats, err := s.Categories(ctx)
	if err != nil {
		return Shop{}, err
	}
	vendors, err := s.vendors.List(ctx)
	if err != nil {
		return Shop{}, err
	}
	return Shop{Featured: featured, Categories: cats, Vendors: vendors}, nil
}

// ─── Admin: products ────────────────────────────────────────────────────────

func (s *CatalogService) CreateProduct(ctx context.Context, adminID uint, in ProductInput) (models.Product, error) {
	p := models.Product{CreatedBy: adminID}
	if err := s.apply(ctx, &p, in); err != nil {
		return p, err
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return p, fmt.Errorf("create product: %w", err)
	}
	s.forgetCategories(ctx)
	return s.reload(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (models.Product, error) {
	p, err := s.products.Find(ctx, id)
	if err != nil {
		return p, notFound(err, "Product not found.")
	}
	if err := s.apply(ctx, &p, in); err != nil {
		return p, err
	}
	p.Category, p.Vendor = nil, nil
	if err := s.products.Save(ctx, &p); err != nil {
		return p, fmt.Errorf("update product: %w", err)
	}
	s.forgetCategories(ctx)
	return s.reload(ctx, id)
}

func (s *CatalogService) apply(ctx context.Context, p *models.Product, in ProductInput) error {
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price.String()))
	if err != nil {
		return apperr.Invalid(map[string]string{"product_price": "The product_price field must be numeric."})
	}
	if ok, err := s.categories.Exists(ctx, in.CategoryID); err != nil {
		return err
	} else if !ok {
		return apperr.Invalid(map[string]string{"product_cat": "The selected category does not exist."})
	}
	if in.VendorID != nil && *in.VendorID != 0 {
		if ok, err := s.vendors.Exists(ctx, *in.VendorID); err != nil {
			return err
		} else if !ok {
			return apperr.Invalid(map[string]string{"product_vendor": "The selected vendor does not exist."})
		}
		vid := *in.VendorID
		p.VendorID = &vid
	} else {
		p.VendorID = nil
	}
	p.CategoryID = in.CategoryID
	p.Title = in.Title
	p.Price = price.Round(2)
	p.Description = in.Description
	p.Keywords = in.Keywords
	p.Stock = in.Stock
	return nil
}

func (s *CatalogService) reload(ctx context.Context, id uint) (models.Product, error) {
	p, err := s.products.Find(ctx, id)
	return p, notFound(err, "Product not found.")
}

// DeleteProduct removes the product and, best effort, its upload folder.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	p, err := s.products.Find(ctx, id)
	if err != nil {
		return notFound(err, "Product not found.")
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.forgetCategories(ctx)
	if err := s.disk().DeleteDirectory(ctx, productDir(p.CreatedBy, p.ID)); err != nil {
		logger.WithCtx(ctx).Warn("product upload cleanup failed", "product_id", id, "error", err)
	}
	return nil
}

func (s *CatalogService) SetProductImage(ctx context.Context, id uint, up Upload) (models.Product, error) {
	p, err := s.products.Find(ctx, id)
	if err != nil {
		return p, notFound(err, "Product not found.")
	}
	disk := s.disk()
	path, err := storeImage(ctx, disk, productDir(p.CreatedBy, p.ID), up)
	if err != nil {
		return p, err
	}
	if err := s.products.SetImage(ctx, id, path); err != nil {
		removeUpload(ctx, disk, path)
		return p, notFound(err, "Product not found.")
	}
	removeUpload(ctx, disk, p.ImagePath)
	p.ImagePath = path
	return p, nil
}

// ─── Admin: categories and vendors ──────────────────────────────────────────

func (s *CatalogService) CreateCategory(ctx context.Context, in NameInput) (models.Category, error) {
	c := models.Category{Name: strings.TrimSpace(in.Name)}
	if _, found, err := s.categories.FindByName(ctx, c.Name); err != nil {
		return c, err
	} else if found {
		return c, nameTaken()
	}
	if err := s.categories.Create(ctx, &c); err != nil {
		if database.IsDuplicate(err) {
			return c, nameTaken()
		}
		return c, fmt.Errorf("create category: %w", err)
	}
	s.forgetCategories(ctx)
	return c, nil
}

func (s *CatalogService) RenameCategory(ctx context.Context, id uint, in NameInput) (models.Category, error) {
	c, err := s.categories.Find(ctx, id)
	if err != nil {
		return c, notFound(err, "Category not found.")
	}
	name := strings.TrimSpace(in.Name)
	if other, found, err := s.categories.FindByName(ctx, name); err != nil {
		return c, err
	} else if found && other.ID != id {
		return c, nameTaken()
	}
	if err := s.categories.Rename(ctx, id, name); err != nil {
		if database.IsDuplicate(err) {
			return c, nameTaken()
		}
		return c, fmt.Errorf("rename category: %w", err)
	}
	s.forgetCategories(ctx)
	c.Name = name
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.categories.Find(ctx, id); err != nil {
		return notFound(err, "Category not found.")
	}
	n, err := s.products.CountBy(ctx, "category_id", id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflictf("Category has %d product(s); move or delete them first.", n)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.forgetCategories(ctx)
	return nil
}

func (s *CatalogService) CreateVendor(ctx context.Context, in VendorInput) (models.Vendor, error) {
	v := models.Vendor{Name: strings.TrimSpace(in.Name), Email: in.Email, Contact: in.Contact, Stock: in.Stock}
	if err := s.vendors.Create(ctx, &v); err != nil {
		if database.IsDuplicate(err) {
			return v, nameTaken()
		}
		return v, fmt.Errorf("create vendor: %w", err)
	}
	return v, nil
}

func (s *CatalogService) UpdateVendor(ctx context.Context, id uint, in VendorInput) (models.Vendor, error) {
	v, err := s.vendors.Find(ctx, id)
	if err != nil {
		return v, notFound(err, "Vendor not found.")
	}
	v.Name, v.Email, v.Contact, v.Stock = strings.TrimSpace(in.Name), in.Email, in.Contact, in.Stock
	if err := s.vendors.Save(ctx, &v); err != nil {
		if database.IsDuplicate(err) {
			return v, nameTaken()
		}
		return v, fmt.Errorf("update vendor: %w", err)
	}
	return v, nil
}

func (s *CatalogService) DeleteVendor(ctx context.Context, id uint) error {
	if _, err := s.vendors.Find(ctx, id); err != nil {
		return notFound(err, "Vendor not found.")
	}
	n, err := s.products.CountBy(ctx, "vendor_id", id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflictf("Vendor has %d product(s); reassign or delete them first.", n)
	}
	if err := s.vendors.Delete(ctx, id); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("delete vendor: %w", err)
	}
	return nil
}

func (s *CatalogService) forgetCategories(ctx context.Context) { orm.Forget(ctx, categoriesCacheKey) }

func nameTaken() error {
	return apperr.Invalid(map[string]string{"name": "The name has already been taken."})
}
