package seeders

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
)

func init() {
	Register("catalog", SeedCatalog)
}

var sampleProducts = []struct {
	category, vendor, title, price, keywords string
	stock                                    int
}{
	{"Supplements", "Green Leaf", "Moringa Capsules", "45.00", "moringa, immunity", 40},
	{"Supplements", "Green Leaf", "Vitamin C 1000mg", "30.50", "vitamin, immunity", 60},
	{"Fitness", "Active Ghana", "Yoga Mat", "120.00", "yoga, mat", 15},
	{"Fitness", "Active Ghana", "Resistance Bands", "65.00", "bands, strength", 25},
	{"Skincare", "Shea Naturals", "Raw Shea Butter", "25.00", "shea, skin", 80},
}

// SeedCatalog inserts sample categories, vendors and products.
func SeedCatalog(db *gorm.DB) error {
	for _, p := range sampleProducts {
		var cat models.Category
		if err := db.Where(models.Category{Name: p.category}).FirstOrCreate(&cat).Error; err != nil {
			return err
		}
		var vendor models.Vendor
		if err := db.Where(models.Vendor{Name: p.vendor}).FirstOrCreate(&vendor).Error; err != nil {
			return err
		}
		product := models.Product{
			CategoryID: cat.ID,
			VendorID:   &vendor.ID,
			Title:      p.title,
			Price:      decimal.RequireFromString(p.price),
			Keywords:   p.keywords,
			Stock:      p.stock,
		}
		if err := db.Where(models.Product{Title: p.title, CategoryID: cat.ID}).FirstOrCreate(&product).Error; err != nil {
			return err
		}
	}
	return nil
}
