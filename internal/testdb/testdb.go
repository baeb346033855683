// Package testdb opens a migrated in-memory sqlite database per test and
// creates common fixtures.
package testdb

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	_ "github.com/shashiranjanraj/wellness360/database/migrations"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/database"
	"github.com/shashiranjanraj/wellness360/pkg/migration"
)

// Open returns a fresh database with every migration applied.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := database.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("testdb: open: %v", err)
	}
	if _, err := migration.New(db, io.Discard).Run(); err != nil {
		t.Fatalf("testdb: migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Customer inserts a customer with password "secret1".
func Customer(t testing.TB, db *gorm.DB, email string, role int) models.Customer {
	t.Helper()
	hash, err := auth.HashPassword("secret1")
	if err != nil {
		t.Fatalf("testdb: hash: %v", err)
	}
	c := models.Customer{Name: strings.Split(email, "@")[0], Email: email, Password: hash, Role: role}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("testdb: create customer: %v", err)
	}
	return c
}

// Product inserts a product in a category of the given name.
func Product(t testing.TB, db *gorm.DB, category, title, price string, stock int) models.Product {
	t.Helper()
	var cat models.Category
	if err := db.Where(models.Category{Name: category}).FirstOrCreate(&cat).Error; err != nil {
		t.Fatalf("testdb: category: %v", err)
	}
	p := models.Product{CategoryID: cat.ID, Title: title, Price: decimal.RequireFromString(price), Stock: stock}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("testdb: create product: %v", err)
	}
	return p
}
