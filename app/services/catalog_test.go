package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/internal/testdb"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

func TestDeleteRefusesReferencedCategoriesAndVendors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewCatalogService(f.repos.categories, f.repos.vendors, f.repos.products, func() storage.Disk { return f.disk })

	mat := testdb.Product(t, f.db, "Yoga", "Mat", "20.00", 5)
	empty := models.Category{Name: "Herbal"}
	require.NoError(t, f.db.Create(&empty).Error)
	brand := models.Vendor{Name: "Acme"}
	idle := models.Vendor{Name: "Idle"}
	require.NoError(t, f.db.Create(&brand).Error)
	require.NoError(t, f.db.Create(&idle).Error)
	require.NoError(t, f.db.Model(&mat).Update("vendor_id", brand.ID).Error)

	tests := []struct {
		name string
		del  func() error
		kind apperr.Kind
		msg  string
	}{
		{"category in use", func() error { return svc.DeleteCategory(ctx, mat.CategoryID) },
			apperr.Conflict, "Category has 1 product(s); move or delete them first."},
		{"vendor in use", func() error { return svc.DeleteVendor(ctx, brand.ID) },
			apperr.Conflict, "Vendor has 1 product(s); reassign or delete them first."},
		{"missing category", func() error { return svc.DeleteCategory(ctx, 9999) }, apperr.NotFound, "Category not found."},
		{"missing vendor", func() error { return svc.DeleteVendor(ctx, 9999) }, apperr.NotFound, "Vendor not found."},
		{"unused category", func() error { return svc.DeleteCategory(ctx, empty.ID) }, 0, ""},
		{"unused vendor", func() error { return svc.DeleteVendor(ctx, idle.ID) }, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.del()
			if tt.msg == "" {
				require.NoError(t, err)
				return
			}
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.kind, ae.Kind)
			assert.Equal(t, tt.msg, ae.Message)
		})
	}

	var cats, vendors int64
	f.db.Model(&models.Category{}).Where("id = ?", mat.CategoryID).Count(&cats)
	f.db.Model(&models.Vendor{}).Where("id = ?", brand.ID).Count(&vendors)
	assert.EqualValues(t, 1, cats)
	assert.EqualValues(t, 1, vendors)

	require.NoError(t, svc.DeleteProduct(ctx, mat.ID))
	require.NoError(t, svc.DeleteCategory(ctx, mat.CategoryID))
	require.NoError(t, svc.DeleteVendor(ctx, brand.ID))
}
