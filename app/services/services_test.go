package services

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/internal/testdb"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

type fixture struct {
	db       *gorm.DB
	disk     *storage.Local
	repos    repos
	cart     *CartService
	importer *Importer
}

type repos struct {
	categories *repositories.CategoryRepository
	vendors    *repositories.VendorRepository
	products   *repositories.ProductRepository
	carts      *repositories.CartRepository
	orders     *repositories.OrderRepository
	customers  *repositories.CustomerRepository
	reports    *repositories.MemoryImportReportStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	disk, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	r := repos{
		categories: repositories.NewCategoryRepository(db),
		vendors:    repositories.NewVendorRepository(db),
		products:   repositories.NewProductRepository(db),
		carts:      repositories.NewCartRepository(db),
		orders:     repositories.NewOrderRepository(db),
		customers:  repositories.NewCustomerRepository(db),
		reports:    repositories.NewMemoryImportReportStore(10),
	}
	diskFn := func() storage.Disk { return disk }
	im := NewImporter(r.categories, r.vendors, r.products, r.reports, diskFn)
	im.TempDir = t.TempDir()
	return &fixture{
		db:       db,
		disk:     disk,
		repos:    r,
		cart:     NewCartService(r.carts, r.products),
		importer: im,
	}
}

// zipOf builds an archive from name to content pairs.
func zipOf(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}
