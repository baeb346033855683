package repositories

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/internal/testdb"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
)

func TestCategoryFindOrCreateIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(testdb.Open(t))

	id, created, err := repo.FindOrCreate(ctx, "  Apparel ")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.FindOrCreate(ctx, "APPAREL")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	c, err := repo.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Apparel", c.Name)
}

func TestFindOrCreateRecoversFromLostRace(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)

	// Another importer inserts "Herbal" between our lookup and our insert.
	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:begin_transaction").Register("test:race", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "categories" {
			return
		}
		raced = true
		require.NoError(t, db.Exec("INSERT INTO categories (name) VALUES (?)", "Herbal").Error)
	}))

	id, created, err := NewCategoryRepository(db).FindOrCreate(ctx, "Herbal")
	require.NoError(t, err)
	assert.True(t, raced)
	assert.False(t, created)

	var n int64
	require.NoError(t, db.Model(&models.Category{}).Where("name = ?", "Herbal").Count(&n).Error)
	assert.Equal(t, int64(1), n)

	var c models.Category
	require.NoError(t, db.First(&c, id).Error)
	assert.Equal(t, "Herbal", c.Name)
}

func TestCategoryListCountsProducts(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	testdb.Product(t, db, "Fitness", "Mat", "10.00", 1)
	testdb.Product(t, db, "Fitness", "Bands", "5.00", 1)
	testdb.Product(t, db, "Beauty", "Shea", "2.00", 1)

	cats, err := NewCategoryRepository(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Beauty", cats[0].Name)
	assert.Equal(t, int64(1), cats[0].ProductCount)
	assert.Equal(t, int64(2), cats[1].ProductCount)
}

func TestProductSearchAndDecrement(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	mat := testdb.Product(t, db, "Fitness", "Yoga Mat", "120.00", 3)
	testdb.Product(t, db, "Fitness", "Resistance Bands", "65.00", 5)
	repo := NewProductRepository(db)

	min := 100.0
	items, pg, err := repo.Search(ctx, ProductFilter{MinPrice: &min}, orm.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), pg.Total)
	assert.Equal(t, "Fitness", items[0].Category.Name)

	items, _, err = repo.Search(ctx, ProductFilter{Query: "BANDS", Sort: "price_asc"}, orm.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Resistance Bands", items[0].Title)

	ok, err := repo.DecrementStock(ctx, mat.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.DecrementStock(ctx, mat.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "only 1 left")

	p, err := repo.Find(ctx, mat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
}

func TestCartPurgeGuests(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	p := testdb.Product(t, db, "Fitness", "Mat", "10.00", 5)
	c := testdb.Customer(t, db, "ama@example.com", auth.RoleCustomer)
	repo := NewCartRepository(db)

	require.NoError(t, repo.Save(ctx, &models.CartItem{Owner: models.GuestOwner("10.0.0.1"), IPAddress: "10.0.0.1", ProductID: p.ID, Quantity: 1}))
	require.NoError(t, repo.Save(ctx, &models.CartItem{Owner: models.CustomerOwner(c.ID), CustomerID: &c.ID, ProductID: p.ID, Quantity: 1}))
	old := time.Now().Add(-8 * 24 * time.Hour)
	require.NoError(t, db.Model(&models.CartItem{}).Where("1 = 1").Update("updated_at", old).Error)

	n, err := repo.PurgeGuests(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items, err := repo.Items(ctx, models.CustomerOwner(c.ID))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestWorkshopRegisterCapacity(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	a := testdb.Customer(t, db, "a@example.com", auth.RoleCustomer)
	b := testdb.Customer(t, db, "b@example.com", auth.RoleCustomer)
	repo := NewWorkshopRepository(db)
	w := models.Workshop{Title: "Breathwork", Slug: "breathwork", StartsAt: time.Now().Add(48 * time.Hour), Capacity: 1}
	require.NoError(t, repo.Create(ctx, &w))

	out, err := repo.Register(ctx, w.ID, a.ID, w.Capacity)
	require.NoError(t, err)
	assert.Equal(t, Registered, out)

	out, err = repo.Register(ctx, w.ID, a.ID, w.Capacity)
	require.NoError(t, err)
	assert.Equal(t, AlreadyRegistered, out)

	out, err = repo.Register(ctx, w.ID, b.ID, w.Capacity)
	require.NoError(t, err)
	assert.Equal(t, FullyBooked, out)

	got, err := repo.Find(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Registered)
	assert.Equal(t, int64(0), got.SeatsLeft)
}

func TestWorkshopRegisterLocksWorkshopRow(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	repo := NewWorkshopRepository(db)
	w := models.Workshop{Title: "Yin", Slug: "yin", StartsAt: time.Now().Add(48 * time.Hour), Capacity: 2}
	require.NoError(t, repo.Create(ctx, &w))

	var locked atomic.Bool
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:locking", func(tx *gorm.DB) {
		if tx.Statement.Table != "workshops" {
			return
		}
		if c, ok := tx.Statement.Clauses["FOR"]; ok {
			if l, ok := c.Expression.(clause.Locking); ok && l.Strength == "UPDATE" {
				locked.Store(true)
			}
		}
	}))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[RegistrationOutcome]int{}
	)
	for i := range 5 {
		c := testdb.Customer(t, db, fmt.Sprintf("c%d@example.com", i), auth.RoleCustomer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := repo.Register(ctx, w.ID, c.ID, w.Capacity)
			assert.NoError(t, err)
			mu.Lock()
			outcomes[out]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.True(t, locked.Load())
	assert.Equal(t, 2, outcomes[Registered])
	assert.Equal(t, 3, outcomes[FullyBooked])

	_, err := repo.Register(ctx, w.ID+1, 1, 10)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMemoryImportReportStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryImportReportStore(2)
	base := time.Now()
	for i, name := range []string{"a.zip", "b.zip", "c.zip"} {
		require.NoError(t, s.Save(ctx, models.ImportReport{ID: name, ZipName: name, CreatedAt: base.Add(time.Duration(i) * time.Second)}))
	}
	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c.zip", got[0].ZipName)
	assert.Equal(t, "b.zip", got[1].ZipName)
}
