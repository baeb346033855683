// Package orm holds the query helpers shared by repositories: page-based
// pagination over a gorm query and cache-aside reads through pkg/cache.
package orm

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/pkg/cache"
	"github.com/shashiranjanraj/wellness360/pkg/metrics"
)

const (
	DefaultPerPage = 12
	MaxPerPage     = 100
)

// Pagination is the page metadata returned next to list items.
type Pagination struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

// Page is a normalised page request.
type Page struct {
	Page    int
	PerPage int
}

// NewPage clamps page to >= 1 and perPage to 1..MaxPerPage.
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Page: page, PerPage: perPage}
}

func (p Page) Offset() int { return (p.Page - 1) * p.PerPage }

// Scope adjusts the page query only, never the count.
type Scope func(*gorm.DB) *gorm.DB

// Preload is a Scope loading an association, with optional conditions.
func Preload(assoc string, args ...any) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Preload(assoc, args...) }
}

// Paginate counts q, then loads one page of it into dest. q must not
// carry Order, Limit or Preload clauses; pass ordering in order and
// preloads as scopes.
func Paginate(q *gorm.DB, p Page, order string, dest any, scopes ...Scope) (Pagination, error) {
	defer metrics.ObserveDBQuery("paginate", time.Now())

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, fmt.Errorf("orm: count: %w", err)
	}
	find := q.Session(&gorm.Session{})
	if order != "" {
		find = find.Order(order)
	}
	for _, scope := range scopes {
		find = scope(find)
	}
	if err := find.Offset(p.Offset()).Limit(p.PerPage).Find(dest).Error; err != nil {
		return Pagination{}, fmt.Errorf("orm: page: %w", err)
	}

	last := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if last < 1 {
		last = 1
	}
	return Pagination{Page: p.Page, PerPage: p.PerPage, Total: total, LastPage: last}, nil
}

// Remember serves dest from the cache under key, or fills it with load
// and caches the result for ttl. Cache write failures are ignored.
func Remember(ctx context.Context, key string, ttl time.Duration, dest any, load func() error) error {
	if cache.Get(ctx, key, dest) {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	_ = cache.Set(ctx, key, dest, ttl)
	return nil
}

// Forget drops cached keys after a write.
func Forget(ctx context.Context, keys ...string) {
	_ = cache.Del(ctx, keys...)
}
