package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/internal/testdb"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

func article(t *testing.T, db *gorm.DB, title string) models.Article {
	t.Helper()
	cat := models.Category{Name: "Wellness"}
	require.NoError(t, db.Where(cat).FirstOrCreate(&cat).Error)
	a := models.Article{Title: title, Slug: strings.ToLower(title), CategoryID: cat.ID, Body: []byte("%PDF-1.4"), BodySize: 8}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func TestArticleViewCountsOncePerSession(t *testing.T) {
	f := newFixture(t)
	svc := NewArticleService(repositories.NewArticleRepository(f.db), f.repos.categories, func() storage.Disk { return f.disk })
	a := article(t, f.db, "Sleep")
	ctx := context.Background()

	tests := []struct {
		name     string
		seen     []uint
		recorded bool
		count    int64
	}{
		{"first visit", nil, true, 1},
		{"same session", []uint{a.ID}, false, 1},
		{"session with other articles", []uint{a.ID + 100}, true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, recorded, err := svc.View(ctx, a.ID, Viewer{IP: "10.0.0.1"}, tt.seen)
			require.NoError(t, err)
			assert.Equal(t, tt.recorded, recorded)
			assert.Equal(t, tt.count, got.ViewCount)

			var stored models.Article
			require.NoError(t, f.db.First(&stored, a.ID).Error)
			assert.Equal(t, tt.count, stored.ViewCount)

			var views int64
			f.db.Model(&models.ArticleView{}).Where("article_id = ?", a.ID).Count(&views)
			assert.Equal(t, tt.count, views)
		})
	}

	_, _, err := svc.View(ctx, a.ID+999, Viewer{IP: "10.0.0.1"}, nil)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestReadPDF(t *testing.T) {
	huge := append([]byte("%PDF-1.7\n"), make([]byte, MaxPDFBytes)...)

	tests := []struct {
		name string
		up   Upload
		want string
	}{
		{"pdf", Upload{Filename: "a.pdf", Size: 12, Reader: strings.NewReader("%PDF-1.7\n...")}, ""},
		{"html renamed to pdf", Upload{Filename: "a.pdf", Size: 6, Reader: strings.NewReader("<html>")}, "The file must be a PDF document."},
		{"empty", Upload{Filename: "a.pdf", Reader: strings.NewReader("")}, "The file must be a PDF document."},
		{"declared size over cap", Upload{Filename: "a.pdf", Size: MaxPDFBytes + 1, Reader: strings.NewReader("%PDF")}, "The PDF must not exceed 20 MB."},
		{"body over cap", Upload{Filename: "a.pdf", Reader: bytes.NewReader(huge)}, "The PDF must not exceed 20 MB."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := readPDF(tt.up)
			if tt.want == "" {
				require.NoError(t, err)
				assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
				return
			}
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperr.Validation, ae.Kind)
			assert.Equal(t, tt.want, ae.Fields["pdf"])
		})
	}
}

func TestDiscussionDeleteRequiresAuthorOrAdmin(t *testing.T) {
	db := testdb.Open(t)
	author := testdb.Customer(t, db, "ada@example.com", auth.RoleCustomer)
	other := testdb.Customer(t, db, "kofi@example.com", auth.RoleCustomer)
	admin := testdb.Customer(t, db, "ama@example.com", auth.RoleAdmin)
	svc := NewCommunityService(repositories.NewCommunityRepository(db), nil)

	tests := []struct {
		name    string
		actor   models.Customer
		allowed bool
	}{
		{"another member", other, false},
		{"author", author, true},
		{"admin", admin, true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := models.Discussion{CustomerID: author.ID, Title: fmt.Sprintf("Topic %d", i), Body: "body"}
			require.NoError(t, db.Create(&d).Error)
			require.NoError(t, db.Create(&models.Reply{DiscussionID: d.ID, CustomerID: other.ID, Body: "reply"}).Error)

			err := svc.Delete(context.Background(), identityOf(tt.actor), d.ID)
			var n int64
			db.Model(&models.Discussion{}).Where("id = ?", d.ID).Count(&n)
			if tt.allowed {
				require.NoError(t, err)
				assert.Zero(t, n)
				return
			}
			assert.True(t, apperr.Is(err, apperr.Forbidden))
			assert.EqualValues(t, 1, n)
		})
	}

	err := svc.Delete(context.Background(), identityOf(admin), 9999)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}
