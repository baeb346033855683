package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
)

// ArticleRepository handles articles. Reads omit the PDF body unless
// asked for it.
type ArticleRepository struct{ db *gorm.DB }

func NewArticleRepository(db *gorm.DB) *ArticleRepository { return &ArticleRepository{db: db} }

func (r *ArticleRepository) meta(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Article{}).Omit("body")
}

// Search pages articles by title/author and category.
func (r *ArticleRepository) Search(ctx context.Context, q string, categoryID uint, p orm.Page) ([]models.Article, orm.Pagination, error) {
	query := r.meta(ctx)
	if term := strings.ToLower(strings.TrimSpace(q)); term != "" {
		like := "%" + term + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(author) LIKE ?)", like, like)
	}
	if categoryID != 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	var out []models.Article
	pg, err := orm.Paginate(query, p, "created_at DESC, id DESC", &out, orm.Preload("Category"))
	return out, pg, err
}

// Find loads metadata only.
func (r *ArticleRepository) Find(ctx context.Context, id uint) (models.Article, error) {
	var a models.Article
	err := r.meta(ctx).Preload("Category").First(&a, id).Error
	return a, err
}

// FindWithBody loads the PDF too.
func (r *ArticleRepository) FindWithBody(ctx context.Context, id uint) (models.Article, error) {
	var a models.Article
	err := r.db.WithContext(ctx).First(&a, id).Error
	return a, err
}

// Latest and Popular feed the hub page.
func (r *ArticleRepository) Latest(ctx context.Context, limit int) ([]models.Article, error) {
	var out []models.Article
	err := r.meta(ctx).Preload("Category").Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *ArticleRepository) Popular(ctx context.Context, limit int) ([]models.Article, error) {
	var out []models.Article
	err := r.meta(ctx).Preload("Category").Order("view_count DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *ArticleRepository) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Article{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

func (r *ArticleRepository) Create(ctx context.Context, a *models.Article) error {
	return r.db.WithContext(ctx).Omit("Category").Create(a).Error
}

// UpdateFields writes only the given columns.
func (r *ArticleRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Article{ID: id}).Updates(fields).Error
}

func (r *ArticleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleView{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Article{}, id).Error
	})
}

// RecordView inserts the view row and bumps view_count together.
func (r *ArticleRepository) RecordView(ctx context.Context, v *models.ArticleView) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		return tx.Model(&models.Article{}).Where("id = ?", v.ArticleID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	})
}
