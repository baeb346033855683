package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/gosimple/slug"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/metrics"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

// MaxPDFBytes caps an article upload.
const MaxPDFBytes = 20 << 20

var pdfMagic = []byte("%PDF")

// ArticleInput is the admin form. On update, empty fields keep their
// current value.
type ArticleInput struct {
	Title      string `form:"title" json:"title" validate:"max=255"`
	Author     string `form:"author" json:"author" validate:"max=255"`
	CategoryID uint   `form:"category_id" json:"category_id"`
}

// Viewer identifies who opened an article.
type Viewer struct {
	CustomerID uint
	IP         string
}

// Hub is the wellness hub landing aggregate.
type Hub struct {
	Latest     []models.Article  `json:"latest"`
	Popular    []models.Article  `json:"popular"`
	Categories []models.Category `json:"categories"`
}

type ArticleService struct {
	articles   *repositories.ArticleRepository
	categories *repositories.CategoryRepository
	disk       func() storage.Disk
}

func NewArticleService(a *repositories.ArticleRepository, c *repositories.CategoryRepository, disk func() storage.Disk) *ArticleService {
	return &ArticleService{articles: a, categories: c, disk: disk}
}

func (s *ArticleService) Search(ctx context.Context, q string, categoryID uint, p orm.Page) ([]models.Article, orm.Pagination, error) {
	return s.articles.Search(ctx, q, categoryID, p)
}

// View returns article metadata and records a view unless the id is in
// seen (the session's viewed_articles). recorded reports whether a view
// was written so the caller can update the session.
func (s *ArticleService) View(ctx context.Context, id uint, who Viewer, seen []uint) (a models.Article, recorded bool, err error) {
	a, err = s.articles.Find(ctx, id)
	if err != nil {
		return a, false, notFound(err, "Article not found.")
	}
	if slices.Contains(seen, id) {
		return a, false, nil
	}
	v := models.ArticleView{ArticleID: id, IPAddress: who.IP}
	if who.CustomerID != 0 {
		cid := who.CustomerID
		v.CustomerID = &cid
	}
	if err := s.articles.RecordView(ctx, &v); err != nil {
		logger.WithCtx(ctx).Warn("article view not recorded", "article_id", id, "error", err)
		return a, false, nil
	}
	metrics.ArticleViews.Inc()
	a.ViewCount++
	return a, true, nil
}

// PDF loads the article including its document.
func (s *ArticleService) PDF(ctx context.Context, id uint) (models.Article, error) {
	a, err := s.articles.FindWithBody(ctx, id)
	if err != nil {
		return a, notFound(err, "Article not found.")
	}
	if len(a.Body) == 0 {
		return a, apperr.NotFoundf("This article has no document.")
	}
	return a, nil
}

func (s *ArticleService) Hub(ctx context.Context) (Hub, error) {
	latest, err := s.articles.Latest(ctx, 6)
	if err != nil {
		return Hub{}, err
	}
	popular, err := s.articles.Popular(ctx, 5)
	if err != nil {
		return Hub{}, err
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return Hub{}, err
	}
	return Hub{Latest: latest, Popular: popular, Categories: cats}, nil
}

// Create stores a new article. pdf is required; image is optional.
func (s *ArticleService) Create(ctx context.Context, adminID uint, in ArticleInput, pdf *Upload, image *Upload) (models.Article, error) {
	errs := map[string]string{}
	if in.Title == "" {
		errs["title"] = "The title field is required."
	}
	if in.CategoryID == 0 {
		errs["category_id"] = "The category_id field is required."
	}
	if pdf == nil {
		errs["pdf"] = "The pdf field is required."
	}
	if len(errs) > 0 {
		return models.Article{}, apperr.Invalid(errs)
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return models.Article{}, err
	}
	body, err := readPDF(*pdf)
	if err != nil {
		return models.Article{}, err
	}
	sl, err := uniqueSlug(ctx, in.Title, 0, s.articles.SlugTaken)
	if err != nil {
		return models.Article{}, err
	}
	a := models.Article{
		Title:      in.Title,
		Slug:       sl,
		Author:     in.Author,
		CategoryID: in.CategoryID,
		Body:       body,
		BodySize:   int64(len(body)),
		CreatedBy:  adminID,
	}
	if err := s.articles.Create(ctx, &a); err != nil {
		return a, fmt.Errorf("create article: %w", err)
	}
	if image != nil {
		if err := s.setImage(ctx, &a, *image); err != nil {
			return a, err
		}
	}
	logger.WithCtx(ctx).Info("article created", "article_id", a.ID, "bytes", a.BodySize)
	return s.find(ctx, a.ID)
}

// Update changes the given fields and optionally replaces the document
// or the image.
func (s *ArticleService) Update(ctx context.Context, id uint, in ArticleInput, pdf *Upload, image *Upload) (models.Article, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return a, err
	}
	fields := map[string]any{}
	if in.Title != "" && in.Title != a.Title {
		sl, err := uniqueSlug(ctx, in.Title, id, s.articles.SlugTaken)
		if err != nil {
			return a, err
		}
		fields["title"], fields["slug"] = in.Title, sl
	}
	if in.Author != "" {
		fields["author"] = in.Author
	}
	if in.CategoryID != 0 {
		if err := s.checkCategory(ctx, in.CategoryID); err != nil {
			return a, err
		}
		fields["category_id"] = in.CategoryID
	}
	if pdf != nil {
		body, err := readPDF(*pdf)
		if err != nil {
			return a, err
		}
		fields["body"], fields["body_size"] = body, int64(len(body))
	}
	if len(fields) > 0 {
		if err := s.articles.UpdateFields(ctx, id, fields); err != nil {
			return a, fmt.Errorf("update article: %w", err)
		}
	}
	if image != nil {
		if err := s.setImage(ctx, &a, *image); err != nil {
			return a, err
		}
	}
	return s.find(ctx, id)
}

func (s *ArticleService) Delete(ctx context.Context, id uint) error {
	a, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if err := s.disk().DeleteDirectory(ctx, fmt.Sprintf("u%d/a%d", a.CreatedBy, a.ID)); err != nil {
		logger.WithCtx(ctx).Warn("article upload cleanup failed", "article_id", id, "error", err)
	}
	return nil
}

func (s *ArticleService) find(ctx context.Context, id uint) (models.Article, error) {
	a, err := s.articles.Find(ctx, id)
	return a, notFound(err, "Article not found.")
}

func (s *ArticleService) checkCategory(ctx context.Context, id uint) error {
	ok, err := s.categories.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Invalid(map[string]string{"category_id": "The selected category does not exist."})
	}
	return nil
}

func (s *ArticleService) setImage(ctx context.Context, a *models.Article, up Upload) error {
	disk := s.disk()
	path, err := storeImage(ctx, disk, fmt.Sprintf("u%d/a%d", a.CreatedBy, a.ID), up)
	if err != nil {
		return err
	}
	if err := s.articles.UpdateFields(ctx, a.ID, map[string]any{"image_path": path}); err != nil {
		removeUpload(ctx, disk, path)
		return fmt.Errorf("set article image: %w", err)
	}
	removeUpload(ctx, disk, a.ImagePath)
	a.ImagePath = path
	return nil
}

func readPDF(up Upload) ([]byte, error) {
	if up.Size > MaxPDFBytes {
		return nil, apperr.Invalid(map[string]string{"pdf": "The PDF must not exceed 20 MB."})
	}
	body, err := io.ReadAll(io.LimitReader(up.Reader, MaxPDFBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if len(body) > MaxPDFBytes {
		return nil, apperr.Invalid(map[string]string{"pdf": "The PDF must not exceed 20 MB."})
	}
	if !bytes.HasPrefix(body, pdfMagic) {
		return nil, apperr.Invalid(map[string]string{"pdf": "The file must be a PDF document."})
	}
	return body, nil
}

// uniqueSlug slugifies title and appends -2, -3... until taken reports
// the slug free.
func uniqueSlug(ctx context.Context, title string, exceptID uint, taken func(context.Context, string, uint) (bool, error)) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "item"
	}
	candidate := base
	for n := 2; ; n++ {
		used, err := taken(ctx, candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
