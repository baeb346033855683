package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/event"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/metrics"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

// ImportResult is the summary returned to the admin.
type ImportResult struct {
	ProcessedRows int      `json:"processed_rows"`
	Created       int      `json:"created"`
	Skipped       int      `json:"skipped"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	ZipName       string   `json:"zip_name"`
	CSVName       string   `json:"csv_name"`
}

// Importer creates products in bulk from a ZIP holding a CSV (or XLSX)
// sheet and the images it references.
type Importer struct {
	categories *repositories.CategoryRepository
	vendors    *repositories.VendorRepository
	products   *repositories.ProductRepository
	reports    repositories.ImportReportStore
	disk       func() storage.Disk

	// MaxExtracted caps the uncompressed archive size.
	MaxExtracted int64
	// TempDir is where scratch directories are created; "" is os.TempDir.
	TempDir string
}

func NewImporter(c *repositories.CategoryRepository, v *repositories.VendorRepository, p *repositories.ProductRepository, reports repositories.ImportReportStore, disk func() storage.Disk) *Importer {
	return &Importer{categories: c, vendors: v, products: p, reports: reports, disk: disk, MaxExtracted: 512 << 20}
}

// Import runs one bulk upload. Row failures are reported in the result;
// an error is returned only when the archive cannot be processed at all.
func (im *Importer) Import(ctx context.Context, adminID uint, zipName string, r io.ReaderAt, size int64) (ImportResult, error) {
	log := logger.WithCtx(ctx)
	z, err := zip.NewReader(r, size)
	if err != nil {
		return ImportResult{}, apperr.Wrap(apperr.Validation, err, "The uploaded file is not a valid ZIP archive.")
	}

	scratch, err := os.MkdirTemp(im.TempDir, ScratchPattern)
	if err != nil {
		return ImportResult{}, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Warn("import scratch cleanup failed", "dir", scratch, "error", err)
		}
	}()

	if err := extractZip(z, scratch, im.MaxExtracted); err != nil {
		return ImportResult{}, apperr.Wrap(apperr.Validation, err, "Failed to extract ZIP archive.")
	}

	sheet, err := locateTable(scratch, ".csv")
	if errors.Is(err, errNoTable) {
		sheet, err = locateTable(scratch, ".xlsx")
	}
	if errors.Is(err, errNoTable) {
		return ImportResult{}, apperr.Invalidf("No CSV file found in the ZIP archive.")
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("locate sheet: %w", err)
	}
	rows, err := readTable(sheet)
	if err != nil {
		return ImportResult{}, apperr.Wrap(apperr.Validation, err, "Could not read %s.", filepath.Base(sheet))
	}
	if len(rows) == 0 {
		return ImportResult{}, apperr.Invalidf("The CSV file is empty.")
	}
	cols, err := resolveColumns(rows[0])
	if err != nil {
		return ImportResult{}, err
	}
	images, err := newImageIndex(scratch)
	if err != nil {
		return ImportResult{}, fmt.Errorf("index images: %w", err)
	}

	rel, _ := filepath.Rel(scratch, sheet)
	res := ImportResult{Errors: []string{}, Warnings: []string{}, ZipName: zipName, CSVName: filepath.ToSlash(rel)}
	run := importRun{im: im, adminID: adminID, sheetDir: filepath.Dir(sheet), images: images, res: &res}
	blank := 0
	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		row := tableRow{cells: cells, cols: cols}
		if isBlankRow(row) {
			blank++
			continue
		}
		res.ProcessedRows++
		if err := run.row(ctx, i+1, row); err != nil {
			if !isRowError(err) {
				return res, err
			}
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %s", i+1, err.Error()))
		}
	}

	metrics.ImportRows.WithLabelValues("created").Add(float64(res.Created))
	metrics.ImportRows.WithLabelValues("skipped").Add(float64(res.Skipped))
	metrics.ImportRows.WithLabelValues("blank").Add(float64(blank))
	if res.Created > 0 {
		orm.Forget(ctx, categoriesCacheKey)
	}
	log.Info("bulk import finished",
		"admin_id", adminID, "zip", zipName, "sheet", res.CSVName,
		"processed", res.ProcessedRows, "created", res.Created, "skipped", res.Skipped, "warnings", len(res.Warnings))

	im.archive(ctx, adminID, res)
	event.FireAsync(ctx, event.ProductsImported, res)
	return res, nil
}

// Recent lists archived import summaries, newest first.
func (im *Importer) Recent(ctx context.Context, limit int) ([]models.ImportReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return im.reports.Recent(ctx, limit)
}

func (im *Importer) archive(ctx context.Context, adminID uint, res ImportResult) {
	if im.reports == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := im.reports.Save(actx, models.ImportReport{
		ID:            uuid.NewString(),
		AdminID:       adminID,
		ZipName:       res.ZipName,
		CSVName:       res.CSVName,
		ProcessedRows: res.ProcessedRows,
		Created:       res.Created,
		Skipped:       res.Skipped,
		Errors:        res.Errors,
		Warnings:      res.Warnings,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		logger.WithCtx(ctx).Warn("import report not archived", "error", err)
	}
}

// rowError is a per-row failure reported to the admin.
type rowError string

func (e rowError) Error() string { return string(e) }

func rowErrorf(format string, args ...any) error { return rowError(fmt.Sprintf(format, args...)) }

func isRowError(err error) bool {
	var re rowError
	return errors.As(err, &re)
}

func isBlankRow(r tableRow) bool {
	cat := r.get(colCategory)
	return r.get(colTitle) == "" && (cat == "" || cat == "0")
}

type importRun struct {
	im       *Importer
	adminID  uint
	sheetDir string
	images   *imageIndex
	res      *ImportResult
}

func (run importRun) row(ctx context.Context, n int, r tableRow) error {
	title := r.get(colTitle)
	if title == "" {
		return rowErrorf("product_title is required.")
	}
	price, err := decimal.NewFromString(r.get(colPrice))
	if err != nil {
		return rowErrorf("product_price must be numeric.")
	}
	if price.IsNegative() {
		return rowErrorf("product_price must not be negative.")
	}
	stock := 0
	if raw := r.get(colStock); raw != "" {
		stock, err = strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return rowErrorf("stock must be a non-negative integer.")
		}
	}

	var imagePath string
	if ref := r.get(colImage); ref != "" {
		p, ok := run.images.resolve(run.sheetDir, ref)
		if !ok {
			return rowErrorf("image '%s' not found in archive.", ref)
		}
		imagePath = p
	}

	categoryID, err := run.category(ctx, r.get(colCategory))
	if err != nil {
		return err
	}
	vendorID, err := run.vendor(ctx, r.get(colVendor))
	if err != nil {
		return err
	}

	p := models.Product{
		CategoryID:  categoryID,
		VendorID:    vendorID,
		Title:       title,
		Price:       price.Round(2),
		Description: r.get(colDesc),
		Keywords:    r.get(colKeywords),
		Stock:       stock,
		CreatedBy:   run.adminID,
	}
	if err := run.im.products.Create(ctx, &p); err != nil {
		logger.WithCtx(ctx).Error("import: product insert failed", "row", n, "error", err)
		return rowErrorf("could not save product.")
	}
	run.res.Created++

	if imagePath != "" {
		if err := run.copyImage(ctx, p.ID, imagePath); err != nil {
			logger.WithCtx(ctx).Warn("import: image copy failed", "row", n, "product_id", p.ID, "error", err)
			run.res.Warnings = append(run.res.Warnings, fmt.Sprintf("Row %d: product created without image (%s).", n, filepath.Base(imagePath)))
		}
	}
	return nil
}

func (run importRun) category(ctx context.Context, value string) (uint, error) {
	if value == "" || value == "0" {
		return 0, rowErrorf("product_cat is required.")
	}
	if id, ok := parseID(value); ok {
		exists, err := run.im.categories.Exists(ctx, id)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, rowErrorf("category id %d does not exist.", id)
		}
		return id, nil
	}
	id, _, err := run.im.categories.FindOrCreate(ctx, value)
	if err != nil {
		logger.WithCtx(ctx).Error("import: category create failed", "name", value, "error", err)
		return 0, rowErrorf("could not create category '%s'.", value)
	}
	return id, nil
}

func (run importRun) vendor(ctx context.Context, value string) (*uint, error) {
	if value == "" || value == "0" {
		return nil, nil
	}
	if id, ok := parseID(value); ok {
		exists, err := run.im.vendors.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, rowErrorf("vendor id %d does not exist.", id)
		}
		return &id, nil
	}
	id, _, err := run.im.vendors.FindOrCreate(ctx, value)
	if err != nil {
		logger.WithCtx(ctx).Error("import: vendor create failed", "name", value, "error", err)
		return nil, rowErrorf("could not create vendor '%s'.", value)
	}
	return &id, nil
}

func (run importRun) copyImage(ctx context.Context, productID uint, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	key := path.Join(productDir(run.adminID, productID), "image_"+uuid.NewString()+strings.ToLower(filepath.Ext(src)))
	disk := run.im.disk()
	if err := disk.PutStream(ctx, key, f); err != nil {
		return err
	}
	if err := run.im.products.SetImage(ctx, productID, UploadsPrefix+key); err != nil {
		_ = disk.Delete(ctx, key)
		return err
	}
	return nil
}

func parseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
