package controllers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/ctx"
)

// CatalogAdminController manages products, categories and vendors.
type CatalogAdminController struct {
	catalog *services.CatalogService
}

func NewCatalogAdminController(s *services.CatalogService) *CatalogAdminController {
	return &CatalogAdminController{catalog: s}
}

func (ac *CatalogAdminController) CreateProduct(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := ac.catalog.CreateProduct(c.Context(), c.Identity().CustomerID, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(p)
}

func (ac *CatalogAdminController) UpdateProduct(c *ctx.Context) {
	id, ok := paramID(c, "id", "Product")
	if !ok {
		return
	}
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := ac.catalog.UpdateProduct(c.Context(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (ac *CatalogAdminController) DeleteProduct(c *ctx.Context) {
	id, ok := paramID(c, "id", "Product")
	if !ok {
		return
	}
	if err := ac.catalog.DeleteProduct(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}

func (ac *CatalogAdminController) ProductImage(c *ctx.Context) {
	id, ok := paramID(c, "id", "Product")
	if !ok {
		return
	}
	up, done, err := formFile(c, "image")
	defer done()
	if err != nil {
		c.Error(http.StatusBadRequest, "Invalid upload.")
		return
	}
	if up == nil {
		c.ValidationError(map[string]string{"image": "The image field is required."})
		return
	}
	p, err := ac.catalog.SetProductImage(c.Context(), id, *up)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (ac *CatalogAdminController) CreateCategory(c *ctx.Context) {
	var in services.NameInput
	if !c.BindJSON(&in) {
		return
	}
	cat, err := ac.catalog.CreateCategory(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(cat)
}

func (ac *CatalogAdminController) RenameCategory(c *ctx.Context) {
	id, ok := paramID(c, "id", "Category")
	if !ok {
		return
	}
	var in services.NameInput
	if !c.BindJSON(&in) {
		return
	}
	cat, err := ac.catalog.RenameCategory(c.Context(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cat)
}

func (ac *CatalogAdminController) DeleteCategory(c *ctx.Context) {
	id, ok := paramID(c, "id", "Category")
	if !ok {
		return
	}
	if err := ac.catalog.DeleteCategory(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}

func (ac *CatalogAdminController) CreateVendor(c *ctx.Context) {
	var in services.VendorInput
	if !c.BindJSON(&in) {
		return
	}
	v, err := ac.catalog.CreateVendor(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(v)
}

func (ac *CatalogAdminController) UpdateVendor(c *ctx.Context) {
	id, ok := paramID(c, "id", "Vendor")
	if !ok {
		return
	}
	var in services.VendorInput
	if !c.BindJSON(&in) {
		return
	}
	v, err := ac.catalog.UpdateVendor(c.Context(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(v)
}

func (ac *CatalogAdminController) DeleteVendor(c *ctx.Context) {
	id, ok := paramID(c, "id", "Vendor")
	if !ok {
		return
	}
	if err := ac.catalog.DeleteVendor(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}

// ImportController runs bulk uploads and serves the template and export.
type ImportController struct {
	importer *services.Importer
}

func NewImportController(im *services.Importer) *ImportController {
	return &ImportController{importer: im}
}

// Upload accepts multipart field zip_file.
func (ic *ImportController) Upload(c *ctx.Context) {
	limit := config.ImportMaxBytes()
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, limit+1<<20)
	if err := c.R.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.Error(http.StatusRequestEntityTooLarge, "The ZIP file is too large.")
			return
		}
		c.Error(http.StatusBadRequest, "No ZIP file uploaded.")
		return
	}
	f, hdr, err := c.R.FormFile("zip_file")
	if err != nil {
		c.Error(http.StatusBadRequest, "No ZIP file uploaded.")
		return
	}
	defer f.Close()
	if hdr.Size > limit {
		c.Error(http.StatusRequestEntityTooLarge, "The ZIP file is too large.")
		return
	}

	ra, ok := f.(io.ReaderAt)
	if !ok {
		buf, err := io.ReadAll(f)
		if err != nil {
			c.Fail(err)
			return
		}
		ra = bytes.NewReader(buf)
	}
	res, err := ic.importer.Import(c.Context(), c.Identity().CustomerID, filepath.Base(hdr.Filename), ra, hdr.Size)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}

func (ic *ImportController) Template(c *ctx.Context) {
	var buf bytes.Buffer
	switch strings.ToLower(c.Query("format")) {
	case "xlsx":
		if err := services.WriteTemplateXLSX(&buf); err != nil {
			c.Fail(err)
			return
		}
		c.Attachment("product_import_template.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", &buf)
	case "", "csv":
		if err := services.WriteTemplateCSV(&buf); err != nil {
			c.Fail(err)
			return
		}
		c.Attachment("product_import_template.csv", "text/csv; charset=utf-8", &buf)
	default:
		c.ValidationError(map[string]string{"format": "The format must be csv or xlsx."})
	}
}

// Export streams the catalog as a re-importable ZIP.
func (ic *ImportController) Export(c *ctx.Context) {
	pr, pw := io.Pipe()
	defer pr.Close()
	go func() {
		pw.CloseWithError(ic.importer.Export(c.Context(), pw))
	}()
	name := "products-" + time.Now().Format("20060102-150405") + ".zip"
	c.Attachment(name, "application/zip", pr)
}

func (ic *ImportController) Reports(c *ctx.Context) {
	reports, err := ic.importer.Recent(c.Context(), c.QueryInt("limit", 20))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(reports)
}

// UserAdminController manages customer accounts and roles.
type UserAdminController struct {
	users *services.UserService
}

func NewUserAdminController(s *services.UserService) *UserAdminController {
	return &UserAdminController{users: s}
}

func (uc *UserAdminController) Index(c *ctx.Context) {
	items, page, err := uc.users.List(c.Context(), c.Query("q"), c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(items, page)
}

func (uc *UserAdminController) SetRole(c *ctx.Context) {
	id, ok := paramID(c, "id", "User")
	if !ok {
		return
	}
	var in services.RoleInput
	if !c.BindJSON(&in) {
		return
	}
	u, err := uc.users.SetRole(c.Context(), c.Identity(), id, in.Role)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(u)
}

func (uc *UserAdminController) Delete(c *ctx.Context) {
	id, ok := paramID(c, "id", "User")
	if !ok {
		return
	}
	if err := uc.users.Delete(c.Context(), c.Identity(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}
