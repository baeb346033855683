package services

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shashiranjanraj/wellness360/pkg/logger"
)

const templateSheet = "Products"

var templateExample = []string{"Fitness", "FlexiCo", "Resistance Bands", "24.99", "Set of five latex bands.", "bands,strength", "bands.jpg", "40"}

type columnDoc struct {
	name, description, required, example string
}

var templateDocs = []columnDoc{
	{colCategory, "Category id, or a name that is created when missing.", "Yes", "Fitness"},
	{colVendor, "Vendor id, or a name that is created when missing.", "No", "FlexiCo"},
	{colTitle, "Product title.", "Yes", "Resistance Bands"},
	{colPrice, "Unit price, a non-negative number.", "Yes", "24.99"},
	{colDesc, "Long description.", "No", "Set of five latex bands."},
	{colKeywords, "Comma separated search keywords.", "No", "bands,strength"},
	{colImage, "Image file name inside the ZIP.", "No", "bands.jpg"},
	{colStock, "Units in stock, a non-negative integer.", "No", "40"},
}

// WriteTemplateCSV writes the import header and one example row.
func WriteTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	_ = cw.Write(TemplateHeader)
	_ = cw.Write(templateExample)
	cw.Flush()
	return cw.Error()
}

// WriteTemplateXLSX writes a workbook with a styled Products sheet and
// an Instructions sheet.
func WriteTemplateXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2E7D32"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	required, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, name := range TemplateHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		label := name
		style := header
		if isRequiredColumn(name) {
			label += " *"
			style = required
		}
		_ = f.SetCellValue(templateSheet, cell, label)
		_ = f.SetCellStyle(templateSheet, cell, cell, style)
		ex, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(templateSheet, ex, templateExample[i])
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(templateSheet, col, col, 22)
	}

	const guide = "Instructions"
	if _, err := f.NewSheet(guide); err != nil {
		return err
	}
	_ = f.SetCellValue(guide, "A1", "Product bulk import")
	_ = f.SetCellValue(guide, "A2", "Save the Products sheet as CSV (or keep this workbook) and ZIP it with the images it names.")
	_ = f.SetCellValue(guide, "A3", "Columns marked * are required. Header names are matched case-insensitively.")
	for i, h := range []string{"Column", "Description", "Required", "Example"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		_ = f.SetCellValue(guide, cell, h)
		_ = f.SetCellStyle(guide, cell, cell, header)
	}
	for i, d := range templateDocs {
		row := 6 + i
		_ = f.SetCellValue(guide, fmt.Sprintf("A%d", row), d.name)
		_ = f.SetCellValue(guide, fmt.Sprintf("B%d", row), d.description)
		_ = f.SetCellValue(guide, fmt.Sprintf("C%d", row), d.required)
		_ = f.SetCellValue(guide, fmt.Sprintf("D%d", row), d.example)
	}
	_ = f.SetColWidth(guide, "A", "A", 22)
	_ = f.SetColWidth(guide, "B", "B", 60)
	_ = f.SetColWidth(guide, "C", "D", 18)

	return f.Write(w)
}

// exportRef is the import value that resolves back to the same row.
func exportRef(id uint, name string) string {
	if _, numeric := parseID(strings.TrimSpace(name)); numeric {
		return strconv.FormatUint(uint64(id), 10)
	}
	return name
}

func isRequiredColumn(name string) bool {
	for _, c := range requiredColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Export writes every product as a re-importable ZIP: products.csv in the
// template schema, with category and vendor names, plus images/. A name
// the importer would read as an id is exported as the id instead.
func (im *Importer) Export(ctx context.Context, w io.Writer) error {
	products, err := im.products.All(ctx)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	sheet, err := zw.Create("products.csv")
	if err != nil {
		return err
	}
	cw := csv.NewWriter(sheet)
	_ = cw.Write(TemplateHeader)

	type pending struct{ key, name string }
	var images []pending
	disk := im.disk()
	for _, p := range products {
		var category, vendor string
		if p.Category != nil {
			category = exportRef(p.Category.ID, p.Category.Name)
		}
		if p.Vendor != nil {
			vendor = exportRef(p.Vendor.ID, p.Vendor.Name)
		}
		var image string
		if key, ok := strings.CutPrefix(p.ImagePath, UploadsPrefix); ok && key != "" && disk.Exists(ctx, key) {
			image = fmt.Sprintf("p%d_%s", p.ID, path.Base(key))
			images = append(images, pending{key: key, name: image})
		}
		_ = cw.Write([]string{
			category, vendor, p.Title, p.Price.StringFixed(2),
			p.Description, p.Keywords, image, strconv.Itoa(p.Stock),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := disk.GetStream(ctx, img.key)
		if err != nil {
			logger.WithCtx(ctx).Warn("export: image missing", "key", img.key, "error", err)
			continue
		}
		dst, err := zw.Create("images/" + img.name)
		if err == nil {
			_, err = io.Copy(dst, src)
		}
		src.Close()
		if err != nil {
			return err
		}
	}
	return zw.Close()
}
