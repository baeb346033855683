package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shashiranjanraj/wellness360/pkg/apperr"
)

// Logical import columns.
const (
	colCategory = "product_cat"
	colVendor   = "product_vendor"
	colTitle    = "product_title"
	colPrice    = "product_price"
	colDesc     = "product_desc"
	colKeywords = "product_keywords"
	colImage    = "product_image"
	colStock    = "stock"
)

// TemplateHeader is the column order of the import template and export.
var TemplateHeader = []string{colCategory, colVendor, colTitle, colPrice, colDesc, colKeywords, colImage, colStock}

var requiredColumns = []string{colTitle, colPrice, colCategory}

var columnAliases = map[string][]string{
	colCategory: {"product_cat", "cat", "cat_id", "category", "product_category", "category_id", "category_name"},
	colVendor:   {"product_vendor", "vendor", "vendor_id", "brand", "product_brand", "brand_id", "vendor_name"},
	colTitle:    {"product_title", "title", "name", "product_name"},
	colPrice:    {"product_price", "price", "unit_price"},
	colDesc:     {"product_desc", "desc", "description", "product_description"},
	colKeywords: {"product_keywords", "keywords", "tags", "product_tags"},
	colImage:    {"product_image", "image", "image_file", "image_name", "photo", "picture"},
	colStock:    {"stock", "qty", "quantity", "product_stock", "stock_quantity", "product_qty"},
}

// aliasIndex maps every normalised alias to its logical column.
var aliasIndex = func() map[string]string {
	out := map[string]string{}
	for logical, aliases := range columnAliases {
		for _, a := range aliases {
			out[a] = logical
		}
	}
	return out
}()

var headerReplacer = strings.NewReplacer(" ", "_", "-", "_")

// normalizeHeader trims, drops a BOM and a trailing required marker,
// lower-cases, and turns spaces and dashes into underscores.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	h = strings.TrimSpace(strings.TrimSuffix(h, "*"))
	return headerReplacer.Replace(strings.ToLower(h))
}

// resolveColumns maps logical columns to their index in header. The first
// header mapping to a column wins.
func resolveColumns(header []string) (map[string]int, error) {
	cols := map[string]int{}
	for i, h := range header {
		logical, ok := aliasIndex[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := cols[logical]; !seen {
			cols[logical] = i
		}
	}
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, apperr.Invalidf("Missing required column: %s", req)
		}
	}
	return cols, nil
}

// tableRow reads cells of one data row by logical column.
type tableRow struct {
	cells []string
	cols  map[string]int
}

func (r tableRow) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

var errNoTable = errors.New("no table")

// locateTable finds the import sheet under root: a file with ext in root
// itself (lexically first), else the first one met walking subdirectories
// in lexical order.
func locateTable(root, ext string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", err
	}
	var top []string
	for _, e := range entries {
		if e.Type().IsRegular() && matchesExt(e.Name(), ext) {
			top = append(top, e.Name())
		}
	}
	if len(top) > 0 {
		sort.Strings(top)
		return filepath.Join(root, top[0]), nil
	}

	found := ""
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Type().IsRegular() && matchesExt(d.Name(), ext) {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", errNoTable
	}
	return found, nil
}

func matchesExt(name, ext string) bool {
	return !strings.HasPrefix(name, "._") && strings.EqualFold(filepath.Ext(name), ext)
}

// readTable loads every row of a CSV or XLSX file, header first.
func readTable(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, "Products") {
			sheet = name
			break
		}
	}
	return f.GetRows(sheet)
}
