// Package importer reads product rows from uploaded spreadsheets.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"shop_api/internal/model"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format, use .xlsx or .csv")
	ErrNoRows            = errors.New("spreadsheet has no data rows")
)

// Row is one data row. Cells are keyed by normalised header name; Line is the
// 1-based line of the row in the source file.
type Row struct {
	Line  int
	Cells map[string]string
}

// record is a raw row with the source line it came from.
type record struct {
	line  int
	cells []string
}

// ProductDraft is a row mapped onto product fields. Slug is empty when the
// sheet has no slug column; callers derive it from Name.
type ProductDraft struct {
	Line        int
	Name        string
	Price       float64
	Stock       int
	Description *string
	Slug        string
	CategoryID  *int64
}

// RowError points at a row that could not be mapped.
type RowError struct {
	Line  int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ReadRows parses the first sheet of an .xlsx file or a .csv file. The first
// row is the header; blank rows are dropped.
func ReadRows(filename string, r io.Reader) ([]Row, error) {
	var records []record
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, ErrNoRows
	}

	header := make([]string, len(records[0].cells))
	for i, h := range records[0].cells {
		header[i] = normaliseHeader(h)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := Row{Line: rec.line, Cells: map[string]string{}}
		blank := true
		for i, cell := range rec.cells {
			if i >= len(header) || header[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				blank = false
			}
			row.Cells[header[i]] = cell
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	// GetRows keeps empty rows in place, so the index is the sheet row.
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	records := make([]record, len(rows))
	for i, cells := range rows {
		records[i] = record{line: i + 1, cells: cells}
	}
	return records, nil
}

// readCSV tracks the line of every record; the csv reader skips empty lines.
func readCSV(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records []record
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, record{line: line, cells: cells})
	}
	return records, nil
}

// normaliseHeader maps "Category ID", "categoryId" and "category_id" to the same key.
func normaliseHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	var sb strings.Builder
	for i, r := range h {
		switch {
		case r == ' ' || r == '-' || r == '_':
			sb.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 && !strings.HasSuffix(sb.String(), "_") && isLowerBefore(h, i) {
				sb.WriteByte('_')
			}
			sb.WriteRune(r + ('a' - 'A'))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isLowerBefore(s string, i int) bool {
	c := s[i-1]
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// ToDrafts maps rows onto product drafts. Errors name the source line of the
// offending row.
func ToDrafts(rows []Row) ([]ProductDraft, error) {
	drafts := make([]ProductDraft, 0, len(rows))
	for _, row := range rows {
		line := row.Line
		d := ProductDraft{Line: line, Name: row.Cells["name"], Slug: row.Cells["slug"]}
		if d.Name == "" {
			return nil, &RowError{Line: line, Field: "name", Err: errors.New("is required")}
		}

		price, err := parsePrice(row.Cells["price"])
		if err != nil {
			return nil, &RowError{Line: line, Field: "price", Err: err}
		}
		d.Price = price

		if raw := row.Cells["stock"]; raw != "" {
			stock, err := strconv.Atoi(raw)
			if err != nil || stock < 0 || stock > model.MaxStock {
				return nil, &RowError{Line: line, Field: "stock", Err: fmt.Errorf("invalid integer %q, want 0 to %d", raw, model.MaxStock)}
			}
			d.Stock = stock
		}

		if desc := row.Cells["description"]; desc != "" {
			d.Description = &desc
		}

		raw := row.Cells["category_id"]
		if raw == "" {
			raw = row.Cells["category"]
		}
		if raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return nil, &RowError{Line: line, Field: "category_id", Err: fmt.Errorf("invalid id %q", raw)}
			}
			d.CategoryID = &id
		}

		drafts = append(drafts, d)
	}
	return drafts, nil
}

// parsePrice accepts finite amounts that fit products.price. ParseFloat also
// reads "NaN" and "Inf", which must never reach the database.
func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 || price > model.MaxPrice {
		return 0, fmt.Errorf("invalid number %q, want 0 to %.2f", raw, model.MaxPrice)
	}
	return price, nil
}
