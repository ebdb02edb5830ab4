// Package workbook opens spreadsheet files and exposes their worksheets as
// read-only grids of typed cells. It is the only package that touches
// excelize directly; everything above it works on the materialized grid, so
// the file handle is released as soon as loading finishes.
package workbook

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrUnreadableFile reports a file that could not be decoded as a
// spreadsheet (missing, corrupt, or not a workbook at all).
var ErrUnreadableFile = errors.New("cannot open file as a spreadsheet")

// ErrSheetNotFound reports a lookup of a worksheet the workbook does not
// contain.
var ErrSheetNotFound = errors.New("sheet not found")

// Kind is the closed set of cell value types exposed by the accessor.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindDate
)

// Value is one cell. The accessor reports the type the cell was stored
// with; coercing numeric-looking text is deliberately left to the parsers.
type Value struct {
	kind   Kind
	text   string
	number float64
	date   time.Time
}

// IsEmpty reports whether the cell is empty.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Kind returns the stored type of the cell.
func (v Value) Kind() Kind { return v.kind }

// Text returns the display text of the cell. Empty cells return "".
func (v Value) Text() string { return v.text }

// Number returns the numeric value and whether the cell is a number.
func (v Value) Number() (float64, bool) { return v.number, v.kind == KindNumber }

// Date returns the date value and whether the cell is a date.
func (v Value) Date() (time.Time, bool) { return v.date, v.kind == KindDate }

// Sheet is an immutable 2-D grid of cells. Indices are 0-based; reads
// outside the used range return an empty Value rather than failing.
type Sheet struct {
	name string
	rows [][]Value
}

// Name returns the worksheet name.
func (s *Sheet) Name() string { return s.name }

// RowCount returns the number of rows in the used range.
func (s *Sheet) RowCount() int { return len(s.rows) }

// Cell returns the value at (row, col), or an empty Value beyond the used
// range.
func (s *Sheet) Cell(row, col int) Value {
	if row < 0 || row >= len(s.rows) {
		return Value{}
	}
	r := s.rows[row]
	if col < 0 || col >= len(r) {
		return Value{}
	}
	return r[col]
}

// Row returns the cells of one row; rows may be ragged, matching the
// source's used range.
func (s *Sheet) Row(row int) []Value {
	if row < 0 || row >= len(s.rows) {
		return nil
	}
	return s.rows[row]
}

// RowText joins the display text of every cell in a row, lowercased. Parsers
// use it for cheap header-row scans.
func (s *Sheet) RowText(row int) string {
	cells := s.Row(row)
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if !c.IsEmpty() {
			parts = append(parts, c.Text())
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Workbook is an ordered collection of named sheets, fully materialized in
// memory at Open time.
type Workbook struct {
	path   string
	order  []string
	sheets map[string]*Sheet
}

// Open reads the spreadsheet at path into memory. The underlying file is
// closed on every exit path, including open failure.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableFile, path, err)
	}
	defer f.Close()

	wb := &Workbook{
		path:   path,
		sheets: make(map[string]*Sheet),
	}
	for _, name := range f.GetSheetList() {
		sheet, err := loadSheet(f, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: sheet %q: %v", ErrUnreadableFile, path, name, err)
		}
		wb.order = append(wb.order, name)
		wb.sheets[name] = sheet
	}
	return wb, nil
}

// Path returns the source file path.
func (wb *Workbook) Path() string { return wb.path }

// SheetNames returns the worksheet names in workbook order.
func (wb *Workbook) SheetNames() []string {
	out := make([]string, len(wb.order))
	copy(out, wb.order)
	return out
}

// HasSheet reports whether a worksheet with the given name exists.
func (wb *Workbook) HasSheet(name string) bool {
	_, ok := wb.sheets[name]
	return ok
}

// Sheet returns the named worksheet or ErrSheetNotFound.
func (wb *Workbook) Sheet(name string) (*Sheet, error) {
	s, ok := wb.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return s, nil
}

// loadSheet materializes one worksheet. Cell types come from the stored
// cell type where excelize exposes one; untyped cells whose raw value
// parses as a float are numbers per the xlsx spec.
func loadSheet(f *excelize.File, name string) (*Sheet, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}
	grid := make([][]Value, len(rows))
	for r, row := range rows {
		cells := make([]Value, len(row))
		for c, display := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			cells[c] = newValue(f, name, axis, display)
		}
		grid[r] = cells
	}
	return &Sheet{name: name, rows: grid}, nil
}

func newValue(f *excelize.File, sheet, axis, display string) Value {
	if strings.TrimSpace(display) == "" {
		return Value{}
	}
	ctype, _ := f.GetCellType(sheet, axis)
	switch ctype {
	case excelize.CellTypeDate:
		if t, err := parseDate(display); err == nil {
			return Value{kind: KindDate, text: display, date: t}
		}
		return Value{kind: KindText, text: display}
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return Value{kind: KindText, text: display}
	default:
		// Unset cell type means number in the file format; trust the raw
		// value over the formatted one so "1,000" round-trips as 1000.
		raw, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
		if err != nil || strings.TrimSpace(raw) == "" {
			raw = display
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return Value{kind: KindNumber, text: display, number: n}
		}
		return Value{kind: KindText, text: display}
	}
}

func parseDate(s string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02",
		"01-02-06",
		"1/2/06 15:04",
		time.RFC3339,
	}
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
