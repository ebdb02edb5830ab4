package formats

import (
	"fmt"
	"strings"

	"pcrcli/pkg/contracts/domain"
)

// UnsupportedFormatError reports that no registered detector matched the
// file. It carries the workbook's sheet names so the user can see what the
// instrument actually exported.
type UnsupportedFormatError struct {
	Path       string
	SheetNames []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unrecognized PCR export format: %s (sheets: %s)",
		e.Path, strings.Join(e.SheetNames, ", "))
}

// ParseError reports that a detector matched but the expected structure was
// violated during extraction. Location fields pin down where, so the failure
// is actionable instead of a silent partial record.
type ParseError struct {
	Format domain.VendorFormat
	Sheet  string
	Row    int // 0-based source row, -1 when not row-specific
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	loc := e.Sheet
	if e.Row >= 0 {
		loc = fmt.Sprintf("%s row %d", e.Sheet, e.Row+1)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Format, loc, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Format, loc, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(format domain.VendorFormat, sheet string, row int, detail string, args ...any) *ParseError {
	return &ParseError{
		Format: format,
		Sheet:  sheet,
		Row:    row,
		Detail: fmt.Sprintf(detail, args...),
	}
}
