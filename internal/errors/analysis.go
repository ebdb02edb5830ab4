package errors

import (
	stderrors "errors"
	"net/http"

	"pcrcli/internal/formats"
	"pcrcli/internal/workbook"
)

// Analysis failure codes surfaced to API clients.
const (
	CodeCannotOpenFile    = "CANNOT_OPEN_FILE"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeParseError        = "PARSE_ERROR"
)

// FromAnalysis maps an error returned by Registry.Analyze onto an APIError.
// The taxonomy is closed: an unreadable file, an unrecognized layout, a
// structural parse failure, or an unexpected internal error.
func FromAnalysis(err error) *APIError {
	var unsupported *formats.UnsupportedFormatError
	var parseErr *formats.ParseError

	switch {
	case stderrors.Is(err, workbook.ErrUnreadableFile):
		return NewWithDetails(http.StatusBadRequest, CodeCannotOpenFile,
			"cannot open file", err.Error())
	case stderrors.As(err, &unsupported):
		return NewWithDetails(http.StatusUnprocessableEntity, CodeUnsupportedFormat,
			"unrecognized PCR export format",
			map[string]interface{}{
				"path":   unsupported.Path,
				"sheets": unsupported.SheetNames,
			})
	case stderrors.As(err, &parseErr):
		return NewWithDetails(http.StatusUnprocessableEntity, CodeParseError,
			"file matched a known format but its structure is damaged",
			map[string]interface{}{
				"format": parseErr.Format,
				"sheet":  parseErr.Sheet,
				"row":    parseErr.Row + 1,
				"detail": parseErr.Detail,
			})
	default:
		return NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR",
			"analysis failed", err.Error())
	}
}
