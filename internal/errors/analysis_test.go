package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcrcli/internal/formats"
	"pcrcli/internal/workbook"
	"pcrcli/pkg/contracts/domain"
)

func TestFromAnalysisUnreadableFile(t *testing.T) {
	err := fmt.Errorf("%w: /tmp/x.xlsx: zip: not a valid zip file", workbook.ErrUnreadableFile)
	apiErr := FromAnalysis(err)

	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, CodeCannotOpenFile, apiErr.ErrorCode)
}

func TestFromAnalysisUnsupportedFormat(t *testing.T) {
	err := &formats.UnsupportedFormatError{
		Path:       "mystery.xlsx",
		SheetNames: []string{"Tab1", "Tab2"},
	}
	apiErr := FromAnalysis(err)

	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, CodeUnsupportedFormat, apiErr.ErrorCode)

	details, ok := apiErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "mystery.xlsx", details["path"])
	assert.Equal(t, []string{"Tab1", "Tab2"}, details["sheets"])
}

func TestFromAnalysisParseError(t *testing.T) {
	err := &formats.ParseError{
		Format: domain.FormatVendorA,
		Sheet:  "扩增曲线",
		Row:    14,
		Detail: "cycle sequence has a gap at cycle 15",
	}
	apiErr := FromAnalysis(err)

	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, CodeParseError, apiErr.ErrorCode)

	details, ok := apiErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 15, details["row"], "row should be reported 1-based")
	assert.Equal(t, "扩增曲线", details["sheet"])
}

func TestFromAnalysisUnknownError(t *testing.T) {
	apiErr := FromAnalysis(stderrors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
