package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func saveFixture(t *testing.T, f *excelize.File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.ErrorIs(t, err, ErrUnreadableFile)
}

func TestOpenNotASpreadsheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a workbook"), 0o644))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrUnreadableFile)
}

func TestWorkbookSheets(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "First")
	_, err := f.NewSheet("实验数据")
	require.NoError(t, err)

	wb, err := Open(saveFixture(t, f))
	require.NoError(t, err)

	assert.Equal(t, []string{"First", "实验数据"}, wb.SheetNames())
	assert.True(t, wb.HasSheet("实验数据"))
	assert.False(t, wb.HasSheet("Missing"))

	_, err = wb.Sheet("Missing")
	require.ErrorIs(t, err, ErrSheetNotFound)
}

func TestCellTypes(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "hello"))
	require.NoError(t, f.SetCellValue(sheet, "B1", 24.37))
	require.NoError(t, f.SetCellValue(sheet, "C1", 40))

	wb, err := Open(saveFixture(t, f))
	require.NoError(t, err)
	s, err := wb.Sheet(sheet)
	require.NoError(t, err)

	assert.Equal(t, KindText, s.Cell(0, 0).Kind())
	assert.Equal(t, "hello", s.Cell(0, 0).Text())

	n, ok := s.Cell(0, 1).Number()
	require.True(t, ok)
	assert.InDelta(t, 24.37, n, 1e-9)

	n, ok = s.Cell(0, 2).Number()
	require.True(t, ok)
	assert.InDelta(t, 40.0, n, 1e-9)

	// Text cells do not report a number.
	_, ok = s.Cell(0, 0).Number()
	assert.False(t, ok)
}

func TestCellOutOfRangeIsEmpty(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "x"))

	wb, err := Open(saveFixture(t, f))
	require.NoError(t, err)
	s, err := wb.Sheet(sheet)
	require.NoError(t, err)

	assert.True(t, s.Cell(5, 5).IsEmpty())
	assert.True(t, s.Cell(-1, 0).IsEmpty())
	assert.Equal(t, "", s.Cell(0, 99).Text())
	assert.Nil(t, s.Row(99))
}

func TestRowText(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Well"))
	require.NoError(t, f.SetCellValue(sheet, "C1", "Target Name"))

	wb, err := Open(saveFixture(t, f))
	require.NoError(t, err)
	s, err := wb.Sheet(sheet)
	require.NoError(t, err)

	assert.Equal(t, "well target name", s.RowText(0))
}
