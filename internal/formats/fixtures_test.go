package formats

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pcrcli/internal/workbook"
)

// setRow writes one row of mixed values starting at column A.
func setRow(t *testing.T, f *excelize.File, sheet string, row int, values ...interface{}) {
	t.Helper()
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
}

func saveWorkbook(t *testing.T, f *excelize.File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func openWorkbook(t *testing.T, f *excelize.File) *workbook.Workbook {
	t.Helper()
	wb, err := workbook.Open(saveWorkbook(t, f))
	require.NoError(t, err)
	return wb
}

// buildVendorACurveFixture builds the two-sheet vendor A export: metadata on
// 实验数据 and a 40-cycle HEX curve for well A1 on 扩增曲线.
func buildVendorACurveFixture(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "实验数据")
	setRow(t, f, "实验数据", 1, "run", "Run1")
	setRow(t, f, "实验数据", 2, "date", "2024-01-01")

	_, err := f.NewSheet("扩增曲线")
	require.NoError(t, err)
	setRow(t, f, "扩增曲线", 1, "反应孔", "循环", "HEX")
	for cycle := 1; cycle <= 40; cycle++ {
		setRow(t, f, "扩增曲线", cycle+1, "A1", cycle, float64(cycle)*1.5)
	}
	return f
}

// buildABIFixture builds a minimal Applied Biosystems 7500 export with one
// well, one target, and a three-cycle curve.
func buildABIFixture(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Sample Setup")
	setRow(t, f, "Sample Setup", 1, "Experiment Name", "TestRun")
	setRow(t, f, "Sample Setup", 2, "Instrument Type", "7500")
	setRow(t, f, "Sample Setup", 3, "Well", "Sample Name", "Target Name")
	setRow(t, f, "Sample Setup", 4, "A1", "patient-1", "FAM")
	setRow(t, f, "Sample Setup", 5, "A2", "patient-2", "FAM")

	_, err := f.NewSheet("Amplification Data")
	require.NoError(t, err)
	setRow(t, f, "Amplification Data", 1, "Well", "Cycle", "Target Name", "Rn", "ΔRn")
	row := 2
	for _, well := range []string{"A1", "A2"} {
		for cycle := 1; cycle <= 3; cycle++ {
			setRow(t, f, "Amplification Data", row,
				well, cycle, "FAM", float64(cycle)*10, float64(cycle))
			row++
		}
	}

	_, err = f.NewSheet("Results")
	require.NoError(t, err)
	setRow(t, f, "Results", 1, "Well", "Sample Name", "Target Name", "Task", "Reporter", "Quencher", "Ct")
	setRow(t, f, "Results", 2, "A1", "patient-1", "FAM", "UNKNOWN", "FAM", "NFQ", 24.37)
	setRow(t, f, "Results", 3, "A2", "patient-2", "FAM", "UNKNOWN", "FAM", "NFQ", "Undetermined")
	return f
}

// buildChannelTableFixture builds the generic layout: metadata rows above a
// cycle/channel table with no well column.
func buildChannelTableFixture(t *testing.T, cycles int) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Sheet1")
	setRow(t, f, "Sheet1", 1, "instrument", "GenericCycler")
	setRow(t, f, "Sheet1", 2, "Cycle", "FAM", "HEX")
	for cycle := 1; cycle <= cycles; cycle++ {
		setRow(t, f, "Sheet1", cycle+2, cycle, float64(cycle)*2, float64(cycle)*3)
	}
	return f
}
