package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pcrcli/pkg/contracts/domain"
)

func TestIsWellLabel(t *testing.T) {
	valid := []string{"A1", "H12", "P24", "a1", " B3 "}
	for _, s := range valid {
		assert.True(t, isWellLabel(s), s)
	}
	invalid := []string{"", "1A", "Q1", "A123", "Well", "A", "AA1"}
	for _, s := range invalid {
		assert.False(t, isWellLabel(s), s)
	}
}

func TestNormalizeChannel(t *testing.T) {
	assert.Equal(t, domain.ChannelVIC, normalizeChannel("JOE"))
	assert.Equal(t, domain.ChannelVIC, normalizeChannel(" joe "))
	assert.Equal(t, domain.ChannelFAM, normalizeChannel("fam"))
	assert.Equal(t, domain.Channel("CUSTOM"), normalizeChannel("Custom"))
}

func TestIsUndetermined(t *testing.T) {
	markers := []string{"Undetermined", "UNDET", "NoCt", "no ct", "N/A", "na", "N", "-", "--"}
	for _, s := range markers {
		assert.True(t, isUndetermined(s), s)
	}
	assert.False(t, isUndetermined("24.3"))
	assert.False(t, isUndetermined("None at all"))
}

func TestCoerceFloatStripsSeparators(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	setRow(t, f, sheet, 1, "1,234.5", "24.37", "text", 42)

	wb := openWorkbook(t, f)
	s, err := wb.Sheet(sheet)
	require.NoError(t, err)

	n, ok := coerceFloat(s.Cell(0, 0))
	require.True(t, ok)
	assert.InDelta(t, 1234.5, n, 1e-9)

	n, ok = coerceFloat(s.Cell(0, 1))
	require.True(t, ok)
	assert.InDelta(t, 24.37, n, 1e-9)

	_, ok = coerceFloat(s.Cell(0, 2))
	assert.False(t, ok)

	n, ok = coerceFloat(s.Cell(0, 3))
	require.True(t, ok)
	assert.InDelta(t, 42.0, n, 1e-9)

	// Empty cell beyond the used range.
	_, ok = coerceFloat(s.Cell(0, 99))
	assert.False(t, ok)
}

func TestFindCycleBlocks(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	// Labels, a 1..4 block, a gap column, then a 1..3 block.
	setRow(t, f, sheet, 1, "反应孔", "通道", 1, 2, 3, 4, "Ct", 1, 2, 3)

	wb := openWorkbook(t, f)
	s, err := wb.Sheet(sheet)
	require.NoError(t, err)

	blocks := findCycleBlocks(s.Row(0))
	require.Len(t, blocks, 2)
	assert.Equal(t, cycleBlock{startCol: 2, length: 4}, blocks[0])
	assert.Equal(t, cycleBlock{startCol: 7, length: 3}, blocks[1])
}

func TestFindCycleBlocksIgnoresRunsNotStartingAtOne(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	setRow(t, f, sheet, 1, 5, 6, 7, "x", 2, 3)

	wb := openWorkbook(t, f)
	s, err := wb.Sheet(sheet)
	require.NoError(t, err)

	assert.Empty(t, findCycleBlocks(s.Row(0)))
}
