package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pcrcli/pkg/contracts/domain"
)

func TestChannelTableSingleWell(t *testing.T) {
	wb := openWorkbook(t, buildChannelTableFixture(t, 5))

	format := NewChannelTable()
	require.True(t, format.Matches(wb))

	record, err := format.Parse(wb)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatStandardChannel, record.Format)
	assert.Equal(t, "GenericCycler", record.Metadata["instrument"])
	assert.Equal(t, 5, record.CycleCount)

	// No well column: readings land on the default well.
	require.Len(t, record.Wells, 1)
	well := record.Wells[0]
	assert.Equal(t, "A1", well.Well)

	fam, ok := well.Series(domain.ChannelFAM)
	require.True(t, ok)
	assert.Equal(t, []float64{2, 4, 6, 8, 10}, fam.Readings())

	hex, ok := well.Series(domain.ChannelHEX)
	require.True(t, ok)
	assert.Equal(t, []float64{3, 6, 9, 12, 15}, hex.Readings())
}

func TestChannelTableWithWellColumn(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Data")
	setRow(t, f, "Data", 1, "Well", "Cycle", "FAM")
	row := 2
	for _, well := range []string{"A1", "B1"} {
		for cycle := 1; cycle <= 3; cycle++ {
			setRow(t, f, "Data", row, well, cycle, float64(cycle))
			row++
		}
	}

	wb := openWorkbook(t, f)
	record, err := NewChannelTable().Parse(wb)
	require.NoError(t, err)

	require.Len(t, record.Wells, 2)
	assert.Equal(t, "A1", record.Wells[0].Well)
	assert.Equal(t, "B1", record.Wells[1].Well)
	assert.Equal(t, 3, record.CycleCount)
}

func TestChannelTablePlate384Inference(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Data")
	setRow(t, f, "Data", 1, "Well", "Cycle", "FAM")
	setRow(t, f, "Data", 2, "P24", 1, 0.5)

	wb := openWorkbook(t, f)
	record, err := NewChannelTable().Parse(wb)
	require.NoError(t, err)
	assert.Equal(t, domain.Plate384, record.PlateType)
}

func TestChannelTableGarbledReadingIsParseError(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Data")
	setRow(t, f, "Data", 1, "Cycle", "FAM")
	setRow(t, f, "Data", 2, 1, 0.5)
	setRow(t, f, "Data", 3, 2, "oops")

	wb := openWorkbook(t, f)
	_, err := NewChannelTable().Parse(wb)
	var parseError *ParseError
	require.ErrorAs(t, err, &parseError)
	assert.Equal(t, domain.FormatStandardChannel, parseError.Format)
	assert.Equal(t, 2, parseError.Row)
}

func TestChannelTableNoMatchWithoutCycleColumn(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Data")
	setRow(t, f, "Data", 1, "FAM", "HEX")
	setRow(t, f, "Data", 2, 0.5, 0.6)

	wb := openWorkbook(t, f)
	assert.False(t, NewChannelTable().Matches(wb))
}
