package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pcrcli/pkg/contracts/domain"
)

func TestVendorACurveSheet(t *testing.T) {
	wb := openWorkbook(t, buildVendorACurveFixture(t))

	format := NewVendorA()
	require.True(t, format.Matches(wb))

	record, err := format.Parse(wb)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatVendorA, record.Format)
	assert.Equal(t, "Run1", record.Metadata["run"])
	assert.Equal(t, "2024-01-01", record.Metadata["date"])

	require.Len(t, record.Wells, 1)
	well := record.Wells[0]
	assert.Equal(t, "A1", well.Well)

	series, ok := well.Series(domain.ChannelHEX)
	require.True(t, ok)
	require.Len(t, series, 40)
	assert.Equal(t, 40, record.CycleCount)
	require.NoError(t, series.Validate())
	assert.InDelta(t, 1.5, series[0].Reading, 1e-9)
	assert.InDelta(t, 60.0, series[39].Reading, 1e-9)

	// The HEX series must also answer to VIC.
	vic, ok := well.Series(domain.ChannelVIC)
	require.True(t, ok)
	assert.Equal(t, series, vic)
}

func TestVendorADataSheetCycleBlocks(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "实验数据")
	setRow(t, f, "实验数据", 1, "实验名称", "BlockRun")
	header := []interface{}{"反应孔", "样本名称", "通道", "Ct"}
	for cycle := 1; cycle <= 5; cycle++ {
		header = append(header, cycle)
	}
	for cycle := 1; cycle <= 5; cycle++ {
		header = append(header, cycle)
	}
	setRow(t, f, "实验数据", 2, header...)

	row := []interface{}{"A1", "sample-1", "FAM", 22.5}
	for cycle := 1; cycle <= 5; cycle++ {
		row = append(row, float64(cycle))
	}
	for cycle := 1; cycle <= 5; cycle++ {
		row = append(row, float64(cycle)*100)
	}
	setRow(t, f, "实验数据", 3, row...)

	wb := openWorkbook(t, f)
	record, err := NewVendorA().Parse(wb)
	require.NoError(t, err)

	assert.Equal(t, "BlockRun", record.Metadata["实验名称"])
	require.Len(t, record.Wells, 1)
	well := record.Wells[0]
	assert.Equal(t, "sample-1", well.SampleName)

	ct, ok := well.CtValue(domain.ChannelFAM)
	require.True(t, ok)
	assert.InDelta(t, 22.5, ct, 1e-9)

	amp, ok := well.Series(domain.ChannelFAM)
	require.True(t, ok)
	require.Len(t, amp, 5)
	assert.InDelta(t, 3.0, amp[2].Reading, 1e-9)

	raw, ok := well.RawSeries(domain.ChannelFAM)
	require.True(t, ok)
	require.Len(t, raw, 5)
	assert.InDelta(t, 300.0, raw[2].Reading, 1e-9)
}

func TestVendorAJOEChannelAlias(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "实验数据")
	setRow(t, f, "实验数据", 1, "反应孔", "通道", "Ct", 1, 2, 3)
	setRow(t, f, "实验数据", 2, "B2", "JOE", 30.1, 1.0, 2.0, 3.0)

	wb := openWorkbook(t, f)
	record, err := NewVendorA().Parse(wb)
	require.NoError(t, err)

	require.Len(t, record.Wells, 1)
	well := record.Wells[0]
	_, hasVIC := well.Ct[domain.ChannelVIC]
	assert.True(t, hasVIC, "JOE should normalize to VIC")
}

func TestVendorAUndeterminedCtIsAbsent(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "实验数据")
	setRow(t, f, "实验数据", 1, "反应孔", "通道", "Ct", 1, 2)
	setRow(t, f, "实验数据", 2, "A1", "FAM", "NoCt", 0.1, 0.2)
	setRow(t, f, "实验数据", 3, "A2", "FAM", 18.2, 0.3, 0.4)

	wb := openWorkbook(t, f)
	record, err := NewVendorA().Parse(wb)
	require.NoError(t, err)

	a1, ok := record.Well("A1")
	require.True(t, ok)
	_, reported := a1.CtValue(domain.ChannelFAM)
	assert.False(t, reported, "undetermined marker must yield an absent Ct, not zero")

	a2, ok := record.Well("A2")
	require.True(t, ok)
	ct, reported := a2.CtValue(domain.ChannelFAM)
	require.True(t, reported)
	assert.InDelta(t, 18.2, ct, 1e-9)
}

func TestVendorACurveGapIsParseError(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "扩增曲线")
	setRow(t, f, "扩增曲线", 1, "反应孔", "循环", "FAM")
	setRow(t, f, "扩增曲线", 2, "A1", 1, 0.5)
	setRow(t, f, "扩增曲线", 3, "A1", 2, 0.6)
	// Cycle 3 missing.
	setRow(t, f, "扩增曲线", 4, "A1", 4, 0.8)

	wb := openWorkbook(t, f)
	_, err := NewVendorA().Parse(wb)
	var parseError *ParseError
	require.ErrorAs(t, err, &parseError)
	assert.Equal(t, domain.FormatVendorA, parseError.Format)
	assert.Contains(t, parseError.Detail, "gap")
}

func TestVendorAGarbledReadingIsParseError(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "扩增曲线")
	setRow(t, f, "扩增曲线", 1, "反应孔", "循环", "FAM")
	setRow(t, f, "扩增曲线", 2, "A1", 1, 0.5)
	setRow(t, f, "扩增曲线", 3, "A1", 2, "###ERR")

	wb := openWorkbook(t, f)
	_, err := NewVendorA().Parse(wb)
	var parseError *ParseError
	require.ErrorAs(t, err, &parseError)
	assert.Equal(t, 2, parseError.Row)
}

func TestVendorASourceWellOrderPreserved(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "实验数据")
	setRow(t, f, "实验数据", 1, "反应孔", "通道", "Ct")
	// Deliberately not in plate order.
	setRow(t, f, "实验数据", 2, "B7", "FAM", 21.0)
	setRow(t, f, "实验数据", 3, "A3", "FAM", 22.0)
	setRow(t, f, "实验数据", 4, "A1", "FAM", 23.0)

	wb := openWorkbook(t, f)
	record, err := NewVendorA().Parse(wb)
	require.NoError(t, err)

	labels := make([]string, len(record.Wells))
	for i, w := range record.Wells {
		labels[i] = w.Well
	}
	assert.Equal(t, []string{"B7", "A3", "A1"}, labels)
}
