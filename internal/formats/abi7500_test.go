package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pcrcli/pkg/contracts/domain"
)

func TestABI7500Parse(t *testing.T) {
	wb := openWorkbook(t, buildABIFixture(t))

	format := NewABI7500()
	require.True(t, format.Matches(wb))

	record, err := format.Parse(wb)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatABI7500, record.Format)
	assert.Equal(t, "TestRun", record.Metadata["Experiment Name"])
	assert.Equal(t, "7500", record.Metadata["Instrument Type"])
	assert.Equal(t, 3, record.CycleCount)
	assert.Equal(t, domain.Plate96, record.PlateType)

	require.Len(t, record.Wells, 2)
	assert.Equal(t, "A1", record.Wells[0].Well)
	assert.Equal(t, "patient-1", record.Wells[0].SampleName)

	a1 := &record.Wells[0]
	ct, ok := a1.CtValue(domain.ChannelFAM)
	require.True(t, ok)
	assert.InDelta(t, 24.37, ct, 1e-9)

	// ΔRn is the amplification curve, Rn the raw curve.
	amp, ok := a1.Series(domain.ChannelFAM)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, amp.Readings())

	raw, ok := a1.RawSeries(domain.ChannelFAM)
	require.True(t, ok)
	assert.Equal(t, []float64{10, 20, 30}, raw.Readings())

	// Undetermined Ct stays absent.
	a2, ok := record.Well("A2")
	require.True(t, ok)
	_, reported := a2.CtValue(domain.ChannelFAM)
	assert.False(t, reported)
}

func TestABI7500MatchesSheetCombinations(t *testing.T) {
	build := func(names ...string) *excelize.File {
		f := excelize.NewFile()
		f.SetSheetName(f.GetSheetName(0), names[0])
		for _, name := range names[1:] {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		return f
	}

	cases := []struct {
		name   string
		sheets []string
		want   bool
	}{
		{"setup and results", []string{"Sample Setup", "Results"}, true},
		{"curves without setup", []string{"Amplification Data", "Results", "Raw Data"}, true},
		{"results alone", []string{"Results"}, false},
		{"unrelated", []string{"Sheet1", "数据"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wb := openWorkbook(t, build(tc.sheets...))
			assert.Equal(t, tc.want, NewABI7500().Matches(wb))
		})
	}
}

func TestABI7500RnOnlyBecomesAmplification(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Sample Setup")
	setRow(t, f, "Sample Setup", 1, "Well", "Sample Name", "Target Name")
	setRow(t, f, "Sample Setup", 2, "A1", "s1", "FAM")

	_, err := f.NewSheet("Results")
	require.NoError(t, err)
	setRow(t, f, "Results", 1, "Well", "Target Name", "Ct")
	setRow(t, f, "Results", 2, "A1", "FAM", 25.0)

	_, err = f.NewSheet("Multicomponent Data")
	require.NoError(t, err)
	setRow(t, f, "Multicomponent Data", 1, "Well", "Cycle", "Target Name", "Rn")
	setRow(t, f, "Multicomponent Data", 2, "A1", 1, "FAM", 5.0)
	setRow(t, f, "Multicomponent Data", 3, "A1", 2, "FAM", 6.0)

	wb := openWorkbook(t, f)
	record, err := NewABI7500().Parse(wb)
	require.NoError(t, err)

	a1, ok := record.Well("A1")
	require.True(t, ok)
	amp, ok := a1.Series(domain.ChannelFAM)
	require.True(t, ok)
	assert.Equal(t, []float64{5, 6}, amp.Readings())
	_, hasRaw := a1.RawSeries(domain.ChannelFAM)
	assert.False(t, hasRaw)
}

func TestABI7500CtFallbackColumn(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Sample Setup")
	setRow(t, f, "Sample Setup", 1, "Well", "Sample Name", "Target Name")
	setRow(t, f, "Sample Setup", 2, "A1", "s1", "FAM")

	_, err := f.NewSheet("Results")
	require.NoError(t, err)
	// Garbled Ct header: the fixed seventh column is used instead.
	setRow(t, f, "Results", 1, "Well", "Sample Name", "Target Name", "Task", "Reporter", "Quencher", "Cт")
	setRow(t, f, "Results", 2, "A1", "s1", "FAM", "UNKNOWN", "FAM", "NFQ", 31.9)

	wb := openWorkbook(t, f)
	record, err := NewABI7500().Parse(wb)
	require.NoError(t, err)

	a1, ok := record.Well("A1")
	require.True(t, ok)
	ct, reported := a1.CtValue(domain.ChannelFAM)
	require.True(t, reported)
	assert.InDelta(t, 31.9, ct, 1e-9)
}

func TestABI7500DuplicateCycleIsParseError(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), "Sample Setup")
	setRow(t, f, "Sample Setup", 1, "Well", "Target Name")
	setRow(t, f, "Sample Setup", 2, "A1", "FAM")

	_, err := f.NewSheet("Results")
	require.NoError(t, err)
	setRow(t, f, "Results", 1, "Well", "Target Name", "Ct")

	_, err = f.NewSheet("Amplification Data")
	require.NoError(t, err)
	setRow(t, f, "Amplification Data", 1, "Well", "Cycle", "Target Name", "Rn", "ΔRn")
	setRow(t, f, "Amplification Data", 2, "A1", 1, "FAM", 1.0, 0.1)
	setRow(t, f, "Amplification Data", 3, "A1", 1, "FAM", 2.0, 0.2)

	wb := openWorkbook(t, f)
	_, err = NewABI7500().Parse(wb)
	var parseError *ParseError
	require.ErrorAs(t, err, &parseError)
	assert.Contains(t, parseError.Detail, "duplicate cycle")
}
