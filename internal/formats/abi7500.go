package formats

import (
	"strings"

	"pcrcli/internal/workbook"
	"pcrcli/pkg/contracts/domain"
)

// Sheet names of the Applied Biosystems 7500 export layout.
const (
	abiSheetSetup          = "Sample Setup"
	abiSheetResults        = "Results"
	abiSheetAmplification  = "Amplification Data"
	abiSheetMulticomponent = "Multicomponent Data"
	abiSheetRawData        = "Raw Data"
)

// headerScanLimit bounds the search for header rows; ABI exports put them
// within the first ten rows, after the metadata block.
const headerScanLimit = 10

// ABI7500 handles exports from the Applied Biosystems 7500 software:
// metadata and per-well setup in "Sample Setup", Ct values in "Results",
// curves as long Well/Cycle/Target rows in "Amplification Data" or
// "Multicomponent Data".
type ABI7500 struct{}

// NewABI7500 returns the ABI 7500 format.
func NewABI7500() *ABI7500 { return &ABI7500{} }

// Tag implements Format.
func (f *ABI7500) Tag() domain.VendorFormat { return domain.FormatABI7500 }

// Matches requires the sheet combinations that only the 7500 software
// writes, so the generic channel-table format cannot claim its files.
func (f *ABI7500) Matches(wb *workbook.Workbook) bool {
	if wb.HasSheet(abiSheetSetup) && wb.HasSheet(abiSheetResults) {
		return true
	}
	return wb.HasSheet(abiSheetAmplification) &&
		wb.HasSheet(abiSheetResults) &&
		wb.HasSheet(abiSheetRawData)
}

// Parse implements Format.
func (f *ABI7500) Parse(wb *workbook.Workbook) (*domain.ExperimentRecord, error) {
	builder := newRecordBuilder(f.Tag(), "")
	metadata := domain.ExperimentMetadata{}

	if setup, err := wb.Sheet(abiSheetSetup); err == nil {
		f.parseSetup(setup, builder, metadata)
	}

	if err := f.parseCurves(wb, builder); err != nil {
		return nil, err
	}

	if results, err := wb.Sheet(abiSheetResults); err == nil {
		if err := f.parseResults(results, builder); err != nil {
			return nil, err
		}
	}

	return builder.Build(metadata)
}

// parseSetup reads the metadata block (key/value rows above the table) and
// the well table, which fixes the source well order and sample names.
func (f *ABI7500) parseSetup(sheet *workbook.Sheet, builder *recordBuilder, metadata domain.ExperimentMetadata) {
	headerRow := findHeaderRow(sheet, headerScanLimit, "well", "target name")

	metaEnd := sheet.RowCount()
	if headerRow >= 0 {
		metaEnd = headerRow
	}
	collectKeyValueRows(sheet, 0, metaEnd, metadata)

	if headerRow < 0 {
		return
	}
	cols := mapHeaderColumns(sheet.Row(headerRow))
	if cols.well < 0 {
		return
	}
	for r := headerRow + 1; r < sheet.RowCount(); r++ {
		label := sheet.Cell(r, cols.well).Text()
		if !isWellLabel(label) {
			continue
		}
		sample := ""
		if cols.sample >= 0 {
			sample = strings.TrimSpace(sheet.Cell(r, cols.sample).Text())
		}
		builder.Touch(normalizeWell(label), sample)
	}
}

// parseCurves reads the long-format curve sheet. "Amplification Data" is
// preferred; "Multicomponent Data" carries the same columns on exports that
// omit it. ΔRn is the amplification reading and Rn the raw reading; exports
// without a ΔRn column provide only the raw series as amplification.
func (f *ABI7500) parseCurves(wb *workbook.Workbook, builder *recordBuilder) error {
	sheetName := abiSheetAmplification
	sheet, err := wb.Sheet(sheetName)
	if err != nil {
		sheetName = abiSheetMulticomponent
		if sheet, err = wb.Sheet(sheetName); err != nil {
			// Export carries Ct values only; nothing to do.
			return nil
		}
	}
	builder.sheet = sheetName

	headerRow := findHeaderRow(sheet, headerScanLimit, "well", "cycle")
	if headerRow < 0 {
		return parseErr(f.Tag(), sheetName, -1, "no header row naming Well and Cycle columns")
	}
	cols := mapHeaderColumns(sheet.Row(headerRow))
	if cols.well < 0 || cols.cycle < 0 || cols.target < 0 {
		return parseErr(f.Tag(), sheetName, headerRow, "header row is missing Well, Cycle, or Target Name")
	}

	for r := headerRow + 1; r < sheet.RowCount(); r++ {
		label := sheet.Cell(r, cols.well).Text()
		if !isWellLabel(label) {
			continue
		}
		well := normalizeWell(label)

		cycle, ok := coerceInt(sheet.Cell(r, cols.cycle))
		if !ok {
			return parseErr(f.Tag(), sheetName, r, "well %s: cycle cell is not numeric", well)
		}
		ch := normalizeChannel(sheet.Cell(r, cols.target).Text())
		if ch == "" {
			return parseErr(f.Tag(), sheetName, r, "well %s cycle %d: empty target name", well, cycle)
		}

		amp, ampOK := 0.0, false
		if cols.deltaRn >= 0 {
			amp, ampOK = coerceFloat(sheet.Cell(r, cols.deltaRn))
		}
		raw, rawOK := 0.0, false
		if cols.rn >= 0 {
			raw, rawOK = coerceFloat(sheet.Cell(r, cols.rn))
		}
		if !ampOK && rawOK {
			// No ΔRn column: the Rn reading is the only curve available.
			amp, ampOK = raw, true
			rawOK = false
		}
		if !ampOK {
			return parseErr(f.Tag(), sheetName, r, "well %s cycle %d: no numeric reading", well, cycle)
		}

		if err := builder.AddReading(seriesAmplification, well, ch, cycle, amp, r); err != nil {
			return err
		}
		if rawOK {
			if err := builder.AddReading(seriesRaw, well, ch, cycle, raw, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseResults extracts per-well, per-channel Ct values. The Ct column is
// matched by header; some exports mangle its encoding, in which case the
// software's fixed column G is used.
func (f *ABI7500) parseResults(sheet *workbook.Sheet, builder *recordBuilder) error {
	headerRow := findHeaderRow(sheet, headerScanLimit, "well", "target name")
	if headerRow < 0 {
		return parseErr(f.Tag(), abiSheetResults, -1, "no header row naming Well and Target Name columns")
	}
	cols := mapHeaderColumns(sheet.Row(headerRow))
	if cols.well < 0 || cols.target < 0 {
		return parseErr(f.Tag(), abiSheetResults, headerRow, "header row is missing Well or Target Name")
	}
	ctCol := cols.ct
	if ctCol < 0 {
		ctCol = 6
	}

	for r := headerRow + 1; r < sheet.RowCount(); r++ {
		label := sheet.Cell(r, cols.well).Text()
		if !isWellLabel(label) {
			continue
		}
		well := normalizeWell(label)
		ch := normalizeChannel(sheet.Cell(r, cols.target).Text())
		if ch == "" {
			continue
		}
		builder.Touch(well, "")
		if ct, ok := coerceCt(sheet.Cell(r, ctCol)); ok {
			builder.SetCt(well, ch, ct)
		}
	}
	return nil
}

// headerColumns maps the ABI column names to indices; -1 means absent.
type headerColumns struct {
	well    int
	cycle   int
	target  int
	sample  int
	rn      int
	deltaRn int
	ct      int
}

func mapHeaderColumns(row []workbook.Value) headerColumns {
	cols := headerColumns{well: -1, cycle: -1, target: -1, sample: -1, rn: -1, deltaRn: -1, ct: -1}
	for i, cell := range row {
		switch text := strings.TrimSpace(cell.Text()); {
		case strings.EqualFold(text, "Well"):
			cols.well = i
		case strings.EqualFold(text, "Cycle"):
			cols.cycle = i
		case strings.EqualFold(text, "Target Name"):
			cols.target = i
		case strings.EqualFold(text, "Sample Name"):
			cols.sample = i
		case strings.EqualFold(text, "Rn"):
			cols.rn = i
		case isDeltaRnHeader(text):
			cols.deltaRn = i
		case strings.EqualFold(text, "Ct"):
			cols.ct = i
		}
	}
	return cols
}

func isDeltaRnHeader(text string) bool {
	upper := strings.ToUpper(text)
	return strings.Contains(upper, "ΔRN") ||
		strings.Contains(upper, "DELTA RN") ||
		strings.Contains(upper, "DRN")
}

// findHeaderRow returns the first row within limit whose joined text
// contains every keyword, or -1.
func findHeaderRow(sheet *workbook.Sheet, limit int, keywords ...string) int {
	for r := 0; r < sheet.RowCount() && r < limit; r++ {
		text := sheet.RowText(r)
		all := true
		for _, kw := range keywords {
			if !strings.Contains(text, kw) {
				all = false
				break
			}
		}
		if all {
			return r
		}
	}
	return -1
}

// collectKeyValueRows harvests two-column metadata rows: a text key in the
// first column, a non-empty value in the second.
func collectKeyValueRows(sheet *workbook.Sheet, start, end int, metadata domain.ExperimentMetadata) {
	for r := start; r < end && r < sheet.RowCount(); r++ {
		key := strings.TrimSpace(sheet.Cell(r, 0).Text())
		value := strings.TrimSpace(sheet.Cell(r, 1).Text())
		if key == "" || value == "" {
			continue
		}
		if _, exists := metadata[key]; !exists {
			metadata[key] = value
		}
	}
}
