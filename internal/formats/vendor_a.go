package formats

import (
	"strings"

	"pcrcli/internal/workbook"
	"pcrcli/pkg/contracts/domain"
)

// Sheet names of the vendor A export layout.
const (
	vendorASheetData  = "实验数据" // experiment data: metadata + per-well table
	vendorASheetCurve = "扩增曲线" // amplification curves
)

// vendorAScanLimit bounds the search for the per-well table header.
const vendorAScanLimit = 20

// VendorA handles the Chinese-labelled export layout: a "实验数据" sheet with
// key/value metadata rows above a per-well table (headed 反应孔) whose tail
// columns hold two fixed-width cycle blocks (amplification readings, then
// raw readings), and an optional "扩增曲线" sheet carrying curves as
// well/cycle rows under channel-named columns.
type VendorA struct{}

// NewVendorA returns the vendor A format.
func NewVendorA() *VendorA { return &VendorA{} }

// Tag implements Format.
func (f *VendorA) Tag() domain.VendorFormat { return domain.FormatVendorA }

// Matches looks for the vendor's sheet names; both spellings appear alone in
// the wild, so either is enough.
func (f *VendorA) Matches(wb *workbook.Workbook) bool {
	for _, name := range wb.SheetNames() {
		if strings.Contains(name, vendorASheetData) || strings.Contains(name, vendorASheetCurve) {
			return true
		}
	}
	return false
}

// Parse implements Format.
func (f *VendorA) Parse(wb *workbook.Workbook) (*domain.ExperimentRecord, error) {
	metadata := domain.ExperimentMetadata{}
	builder := newRecordBuilder(f.Tag(), vendorASheetData)

	haveCurves := false
	if sheet := f.findSheet(wb, vendorASheetData); sheet != nil {
		builder.sheet = sheet.Name()
		got, err := f.parseDataSheet(sheet, builder, metadata)
		if err != nil {
			return nil, err
		}
		haveCurves = got
	}

	// The curve sheet is the fallback source: some exports keep readings
	// only there.
	if !haveCurves {
		if sheet := f.findSheet(wb, vendorASheetCurve); sheet != nil {
			builder.sheet = sheet.Name()
			if err := f.parseCurveSheet(sheet, builder); err != nil {
				return nil, err
			}
		}
	}

	return builder.Build(metadata)
}

func (f *VendorA) findSheet(wb *workbook.Workbook, fragment string) *workbook.Sheet {
	for _, name := range wb.SheetNames() {
		if strings.Contains(name, fragment) {
			sheet, err := wb.Sheet(name)
			if err == nil {
				return sheet
			}
		}
	}
	return nil
}

// parseDataSheet reads metadata and the per-well table. Returns whether any
// curve blocks were present.
func (f *VendorA) parseDataSheet(sheet *workbook.Sheet, builder *recordBuilder, metadata domain.ExperimentMetadata) (bool, error) {
	headerRow := -1
	for r := 0; r < sheet.RowCount() && r < vendorAScanLimit; r++ {
		if strings.Contains(sheet.RowText(r), "反应孔") {
			headerRow = r
			break
		}
	}

	metaEnd := sheet.RowCount()
	if headerRow >= 0 {
		metaEnd = headerRow
	}
	collectKeyValueRows(sheet, 0, metaEnd, metadata)

	if headerRow < 0 {
		// Metadata-only sheet; curves may still live on the curve sheet.
		return false, nil
	}

	header := sheet.Row(headerRow)
	cols := f.mapTableColumns(header)
	if cols.well < 0 {
		return false, parseErr(f.Tag(), sheet.Name(), headerRow, "table header has no 反应孔 column")
	}
	blocks := findCycleBlocks(header)
	if len(blocks) > 2 {
		blocks = blocks[:2]
	}

	for r := headerRow + 1; r < sheet.RowCount(); r++ {
		label := sheet.Cell(r, cols.well).Text()
		if !isWellLabel(label) {
			continue
		}
		well := normalizeWell(label)

		sample := ""
		if cols.sample >= 0 {
			sample = strings.TrimSpace(sheet.Cell(r, cols.sample).Text())
		}
		builder.Touch(well, sample)

		ch := domain.Channel("")
		if cols.channel >= 0 {
			ch = normalizeChannel(sheet.Cell(r, cols.channel).Text())
		}
		if ch == "" {
			if len(blocks) > 0 {
				return false, parseErr(f.Tag(), sheet.Name(), r, "well %s: row has curve data but no channel", well)
			}
			continue
		}

		if cols.ct >= 0 {
			if ct, ok := coerceCt(sheet.Cell(r, cols.ct)); ok {
				builder.SetCt(well, ch, ct)
			}
		}

		row := sheet.Row(r)
		for i, block := range blocks {
			series, err := readCycleBlock(f.Tag(), sheet.Name(), r, row, block)
			if err != nil {
				return false, err
			}
			kind := seriesAmplification
			if i == 1 {
				kind = seriesRaw
			}
			builder.SetSeries(kind, well, ch, series)
		}
	}
	return len(blocks) > 0, nil
}

// parseCurveSheet reads the 扩增曲线 layout: a header row naming channels,
// a well column, and a cycle column, one reading row per well and cycle.
func (f *VendorA) parseCurveSheet(sheet *workbook.Sheet, builder *recordBuilder) error {
	headerRow := -1
	var channelCols map[int]domain.Channel
	for r := 0; r < sheet.RowCount() && r < vendorAScanLimit; r++ {
		cols := map[int]domain.Channel{}
		for c, cell := range sheet.Row(r) {
			if ch, ok := channelFromHeader(cell); ok {
				cols[c] = ch
			}
		}
		if len(cols) > 0 {
			headerRow = r
			channelCols = cols
			break
		}
	}
	if headerRow < 0 {
		return parseErr(f.Tag(), sheet.Name(), -1, "no header row naming any known channel")
	}

	wellCol, cycleCol := -1, -1
	for c, cell := range sheet.Row(headerRow) {
		text := strings.ToLower(strings.TrimSpace(cell.Text()))
		switch {
		case strings.Contains(text, "反应孔") || strings.Contains(text, "孔位") || strings.Contains(text, "well"):
			wellCol = c
		case strings.Contains(text, "循环") || strings.Contains(text, "cycle"):
			cycleCol = c
		}
	}
	if wellCol < 0 {
		return parseErr(f.Tag(), sheet.Name(), headerRow, "no well column in curve table header")
	}
	if cycleCol < 0 {
		return parseErr(f.Tag(), sheet.Name(), headerRow, "no cycle column in curve table header")
	}

	for r := headerRow + 1; r < sheet.RowCount(); r++ {
		label := sheet.Cell(r, wellCol).Text()
		if !isWellLabel(label) {
			continue
		}
		well := normalizeWell(label)
		cycle, ok := coerceInt(sheet.Cell(r, cycleCol))
		if !ok {
			return parseErr(f.Tag(), sheet.Name(), r, "well %s: cycle cell is not numeric", well)
		}
		for c, ch := range channelCols {
			cell := sheet.Cell(r, c)
			if cell.IsEmpty() {
				continue
			}
			if isUndetermined(cell.Text()) {
				continue
			}
			reading, ok := coerceFloat(cell)
			if !ok {
				return parseErr(f.Tag(), sheet.Name(), r,
					"well %s cycle %d channel %s: garbled reading %q", well, cycle, ch, cell.Text())
			}
			if err := builder.AddReading(seriesAmplification, well, ch, cycle, reading, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// vendorAColumns maps the per-well table columns; -1 means absent.
type vendorAColumns struct {
	well    int
	sample  int
	channel int
	ct      int
}

func (f *VendorA) mapTableColumns(header []workbook.Value) vendorAColumns {
	cols := vendorAColumns{well: -1, sample: -1, channel: -1, ct: -1}
	for i, cell := range header {
		text := strings.TrimSpace(cell.Text())
		switch {
		case strings.Contains(text, "反应孔"):
			cols.well = i
		case strings.Contains(text, "样本") || strings.Contains(text, "样品") ||
			strings.Contains(strings.ToLower(text), "sample"):
			cols.sample = i
		case strings.Contains(text, "通道") || strings.Contains(text, "染料") ||
			strings.Contains(text, "染色"):
			cols.channel = i
		case strings.EqualFold(text, "Ct"):
			cols.ct = i
		}
	}
	return cols
}
