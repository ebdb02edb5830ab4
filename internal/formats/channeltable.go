package formats

import (
	"strings"

	"pcrcli/internal/workbook"
	"pcrcli/pkg/contracts/domain"
)

// channelTableScanLimit bounds the header search on each sheet.
const channelTableScanLimit = 30

// defaultWell labels single-well exports that carry no plate position.
const defaultWell = "A1"

// ChannelTable is the generic layout several instruments share: key/value
// metadata rows above a table whose header names a cycle column and one
// column per dye channel. It is deliberately registered last: it would
// happily match a vendor sheet that also names channels, and registration
// order is what keeps it from shadowing the narrow formats.
type ChannelTable struct{}

// NewChannelTable returns the generic channel-table format.
func NewChannelTable() *ChannelTable { return &ChannelTable{} }

// Tag implements Format.
func (f *ChannelTable) Tag() domain.VendorFormat { return domain.FormatStandardChannel }

// Matches requires a header row that names both a cycle column and at least
// one known channel on the same sheet.
func (f *ChannelTable) Matches(wb *workbook.Workbook) bool {
	for _, name := range wb.SheetNames() {
		sheet, err := wb.Sheet(name)
		if err != nil {
			continue
		}
		if row, _, _ := f.findTable(sheet); row >= 0 {
			return true
		}
	}
	return false
}

// Parse implements Format.
func (f *ChannelTable) Parse(wb *workbook.Workbook) (*domain.ExperimentRecord, error) {
	metadata := domain.ExperimentMetadata{}
	var builder *recordBuilder

	for _, name := range wb.SheetNames() {
		sheet, err := wb.Sheet(name)
		if err != nil {
			continue
		}
		headerRow, cycleCol, channelCols := f.findTable(sheet)
		if headerRow < 0 {
			continue
		}

		collectKeyValueRows(sheet, 0, headerRow, metadata)

		builder = newRecordBuilder(f.Tag(), sheet.Name())
		if err := f.parseTable(sheet, headerRow, cycleCol, channelCols, builder); err != nil {
			return nil, err
		}
		// One curve table per file; later sheets only contribute metadata.
		break
	}
	if builder == nil {
		return nil, parseErr(f.Tag(), "", -1, "no channel table found")
	}
	return builder.Build(metadata)
}

// findTable locates the header row: it must name a cycle column and at
// least one known channel. Returns (-1, -1, nil) when absent.
func (f *ChannelTable) findTable(sheet *workbook.Sheet) (int, int, map[int]domain.Channel) {
	for r := 0; r < sheet.RowCount() && r < channelTableScanLimit; r++ {
		cycleCol := -1
		channelCols := map[int]domain.Channel{}
		for c, cell := range sheet.Row(r) {
			text := strings.ToLower(strings.TrimSpace(cell.Text()))
			if strings.Contains(text, "cycle") || strings.Contains(text, "循环") {
				cycleCol = c
				continue
			}
			if ch, ok := channelFromHeader(cell); ok {
				channelCols[c] = ch
			}
		}
		if cycleCol >= 0 && len(channelCols) > 0 {
			return r, cycleCol, channelCols
		}
	}
	return -1, -1, nil
}

func (f *ChannelTable) parseTable(sheet *workbook.Sheet, headerRow, cycleCol int, channelCols map[int]domain.Channel, builder *recordBuilder) error {
	wellCol := -1
	for c, cell := range sheet.Row(headerRow) {
		text := strings.ToLower(strings.TrimSpace(cell.Text()))
		if strings.Contains(text, "well") || strings.Contains(text, "反应孔") || strings.Contains(text, "孔位") {
			wellCol = c
			break
		}
	}

	for r := headerRow + 1; r < sheet.RowCount(); r++ {
		cycleCell := sheet.Cell(r, cycleCol)
		if cycleCell.IsEmpty() {
			continue
		}
		cycle, ok := coerceInt(cycleCell)
		if !ok {
			return parseErr(f.Tag(), sheet.Name(), r, "cycle cell %q is not numeric", cycleCell.Text())
		}

		well := defaultWell
		if wellCol >= 0 {
			label := sheet.Cell(r, wellCol).Text()
			if !isWellLabel(label) {
				continue
			}
			well = normalizeWell(label)
		}

		for c, ch := range channelCols {
			cell := sheet.Cell(r, c)
			if cell.IsEmpty() || isUndetermined(cell.Text()) {
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
