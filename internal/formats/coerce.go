package formats

import (
	"regexp"
	"strconv"
	"strings"

	"pcrcli/internal/workbook"
	"pcrcli/pkg/contracts/domain"
)

// wellPattern matches plate well labels like A1 or P24. Rows run A-H on a
// 96-well plate and A-P on a 384-well plate.
var wellPattern = regexp.MustCompile(`^[A-Pa-p][0-9]{1,2}$`)

// undeterminedMarkers are the vendor spellings of "no Ct reported". They map
// to an absent Ct, never to zero: zero and "no amplification" are not
// interchangeable downstream.
var undeterminedMarkers = map[string]struct{}{
	"UNDETERMINED": {},
	"UNDET":        {},
	"NOCT":         {},
	"NO CT":        {},
	"N/A":          {},
	"NA":           {},
	"N":            {},
	"-":            {},
	"--":           {},
}

// knownChannels is the dye vocabulary used for header detection. Channels in
// a parsed record are still discovered per file; this list only drives the
// cheap header signals.
var knownChannels = []domain.Channel{
	domain.ChannelFAM,
	domain.ChannelHEX,
	domain.ChannelVIC,
	domain.ChannelCY3,
	domain.ChannelCY5,
	domain.ChannelROX,
}

func isWellLabel(s string) bool {
	return wellPattern.MatchString(strings.TrimSpace(s))
}

func normalizeWell(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizeChannel trims and uppercases a channel cell and applies vendor
// aliases. JOE is the legacy name of the VIC dye.
func normalizeChannel(s string) domain.Channel {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "JOE" {
		return domain.ChannelVIC
	}
	return domain.Channel(name)
}

// channelFromHeader reports whether a header cell names a known channel,
// matching by containment so headers like "HEX (Ct)" still register.
func channelFromHeader(v workbook.Value) (domain.Channel, bool) {
	if v.IsEmpty() {
		return "", false
	}
	text := strings.ToUpper(strings.TrimSpace(v.Text()))
	if text == "JOE" {
		return domain.ChannelVIC, true
	}
	for _, ch := range knownChannels {
		if strings.Contains(text, string(ch)) {
			return ch, true
		}
	}
	return "", false
}

func isUndetermined(s string) bool {
	_, ok := undeterminedMarkers[strings.ToUpper(strings.TrimSpace(s))]
	return ok
}

// coerceFloat extracts a numeric value from a cell, coercing numeric-looking
// text the way vendor exports need: trimmed, comma group separators removed.
func coerceFloat(v workbook.Value) (float64, bool) {
	if n, ok := v.Number(); ok {
		return n, true
	}
	if v.IsEmpty() {
		return 0, false
	}
	text := strings.ReplaceAll(strings.TrimSpace(v.Text()), ",", "")
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// coerceCt reads a Ct cell: empty cells and recognized undetermined markers
// yield absent (ok=false), numeric values yield the Ct.
func coerceCt(v workbook.Value) (float64, bool) {
	if v.IsEmpty() {
		return 0, false
	}
	if _, isNum := v.Number(); !isNum && isUndetermined(v.Text()) {
		return 0, false
	}
	return coerceFloat(v)
}

// coerceInt reads an integer cell, accepting floats with no fraction.
func coerceInt(v workbook.Value) (int, bool) {
	n, ok := coerceFloat(v)
	if !ok || n != float64(int(n)) {
		return 0, false
	}
	return int(n), true
}

// cycleBlock is a run of columns whose headers are the consecutive integers
// 1..length; vendor layouts use such runs for per-cycle reading blocks.
type cycleBlock struct {
	startCol int
	length   int
}

// findCycleBlocks scans a header row for dense integer runs starting at 1.
func findCycleBlocks(row []workbook.Value) []cycleBlock {
	var blocks []cycleBlock
	for col := 0; col < len(row); {
		n, ok := coerceInt(row[col])
		if !ok || n != 1 {
			col++
			continue
		}
		length := 1
		for col+length < len(row) {
			next, ok := coerceInt(row[col+length])
			if !ok || next != length+1 {
				break
			}
			length++
		}
		blocks = append(blocks, cycleBlock{startCol: col, length: length})
		col += length
	}
	return blocks
}

// readCycleBlock extracts one curve series from a fixed-width cycle block.
// Every cell in the block must be numeric: a gap or garbled reading inside a
// recognized curve table is structural damage, not data to skip.
func readCycleBlock(format domain.VendorFormat, sheet string, rowIdx int, row []workbook.Value, block cycleBlock) (domain.CurveSeries, error) {
	series := make(domain.CurveSeries, 0, block.length)
	for i := 0; i < block.length; i++ {
		col := block.startCol + i
		var v workbook.Value
		if col < len(row) {
			v = row[col]
		}
		reading, ok := coerceFloat(v)
		if !ok {
			return nil, parseErr(format, sheet, rowIdx,
				"curve block: cycle %d has no numeric reading", i+1)
		}
		series = append(series, domain.CurvePoint{Cycle: i + 1, Reading: reading})
	}
	return series, nil
}
