package formats

import (
	"sort"

	"pcrcli/pkg/contracts/domain"
)

// seriesKind selects which curve map on a WellResult a reading lands in.
type seriesKind int

const (
	seriesAmplification seriesKind = iota
	seriesRaw
)

// recordBuilder assembles WellResults from scattered per-row observations
// while preserving the source well order. Curve readings are collected per
// (well, channel, cycle) and checked for density when the record is built.
type recordBuilder struct {
	format    domain.VendorFormat
	sheet     string
	wellOrder []string
	wells     map[string]*wellDraft
}

type wellDraft struct {
	sample string
	ct     map[domain.Channel]float64
	curves map[seriesKind]map[domain.Channel]map[int]curveCell
}

type curveCell struct {
	reading float64
	rowIdx  int
}

func newRecordBuilder(format domain.VendorFormat, sheet string) *recordBuilder {
	return &recordBuilder{
		format: format,
		sheet:  sheet,
		wells:  make(map[string]*wellDraft),
	}
}

func (b *recordBuilder) well(label string) *wellDraft {
	if w, ok := b.wells[label]; ok {
		return w
	}
	w := &wellDraft{
		ct:     make(map[domain.Channel]float64),
		curves: make(map[seriesKind]map[domain.Channel]map[int]curveCell),
	}
	b.wells[label] = w
	b.wellOrder = append(b.wellOrder, label)
	return w
}

// Touch registers a well (and optionally its sample name) without data, so
// setup sheets can fix the well order before curves arrive.
func (b *recordBuilder) Touch(well, sample string) {
	w := b.well(well)
	if sample != "" && w.sample == "" {
		w.sample = sample
	}
}

func (b *recordBuilder) SetCt(well string, ch domain.Channel, ct float64) {
	b.well(well).ct[ch] = ct
}

// AddReading records one curve point. A duplicate cycle for the same well
// and channel means the table is malformed.
func (b *recordBuilder) AddReading(kind seriesKind, well string, ch domain.Channel, cycle int, reading float64, rowIdx int) error {
	w := b.well(well)
	if w.curves[kind] == nil {
		w.curves[kind] = make(map[domain.Channel]map[int]curveCell)
	}
	if w.curves[kind][ch] == nil {
		w.curves[kind][ch] = make(map[int]curveCell)
	}
	if prev, dup := w.curves[kind][ch][cycle]; dup {
		return parseErr(b.format, b.sheet, rowIdx,
			"well %s channel %s: duplicate cycle %d (first at row %d)", well, ch, cycle, prev.rowIdx+1)
	}
	w.curves[kind][ch][cycle] = curveCell{reading: reading, rowIdx: rowIdx}
	return nil
}

// SetSeries stores a complete, already-validated series.
func (b *recordBuilder) SetSeries(kind seriesKind, well string, ch domain.Channel, s domain.CurveSeries) {
	w := b.well(well)
	if w.curves[kind] == nil {
		w.curves[kind] = make(map[domain.Channel]map[int]curveCell)
	}
	cells := make(map[int]curveCell, len(s))
	for _, p := range s {
		cells[p.Cycle] = curveCell{reading: p.Reading}
	}
	w.curves[kind][ch] = cells
}

// Build materializes the record, validating the dense 1..N cycle invariant
// for every collected series and that all series agree on the cycle count.
func (b *recordBuilder) Build(metadata domain.ExperimentMetadata) (*domain.ExperimentRecord, error) {
	record := &domain.ExperimentRecord{
		Format:   b.format,
		Metadata: metadata,
	}
	cycleCount := 0
	for _, label := range b.wellOrder {
		draft := b.wells[label]
		result := domain.WellResult{
			Well:       label,
			SampleName: draft.sample,
		}
		if len(draft.ct) > 0 {
			result.Ct = draft.ct
		}
		for kind, byChannel := range draft.curves {
			out := make(map[domain.Channel]domain.CurveSeries, len(byChannel))
			for ch, cells := range byChannel {
				series, err := b.densify(label, ch, cells)
				if err != nil {
					return nil, err
				}
				if cycleCount == 0 {
					cycleCount = len(series)
				} else if len(series) != cycleCount {
					return nil, parseErr(b.format, b.sheet, -1,
						"well %s channel %s: series has %d cycles, run has %d",
						label, ch, len(series), cycleCount)
				}
				out[ch] = series
			}
			switch kind {
			case seriesAmplification:
				result.Amplification = out
			case seriesRaw:
				result.Raw = out
			}
		}
		record.Wells = append(record.Wells, result)
	}
	record.CycleCount = cycleCount
	record.PlateType = inferPlateType(record.Wells)
	return record, nil
}

func (b *recordBuilder) densify(well string, ch domain.Channel, cells map[int]curveCell) (domain.CurveSeries, error) {
	cycles := make([]int, 0, len(cells))
	for cycle := range cells {
		cycles = append(cycles, cycle)
	}
	sort.Ints(cycles)
	series := make(domain.CurveSeries, 0, len(cycles))
	for i, cycle := range cycles {
		if cycle != i+1 {
			return nil, parseErr(b.format, b.sheet, -1,
				"well %s channel %s: cycle sequence has a gap at cycle %d", well, ch, i+1)
		}
		series = append(series, domain.CurvePoint{Cycle: cycle, Reading: cells[cycle].reading})
	}
	return series, nil
}
