package domain

import (
	"fmt"
	"sort"
)

// VendorFormat identifies the spreadsheet layout convention a record was
// extracted from. The set is closed but extensible: registering a new format
// introduces a new tag without touching existing ones.
type VendorFormat string

const (
	FormatABI7500         VendorFormat = "abi7500"
	FormatVendorA         VendorFormat = "vendor_a"
	FormatStandardChannel VendorFormat = "standard_channel"
)

// Channel names a fluorescence detection channel. The set of channels is
// discovered per file, not hardcoded: vendors disagree on naming, so any
// non-empty string is a valid channel after alias normalization.
type Channel string

// Common dye channels seen across vendor exports.
const (
	ChannelFAM Channel = "FAM"
	ChannelHEX Channel = "HEX"
	ChannelVIC Channel = "VIC"
	ChannelCY3 Channel = "CY3"
	ChannelCY5 Channel = "CY5"
	ChannelROX Channel = "ROX"
)

// PlateType is the physical plate geometry of the run.
type PlateType string

const (
	Plate96  PlateType = "96"
	Plate384 PlateType = "384"
)

// CurvePoint is one cycle of an amplification or raw fluorescence curve.
type CurvePoint struct {
	Cycle   int     `json:"cycle"`
	Reading float64 `json:"reading"`
}

// CurveSeries is the ordered per-cycle readings for one well and channel.
// Cycle numbers must form the dense sequence 1..N; parsers reject source
// tables that violate this rather than emitting a truncated series.
type CurveSeries []CurvePoint

// Validate checks the dense-cycle invariant.
func (s CurveSeries) Validate() error {
	for i, p := range s {
		if p.Cycle != i+1 {
			return fmt.Errorf("curve series: cycle at index %d is %d, want %d", i, p.Cycle, i+1)
		}
	}
	return nil
}

// Readings returns the fluorescence values in cycle order.
func (s CurveSeries) Readings() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Reading
	}
	return out
}

// WellResult holds everything extracted for one physical well: an optional
// Ct value and optional curve series per channel. A channel absent from the
// Ct map means the instrument reported no Ct (undetermined / no
// amplification); this is distinct from a Ct of 0.0 and must stay so.
type WellResult struct {
	Well          string                  `json:"well" validate:"required"`
	SampleName    string                  `json:"sample_name,omitempty"`
	Ct            map[Channel]float64     `json:"ct,omitempty"`
	Amplification map[Channel]CurveSeries `json:"amplification,omitempty"`
	Raw           map[Channel]CurveSeries `json:"raw,omitempty"`
}

// CtValue returns the Ct for a channel and whether one was reported.
func (w *WellResult) CtValue(ch Channel) (float64, bool) {
	ct, ok := w.Ct[resolveChannel(w.Ct, ch)]
	return ct, ok
}

// Series returns the amplification series for a channel, falling back
// between HEX and VIC, which report the same dye family on different
// instruments.
func (w *WellResult) Series(ch Channel) (CurveSeries, bool) {
	s, ok := w.Amplification[resolveChannel(w.Amplification, ch)]
	return s, ok
}

// RawSeries returns the raw fluorescence series for a channel with the same
// HEX/VIC fallback as Series.
func (w *WellResult) RawSeries(ch Channel) (CurveSeries, bool) {
	s, ok := w.Raw[resolveChannel(w.Raw, ch)]
	return s, ok
}

// Channels lists every channel this well carries data for, sorted.
func (w *WellResult) Channels() []Channel {
	seen := map[Channel]struct{}{}
	for ch := range w.Ct {
		seen[ch] = struct{}{}
	}
	for ch := range w.Amplification {
		seen[ch] = struct{}{}
	}
	for ch := range w.Raw {
		seen[ch] = struct{}{}
	}
	out := make([]Channel, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ExperimentMetadata is the free-form key/value block extracted from the
// metadata region of a source file. Keys are unique; values are kept as the
// display text of the source cell.
type ExperimentMetadata map[string]string

// ExperimentRecord is the complete normalized output for one source file.
// It is constructed once by a parser and never mutated afterwards; the
// caller owns it for the duration of the file session.
type ExperimentRecord struct {
	Format     VendorFormat       `json:"format" validate:"required"`
	SourcePath string             `json:"source_path"`
	Metadata   ExperimentMetadata `json:"metadata"`
	Wells      []WellResult       `json:"wells" validate:"dive"`
	CycleCount int                `json:"cycle_count"`
	PlateType  PlateType          `json:"plate_type"`
}

// Well looks up a well result by its label.
func (r *ExperimentRecord) Well(label string) (*WellResult, bool) {
	for i := range r.Wells {
		if r.Wells[i].Well == label {
			return &r.Wells[i], true
		}
	}
	return nil, false
}

// Channels returns the union of channels across all wells, sorted.
func (r *ExperimentRecord) Channels() []Channel {
	seen := map[Channel]struct{}{}
	for i := range r.Wells {
		for _, ch := range r.Wells[i].Channels() {
			seen[ch] = struct{}{}
		}
	}
	out := make([]Channel, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks the record-level invariants: every curve series is dense
// starting at cycle 1, and all series share the record's cycle count.
func (r *ExperimentRecord) Validate() error {
	if r.Format == "" {
		return fmt.Errorf("experiment record: missing vendor format tag")
	}
	for i := range r.Wells {
		w := &r.Wells[i]
		if w.Well == "" {
			return fmt.Errorf("experiment record: well %d has no label", i)
		}
		for ch, s := range w.Amplification {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("well %s channel %s: %w", w.Well, ch, err)
			}
			if r.CycleCount > 0 && len(s) != r.CycleCount {
				return fmt.Errorf("well %s channel %s: series has %d cycles, run has %d",
					w.Well, ch, len(s), r.CycleCount)
			}
		}
		for ch, s := range w.Raw {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("well %s channel %s (raw): %w", w.Well, ch, err)
			}
			if r.CycleCount > 0 && len(s) != r.CycleCount {
				return fmt.Errorf("well %s channel %s (raw): series has %d cycles, run has %d",
					w.Well, ch, len(s), r.CycleCount)
			}
		}
	}
	return nil
}

// resolveChannel applies the HEX/VIC equivalence when the requested channel
// is absent but its counterpart is present.
func resolveChannel[T any](m map[Channel]T, ch Channel) Channel {
	if _, ok := m[ch]; ok {
		return ch
	}
	switch ch {
	case ChannelHEX:
		if _, ok := m[ChannelVIC]; ok {
			return ChannelVIC
		}
	case ChannelVIC:
		if _, ok := m[ChannelHEX]; ok {
			return ChannelHEX
		}
	}
	return ch
}
