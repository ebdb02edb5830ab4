package formats

import (
	"context"
	"fmt"
	"log/slog"

	"pcrcli/internal/workbook"
	"pcrcli/pkg/contracts/domain"
)

// Format couples a vendor layout's detector and parser.
//
// Matches must be cheap and side-effect-free: sheet-name membership and
// header keywords only, never a full parse, and never an error; a missing
// sheet is a non-match. Parse may assume Matches returned true and returns
// either a complete record or a *ParseError; it must not guess around
// structural damage.
type Format interface {
	Tag() domain.VendorFormat
	Matches(wb *workbook.Workbook) bool
	Parse(wb *workbook.Workbook) (*domain.ExperimentRecord, error)
}

// Registry holds the ordered set of registered formats. It is built once at
// startup and read-only afterwards; registration order is the tie-break when
// more than one detector would match, so narrow formats register first.
type Registry struct {
	formats []Format
	logger  *slog.Logger
}

// NewRegistry builds a registry over an explicit format list.
func NewRegistry(logger *slog.Logger, formats ...Format) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		formats: formats,
		logger:  logger.With(slog.String("component", "formats.registry")),
	}
}

// DefaultRegistry registers the built-in formats, narrowest first so the
// generic channel-table layout can never shadow a vendor layout.
func DefaultRegistry(logger *slog.Logger) *Registry {
	return NewRegistry(logger,
		NewABI7500(),
		NewVendorA(),
		NewChannelTable(),
	)
}

// Tags returns the registered format tags in registration order.
func (r *Registry) Tags() []domain.VendorFormat {
	out := make([]domain.VendorFormat, len(r.formats))
	for i, f := range r.formats {
		out[i] = f.Tag()
	}
	return out
}

// Analyze opens the file, runs detectors in registration order, and parses
// with the first match. Each call is a single stateless attempt: the same
// unmodified file always yields the same result. Failures are one of
// workbook.ErrUnreadableFile, *UnsupportedFormatError, or *ParseError.
func (r *Registry) Analyze(ctx context.Context, path string) (*domain.ExperimentRecord, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}

	for _, f := range r.formats {
		if !f.Matches(wb) {
			continue
		}
		r.logger.InfoContext(ctx, "format detected",
			slog.String("path", path),
			slog.String("format", string(f.Tag())))

		record, err := f.Parse(wb)
		if err != nil {
			return nil, err
		}
		record.SourcePath = path
		if err := record.Validate(); err != nil {
			return nil, &ParseError{
				Format: f.Tag(),
				Row:    -1,
				Detail: "record failed invariant validation",
				Err:    err,
			}
		}
		r.logger.InfoContext(ctx, "file parsed",
			slog.String("path", path),
			slog.String("format", string(f.Tag())),
			slog.Int("wells", len(record.Wells)),
			slog.Int("cycles", record.CycleCount))
		return record, nil
	}

	r.logger.WarnContext(ctx, "no registered format matched",
		slog.String("path", path),
		slog.Any("sheets", wb.SheetNames()))
	return nil, &UnsupportedFormatError{Path: path, SheetNames: wb.SheetNames()}
}

// inferPlateType picks the plate geometry from the highest well coordinate
// seen: anything past row H or column 12 means a 384-well plate.
func inferPlateType(wells []domain.WellResult) domain.PlateType {
	for i := range wells {
		row, col, err := splitWellLabel(wells[i].Well)
		if err != nil {
			continue
		}
		if row > 'H' || col > 12 {
			return domain.Plate384
		}
	}
	return domain.Plate96
}

func splitWellLabel(label string) (rune, int, error) {
	if len(label) < 2 {
		return 0, 0, fmt.Errorf("short well label %q", label)
	}
	row := rune(label[0])
	var col int
	if _, err := fmt.Sscanf(label[1:], "%d", &col); err != nil {
		return 0, 0, fmt.Errorf("well label %q: %w", label, err)
	}
	return row, col, nil
}
