package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"pcrcli/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a new CSV writer rooted at dir
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(name string, options WriteOptions) error {
	fullPath := filepath.Join(w.dir, name)

	slog.Info("Writing CSV file",
		slog.String("path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// BOM helps Excel recognize UTF-8; vendor files carry non-ASCII
	// metadata keys.
	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

// WriteRecordCSV exports a complete experiment record as three CSV files in
// dir: metadata.csv, ct_values.csv, and curves.csv. The record is an
// immutable snapshot, so re-exporting the same record produces identical
// files.
func (w *CSVWriter) WriteRecordCSV(record *domain.ExperimentRecord) error {
	if err := w.writeMetadata(record); err != nil {
		return err
	}
	if err := w.writeCtTable(record); err != nil {
		return err
	}
	return w.writeCurves(record)
}

func (w *CSVWriter) writeMetadata(record *domain.ExperimentRecord) error {
	rows := make([][]string, 0, len(record.Metadata)+3)
	rows = append(rows,
		[]string{"format", string(record.Format)},
		[]string{"plate_type", string(record.PlateType)},
		[]string{"cycle_count", strconv.Itoa(record.CycleCount)},
	)
	for _, key := range sortedKeys(record.Metadata) {
		rows = append(rows, []string{key, record.Metadata[key]})
	}
	return w.WriteCSV("metadata.csv", WriteOptions{
		Headers:   []string{"key", "value"},
		Records:   rows,
		BOMPrefix: true,
	})
}

// writeCtTable emits one row per well and channel. An undetermined Ct is an
// empty cell, never 0.
func (w *CSVWriter) writeCtTable(record *domain.ExperimentRecord) error {
	var rows [][]string
	for i := range record.Wells {
		well := &record.Wells[i]
		for _, ch := range well.Channels() {
			ct := ""
			if v, ok := well.Ct[ch]; ok {
				ct = strconv.FormatFloat(v, 'f', -1, 64)
			}
			rows = append(rows, []string{well.Well, well.SampleName, string(ch), ct})
		}
	}
	return w.WriteCSV("ct_values.csv", WriteOptions{
		Headers:   []string{"well", "sample", "channel", "ct"},
		Records:   rows,
		BOMPrefix: true,
	})
}

func (w *CSVWriter) writeCurves(record *domain.ExperimentRecord) error {
	var rows [][]string
	appendSeries := func(well string, kind string, ch domain.Channel, s domain.CurveSeries) {
		for _, p := range s {
			rows = append(rows, []string{
				well,
				string(ch),
				kind,
				strconv.Itoa(p.Cycle),
				strconv.FormatFloat(p.Reading, 'f', -1, 64),
			})
		}
	}
	for i := range record.Wells {
		well := &record.Wells[i]
		for _, ch := range sortedChannels(well.Amplification) {
			appendSeries(well.Well, "amplification", ch, well.Amplification[ch])
		}
		for _, ch := range sortedChannels(well.Raw) {
			appendSeries(well.Well, "raw", ch, well.Raw[ch])
		}
	}
	return w.WriteCSV("curves.csv", WriteOptions{
		Headers:   []string{"well", "channel", "kind", "cycle", "reading"},
		Records:   rows,
		BOMPrefix: true,
	})
}
