package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"pcrcli/pkg/contracts/domain"
)

// WriteRecordJSON serializes the complete record snapshot as indented JSON.
func (w *CSVWriter) WriteRecordJSON(record *domain.ExperimentRecord, name string) error {
	fullPath := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedChannels(m map[domain.Channel]domain.CurveSeries) []domain.Channel {
	out := make([]domain.Channel, 0, len(m))
	for ch := range m {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
