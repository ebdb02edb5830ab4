// Package exporter serializes normalized experiment records to disk.
//
// Records are immutable snapshots, so every export of the same record is
// byte-identical. CSV files are UTF-8 with a BOM prefix so Excel opens the
// non-ASCII metadata keys of vendor exports correctly.
package exporter
