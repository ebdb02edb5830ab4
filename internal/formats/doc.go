// Package formats detects and parses vendor-specific PCR export layouts
// into the normalized experiment model.
//
// # Architecture
//
// Each supported layout is a Format: a detector (Matches) paired with a
// parser (Parse). The Registry holds formats in a fixed registration order
// and dispatches a file to the first detector that matches. Adding a vendor
// layout means adding one Format and registering it; no existing format is
// touched, and formats never depend on each other.
//
// Detectors use cheap syntactic signals only (sheet names and header
// keywords) and never fail: a missing sheet is a non-match. Parsers own
// all value coercion (numeric-looking text, undetermined Ct markers,
// channel aliases) and reject structurally damaged tables with a
// *ParseError instead of emitting partial records.
//
// # Usage
//
//	registry := formats.DefaultRegistry(logger)
//	record, err := registry.Analyze(ctx, "run_export.xlsx")
//	if err != nil {
//	    // workbook.ErrUnreadableFile, *UnsupportedFormatError, or *ParseError
//	}
//
// # Built-in formats
//
//	abi7500          Applied Biosystems 7500 exports
//	vendor_a         Chinese-labelled 实验数据/扩增曲线 exports
//	standard_channel generic cycle × channel tables (registered last)
package formats
