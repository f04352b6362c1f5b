// Package exporter writes the cleaned survey table as CSV or XLSX.
//
// The CSV output starts with a UTF-8 byte order mark so spreadsheet
// applications detect the encoding of accented answers. The XLSX output
// keeps integer cells numeric.
//
// Example usage:
//
//	var buf bytes.Buffer
//	if err := exporter.Write(&buf, exporter.FormatXLSX, table); err != nil {
//		return err
//	}
package exporter
