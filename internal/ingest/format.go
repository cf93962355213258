// Package ingest decodes uploaded tabular files into records.
//
// The format is chosen from the file-name extension only:
//
//	.csv   comma separated text, first row is the header
//	.xlsx  Office Open XML workbook, first sheet
//	.xls   legacy BIFF workbook, first sheet
//
// Every decoder produces the same Dataset shape: an ordered header and a list
// of records keyed by header name.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format identifies a supported input format.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
	FormatXLS
)

// String returns the lower-case extension for the format.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatXLS:
		return "xls"
	default:
		return "unknown"
	}
}

// IsSpreadsheet reports whether the format is an Excel workbook.
func (f Format) IsSpreadsheet() bool {
	return f == FormatXLSX || f == FormatXLS
}

// Label is the human name used in status messages.
func (f Format) Label() string {
	if f.IsSpreadsheet() {
		return "Excel"
	}
	if f == FormatCSV {
		return "CSV"
	}
	return "Unknown"
}

var (
	// ErrUnsupportedFormat is returned for any extension other than csv, xlsx or xls.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("empty file")
)

// DetectFormat maps a file name to a Format using the text after the last dot.
// Matching is case-insensitive.
func DetectFormat(fileName string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch ext {
	case "csv":
		return FormatCSV
	case "xlsx":
		return FormatXLSX
	case "xls":
		return FormatXLS
	default:
		return FormatUnknown
	}
}

// Decode reads r according to the format implied by fileName.
// size is the byte length of r when known, or 0.
func Decode(ctx context.Context, fileName string, r io.Reader, size int64) (*Dataset, error) {
	format := DetectFormat(fileName)

	var (
		ds  *Dataset
		err error
	)
	switch format {
	case FormatCSV:
		ds, err = decodeCSV(ctx, r)
	case FormatXLSX:
		ds, err = decodeXLSX(ctx, r)
	case FormatXLS:
		ds, err = decodeXLS(ctx, r, size)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	ds.FileName = filepath.Base(fileName)
	ds.Format = format
	if ds.SizeBytes == 0 {
		ds.SizeBytes = size
	}
	return ds, nil
}
