package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"clientes.csv", FormatCSV},
		{"CLIENTES.CSV", FormatCSV},
		{"ventas.xlsx", FormatXLSX},
		{"ventas.XlSx", FormatXLSX},
		{"legacy.xls", FormatXLS},
		{"archive.tar.csv", FormatCSV},
		{"notes.txt", FormatUnknown},
		{"noextension", FormatUnknown},
		{"", FormatUnknown},
		{"trailingdot.", FormatUnknown},
		{"report.csv.bak", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.name); got != tt.want {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestFormatLabel(t *testing.T) {
	if FormatCSV.Label() != "CSV" {
		t.Errorf("csv label = %q", FormatCSV.Label())
	}
	if FormatXLSX.Label() != "Excel" || FormatXLS.Label() != "Excel" {
		t.Error("spreadsheet formats should be labelled Excel")
	}
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode(context.Background(), "notes.txt", strings.NewReader("a,b\n1,2\n"), 8)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecode_SetsMetadata(t *testing.T) {
	ds, err := Decode(context.Background(), "/tmp/upload/clientes.csv", strings.NewReader("a,b\n1,2\n"), 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ds.FileName != "clientes.csv" {
		t.Errorf("FileName = %q, want clientes.csv", ds.FileName)
	}
	if ds.Format != FormatCSV {
		t.Errorf("Format = %v, want csv", ds.Format)
	}
	if ds.SizeBytes != 8 {
		t.Errorf("SizeBytes = %d, want 8", ds.SizeBytes)
	}
}

func TestRepairHeader(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"plain", []string{"a", "b"}, []string{"a", "b"}},
		{"trimmed", []string{" a ", "b\t"}, []string{"a", "b"}},
		{"blank", []string{"a", "", "b", " "}, []string{"a", "__EMPTY", "b", "__EMPTY_1"}},
		{"duplicates", []string{"id", "id", "id"}, []string{"id", "id_1", "id_2"}},
		{"suffix collision", []string{"id", "id_1", "id"}, []string{"id", "id_1", "id_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repairHeader(tt.in)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("repairHeader(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDatasetAccessors(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"a", "b"},
		Records: []Record{{"a": "1"}, {"a": "2", "b": ""}},
	}

	if ds.RowCount() != 2 {
		t.Errorf("RowCount = %d", ds.RowCount())
	}
	if ds.Value(0, "a") != "1" || ds.Value(0, "b") != "" || ds.Value(9, "a") != "" {
		t.Error("Value returned unexpected cells")
	}
	if ds.Has(0, "b") {
		t.Error("row 0 should not carry b")
	}
	if !ds.Has(1, "b") {
		t.Error("row 1 should carry an empty b")
	}

	var nilDS *Dataset
	if nilDS.RowCount() != 0 {
		t.Error("nil dataset should have zero rows")
	}
}
