package core

import (
	"fmt"
	"testing"

	"github.com/JonMunkholm/sheetload/internal/ingest"
)

func makeDataset(columns []string, rows ...ingest.Record) *ingest.Dataset {
	return &ingest.Dataset{
		FileName: "clientes.csv",
		Format:   ingest.FormatCSV,
		Columns:  columns,
		Records:  rows,
	}
}

func TestBuildPreview_Empty(t *testing.T) {
	for _, ds := range []*ingest.Dataset{nil, makeDataset([]string{"a"})} {
		p := BuildPreview(ds, 5)
		if !p.Empty || p.Note != NoteEmpty {
			t.Errorf("empty preview = %+v", p)
		}
		if p.Total != 0 || len(p.Rows) != 0 || len(p.Columns) != 0 {
			t.Errorf("empty preview has content: %+v", p)
		}
	}
}

func TestBuildPreview_Truncates(t *testing.T) {
	var rows []ingest.Record
	for i := 1; i <= 7; i++ {
		rows = append(rows, ingest.Record{"id": fmt.Sprint(i), "nombre": fmt.Sprintf("Cliente %d", i)})
	}
	ds := makeDataset([]string{"id", "nombre"}, rows...)

	p := BuildPreview(ds, 5)
	if p.Total != 7 || p.Shown != 5 || len(p.Rows) != 5 {
		t.Fatalf("Total/Shown/Rows = %d/%d/%d, want 7/5/5", p.Total, p.Shown, len(p.Rows))
	}
	if !p.Truncated || p.Note != "Showing 5 of 7 rows" {
		t.Errorf("Truncated = %v, Note = %q", p.Truncated, p.Note)
	}
	if p.Rows[4][1] != "Cliente 5" {
		t.Errorf("last shown row = %v", p.Rows[4])
	}
	if p.FileName != "clientes.csv" || p.Format != "csv" {
		t.Errorf("FileName/Format = %q/%q", p.FileName, p.Format)
	}
}

func TestBuildPreview_ExactLimitNotTruncated(t *testing.T) {
	ds := makeDataset([]string{"a"}, ingest.Record{"a": "1"}, ingest.Record{"a": "2"})

	p := BuildPreview(ds, 2)
	if p.Truncated || p.Note != "" {
		t.Errorf("Truncated = %v, Note = %q", p.Truncated, p.Note)
	}

	if p := BuildPreview(ds, 0); p.Shown != 2 {
		t.Errorf("default limit shows %d rows, want 2", p.Shown)
	}
}

func TestBuildPreview_ColumnsFromFirstRecord(t *testing.T) {
	// Spreadsheet rows omit empty cells, so the first record decides the header.
	ds := makeDataset([]string{"a", "b", "c"},
		ingest.Record{"a": "1", "c": "x"},
		ingest.Record{"a": "2", "b": "y", "c": "z"},
	)

	p := BuildPreview(ds, 5)
	names := p.ColumnNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "c" {
		t.Fatalf("columns = %v, want [a c]", names)
	}
	if p.Rows[1][1] != "z" {
		t.Errorf("row 2 = %v", p.Rows[1])
	}
}

func TestBuildPreview_ColumnKinds(t *testing.T) {
	ds := makeDataset([]string{"precio", "fecha", "activo", "nombre", "vacio"},
		ingest.Record{"precio": "1200.00", "fecha": "2024-01-15", "activo": "si", "nombre": "Saco", "vacio": ""},
		ingest.Record{"precio": "$650", "fecha": "16/01/2024", "activo": "no", "nombre": "Chompa", "vacio": ""},
	)

	p := BuildPreview(ds, 5)
	want := []ColumnKind{KindNumber, KindDate, KindBool, KindText, KindEmpty}
	for i, k := range want {
		if p.Columns[i].Kind != k {
			t.Errorf("column %s kind = %s, want %s", p.Columns[i].Name, p.Columns[i].Kind, k)
		}
	}
}

func TestInferKind(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   ColumnKind
	}{
		{"all blank", []string{"", "  "}, KindEmpty},
		{"numbers ignore blanks", []string{"1", "", "2.5"}, KindNumber},
		{"zero and one are numbers", []string{"1", "0"}, KindNumber},
		{"dates", []string{"2024-01-15", "Jan 16, 2024"}, KindDate},
		{"bools", []string{"true", "No"}, KindBool},
		{"mixed", []string{"1", "Lima"}, KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferKind(tt.values); got != tt.want {
				t.Errorf("InferKind(%v) = %s, want %s", tt.values, got, tt.want)
			}
		})
	}
}
