package ingest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows into the default sheet and returns the file bytes.
// Extra sheets are appended after the default one.
func buildWorkbook(t *testing.T, rows [][]any, extraSheets ...string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	for _, name := range extraSheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		if err := f.SetCellValue(name, "A1", "ignored"); err != nil {
			t.Fatalf("SetCellValue: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"nombre_producto", "categoria", "precio_unitario"},
		{"Saco Alpaca", "Sacos", 1200},
		{nil, nil, nil},
		{"Pantalón Baby Alpaca", nil, 650},
	}, "Resumen")

	ds, err := Decode(context.Background(), "productos.xlsx", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if ds.Format != FormatXLSX {
		t.Errorf("Format = %v", ds.Format)
	}
	if ds.Sheet != "Sheet1" {
		t.Errorf("Sheet = %q, want first sheet", ds.Sheet)
	}
	if got := strings.Join(ds.Columns, ","); got != "nombre_producto,categoria,precio_unitario" {
		t.Errorf("Columns = %q", got)
	}
	if ds.RowCount() != 2 {
		t.Fatalf("RowCount = %d, want 2", ds.RowCount())
	}
	if got := ds.Value(0, "precio_unitario"); got != "1200" {
		t.Errorf("precio_unitario = %q", got)
	}
	if ds.Has(1, "categoria") {
		t.Error("empty spreadsheet cell should be absent")
	}
	if got := ds.Value(1, "nombre_producto"); got != "Pantalón Baby Alpaca" {
		t.Errorf("nombre_producto = %q", got)
	}
}

func TestDecodeXLSX_BlankHeaders(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"id", nil, "id"},
		{1, 2, 3},
	})

	ds, err := Decode(context.Background(), "x.xlsx", bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := strings.Join(ds.Columns, ","); got != "id,__EMPTY,id_1" {
		t.Errorf("Columns = %q", got)
	}
	if ds.Value(0, "__EMPTY") != "2" || ds.Value(0, "id_1") != "3" {
		t.Errorf("record = %v", ds.Records[0])
	}
}

func TestDecodeXLSX_EmptySheet(t *testing.T) {
	data := buildWorkbook(t, nil)

	_, err := Decode(context.Background(), "x.xlsx", bytes.NewReader(data), 0)
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestDecodeXLSX_Corrupt(t *testing.T) {
	_, err := Decode(context.Background(), "x.xlsx", strings.NewReader("not a zip"), 9)
	if err == nil {
		t.Fatal("expected error for corrupt workbook")
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		t.Error("corrupt workbook is a decode error, not an unsupported format")
	}
}
