package core

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/sheetload/internal/ingest"
)

func TestCheckCoverage(t *testing.T) {
	useTestCatalog(t)

	ds := makeDataset([]string{"Nombre Completo", "EMAIL", "notas"},
		ingest.Record{"Nombre Completo": "Ana", "EMAIL": "ana@example.com", "notas": "x"},
	)

	cov, err := CheckCoverage(ds, "dim_clientes")
	if err != nil {
		t.Fatalf("CheckCoverage: %v", err)
	}
	if len(cov.Present) != 2 || cov.Present[0] != "nombre_completo" || cov.Present[1] != "email" {
		t.Errorf("Present = %v", cov.Present)
	}
	if len(cov.Missing) != 1 || cov.Missing[0] != "fecha_registro" {
		t.Errorf("Missing = %v", cov.Missing)
	}
	if len(cov.Extra) != 1 || cov.Extra[0] != "notas" {
		t.Errorf("Extra = %v", cov.Extra)
	}
	if cov.Complete() {
		t.Error("coverage with a missing column should not be complete")
	}
	if got, want := cov.Summary(), "2 of 3 expected columns found, 1 extra"; got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}

func TestCheckCoverage_TypeMismatches(t *testing.T) {
	useTestCatalog(t)

	tests := []struct {
		name     string
		row      ingest.Record
		wantCols []string
	}{
		{
			name: "all good",
			row:  ingest.Record{"id_cliente": "150", "total_venta": "2,832.00", "pagado": "si"},
		},
		{
			name: "bool as digits",
			row:  ingest.Record{"id_cliente": "150", "total_venta": "10", "pagado": "1"},
		},
		{
			name:     "text in integer column",
			row:      ingest.Record{"id_cliente": "abc", "total_venta": "10", "pagado": "no"},
			wantCols: []string{"id_cliente"},
		},
		{
			name:     "fraction in integer column",
			row:      ingest.Record{"id_cliente": "2.5", "total_venta": "10", "pagado": "no"},
			wantCols: []string{"id_cliente"},
		},
		{
			name:     "text in numeric and bool columns",
			row:      ingest.Record{"id_cliente": "1", "total_venta": "diez", "pagado": "quizas"},
			wantCols: []string{"total_venta", "pagado"},
		},
		{
			name: "blank cells are not mismatches",
			row:  ingest.Record{"id_cliente": "", "total_venta": "", "pagado": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := makeDataset([]string{"id_cliente", "total_venta", "pagado"}, tt.row)
			cov, err := CheckCoverage(ds, "fact_ventas")
			if err != nil {
				t.Fatalf("CheckCoverage: %v", err)
			}
			if !cov.Complete() {
				t.Fatalf("Missing = %v", cov.Missing)
			}
			if len(cov.Mismatches) != len(tt.wantCols) {
				t.Fatalf("Mismatches = %+v, want columns %v", cov.Mismatches, tt.wantCols)
			}
			for i, col := range tt.wantCols {
				if cov.Mismatches[i].Column != col {
					t.Errorf("mismatch %d column = %s, want %s", i, cov.Mismatches[i].Column, col)
				}
			}
		})
	}
}

func TestCheckCoverage_NilDataset(t *testing.T) {
	useTestCatalog(t)

	cov, err := CheckCoverage(nil, "fact_ventas")
	if err != nil {
		t.Fatalf("CheckCoverage: %v", err)
	}
	if len(cov.Missing) != 3 || len(cov.Present) != 0 {
		t.Errorf("Present/Missing = %v/%v", cov.Present, cov.Missing)
	}
}

func TestCheckCoverage_UnknownTable(t *testing.T) {
	useTestCatalog(t)

	_, err := CheckCoverage(makeDataset([]string{"a"}), "dim_nada")
	if !errors.Is(err, ErrUnknownTable) {
		t.Errorf("err = %v, want ErrUnknownTable", err)
	}
}
