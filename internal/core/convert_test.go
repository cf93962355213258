package core

import (
	"testing"
	"time"
)

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
	}{
		{"integer", "123", true},
		{"negative", "-456", true},
		{"decimal", "1200.00", true},
		{"leading point", ".99", true},
		{"thousands", "1,234,567.89", true},
		{"dollar", "$650.00", true},
		{"euro", "€ 99", true},
		{"sol", "S/ 1,200.50", true},
		{"accounting negative", "(325.00)", true},
		{"scientific notation unsupported by pgtype", "1.5e3", false},
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"text", "Alpaca", false},
		{"two points", "1.2.3", false},
		{"date", "2024-01-15", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToPgNumeric(tt.input); got.Valid != tt.wantValid {
				t.Errorf("ToPgNumeric(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
		})
	}
}

func TestToPgInt8(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      int64
	}{
		{"150", true, 150},
		{"20240115", true, 20240115},
		{"-3", true, -3},
		{"1,000", true, 1000},
		{"2.5", false, 0},
		{"F2024000001", false, 0},
		{"", false, 0},
	}

	for _, tt := range tests {
		got := ToPgInt8(tt.input)
		if got.Valid != tt.wantValid {
			t.Errorf("ToPgInt8(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			continue
		}
		if got.Valid && got.Int64 != tt.want {
			t.Errorf("ToPgInt8(%q) = %d, want %d", tt.input, got.Int64, tt.want)
		}
	}
}

func TestToPgDate(t *testing.T) {
	tests := []struct {
		input string
		want  string // YYYY-MM-DD, empty for invalid
	}{
		{"2024-01-15", "2024-01-15"},
		{"2024/01/15", "2024-01-15"},
		{"15/01/2024", "2024-01-15"},
		{"15-01-2024", "2024-01-15"},
		{"2024-01-15 10:30:00", "2024-01-15"},
		{"Jan 15, 2024", "2024-01-15"},
		{"15 Jan 2024", "2024-01-15"},
		{"01/13/2024", "2024-01-13"}, // month-first fallback when day-first fails
		{"15/01/24", "2024-01-15"},
		{"", ""},
		{"not a date", ""},
		{"2024-13-45", ""},
	}

	for _, tt := range tests {
		got := ToPgDate(tt.input)
		if tt.want == "" {
			if got.Valid {
				t.Errorf("ToPgDate(%q) should be invalid, got %v", tt.input, got.Time)
			}
			continue
		}
		if !got.Valid {
			t.Errorf("ToPgDate(%q) invalid, want %s", tt.input, tt.want)
			continue
		}
		if s := got.Time.Format("2006-01-02"); s != tt.want {
			t.Errorf("ToPgDate(%q) = %s, want %s", tt.input, s, tt.want)
		}
	}
}

func TestToPgDate_TwoDigitPivot(t *testing.T) {
	got := ToPgDate("01/01/99")
	if !got.Valid {
		t.Fatal("expected valid date")
	}
	if got.Time.Year() > time.Now().Year()+TwoDigitYearPivot {
		t.Errorf("year %d not pivoted", got.Time.Year())
	}
}

func TestToPgBool(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		wantBool  bool
	}{
		{"true", true, true},
		{"YES", true, true},
		{"Sí", true, true},
		{"si", true, true},
		{"0", true, false},
		{"no", true, false},
		{"f", true, false},
		{"maybe", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		got := ToPgBool(tt.input)
		if got.Valid != tt.wantValid || got.Bool != tt.wantBool {
			t.Errorf("ToPgBool(%q) = {%v %v}, want {%v %v}", tt.input, got.Bool, got.Valid, tt.wantBool, tt.wantValid)
		}
	}
}

func TestToPgText(t *testing.T) {
	if got := ToPgText("  Lima "); !got.Valid || got.String != "Lima" {
		t.Errorf("ToPgText = %+v", got)
	}
	if ToPgText(" \t").Valid {
		t.Error("blank text should be invalid")
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"  value  ", "value"},
		{`="00123"`, "00123"},
		{"=SUM", "SUM"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"nombre_completo", "nombre_completo"},
		{"Nombre Completo", "nombre_completo"},
		{"  Teléfono ", "telefono"},
		{"Tipo-Cliente", "tipo_cliente"},
		{"precio  unitario", "precio_unitario"},
		{"_leading", "leading"},
		{"Año", "ano"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeHeader(tt.input); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{"Email", "Teléfono", "email"})

	if idx["email"] != 0 {
		t.Errorf("email -> %d, want first occurrence 0", idx["email"])
	}
	if idx["telefono"] != 1 {
		t.Errorf("telefono -> %d, want 1", idx["telefono"])
	}
	if len(idx) != 2 {
		t.Errorf("len = %d, want 2", len(idx))
	}
}
