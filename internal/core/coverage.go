package core

// coverage.go compares a file's header with a table's expected columns.
//
// The comparison is informational. It is shown next to the preview and never
// changes the counts of a processing run.

import (
	"fmt"

	"github.com/JonMunkholm/sheetload/internal/ingest"
)

// TypeMismatch notes a matched column whose sampled values do not look like
// the catalog type.
type TypeMismatch struct {
	Column   string     `json:"column"`
	Expected string     `json:"expected"`
	Found    ColumnKind `json:"found"`
}

// Coverage reports how a file's header lines up with a table.
type Coverage struct {
	TableKey   string         `json:"table"`
	Present    []string       `json:"present"`
	Missing    []string       `json:"missing"`
	Extra      []string       `json:"extra"`
	Mismatches []TypeMismatch `json:"mismatches,omitempty"`
}

// Complete reports whether every expected column is present.
func (c *Coverage) Complete() bool {
	return len(c.Missing) == 0
}

// Summary is a one-line description for status areas and the CLI.
func (c *Coverage) Summary() string {
	total := len(c.Present) + len(c.Missing)
	s := fmt.Sprintf("%d of %d expected columns found", len(c.Present), total)
	if len(c.Extra) > 0 {
		s += fmt.Sprintf(", %d extra", len(c.Extra))
	}
	return s
}

// coverageSampleRows bounds the rows sampled for type checks.
const coverageSampleRows = 50

// CheckCoverage compares ds with the catalog entry for tableKey. Header
// names match after NormalizeHeader, so case, accents and separators are
// ignored.
func CheckCoverage(ds *ingest.Dataset, tableKey string) (*Coverage, error) {
	def, ok := Get(tableKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, tableKey)
	}

	cov := &Coverage{
		TableKey: tableKey,
		Present:  []string{},
		Missing:  []string{},
		Extra:    []string{},
	}
	if ds == nil {
		cov.Missing = append(cov.Missing, def.Info.Columns...)
		return cov, nil
	}

	idx := MakeHeaderIndex(ds.Columns)
	expected := make(map[string]bool, len(def.FieldSpecs))

	for _, spec := range def.FieldSpecs {
		key := NormalizeHeader(spec.Name)
		expected[key] = true

		pos, ok := idx[key]
		if !ok {
			cov.Missing = append(cov.Missing, spec.Name)
			continue
		}
		cov.Present = append(cov.Present, spec.Name)

		if m, bad := checkKind(ds, ds.Columns[pos], spec); bad {
			cov.Mismatches = append(cov.Mismatches, m)
		}
	}

	for _, col := range ds.Columns {
		if !expected[NormalizeHeader(col)] {
			cov.Extra = append(cov.Extra, col)
		}
	}
	return cov, nil
}

// checkKind samples a column and flags it when the inferred kind cannot hold
// the catalog type. Text columns accept anything.
func checkKind(ds *ingest.Dataset, col string, spec FieldSpec) (TypeMismatch, bool) {
	if spec.Type == FieldText {
		return TypeMismatch{}, false
	}

	n := min(ds.RowCount(), coverageSampleRows)
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = ds.Value(i, col)
	}

	kind := InferKind(values)
	if kind == KindEmpty {
		return TypeMismatch{}, false
	}

	var ok bool
	switch spec.Type {
	case FieldNumeric:
		ok = kind == KindNumber
	case FieldInteger:
		ok = kind == KindNumber && allIntegers(values)
	case FieldDate:
		ok = kind == KindDate
	case FieldBool:
		ok = kind == KindBool || kind == KindNumber && allBools(values)
	}
	if ok {
		return TypeMismatch{}, false
	}
	return TypeMismatch{Column: spec.Name, Expected: fieldTypeName(spec.Type), Found: kind}, true
}

func allIntegers(values []string) bool {
	for _, v := range values {
		if CleanCell(v) != "" && !ToPgInt8(v).Valid {
			return false
		}
	}
	return true
}

func allBools(values []string) bool {
	for _, v := range values {
		if CleanCell(v) != "" && !ToPgBool(v).Valid {
			return false
		}
	}
	return true
}
