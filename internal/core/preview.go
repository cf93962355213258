package core

import (
	"fmt"

	"github.com/JonMunkholm/sheetload/internal/ingest"
)

// DefaultPreviewRows is the number of rows shown in a preview.
const DefaultPreviewRows = 5

// Preview notes.
const (
	NoteEmpty = "No data to display"
)

// ColumnKind is the inferred type of a preview column.
type ColumnKind string

const (
	KindEmpty  ColumnKind = "empty"
	KindText   ColumnKind = "text"
	KindNumber ColumnKind = "number"
	KindDate   ColumnKind = "date"
	KindBool   ColumnKind = "bool"
)

// PreviewColumn is one preview header cell.
type PreviewColumn struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Preview is the bounded first-rows view of a dataset.
type Preview struct {
	FileName  string          `json:"fileName"`
	Format    string          `json:"format"`
	Columns   []PreviewColumn `json:"columns"`
	Rows      [][]string      `json:"rows"`
	Total     int             `json:"total"`
	Shown     int             `json:"shown"`
	Truncated bool            `json:"truncated"`
	Empty     bool            `json:"empty"`
	Note      string          `json:"note,omitempty"`
}

// ColumnNames returns the preview header names.
func (p *Preview) ColumnNames() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
	}
	return names
}

// BuildPreview renders up to limit rows of ds. The columns are the keys of
// the first record in header order; cells missing from a row render as "".
// A non-positive limit uses DefaultPreviewRows.
func BuildPreview(ds *ingest.Dataset, limit int) *Preview {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}

	p := &Preview{Rows: [][]string{}, Columns: []PreviewColumn{}}
	if ds != nil {
		p.FileName = ds.FileName
		p.Format = ds.Format.String()
	}

	total := ds.RowCount()
	p.Total = total
	if total == 0 {
		p.Empty = true
		p.Note = NoteEmpty
		return p
	}

	first := ds.Records[0]
	var names []string
	for _, col := range ds.Columns {
		if _, ok := first[col]; ok {
			names = append(names, col)
		}
	}

	shown := min(limit, total)
	p.Shown = shown
	p.Rows = make([][]string, shown)
	for i := 0; i < shown; i++ {
		row := make([]string, len(names))
		for j, col := range names {
			row[j] = ds.Value(i, col)
		}
		p.Rows[i] = row
	}

	p.Columns = make([]PreviewColumn, len(names))
	for j, name := range names {
		values := make([]string, shown)
		for i := range p.Rows {
			values[i] = p.Rows[i][j]
		}
		p.Columns[j] = PreviewColumn{Name: name, Kind: InferKind(values)}
	}

	if total > limit {
		p.Truncated = true
		p.Note = fmt.Sprintf("Showing %d of %d rows", shown, total)
	}
	return p
}

// InferKind classifies a column from its values. Blank values are ignored;
// a column is number, date or bool only if every non-blank value parses as
// such, checked in that order.
func InferKind(values []string) ColumnKind {
	var nonBlank []string
	for _, v := range values {
		if v = CleanCell(v); v != "" {
			nonBlank = append(nonBlank, v)
		}
	}
	if len(nonBlank) == 0 {
		return KindEmpty
	}

	all := func(ok func(string) bool) bool {
		for _, v := range nonBlank {
			if !ok(v) {
				return false
			}
		}
		return true
	}

	switch {
	case all(func(v string) bool { return ToPgNumeric(v).Valid }):
		return KindNumber
	case all(func(v string) bool { return ToPgDate(v).Valid }):
		return KindDate
	case all(func(v string) bool { return ToPgBool(v).Valid }):
		return KindBool
	default:
		return KindText
	}
}
