package ingest

import (
	"context"
	"strconv"
	"strings"
)

// Record is one decoded row keyed by column name.
// A column whose cell was absent in the source is absent from the map.
type Record map[string]string

// Dataset is a decoded file.
type Dataset struct {
	FileName  string
	Format    Format
	Sheet     string // first sheet name for spreadsheets
	SizeBytes int64
	Columns   []string
	Records   []Record

	// Substituted counts bytes that were not valid UTF-8 and were read as Windows-1252.
	Substituted int
}

// RowCount returns the number of records.
func (d *Dataset) RowCount() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Value returns the cell for row i and column col, or "" when absent.
func (d *Dataset) Value(i int, col string) string {
	if d == nil || i < 0 || i >= len(d.Records) {
		return ""
	}
	return d.Records[i][col]
}

// Has reports whether row i carries a cell for col.
func (d *Dataset) Has(i int, col string) bool {
	if d == nil || i < 0 || i >= len(d.Records) {
		return false
	}
	_, ok := d.Records[i][col]
	return ok
}

const ctxCheckEvery = 256

// builder assembles a Dataset one raw row at a time.
// The first row with a non-blank cell is the header. After that, CSV input
// drops only empty lines while spreadsheet input drops rows without values.
type builder struct {
	ctx       context.Context
	omitEmpty bool // spreadsheet semantics: empty cells are absent
	seen      int
	ds        *Dataset
}

func newBuilder(ctx context.Context, omitEmpty bool) *builder {
	return &builder{ctx: ctx, omitEmpty: omitEmpty, ds: &Dataset{}}
}

func (b *builder) add(cells []string) error {
	b.seen++
	if b.seen%ctxCheckEvery == 0 {
		if err := b.ctx.Err(); err != nil {
			return err
		}
	}

	if b.ds.Columns == nil {
		if !isBlankRow(cells) {
			b.ds.Columns = repairHeader(cells)
		}
		return nil
	}
	if b.skipRow(cells) {
		return nil
	}

	rec := make(Record, len(b.ds.Columns))
	for i, col := range b.ds.Columns {
		if i >= len(cells) {
			break
		}
		if b.omitEmpty && cells[i] == "" {
			continue
		}
		rec[col] = cells[i]
	}
	b.ds.Records = append(b.ds.Records, rec)
	return nil
}

func (b *builder) finish() (*Dataset, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, err
	}
	if b.ds.Columns == nil {
		return nil, ErrEmptyFile
	}
	if b.ds.Records == nil {
		b.ds.Records = []Record{}
	}
	return b.ds, nil
}

// skipRow reports whether a data row carries nothing. A CSV line of
// separators such as ",," is a row of empty fields and is kept.
func (b *builder) skipRow(cells []string) bool {
	if !b.omitEmpty {
		return len(cells) == 0 || (len(cells) == 1 && cells[0] == "")
	}
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

const emptyHeader = "__EMPTY"

// repairHeader trims header cells, names blank ones __EMPTY, __EMPTY_1, ...
// and suffixes repeated names with _1, _2, ...
func repairHeader(cells []string) []string {
	out := make([]string, len(cells))
	used := make(map[string]bool, len(cells))
	next := make(map[string]int, len(cells))

	for i, c := range cells {
		base := strings.TrimSpace(c)
		if base == "" {
			base = emptyHeader
		}

		name := base
		for used[name] {
			next[base]++
			name = base + "_" + strconv.Itoa(next[base])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
