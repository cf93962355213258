package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// decodeXLSX reads the first sheet of an Office Open XML workbook.
// Cells hold their formatted display text; empty cells are absent.
func decodeXLSX(ctx context.Context, r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in workbook")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("open rows for sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	b := newBuilder(ctx, true)
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if err := b.add(cells); err != nil {
			return nil, err
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	ds, err := b.finish()
	if err != nil {
		return nil, err
	}
	ds.Sheet = sheet
	return ds, nil
}
