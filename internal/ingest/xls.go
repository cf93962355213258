package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shakinm/xlsReader/xls"
)

// decodeXLS reads the first sheet of a legacy BIFF workbook.
// The reader needs random access, so non-seekable input is buffered first.
func decodeXLS(ctx context.Context, r io.Reader, size int64) (*Dataset, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		buf := bytes.NewBuffer(make([]byte, 0, max(size, 0)))
		if _, err := io.Copy(buf, r); err != nil {
			return nil, fmt.Errorf("buffer workbook: %w", err)
		}
		rs = bytes.NewReader(buf.Bytes())
	}

	wb, err := xls.OpenReader(rs)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb.GetNumberSheets() == 0 {
		return nil, errors.New("no sheets found in workbook")
	}

	sheet, err := wb.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("open first sheet: %w", err)
	}

	b := newBuilder(ctx, true)
	// Rows that were never written come back empty and are skipped as blank.
	for i := 0; i < sheet.GetNumberRows(); i++ {
		row, err := sheet.GetRow(i)
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", i+1, err)
		}
		cols := row.GetCols()
		cells := make([]string, len(cols))
		for c, cell := range cols {
			cells[c] = toUTF8(cell.GetString())
		}
		if err := b.add(cells); err != nil {
			return nil, err
		}
	}

	ds, err := b.finish()
	if err != nil {
		return nil, err
	}
	ds.Sheet = sheet.GetName()
	return ds, nil
}
