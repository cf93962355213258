package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// decodeCSV parses comma separated text. Quoting is lenient and rows may have
// any number of fields; extra trailing fields are dropped.
func decodeCSV(ctx context.Context, r io.Reader) (*Dataset, error) {
	text, counter := wrapText(r)

	cr := csv.NewReader(text)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	b := newBuilder(ctx, false)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if err := b.add(row); err != nil {
			return nil, err
		}
	}

	ds, err := b.finish()
	if err != nil {
		return nil, err
	}
	ds.SizeBytes = counter.n
	ds.Substituted = text.Substituted
	return ds, nil
}
