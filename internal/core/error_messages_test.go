package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/sheetload/internal/ingest"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"unsupported format", fmt.Errorf("%w: %q", ingest.ErrUnsupportedFormat, ".txt"), "FILE002"},
		{"empty csv beats decode csv", fmt.Errorf("decode csv: %w", ingest.ErrEmptyFile), "FILE003"},
		{"bad csv", errors.New(`decode csv: read row: parse error on line 3`), "FILE004"},
		{"bad xlsx", errors.New("decode xlsx: open workbook: zip: not a valid zip file"), "FILE005"},
		{"bad xls", errors.New("decode xls: open workbook: EOF"), "FILE005"},
		{"body too large", errors.New("http: request body too large"), "FILE001"},
		{"session", ErrSessionNotFound, "SES001"},
		{"no data", ErrNoData, "RUN001"},
		{"no table", ErrNoTableSelected, "RUN002"},
		{"busy", ErrTooManyRuns, "RUN003"},
		{"run", fmt.Errorf("%w: abc", ErrRunNotFound), "RUN004"},
		{"cancelled", context.Canceled, "RUN005"},
		{"deadline", context.DeadlineExceeded, "RUN006"},
		{"unknown table", fmt.Errorf("%w: dim_x", ErrUnknownTable), "TBL001"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"case insensitive", errors.New("NO DATA TO PROCESS"), "RUN001"},
		{"fallback", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q", got)
	}

	got := FormatUserError(ErrNoTableSelected)
	want := "Please select a target table (Code: RUN002). Pick a table from the list"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if !IsUserFacing(ErrNoData) {
		t.Error("ErrNoData should be user facing")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("unmatched errors should not be user facing")
	}
}

func TestUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should be nil")
	}

	ue := NewUserError(ErrTooManyRuns)
	if ue.Error() != "Too many runs in progress" {
		t.Errorf("Error() = %q", ue.Error())
	}
	if !errors.Is(ue, ErrTooManyRuns) {
		t.Error("UserError should unwrap to the technical error")
	}
}
