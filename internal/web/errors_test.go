package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/JonMunkholm/sheetload/internal/core"
	"github.com/JonMunkholm/sheetload/internal/ingest"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: abc", core.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: abc", core.ErrRunNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: \".txt\"", ingest.ErrUnsupportedFormat), http.StatusUnsupportedMediaType},
		{core.ErrTooManyRuns, http.StatusServiceUnavailable},
		{core.ErrRunInProgress, http.StatusConflict},
		{core.ErrNoData, http.StatusBadRequest},
		{core.ErrNoTableSelected, http.StatusBadRequest},
		{fmt.Errorf("%w: x", core.ErrUnknownTable), http.StatusBadRequest},
		{errors.New("decode csv: line 3: bare quote"), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondError_Formats(t *testing.T) {
	err := fmt.Errorf("%w: abc", core.ErrSessionNotFound)

	t.Run("fragment", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/files", nil)
		req.Header.Set("X-Fragment", "1")
		rec := httptest.NewRecorder()

		respondError(rec, req, err, http.StatusNotFound)

		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %d", rec.Code)
		}
		doc, perr := goquery.NewDocumentFromReader(rec.Body)
		if perr != nil {
			t.Fatal(perr)
		}
		alert := doc.Find("#status .status-error[role=alert]")
		if alert.Length() != 1 {
			t.Fatal("expected one alert inside #status")
		}
		if got := alert.Find(".error-code").Text(); got != "(Code: SES001)" {
			t.Errorf("error code = %q", got)
		}
	})

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		rec := httptest.NewRecorder()

		respondError(rec, req, err, http.StatusNotFound)

		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if !strings.Contains(rec.Body.String(), `"code":"SES001"`) {
			t.Errorf("body = %s", rec.Body)
		}
	})

	t.Run("plain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		respondError(rec, req, err, http.StatusNotFound)

		if !strings.Contains(rec.Body.String(), "(SES001)") {
			t.Errorf("body = %s", rec.Body)
		}
	})
}
