package templates

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"

	"github.com/JonMunkholm/sheetload/internal/core"
)

func render(t *testing.T, c templ.Component) (*goquery.Document, string) {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc, html
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name      string
		progress  core.RunProgress
		wantValue string
	}{
		{"starting", core.RunProgress{RunID: "r1", Phase: core.PhaseStarting, Total: 120}, "0.0"},
		{"midway", core.RunProgress{RunID: "r1", Phase: core.PhaseProcessing, Processed: 50, Total: 120, Valid: 45, Errors: 5}, "41.7"},
		{"complete", core.RunProgress{RunID: "r1", Phase: core.PhaseComplete, Processed: 120, Total: 120, Valid: 108, Errors: 12}, "100.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, html := render(t, Progress(&tt.progress))

			// The page is served with style-src 'self', which drops inline styles.
			if strings.Contains(html, "style=") {
				t.Errorf("progress markup carries an inline style:\n%s", html)
			}

			bar := doc.Find("#progress progress.progress-bar")
			if bar.Length() != 1 {
				t.Fatalf("expected one progress element:\n%s", html)
			}
			if got, _ := bar.Attr("value"); got != tt.wantValue {
				t.Errorf("value = %q, want %q", got, tt.wantValue)
			}
			if got, _ := bar.Attr("max"); got != "100" {
				t.Errorf("max = %q, want 100", got)
			}
			if got, _ := doc.Find("#progress").Attr("data-phase"); got != string(tt.progress.Phase) {
				t.Errorf("data-phase = %q", got)
			}
			if got := doc.Find("#stat-valid").Text(); got != strconv.Itoa(tt.progress.Valid) {
				t.Errorf("valid stat = %q", got)
			}
		})
	}
}

func TestProgress_Nil(t *testing.T) {
	doc, _ := render(t, Progress(nil))
	section := doc.Find("#progress")
	if _, hidden := section.Attr("hidden"); !hidden {
		t.Error("nil progress should render a hidden placeholder")
	}
	if section.Children().Length() != 0 {
		t.Error("placeholder should be empty")
	}
}

func TestStatus(t *testing.T) {
	msg := core.StatusMessage{
		Kind:     core.StatusSuccess,
		Text:     "Processing completed",
		Detail:   "INSERT INTO dim_clientes <values>",
		AutoHide: 5 * time.Second,
	}
	doc, _ := render(t, Status(msg))

	box := doc.Find("#status .status-message")
	if !box.HasClass("status-success") {
		t.Errorf("class = %q", box.AttrOr("class", ""))
	}
	if got := box.AttrOr("data-autohide", ""); got != "5000" {
		t.Errorf("data-autohide = %q, want 5000", got)
	}
	if got := box.Find("p").Text(); got != msg.Text {
		t.Errorf("text = %q", got)
	}
	if got := box.Find("textarea.sql").Text(); got != msg.Detail {
		t.Errorf("detail = %q, want escaped round trip", got)
	}

	doc, _ = render(t, Status(core.StatusMessage{Kind: core.StatusError, Text: "bad file"}))
	if _, ok := doc.Find("#status .status-message").Attr("data-autohide"); ok {
		t.Error("messages without auto-hide should not carry data-autohide")
	}
	if doc.Find("textarea").Length() != 0 {
		t.Error("no detail should render no textarea")
	}

	doc, _ = render(t, Status(core.StatusMessage{}))
	if doc.Find("#status").Children().Length() != 0 {
		t.Error("empty message should render an empty area")
	}
}

func TestErrorAlert(t *testing.T) {
	doc, _ := render(t, ErrorAlert("Invalid file type", "Upload a CSV", "FILE001"))

	p := doc.Find("#status .status-error[role=alert] p")
	if got := p.Text(); got != "Invalid file type. Upload a CSV (Code: FILE001)" {
		t.Errorf("alert text = %q", got)
	}

	doc, _ = render(t, ErrorAlert("Invalid file type", "", ""))
	if doc.Find(".error-code").Length() != 0 {
		t.Error("no code should render no code span")
	}
}

func TestPreview(t *testing.T) {
	p := &core.Preview{
		FileName: "clientes.csv",
		Columns: []core.PreviewColumn{
			{Name: "nombre_completo", Kind: core.KindText},
			{Name: "puntos", Kind: core.KindNumber},
		},
		Rows:  [][]string{{"Ana <b>", "120"}, {"Luis", "85"}},
		Total: 7,
		Note:  "Showing 2 of 7 rows",
	}
	doc, _ := render(t, Preview(p))

	if got := doc.Find("#preview .preview-meta").Text(); got != "clientes.csv · 7 rows" {
		t.Errorf("meta = %q", got)
	}
	if got := doc.Find("#preview th").Eq(1).AttrOr("data-kind", ""); got != "number" {
		t.Errorf("data-kind = %q", got)
	}
	if got := doc.Find("#preview tbody tr").Length(); got != 2 {
		t.Errorf("rows = %d, want 2", got)
	}
	if got := doc.Find("#preview tbody td").First().Text(); got != "Ana <b>" {
		t.Errorf("cell = %q, want escaped text", got)
	}
	if got := doc.Find("#preview .preview-note").Text(); got != p.Note {
		t.Errorf("note = %q", got)
	}

	empty := &core.Preview{FileName: "vacio.csv", Empty: true, Note: "The file has no data rows"}
	doc, _ = render(t, Preview(empty))
	if doc.Find("#preview table").Length() != 0 {
		t.Error("empty preview should render no table")
	}
	if got := doc.Find("#preview .preview-note").Text(); got != empty.Note {
		t.Errorf("empty note = %q", got)
	}
}

func TestCoverage(t *testing.T) {
	c := &core.Coverage{
		TableKey: "dim_clientes",
		Present:  []string{"nombre_completo"},
		Missing:  []string{"email", "telefono"},
		Extra:    []string{"notas"},
		Mismatches: []core.TypeMismatch{
			{Column: "nombre_completo", Expected: "text", Found: core.KindNumber},
		},
	}
	doc, _ := render(t, Coverage(c))

	section := doc.Find("#coverage")
	if !section.HasClass("coverage-incomplete") {
		t.Errorf("class = %q", section.AttrOr("class", ""))
	}
	if got := section.Find(".coverage-missing").Text(); got != "Missing: email, telefono" {
		t.Errorf("missing = %q", got)
	}
	if got := section.Find(".coverage-extra code").Length(); got != 1 {
		t.Errorf("extra codes = %d", got)
	}
	if got := section.Find(".coverage-mismatches li").Text(); got != "nombre_completo expects text, looks like number" {
		t.Errorf("mismatch = %q", got)
	}

	doc, _ = render(t, Coverage(&core.Coverage{Present: []string{"a"}}))
	if !doc.Find("#coverage").HasClass("coverage-complete") {
		t.Error("complete coverage should be marked complete")
	}
	if doc.Find(".coverage-missing, .coverage-extra").Length() != 0 {
		t.Error("empty lists should not render")
	}
}

func TestTableSelect(t *testing.T) {
	groups := []TableGroup{
		{Name: "dimension", Tables: []core.TableInfo{
			{Key: "dim_clientes", Label: "Clientes"},
			{Key: "dim_productos", Label: "dim_productos"},
		}},
		{Name: "fact", Tables: []core.TableInfo{{Key: "fact_ventas"}}},
	}
	doc, _ := render(t, TableSelect(groups, "dim_productos"))

	if got := doc.Find("optgroup").First().AttrOr("label", ""); got != "Dimensions" {
		t.Errorf("group label = %q", got)
	}
	if got := doc.Find(`option[value="dim_clientes"]`).Text(); got != "dim_clientes (Clientes)" {
		t.Errorf("option text = %q", got)
	}
	if got := doc.Find(`option[value="dim_productos"]`).Text(); got != "dim_productos" {
		t.Errorf("label equal to key should be dropped, got %q", got)
	}
	if got := doc.Find("option[selected]").AttrOr("value", ""); got != "dim_productos" {
		t.Errorf("selected = %q", got)
	}
}
