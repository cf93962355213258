package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/sheetload/internal/core"
	_ "github.com/JonMunkholm/sheetload/internal/core/tables"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clientesCSV(n int) string {
	var b strings.Builder
	b.WriteString("nombre_completo,email\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "Cliente %d,c%d@example.com\n", i, i)
	}
	return b.String()
}

func newTestModel(t *testing.T) (*Model, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "clientes.csv", clientesCSV(60))
	writeFile(t, dir, "notes.txt", "not a sheet")

	opts := core.DefaultOptions()
	opts.TickInterval = time.Millisecond
	svc := core.NewService(opts)
	t.Cleanup(func() {
		svc.CancelAllRuns()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.WaitForRuns(ctx)
	})
	return New(svc, dir), dir
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// exec runs cmd synchronously and feeds its message back to the model.
func exec(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	m.Update(cmd())
}

func TestListUploads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.xlsx", "")
	writeFile(t, dir, "a.csv", "")
	writeFile(t, dir, "c.xls", "")
	writeFile(t, dir, "notes.txt", "")
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListUploads(dir)
	if err != nil {
		t.Fatalf("ListUploads: %v", err)
	}
	if strings.Join(got, ",") != "a.csv,b.xlsx,c.xls" {
		t.Errorf("ListUploads = %v", got)
	}

	if _, err := ListUploads(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestUploadsRoot(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "in")
	if got, _ := UploadsRoot(abs); got != abs {
		t.Errorf("UploadsRoot(abs) = %q", got)
	}

	wd, _ := os.Getwd()
	if got, _ := UploadsRoot(""); got != filepath.Join(wd, DefaultUploadsDir) {
		t.Errorf("UploadsRoot(\"\") = %q", got)
	}
}

func TestModel_Navigation(t *testing.T) {
	m, _ := newTestModel(t)

	if m.menu.Title != "Main Menu" {
		t.Fatalf("start menu = %q", m.menu.Title)
	}

	m.Update(key("enter"))
	if !strings.HasPrefix(m.menu.Title, "Load file") {
		t.Fatalf("menu after enter = %q", m.menu.Title)
	}
	if m.menu.Items[0].Label != "clientes.csv" {
		t.Errorf("first file = %q, want clientes.csv", m.menu.Items[0].Label)
	}
	for _, item := range m.menu.Items {
		if item.Label == "notes.txt" {
			t.Error("unsupported files should not be listed")
		}
	}

	m.Update(key("esc"))
	if m.menu != m.root {
		t.Fatal("esc should return to the main menu")
	}

	m.Update(key("down"))
	m.Update(key("enter"))
	if m.menu.Title != "Select table" {
		t.Fatalf("menu = %q, want Select table", m.menu.Title)
	}
	if m.menu.Items[0].Label != "Dimensions ->" {
		t.Errorf("first group = %q", m.menu.Items[0].Label)
	}

	// Back item returns to the parent.
	m.cursor = len(m.menu.Items) - 1
	m.Update(key("enter"))
	if m.menu != m.root {
		t.Error("Back should return to the main menu")
	}

	m.Update(key("up"))
	m.Update(key("up"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestModel_LoadSelectProcess(t *testing.T) {
	m, dir := newTestModel(t)

	exec(m, m.loadFile(filepath.Join(dir, "clientes.csv")))
	if m.err != nil {
		t.Fatalf("load: %v", m.err)
	}
	if m.view.Rows != 60 {
		t.Fatalf("Rows = %d, want 60", m.view.Rows)
	}
	view := m.View()
	for _, want := range []string{"CSV processed: 60 rows found", "nombre_completo", "Showing 5 of 60 rows"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	exec(m, m.selectTable("dim_clientes"))
	if m.view.Table != "dim_clientes" {
		t.Fatalf("Table = %q", m.view.Table)
	}
	if !strings.Contains(m.View(), "2 of 8 expected columns found") {
		t.Errorf("view should show coverage:\n%s", m.View())
	}

	m.Update(m.startRun()())
	if m.updates == nil {
		t.Fatalf("run did not start: %v", m.err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for m.updates != nil {
		if time.Now().After(deadline) {
			t.Fatal("run did not finish")
		}
		exec(m, m.waitProgress())
	}

	if m.result == nil || m.result.Phase != core.PhaseComplete {
		t.Fatalf("result = %+v (err %v)", m.result, m.err)
	}
	if m.result.Valid != 54 || m.result.Errors != 6 {
		t.Errorf("valid/errors = %d/%d, want 54/6", m.result.Valid, m.result.Errors)
	}
	if m.run == nil || m.run.Processed != 60 {
		t.Errorf("final progress = %+v", m.run)
	}
	view = m.View()
	for _, want := range []string{"54 records inserted successfully", core.MsgSampleSQL, "INSERT INTO dim_clientes"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_RunWithoutData(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(m.startRun()())
	if !errors.Is(m.err, core.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", m.err)
	}
	if m.view.Status.Text != core.MsgNoData {
		t.Errorf("status = %q", m.view.Status.Text)
	}
	if m.updates != nil {
		t.Error("no run should be followed")
	}
}

func TestModel_TogglePreviewAndQuit(t *testing.T) {
	m, dir := newTestModel(t)
	exec(m, m.loadFile(filepath.Join(dir, "clientes.csv")))

	m.Update(key("p"))
	if m.showPreview {
		t.Fatal("p should hide the preview")
	}
	if strings.Contains(m.View(), "Showing 5 of 60 rows") {
		t.Error("hidden preview should not render")
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestRenderPreview(t *testing.T) {
	p := &core.Preview{
		Columns: []core.PreviewColumn{{Name: "id"}, {Name: "name"}},
		Rows:    [][]string{{"1", "Ana"}, {"2", "Luis"}},
		Total:   9,
		Shown:   2,
		Note:    "Showing 2 of 9 rows",
	}
	out := RenderPreview(p)
	for _, want := range []string{"id", "name", "Ana", "Luis", "Showing 2 of 9 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q:\n%s", want, out)
		}
	}

	empty := RenderPreview(&core.Preview{Empty: true, Note: core.NoteEmpty})
	if !strings.Contains(empty, core.NoteEmpty) {
		t.Errorf("empty preview = %q", empty)
	}
	if RenderPreview(nil) != "" {
		t.Error("nil preview should render nothing")
	}
}
