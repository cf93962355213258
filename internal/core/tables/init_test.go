package tables

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/sheetload/internal/core"
)

func TestBuiltinCatalog(t *testing.T) {
	Reset()

	want := map[string]int{
		"dim_clientes":  8,
		"dim_productos": 8,
		"dim_empleados": 6,
		"fact_ventas":   8,
	}
	if core.TableCount() != len(want) {
		t.Fatalf("TableCount = %d, want %d", core.TableCount(), len(want))
	}
	for key, cols := range want {
		def, ok := core.Get(key)
		if !ok {
			t.Errorf("table %s not registered", key)
			continue
		}
		if len(def.Info.Columns) != cols {
			t.Errorf("%s has %d columns, want %d", key, len(def.Info.Columns), cols)
		}
	}

	if def, _ := core.Get("dim_empleados"); def.HasSample() {
		t.Error("dim_empleados should have no sample INSERT")
	}

	groups := core.Groups()
	if strings.Join(groups, ",") != "dimension,fact" {
		t.Errorf("Groups = %v", groups)
	}
}

func TestLoadFile(t *testing.T) {
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `tables:
  - key: staging_rows
    group: staging
    columns:
      - {name: id, type: integer}
      - {name: payload}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if core.TableCount() != 1 {
		t.Fatalf("TableCount = %d, want 1", core.TableCount())
	}
	if _, ok := core.Get("dim_clientes"); ok {
		t.Error("built-in tables should be replaced")
	}
}

func TestLoadFile_InvalidKeepsBuiltin(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("tables:\n  - key: x\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := LoadFile(path); err == nil {
		t.Fatal("expected error for table without columns")
	}
	if _, ok := core.Get("dim_clientes"); !ok {
		t.Error("built-in catalog should survive a bad file")
	}

	if err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
