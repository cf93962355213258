// Package tables registers the built-in table catalog with the core registry.
// Import this package to ensure all tables are registered.
package tables

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/JonMunkholm/sheetload/internal/core"
)

//go:embed catalog.yaml
var builtin []byte

func init() {
	if err := core.LoadCatalog(bytes.NewReader(builtin)); err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
}

// LoadFile replaces the registered tables with the catalog at path.
// The built-in tables stay in place when the file cannot be read or parsed.
func LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	defs, err := core.ParseCatalog(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	core.Replace(defs)
	return nil
}

// Reset restores the built-in catalog.
func Reset() {
	if err := core.LoadCatalog(bytes.NewReader(builtin)); err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
}
