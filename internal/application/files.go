package application

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/JonMunkholm/sheetload/internal/ingest"
)

// DefaultUploadsDir is where the menu looks for files, relative to the
// working directory.
const DefaultUploadsDir = "uploads"

// UploadsRoot resolves dir against the working directory. An empty dir uses
// DefaultUploadsDir.
func UploadsRoot(dir string) (string, error) {
	if dir == "" {
		dir = DefaultUploadsDir
	}
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, dir), nil
}

// ListUploads returns the names of the CSV and Excel files directly under
// dir, sorted. Subdirectories are not searched.
func ListUploads(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ingest.DetectFormat(e.Name()) == ingest.FormatUnknown {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
