// Package templates renders the upload page and its fragments as templ
// components. Edit the .templ sources and run templ generate.
package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/sheetload/internal/core"
)

// Element IDs swapped by the page script.
const (
	StatusID   = "status"
	PreviewID  = "preview"
	CoverageID = "coverage"
	ProgressID = "progress"
)

// TableGroup is one <optgroup> of the table selector.
type TableGroup struct {
	Name   string
	Tables []core.TableInfo
}

// PageData is everything the upload page needs on first render.
type PageData struct {
	View        core.SessionView
	Groups      []TableGroup
	Progress    *core.RunProgress
	MaxFileSize int64
}

func groupLabel(group string) string {
	switch group {
	case "dimension":
		return "Dimensions"
	case "fact":
		return "Facts"
	case "":
		return "Other"
	default:
		return strings.ToUpper(group[:1]) + group[1:]
	}
}

func optionText(t core.TableInfo) string {
	if t.Label == "" || t.Label == t.Key {
		return t.Key
	}
	return t.Key + " (" + t.Label + ")"
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n <= 0 {
		return "no limit"
	}
	if n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/mb)
}

func alertText(message, action string) string {
	if action == "" {
		return message
	}
	return message + ". " + action
}

func coverageClass(c *core.Coverage) string {
	if c.Complete() {
		return "coverage coverage-complete"
	}
	return "coverage coverage-incomplete"
}

func mismatchText(m core.TypeMismatch) string {
	return fmt.Sprintf("expects %s, looks like %s", m.Expected, m.Found)
}

// percentValue is the value of the progress element, 0 to 100.
func percentValue(p *core.RunProgress) string {
	return fmt.Sprintf("%.1f", p.Percent())
}
