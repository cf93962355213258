package application

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JonMunkholm/sheetload/internal/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	menuTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFAA00"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	sqlStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	statusStyles = map[core.StatusKind]lipgloss.Style{
		core.StatusInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5DADE2")),
		core.StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		core.StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true),
	}
)

// RenderStatus renders a status message in its kind's color, with the
// detail block boxed below it.
func RenderStatus(msg core.StatusMessage) string {
	if msg.Text == "" {
		return ""
	}
	style, ok := statusStyles[msg.Kind]
	if !ok {
		style = infoStyle
	}
	out := style.Render(msg.Text)
	if msg.Detail != "" {
		out += "\n" + sqlStyle.Render(strings.TrimRight(msg.Detail, "\n"))
	}
	return out
}

// RenderPreview renders a preview as a bordered table followed by its note.
func RenderPreview(p *core.Preview) string {
	if p == nil {
		return ""
	}
	if p.Empty {
		return infoStyle.Render(p.Note)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		Headers(p.ColumnNames()...).
		Rows(p.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return menuTitleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	out := t.Render()
	if p.Note != "" {
		out += "\n" + infoStyle.Render(p.Note)
	}
	return out
}

// RenderCoverage renders the header comparison for the selected table.
func RenderCoverage(c *core.Coverage) string {
	if c == nil {
		return ""
	}
	lines := []string{c.Summary()}
	if len(c.Missing) > 0 {
		lines = append(lines, "Missing: "+strings.Join(c.Missing, ", "))
	}
	if len(c.Extra) > 0 {
		lines = append(lines, "Not in table: "+strings.Join(c.Extra, ", "))
	}
	for _, mm := range c.Mismatches {
		lines = append(lines, fmt.Sprintf("%s expects %s, looks like %s", mm.Column, mm.Expected, mm.Found))
	}
	style := statusStyles[core.StatusSuccess]
	if !c.Complete() {
		style = statusStyles[core.StatusError]
	}
	return style.Render(lines[0]) + renderRest(lines[1:])
}

func renderRest(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return "\n" + infoStyle.Render(strings.Join(lines, "\n"))
}

// RenderStats renders the four run counters on one line.
func RenderStats(p core.RunProgress) string {
	return fmt.Sprintf("Processed: %d/%d  Valid: %d  Errors: %d  Time: %ss",
		p.Processed, p.Total, p.Valid, p.Errors, p.ElapsedSeconds())
}

// RenderResult renders the outcome line of a finished run.
func RenderResult(r *core.RunResult) string {
	switch r.Phase {
	case core.PhaseComplete:
		return statusStyles[core.StatusSuccess].Render(fmt.Sprintf(
			"%s: %d records inserted successfully, %d records with errors, total time %s seconds",
			r.TableKey, r.Valid, r.Errors, r.DurationSeconds()))
	case core.PhaseCancelled:
		return infoStyle.Render(fmt.Sprintf("%s: cancelled", r.TableKey))
	default:
		return statusStyles[core.StatusError].Render(fmt.Sprintf("%s: %s", r.TableKey, r.Error))
	}
}
