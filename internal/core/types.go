package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected data type for a catalog column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumeric
	FieldInteger
	FieldDate
	FieldBool
)

// FieldSpec describes one expected column of a target table.
type FieldSpec struct {
	Name string
	Type FieldType
}

// TableInfo contains display information about a table.
type TableInfo struct {
	Key     string   `json:"key"`     // Unique identifier: "dim_clientes"
	Group   string   `json:"group"`   // "dimension" or "fact"
	Label   string   `json:"label"`   // Display name: "Clientes"
	Columns []string `json:"columns"` // Expected column names in order
}

// TableDefinition is a catalog entry.
type TableDefinition struct {
	Info       TableInfo
	FieldSpecs []FieldSpec

	// SampleSQL is a canned INSERT shown after a run. Empty when the table has none.
	SampleSQL string
	// SampleNoun names the rows in the sample comment, e.g. "clientes".
	SampleNoun string
}

// HasSample reports whether the table carries a canned INSERT.
func (t TableDefinition) HasSample() bool {
	return t.SampleSQL != ""
}

// RunPhase indicates the current stage of a processing run.
type RunPhase string

const (
	PhaseStarting   RunPhase = "starting"
	PhaseProcessing RunPhase = "processing"
	PhaseComplete   RunPhase = "complete"
	PhaseFailed     RunPhase = "failed"
	PhaseCancelled  RunPhase = "cancelled"
)

// Done reports whether the phase is terminal.
func (p RunPhase) Done() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// RunProgress is a snapshot of a processing run after a tick.
type RunProgress struct {
	RunID     string        `json:"runId"`
	TableKey  string        `json:"table"`
	FileName  string        `json:"fileName"`
	Phase     RunPhase      `json:"phase"`
	Processed int           `json:"processed"`
	Total     int           `json:"total"`
	Valid     int           `json:"valid"`
	Errors    int           `json:"errors"`
	Elapsed   time.Duration `json:"-"`
	Error     string        `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// Percent returns processed/total as a percentage in [0, 100].
func (p RunProgress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	pct := float64(p.Processed) * 100 / float64(p.Total)
	if pct > 100 {
		return 100
	}
	return pct
}

// ElapsedSeconds is the elapsed time rounded to one decimal, as shown on the page.
func (p RunProgress) ElapsedSeconds() string {
	return decimal.NewFromFloat(p.Elapsed.Seconds()).StringFixed(1)
}

// RunResult contains the final result of a processing run.
type RunResult struct {
	RunID    string        `json:"runId"`
	TableKey string        `json:"table"`
	FileName string        `json:"fileName"`
	Phase    RunPhase      `json:"phase"`
	Total    int           `json:"total"`
	Valid    int           `json:"valid"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"-"`
	SQL      string        `json:"sql,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// DurationSeconds is the run duration rounded to one decimal.
func (r RunResult) DurationSeconds() string {
	return decimal.NewFromFloat(r.Duration.Seconds()).StringFixed(1)
}

// StatusKind classifies a status message for display.
type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// StatusMessage is the last message shown to the user of a session.
// AutoHide is non-zero for messages the page should dismiss on its own.
type StatusMessage struct {
	Kind     StatusKind    `json:"kind"`
	Text     string        `json:"text"`
	Detail   string        `json:"detail,omitempty"` // preformatted block, e.g. sample SQL
	AutoHide time.Duration `json:"-"`
	At       time.Time     `json:"at"`
}

// AutoHideMillis is AutoHide in milliseconds for the page script.
func (m StatusMessage) AutoHideMillis() int64 {
	return m.AutoHide.Milliseconds()
}

// ProgressCallback is called after each simulated tick.
type ProgressCallback func(RunProgress)
