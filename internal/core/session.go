package core

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sheetload/internal/ingest"
)

// Session errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoTableSelected = errors.New("no table selected")
	ErrUnknownTable    = errors.New("unknown table")
	ErrRunNotFound     = errors.New("run not found")
	ErrRunInProgress   = errors.New("run already in progress")
)

// Status texts shown on the page.
const (
	MsgReady       = "System ready. Select a CSV or Excel file to start."
	MsgCleared     = "Data cleared. Ready to load a new file."
	MsgUnsupported = "Unsupported file format. Use CSV or Excel."
	MsgNoData      = "No data to process"
	MsgNoTable     = "Please select a target table"
	MsgSampleSQL   = "Sample SQL generated"
)

// maxStatusHistory bounds the status log kept per session.
const maxStatusHistory = 20

// session is one browser tab's working state: the loaded file, the selected
// table and the status log.
type session struct {
	id string

	mu       sync.Mutex
	dataset  *ingest.Dataset
	preview  *Preview
	table    string
	runID    string
	statuses []StatusMessage
	created  time.Time
	lastSeen time.Time
}

func newSession(now time.Time) *session {
	return &session{
		id:       uuid.New().String(),
		created:  now,
		lastSeen: now,
	}
}

// setStatus appends a status. Callers hold mu.
func (s *session) setStatus(msg StatusMessage) StatusMessage {
	s.statuses = append(s.statuses, msg)
	if n := len(s.statuses); n > maxStatusHistory {
		s.statuses = append([]StatusMessage(nil), s.statuses[n-maxStatusHistory:]...)
	}
	return msg
}

// current returns the latest status. Callers hold mu.
func (s *session) current() StatusMessage {
	if len(s.statuses) == 0 {
		return StatusMessage{}
	}
	return s.statuses[len(s.statuses)-1]
}

// SessionView is a read-only snapshot of a session for rendering.
type SessionView struct {
	ID       string          `json:"id"`
	FileName string          `json:"fileName,omitempty"`
	Format   string          `json:"format,omitempty"`
	Rows     int             `json:"rows"`
	Preview  *Preview        `json:"preview,omitempty"`
	Table    string          `json:"table,omitempty"`
	Coverage *Coverage       `json:"coverage,omitempty"`
	Status   StatusMessage   `json:"status"`
	History  []StatusMessage `json:"history,omitempty"`
	RunID    string          `json:"runId,omitempty"`
	Running  bool            `json:"running"`
}

// HasData reports whether a non-empty dataset is loaded.
func (v SessionView) HasData() bool {
	return v.Rows > 0
}

// LoadResult is returned by Service.LoadFile.
type LoadResult struct {
	Preview  *Preview
	Coverage *Coverage
	Status   StatusMessage
	Rows     int
	Format   ingest.Format
}

// TableSelection is returned by Service.SelectTable.
type TableSelection struct {
	Table    TableInfo
	Coverage *Coverage
	Status   StatusMessage
}
