package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/sheetload/internal/ingest"
)

// Service owns upload sessions and processing runs.
type Service struct {
	opts    Options
	limiter *RunLimiter
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
	runs     map[string]*activeRun
}

// NewService creates a Service. Unset option fields take the defaults
// described on Options.
func NewService(opts Options) *Service {
	opts = opts.withDefaults()

	s := &Service{
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*session),
		runs:     make(map[string]*activeRun),
	}
	s.limiter = NewRunLimiter(opts.MaxConcurrentRuns, opts.MaxWaitTime)
	s.limiter.onChange = opts.Recorder.ActiveRuns
	return s
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// ListTables returns information about all registered tables.
func (s *Service) ListTables() []TableInfo {
	defs := All()
	infos := make([]TableInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// ListTablesByGroup returns tables organized by group.
func (s *Service) ListTablesByGroup() map[string][]TableInfo {
	result := make(map[string][]TableInfo)
	for _, group := range Groups() {
		for _, def := range ByGroup(group) {
			result[group] = append(result[group], def.Info)
		}
	}
	return result
}

// NewSession creates an empty session with the ready status.
func (s *Service) NewSession() string {
	sess := newSession(s.now())
	sess.setStatus(s.status(StatusInfo, MsgReady))

	s.mu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.opts.Recorder.Sessions(n)
	return sess.id
}

// EnsureSession returns id if it names a live session, or a new session ID.
// The second result reports whether a session was created.
func (s *Service) EnsureSession(id string) (string, bool) {
	if id != "" {
		if _, err := s.session(id); err == nil {
			return id, false
		}
	}
	return s.NewSession(), true
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// session looks up a session and marks it as seen.
func (s *Service) session(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	sess.mu.Lock()
	sess.lastSeen = s.now()
	sess.mu.Unlock()
	return sess, nil
}

func (s *Service) status(kind StatusKind, text string) StatusMessage {
	msg := StatusMessage{Kind: kind, Text: text, At: s.now()}
	if kind == StatusSuccess {
		msg.AutoHide = s.opts.SuccessAutoHide
	}
	return msg
}

// LoadFile decodes a file into the session, replacing the previous dataset.
// On failure the previous dataset is kept and an error status is recorded.
// Any run in progress for the session is cancelled before the swap.
func (s *Service) LoadFile(ctx context.Context, sessionID, fileName string, r io.Reader, size int64) (*LoadResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(fileName)
	format := ingest.DetectFormat(name)
	logger := slog.With(append([]any{"session_id", sessionID, "file", name, "format", format.String()}, clientAttrs(ctx)...)...)

	sess.mu.Lock()
	sess.setStatus(s.status(StatusInfo, "File selected: "+name))
	sess.mu.Unlock()

	if format == ingest.FormatUnknown {
		sess.mu.Lock()
		sess.setStatus(s.status(StatusError, MsgUnsupported))
		sess.mu.Unlock()
		logger.Warn("unsupported file format")
		s.opts.Recorder.DecodeFailed(format.String())
		return nil, fmt.Errorf("%w: %q", ingest.ErrUnsupportedFormat, filepath.Ext(name))
	}

	start := time.Now()
	ds, err := ingest.Decode(ctx, name, r, size)
	if err != nil {
		detail := strings.TrimPrefix(err.Error(), "decode "+format.String()+": ")
		sess.mu.Lock()
		sess.setStatus(s.status(StatusError, fmt.Sprintf("Error processing %s: %s", format.Label(), detail)))
		sess.mu.Unlock()
		logger.Warn("decode failed", "error", err)
		s.opts.Recorder.DecodeFailed(format.String())
		return nil, err
	}

	preview := BuildPreview(ds, s.opts.PreviewRows)

	sess.mu.Lock()
	prevRun := sess.runID
	sess.runID = ""
	sess.dataset = ds
	sess.preview = preview
	var cov *Coverage
	if sess.table != "" {
		cov, _ = CheckCoverage(ds, sess.table)
	}
	st := sess.setStatus(s.status(StatusSuccess, fmt.Sprintf("%s processed: %d rows found", format.Label(), ds.RowCount())))
	sess.mu.Unlock()

	if prevRun != "" {
		s.cancelRun(prevRun)
	}

	logger.Info("file loaded",
		"rows", ds.RowCount(),
		"columns", len(ds.Columns),
		"bytes", ds.SizeBytes,
		"substituted", ds.Substituted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	s.opts.Recorder.FileDecoded(format.String(), ds.RowCount(), ds.SizeBytes)

	return &LoadResult{
		Preview:  preview,
		Coverage: cov,
		Status:   st,
		Rows:     ds.RowCount(),
		Format:   format,
	}, nil
}

// SelectTable sets the session's target table. An empty key clears the
// selection.
func (s *Service) SelectTable(sessionID, tableKey string) (*TableSelection, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if tableKey == "" {
		sess.table = ""
		return &TableSelection{Status: sess.current()}, nil
	}

	def, ok := Get(tableKey)
	if !ok {
		sess.setStatus(s.status(StatusError, FormatUserError(ErrUnknownTable)))
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, tableKey)
	}

	sess.table = tableKey
	sel := &TableSelection{
		Table:  def.Info,
		Status: sess.setStatus(s.status(StatusInfo, ExpectedColumnsMessage(def))),
	}
	if sess.dataset != nil {
		sel.Coverage, _ = CheckCoverage(sess.dataset, tableKey)
	}
	return sel, nil
}

// Clear drops the session's dataset, preview and selection, and cancels
// any run in progress.
func (s *Service) Clear(sessionID string) (StatusMessage, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return StatusMessage{}, err
	}

	sess.mu.Lock()
	runID := sess.runID
	sess.dataset = nil
	sess.preview = nil
	sess.table = ""
	sess.runID = ""
	st := sess.setStatus(s.status(StatusInfo, MsgCleared))
	sess.mu.Unlock()

	if runID != "" {
		s.cancelRun(runID)
	}
	slog.Info("session cleared", "session_id", sessionID)
	return st, nil
}

// Status returns the session's current status message.
func (s *Service) Status(sessionID string) (StatusMessage, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return StatusMessage{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.current(), nil
}

// Snapshot returns a view of the session for rendering.
func (s *Service) Snapshot(sessionID string) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	v := SessionView{
		ID:      sess.id,
		Rows:    sess.dataset.RowCount(),
		Preview: sess.preview,
		Table:   sess.table,
		Status:  sess.current(),
		History: append([]StatusMessage(nil), sess.statuses...),
		RunID:   sess.runID,
	}
	if sess.dataset != nil {
		v.FileName = sess.dataset.FileName
		v.Format = sess.dataset.Format.String()
		if sess.table != "" {
			v.Coverage, _ = CheckCoverage(sess.dataset, sess.table)
		}
	}
	sess.mu.Unlock()

	if v.RunID != "" {
		if p, err := s.runProgress(v.RunID); err == nil {
			v.Running = !p.Phase.Done()
		}
	}
	return v, nil
}

// Dataset returns the session's decoded dataset, or nil.
func (s *Service) Dataset(sessionID string) (*ingest.Dataset, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.dataset, nil
}

// LimiterStatus reports run slot usage.
func (s *Service) LimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until no run holds a slot or ctx ends.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// CancelAllRuns cancels every run that has not finished.
func (s *Service) CancelAllRuns() int {
	s.mu.RLock()
	runs := make([]*activeRun, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	s.mu.RUnlock()

	n := 0
	for _, r := range runs {
		if !r.snapshot().Phase.Done() {
			r.cancel()
			n++
		}
	}
	return n
}
