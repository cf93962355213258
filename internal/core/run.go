package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

type activeRun struct {
	ID        string
	SessionID string
	TableKey  string
	FileName  string
	Total     int
	cancel    context.CancelFunc
	done      chan struct{}

	mu        sync.Mutex
	progress  RunProgress
	result    *RunResult
	listeners []chan RunProgress
}

func (r *activeRun) snapshot() RunProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// update applies fn to the progress and sends the new value to listeners.
// A slow listener misses the update.
func (r *activeRun) update(fn func(*RunProgress)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn(&r.progress)
	for _, ch := range r.listeners {
		select {
		case ch <- r.progress:
		default:
		}
	}
}

// finish stores the result, delivers the final progress and closes all
// listener channels.
func (r *activeRun) finish(res *RunResult, fn func(*RunProgress)) {
	r.mu.Lock()
	fn(&r.progress)
	r.result = res
	for _, ch := range r.listeners {
		select {
		case ch <- r.progress:
		default:
		}
		close(ch)
	}
	r.listeners = nil
	r.mu.Unlock()

	close(r.done)
}

// StartRun begins a simulated processing pass over the session's dataset.
// A non-empty tableKey replaces the session's selection first. It returns
// the run ID immediately; use SubscribeProgress or RunResult to follow it.
//
// Preconditions are checked in order: data loaded, table selected, table
// known, no other run in progress. Each failure also sets the session status.
func (s *Service) StartRun(ctx context.Context, sessionID, tableKey string) (string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return "", err
	}

	sess.mu.Lock()
	if tableKey != "" {
		sess.table = tableKey
	}
	ds := sess.dataset
	key := sess.table

	fail := func(reason string, msg string, err error) (string, error) {
		sess.setStatus(s.status(StatusError, msg))
		sess.mu.Unlock()
		s.opts.Recorder.RunRejected(reason)
		return "", err
	}

	if ds.RowCount() == 0 {
		return fail("no_data", MsgNoData, ErrNoData)
	}
	if key == "" {
		return fail("no_table", MsgNoTable, ErrNoTableSelected)
	}
	if _, ok := Get(key); !ok {
		sess.table = ""
		return fail("unknown_table", FormatUserError(ErrUnknownTable), fmt.Errorf("%w: %s", ErrUnknownTable, key))
	}
	if sess.runID != "" {
		if p, err := s.runProgress(sess.runID); err == nil && !p.Phase.Done() {
			return fail("in_progress", FormatUserError(ErrRunInProgress), ErrRunInProgress)
		}
	}

	runCtx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	run := &activeRun{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		TableKey:  key,
		FileName:  ds.FileName,
		Total:     ds.RowCount(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	run.progress = RunProgress{
		RunID:    run.ID,
		TableKey: key,
		FileName: run.FileName,
		Phase:    PhaseStarting,
		Total:    run.Total,
	}
	sess.runID = run.ID
	sess.mu.Unlock()

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	logger := slog.With(append([]any{"run_id", run.ID, "session_id", sessionID, "table", key}, clientAttrs(ctx)...)...)

	if err := s.limiter.Acquire(ctx); err != nil {
		s.abandonRun(sess, run, err)
		logger.Warn("run rejected", "error", err, "active", s.limiter.ActiveCount())
		return "", err
	}
	if err := runCtx.Err(); err != nil {
		s.limiter.Release()
		s.abandonRun(sess, run, err)
		return "", err
	}

	go func() {
		defer s.limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in run",
					"panic", r,
					"stack", string(debug.Stack()),
				)
				err := fmt.Errorf("internal error: %v", r)
				s.completeRun(sess, run, SimState{}, 0, err)
			}
		}()
		s.executeRun(runCtx, sess, run, logger)
	}()

	return run.ID, nil
}

// abandonRun ends a run that never got a slot. Listeners and RunResult
// callers that found the run while it waited see it finish as failed, or as
// cancelled when the caller went away.
func (s *Service) abandonRun(sess *session, run *activeRun, err error) {
	defer run.cancel()

	phase, reason := PhaseFailed, "busy"
	if !errors.Is(err, ErrTooManyRuns) {
		phase, reason = PhaseCancelled, "cancelled"
	}
	res := &RunResult{
		RunID:    run.ID,
		TableKey: run.TableKey,
		FileName: run.FileName,
		Total:    run.Total,
		Phase:    phase,
		Error:    err.Error(),
	}

	sess.mu.Lock()
	if sess.runID == run.ID {
		sess.runID = ""
	}
	sess.setStatus(s.status(StatusError, FormatUserError(err)))
	sess.mu.Unlock()

	run.finish(res, func(p *RunProgress) {
		p.Phase = phase
		p.Error = res.Error
	})

	s.opts.Recorder.RunRejected(reason)
	s.cleanup(run.ID, runRetention)
}

func (s *Service) executeRun(ctx context.Context, sess *session, run *activeRun, logger *slog.Logger) {
	logger.Info("run started", "rows", run.Total)
	s.opts.Recorder.RunStarted(run.TableKey)

	run.update(func(p *RunProgress) { p.Phase = PhaseProcessing })

	params := SimParams{
		Total:      run.Total,
		BatchSize:  s.opts.BatchSize,
		Tick:       s.opts.TickInterval,
		ValidRatio: s.opts.ValidRatio,
	}
	st, elapsed, err := Simulate(ctx, params, func(st SimState, elapsed time.Duration) {
		run.update(func(p *RunProgress) {
			p.Processed = st.Processed
			p.Valid = st.Valid
			p.Errors = st.Errors
			p.Elapsed = elapsed
		})
	})

	res := s.completeRun(sess, run, st, elapsed, err)
	logger.Info("run finished",
		"phase", res.Phase,
		"processed", st.Processed,
		"valid", res.Valid,
		"errors", res.Errors,
		"duration_ms", res.Duration.Milliseconds(),
	)
}

// completeRun records the outcome of a run on the run and, if the run is
// still the session's current one, on the session's status log.
func (s *Service) completeRun(sess *session, run *activeRun, st SimState, elapsed time.Duration, err error) *RunResult {
	defer run.cancel()

	res := &RunResult{
		RunID:    run.ID,
		TableKey: run.TableKey,
		FileName: run.FileName,
		Total:    run.Total,
		Valid:    st.Valid,
		Errors:   st.Errors,
		Duration: elapsed,
	}

	var statuses []StatusMessage
	switch {
	case err == nil:
		res.Phase = PhaseComplete
		res.SQL = SampleSQL(run.TableKey, st.Valid)
		statuses = append(statuses,
			s.status(StatusSuccess, fmt.Sprintf(
				"Processing completed for table %s: %d records inserted successfully, %d records with errors, total time %s seconds",
				run.TableKey, st.Valid, st.Errors, res.DurationSeconds(),
			)),
			s.status(StatusInfo, MsgSampleSQL),
		)
		statuses[1].Detail = res.SQL
	case errors.Is(err, context.Canceled):
		res.Phase = PhaseCancelled
		res.Error = err.Error()
		statuses = append(statuses, s.status(StatusInfo, fmt.Sprintf(
			"Processing cancelled for table %s after %d of %d records", run.TableKey, st.Processed, run.Total,
		)))
	default:
		res.Phase = PhaseFailed
		res.Error = err.Error()
		statuses = append(statuses, s.status(StatusError, FormatUserError(err)))
	}

	sess.mu.Lock()
	if sess.runID == run.ID {
		for _, msg := range statuses {
			sess.setStatus(msg)
		}
	}
	sess.mu.Unlock()

	run.finish(res, func(p *RunProgress) {
		p.Phase = res.Phase
		p.Processed = st.Processed
		p.Valid = st.Valid
		p.Errors = st.Errors
		p.Elapsed = elapsed
		p.Error = res.Error
	})

	s.opts.Recorder.RunFinished(run.TableKey, res.Phase, res.Valid, res.Errors, res.Duration)
	s.cleanup(run.ID, runRetention)
	return res
}

// cleanup removes the run from tracking after a delay.
func (s *Service) cleanup(runID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}

func (s *Service) run(runID string) (*activeRun, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// sessionRun looks up a run started by sessionID. Runs of other sessions are
// reported as not found.
func (s *Service) sessionRun(sessionID, runID string) (*activeRun, error) {
	run, err := s.run(runID)
	if err != nil {
		return nil, err
	}
	if run.SessionID != sessionID {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// SubscribeProgress returns a channel of progress updates for one of the
// session's runs. The current progress is sent first. The channel is closed
// after the terminal update; for a finished run that happens immediately.
func (s *Service) SubscribeProgress(sessionID, runID string) (<-chan RunProgress, error) {
	run, err := s.sessionRun(sessionID, runID)
	if err != nil {
		return nil, err
	}

	ch := make(chan RunProgress, 10)

	run.mu.Lock()
	defer run.mu.Unlock()

	ch <- run.progress
	if run.progress.Phase.Done() {
		close(ch)
		return ch, nil
	}
	run.listeners = append(run.listeners, ch)
	return ch, nil
}

// Unsubscribe detaches a channel returned by SubscribeProgress and closes it.
func (s *Service) Unsubscribe(runID string, ch <-chan RunProgress) {
	run, err := s.run(runID)
	if err != nil {
		return
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	for i, l := range run.listeners {
		if l == ch {
			run.listeners = append(run.listeners[:i], run.listeners[i+1:]...)
			close(l)
			return
		}
	}
}

// RunProgress returns the current progress of one of the session's runs
// without blocking.
func (s *Service) RunProgress(sessionID, runID string) (RunProgress, error) {
	run, err := s.sessionRun(sessionID, runID)
	if err != nil {
		return RunProgress{}, err
	}
	return run.snapshot(), nil
}

func (s *Service) runProgress(runID string) (RunProgress, error) {
	run, err := s.run(runID)
	if err != nil {
		return RunProgress{}, err
	}
	return run.snapshot(), nil
}

// RunResult returns the result of one of the session's runs, waiting for it
// to finish or for ctx to end.
func (s *Service) RunResult(ctx context.Context, sessionID, runID string) (*RunResult, error) {
	run, err := s.sessionRun(sessionID, runID)
	if err != nil {
		return nil, err
	}

	select {
	case <-run.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	res := *run.result
	return &res, nil
}

// CancelRun cancels one of the session's runs. Cancelling a finished run is
// a no-op.
func (s *Service) CancelRun(sessionID, runID string) error {
	run, err := s.sessionRun(sessionID, runID)
	if err != nil {
		return err
	}
	run.cancel()
	return nil
}

func (s *Service) cancelRun(runID string) {
	if run, err := s.run(runID); err == nil {
		run.cancel()
	}
}

// CancelSessionRun cancels the session's current run, if any.
func (s *Service) CancelSessionRun(sessionID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	runID := sess.runID
	sess.mu.Unlock()

	if runID == "" {
		return fmt.Errorf("%w: no run for session", ErrRunNotFound)
	}
	return s.CancelRun(sessionID, runID)
}
