package core

// scheduler.go evicts idle sessions.
//
// A session is idle once nothing has touched it for SessionTTL. Sessions with
// a run still in progress are kept until the run ends. The sweeper is
// long-running and stops when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// StartSessionSweeper removes idle sessions every interval until ctx is
// cancelled. A non-positive interval uses one minute.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	slog.Info("session sweeper started",
		"interval", interval,
		"ttl", s.opts.SessionTTL,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if n := s.sweepSessions(s.now()); n > 0 {
				slog.Info("evicted idle sessions",
					"sessions_evicted", n,
					"sessions_live", s.SessionCount(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
		}
	}
}

// sweepSessions evicts sessions idle since before now-TTL and returns how
// many were removed.
func (s *Service) sweepSessions(now time.Time) int {
	cutoff := now.Add(-s.opts.SessionTTL)

	s.mu.RLock()
	candidates := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.RUnlock()

	var expired []string
	for _, sess := range candidates {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		runID := sess.runID
		sess.mu.Unlock()

		if !idle {
			continue
		}
		if runID != "" {
			if p, err := s.runProgress(runID); err == nil && !p.Phase.Done() {
				continue
			}
		}
		expired = append(expired, sess.id)
	}

	if len(expired) == 0 {
		return 0
	}

	s.mu.Lock()
	for _, id := range expired {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	s.opts.Recorder.Sessions(n)
	return len(expired)
}
