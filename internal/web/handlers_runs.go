package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetload/internal/core"
	"github.com/JonMunkholm/sheetload/internal/logging"
)

// handleStartRun starts a processing run for the session. The "table" form
// value, when set, replaces the selected table first.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if err := r.ParseForm(); err != nil {
		respondError(w, r, errInvalidForm, http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	runID, err := s.service.StartRun(ctx, sid, r.FormValue("table"))
	if err != nil {
		s.respondSessionError(w, r, sid, err)
		return
	}

	if isFragment(r) {
		s.renderWorkspace(w, r, sid, http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

// RunResponse is the body of GET /api/runs/{runID}. Result is set once the
// run has finished.
type RunResponse struct {
	Progress core.RunProgress `json:"progress"`
	Result   *core.RunResult  `json:"result,omitempty"`
	Seconds  string           `json:"seconds"`
}

// handleRunResult returns a run's progress, and its result when finished.
// With ?wait=true the request blocks until the run finishes.
func (s *Server) handleRunResult(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	runID := chi.URLParam(r, "runID")

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if wait {
		if _, err := s.service.RunResult(r.Context(), sid, runID); err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
	}

	p, err := s.service.RunProgress(sid, runID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	resp := RunResponse{Progress: p, Seconds: p.ElapsedSeconds()}
	if p.Phase.Done() {
		res, err := s.service.RunResult(r.Context(), sid, runID)
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		resp.Result = res
		resp.Seconds = res.DurationSeconds()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCancelRun cancels a run in progress.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if err := s.service.CancelRun(sessionID(r), runID); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// progressEvent is the data of one "progress" server-sent event.
type progressEvent struct {
	core.RunProgress
	Percent float64 `json:"percent"`
	Elapsed string  `json:"elapsed"`
}

func newProgressEvent(p core.RunProgress) progressEvent {
	return progressEvent{RunProgress: p, Percent: p.Percent(), Elapsed: p.ElapsedSeconds()}
}

// handleRunProgress streams run progress via Server-Sent Events.
//
// Each update is a "progress" event whose id is the processed row count.
// A reconnecting client sends Last-Event-ID (or ?lastEventId=) and only
// receives updates past that count. A "complete" event follows the final
// update.
func (s *Server) handleRunProgress(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	runID := chi.URLParam(r, "runID")

	lastEventID := -1
	resume := r.Header.Get("Last-Event-ID")
	if resume == "" {
		resume = r.URL.Query().Get("lastEventId")
	}
	if resume != "" {
		if n, err := strconv.Atoi(resume); err == nil {
			lastEventID = n
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, r, errStreaming, http.StatusInternalServerError)
		return
	}

	progressCh, err := s.service.SubscribeProgress(sid, runID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer s.service.Unsubscribe(runID, progressCh)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := logging.WithFields(r.Context(), "run_id", runID)
	send := func(p core.RunProgress) bool {
		data, err := json.Marshal(newProgressEvent(p))
		if err != nil {
			logger.Error("encode progress", "error", err)
			return false
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", p.Processed, data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	var last core.RunProgress
	for {
		select {
		case p, ok := <-progressCh:
			if !ok {
				// Updates dropped for a slow reader leave last behind the
				// terminal state, so resend the final snapshot.
				if final, err := s.service.RunProgress(sid, runID); err == nil && final != last {
					send(final)
				}
				fmt.Fprint(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			last = p
			if p.Processed <= lastEventID && !p.Phase.Done() {
				continue
			}
			if !send(p) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
