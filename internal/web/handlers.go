package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/sheetload/internal/core"
	"github.com/JonMunkholm/sheetload/internal/logging"
	"github.com/JonMunkholm/sheetload/internal/web/templates"
)

var (
	errFileTooLarge = errors.New("file too large")
	errNoFile       = errors.New("no file provided")
	errInvalidForm  = errors.New("invalid form")
	errStreaming    = errors.New("streaming not supported")
)

// multipartMemory is the part of an upload kept in memory while parsing.
const multipartMemory = 32 << 20

// handlePage renders the upload page for the caller's session.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Snapshot(sessionID(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	data := templates.PageData{
		View:        view,
		Groups:      tableGroups(),
		Progress:    s.progressFor(view),
		MaxFileSize: s.cfg.Upload.MaxFileSize,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handleListTables returns the table catalog.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	if group := r.URL.Query().Get("group"); group != "" {
		writeJSON(w, http.StatusOK, s.service.ListTablesByGroup()[group])
		return
	}
	writeJSON(w, http.StatusOK, s.service.ListTables())
}

// handleSession returns the full session view.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Snapshot(sessionID(r))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleStatus returns the current status message, or every swappable
// region of the page for fragment requests.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if isFragment(r) {
		s.renderWorkspace(w, r, sid, http.StatusOK)
		return
	}
	st, err := s.service.Status(sid)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleLoadFile decodes an uploaded file into the session.
func (s *Server) handleLoadFile(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if r.ContentLength > s.cfg.Upload.MaxFileSize {
		respondError(w, r, errFileTooLarge, http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, errFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, errInvalidForm, http.StatusBadRequest)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	res, err := s.service.LoadFile(ctx, sid, header.Filename, file, header.Size)
	if err != nil {
		s.respondSessionError(w, r, sid, err)
		return
	}

	if isFragment(r) {
		s.renderWorkspace(w, r, sid, http.StatusOK)
		return
	}
	w.Header().Set("X-Rows", strconv.Itoa(res.Rows))
	writeJSON(w, http.StatusOK, res)
}

// handleSelectTable sets the session's target table from the "table" form
// value. An empty value clears the selection.
func (s *Server) handleSelectTable(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if err := r.ParseForm(); err != nil {
		respondError(w, r, errInvalidForm, http.StatusBadRequest)
		return
	}

	sel, err := s.service.SelectTable(sid, r.FormValue("table"))
	if err != nil {
		s.respondSessionError(w, r, sid, err)
		return
	}

	if isFragment(r) {
		s.renderWorkspace(w, r, sid, http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// handleClear resets the session.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	st, err := s.service.Clear(sid)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	if isFragment(r) {
		s.renderWorkspace(w, r, sid, http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status   string                `json:"status"`
	Tables   int                   `json:"tables"`
	Sessions int                   `json:"sessions"`
	Runs     core.RunLimiterStatus `json:"runs"`
}

// handleHealth reports liveness and run slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Tables:   core.TableCount(),
		Sessions: s.service.SessionCount(),
		Runs:     s.service.LimiterStatus(),
	})
}

// renderWorkspace writes every swappable page region for the session.
// X-Rows tells the page script whether processing can start.
func (s *Server) renderWorkspace(w http.ResponseWriter, r *http.Request, sid string, status int) {
	view, err := s.service.Snapshot(sid)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	rows := view.Rows
	if view.Running {
		rows = 0
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Rows", strconv.Itoa(rows))
	w.WriteHeader(status)
	if err := templates.Workspace(view, s.progressFor(view)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render workspace", "error", err)
	}
}

// respondSessionError reports a service error whose message the service
// already stored as the session status. Fragment requests get the updated
// page regions; other clients get the usual error body.
func (s *Server) respondSessionError(w http.ResponseWriter, r *http.Request, sid string, err error) {
	code := statusFor(err)
	if !isFragment(r) || errors.Is(err, core.ErrSessionNotFound) {
		respondError(w, r, err, code)
		return
	}
	logging.FromContext(r.Context()).Warn("request rejected",
		"path", r.URL.Path,
		"status", code,
		"error", err.Error(),
	)
	s.renderWorkspace(w, r, sid, code)
}

// progressFor returns the progress of the session's current run, if the
// run is still tracked.
func (s *Server) progressFor(view core.SessionView) *core.RunProgress {
	if view.RunID == "" {
		return nil
	}
	p, err := s.service.RunProgress(view.ID, view.RunID)
	if err != nil {
		return nil
	}
	return &p
}

// tableGroups orders the catalog for the table selector.
func tableGroups() []templates.TableGroup {
	groups := core.Groups()
	out := make([]templates.TableGroup, 0, len(groups))
	for _, g := range groups {
		tg := templates.TableGroup{Name: g}
		for _, def := range core.ByGroup(g) {
			tg.Tables = append(tg.Tables, def.Info)
		}
		out = append(out, tg)
	}
	return out
}
