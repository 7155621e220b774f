package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rpggio/sheetmatch/internal/apierror"
	"github.com/rpggio/sheetmatch/internal/domain/activity"
	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/rpggio/sheetmatch/internal/domain/session"
	"github.com/rpggio/sheetmatch/internal/workbook"
)

// ErrorResponse wraps an error in the JSON envelope.
type ErrorResponse struct {
	Error *apierror.Error `json:"error"`
}

// SessionView is the JSON form of a session.
type SessionView struct {
	SessionID      string                   `json:"session_id"`
	Raw            *WorkbookView            `json:"raw"`
	Previous       *WorkbookView            `json:"previous"`
	LastComparison *session.Comparison      `json:"last_comparison"`
	History        []activity.ActivityEntry `json:"history,omitempty"`
}

// WorkbookView describes an upload without its cell data.
type WorkbookView struct {
	FileName string      `json:"file_name"`
	Format   string      `json:"format"`
	Size     int64       `json:"size"`
	Sheets   []SheetView `json:"sheets"`
}

// SheetView lists the columns and row count of one sheet.
type SheetView struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// CompareRequest is the body of POST /api/compare. Empty sheet names pick the first sheet.
type CompareRequest struct {
	RawSheet      string `json:"raw_sheet"`
	PreviousSheet string `json:"previous_sheet"`
}

// CompareResponse reports a successful comparison.
type CompareResponse struct {
	SessionID     string          `json:"session_id"`
	RawSheet      string          `json:"raw_sheet"`
	PreviousSheet string          `json:"previous_sheet"`
	Summary       compare.Summary `json:"summary"`
	Columns       []string        `json:"columns"`
}

func newSessionView(sess *session.Session, history []activity.ActivityEntry) SessionView {
	return SessionView{
		SessionID:      sess.ID,
		Raw:            newWorkbookView(sess.Raw),
		Previous:       newWorkbookView(sess.Previous),
		LastComparison: sess.LastComparison,
		History:        history,
	}
}

func newWorkbookView(wb *workbook.Workbook) *WorkbookView {
	if wb == nil {
		return nil
	}
	view := &WorkbookView{
		FileName: wb.FileName,
		Format:   string(wb.Format),
		Size:     wb.Size,
		Sheets:   make([]SheetView, 0, wb.Sheets.Len()),
	}
	for _, sh := range wb.Sheets.Sheets {
		view.Sheets = append(view.Sheets, SheetView{
			Name:    sh.Name,
			Columns: sh.Table.ColumnNames(),
			Rows:    sh.Table.RowCount(),
		})
	}
	return view
}

func (s *Server) handleAPISession(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := SessionIDFromContext(r.Context())

	sess, err := s.sessions.Get(r.Context(), sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		writeJSON(w, http.StatusOK, SessionView{SessionID: sessionID})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	history, err := s.sessions.History(r.Context(), sessionID, historyLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess, history))
}

func (s *Server) handleAPIColumns(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := SessionIDFromContext(r.Context())

	q := r.URL.Query()
	role := q.Get("role")
	if role == "" {
		role = string(session.RoleRaw)
	}

	report, err := s.sessions.Columns(r.Context(), sessionID, session.Role(role), q.Get("sheet"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAPICompare(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := SessionIDFromContext(r.Context())

	var req CompareRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, apierror.Invalid("invalid JSON body: %v", err))
		return
	}

	res, err := s.sessions.Compare(r.Context(), session.CompareRequest{
		SessionID:     sessionID,
		RawSheet:      req.RawSheet,
		PreviousSheet: req.PreviousSheet,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CompareResponse{
		SessionID:     res.SessionID,
		RawSheet:      res.Comparison.RawSheet,
		PreviousSheet: res.Comparison.PreviousSheet,
		Summary:       res.Comparison.Summary,
		Columns:       res.Table.ColumnNames(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	apiErr := apierror.Map(err)
	if apiErr.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, apiErr.Status, ErrorResponse{Error: apiErr})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
