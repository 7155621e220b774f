package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/sheetmatch/internal/apierror"
	"github.com/rpggio/sheetmatch/internal/domain/activity"
	"github.com/rpggio/sheetmatch/internal/domain/session"
)

// DefaultMaxUploadBytes bounds a single upload when Options leaves it unset.
const DefaultMaxUploadBytes = 32 << 20

// SessionService defines the session operations needed by the HTTP layer.
type SessionService interface {
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	Upload(ctx context.Context, req session.UploadRequest) (*session.Session, error)
	Compare(ctx context.Context, req session.CompareRequest) (*session.CompareResult, error)
	Download(ctx context.Context, sessionID string) (*session.Download, error)
	Reset(ctx context.Context, sessionID string) error
	Columns(ctx context.Context, sessionID string, role session.Role, sheet string) (*session.ColumnReport, error)
	History(ctx context.Context, sessionID string, limit int) ([]activity.ActivityEntry, error)
}

// Options configures the HTTP server.
type Options struct {
	Sessions       SessionService
	Logger         *slog.Logger
	MaxUploadBytes int64
	// MCP is mounted at /mcp when set.
	MCP http.Handler
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// Server wires HTTP handlers.
type Server struct {
	sessions       SessionService
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}

	srv := &Server{
		sessions:       opts.Sessions,
		logger:         logger,
		maxUploadBytes: maxUpload,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", srv.handleHealth)
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(opts.SecureCookies))

		r.Get("/", srv.handleIndex)
		r.Post("/upload/{role}", srv.handleUpload)
		r.Post("/compare", srv.handleCompare)
		r.Get("/download", srv.handleDownload)
		r.Post("/reset", srv.handleReset)

		r.Route("/api", func(r chi.Router) {
			r.Get("/session", srv.handleAPISession)
			r.Get("/columns", srv.handleAPIColumns)
			r.Post("/compare", srv.handleAPICompare)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := SessionIDFromContext(r.Context())

	page := pageData{
		SessionID: sessionID,
		Flash:     popFlash(w, r),
	}

	sess, err := s.sessions.Get(r.Context(), sessionID)
	switch {
	case err == nil:
		page.fill(sess)
	case !errors.Is(err, session.ErrSessionNotFound):
		s.logger.Error("failed to load session", "session_id", sessionID, "error", err)
		page.Flash = &flash{Kind: flashError, Message: apierror.Map(err).Message}
	}

	if sess != nil {
		history, err := s.sessions.History(r.Context(), sessionID, historyLimit)
		if err != nil {
			s.logger.Warn("failed to load history", "session_id", sessionID, "error", err)
		}
		page.History = history
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, page); err != nil {
		s.logger.Error("failed to render page", "error", err)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := SessionIDFromContext(r.Context())

	sess, err := s.upload(w, r, sessionID)
	if wantsJSON(r) {
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionView(sess, nil))
		return
	}

	if err != nil {
		s.flashError(w, err)
	} else {
		role := session.Role(chi.URLParam(r, "role"))
		wb := sess.Workbook(role)
		setFlash(w, flashInfo, fmt.Sprintf("Uploaded %s as the %s file (%d sheets).", wb.FileName, role, wb.Sheets.Len()))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, sessionID string) (*session.Session, error) {
	role, err := session.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		return nil, err
	}

	if r.ContentLength > s.maxUploadBytes {
		return nil, &http.MaxBytesError{Limit: s.maxUploadBytes}
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, apierror.Invalid("expected a multipart form with a file field")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, apierror.Invalid("no file selected")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	return s.sessions.Upload(r.Context(), session.UploadRequest{
		SessionID: sessionID,
		Role:      role,
		FileName:  header.Filename,
		Data:      data,
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := SessionIDFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		s.flashError(w, apierror.Invalid("malformed form"))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	res, err := s.sessions.Compare(r.Context(), session.CompareRequest{
		SessionID:     sessionID,
		RawSheet:      r.PostForm.Get("raw_sheet"),
		PreviousSheet: r.PostForm.Get("previous_sheet"),
	})
	if err != nil {
		s.flashError(w, err)
	} else {
		sum := res.Comparison.Summary
		setFlash(w, flashInfo, fmt.Sprintf("Comparison complete: %d of %d rows done (%.1f%%).", sum.Matched, sum.Total, sum.MatchPercentage))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := SessionIDFromContext(r.Context())

	dl, err := s.sessions.Download(r.Context(), sessionID)
	if err != nil {
		if wantsJSON(r) {
			s.writeError(w, err)
			return
		}
		s.flashError(w, err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))
	w.Header().Set("Content-Length", fmt.Sprint(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Data)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := SessionIDFromContext(r.Context())

	if err := s.sessions.Reset(r.Context(), sessionID); err != nil {
		s.flashError(w, err)
	} else {
		setFlash(w, flashInfo, "Session cleared.")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) flashError(w http.ResponseWriter, err error) {
	apiErr := apierror.Map(err)
	if apiErr.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	setFlash(w, flashError, apiErr.Message)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
