package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rpggio/sheetmatch/internal/domain/activity"
	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/rpggio/sheetmatch/internal/domain/table"
	"github.com/rpggio/sheetmatch/internal/repository"
	"github.com/rpggio/sheetmatch/internal/workbook"
)

// Service handles session operations.
type Service struct {
	sessions SessionRepository
	activity ActivityLog
	logger   *slog.Logger
}

// NewService creates a new session service. activityLog may be nil.
func NewService(sessions SessionRepository, activityLog ActivityLog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		sessions: sessions,
		activity: activityLog,
		logger:   logger,
	}
}

// UploadRequest describes a file upload.
type UploadRequest struct {
	SessionID string
	Role      Role
	FileName  string
	Data      []byte
}

// CompareRequest selects the sheets to compare. Empty names pick the first sheet.
type CompareRequest struct {
	SessionID     string
	RawSheet      string
	PreviousSheet string
}

// CompareResult holds the outcome of a successful compare.
type CompareResult struct {
	SessionID  string
	Comparison Comparison
	Table      table.Table
}

// Download is an annotated file ready to serve.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Ensure returns the session with the given id, creating it when missing. An empty id
// creates a session with a fresh id.
func (s *Service) Ensure(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID != "" {
		sess, err := s.sessions.Get(ctx, sessionID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("loading session: %w", err)
		}
	} else {
		sessionID = uuid.NewString()
	}

	now := time.Now()
	sess := &Session{
		ID:        sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

// Get fetches an existing session.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

// Upload parses a file and stores it as the raw or previous workbook, replacing any
// earlier upload of the same role.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Session, error) {
	if _, err := ParseRole(string(req.Role)); err != nil {
		return nil, err
	}
	if len(req.Data) == 0 {
		return nil, ErrEmptyUpload
	}

	wb, err := workbook.Parse(req.FileName, req.Data)
	if err != nil {
		return nil, err
	}

	sess, err := s.Ensure(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	sess.setWorkbook(req.Role, wb)
	sess.LastComparison = nil
	sess.UpdatedAt = time.Now()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}

	size := humanize.Bytes(uint64(wb.Size))
	s.logger.Info("workbook uploaded", "session_id", sess.ID, "role", req.Role, "file", wb.FileName, "size", size, "sheets", wb.Sheets.Len())
	s.record(ctx, sess.ID, uploadActivity(req.Role), fmt.Sprintf("Uploaded %s (%s, %d sheets)", wb.FileName, size, wb.Sheets.Len()), map[string]any{
		"file":   wb.FileName,
		"sheets": wb.Sheets.Names(),
		"size":   wb.Size,
	})

	return sess, nil
}

// Compare annotates the selected raw sheet against the selected previous sheet. On
// success the annotated table replaces the raw sheet in the session. On failure the
// session is left untouched and the error is a *compare.ComparisonError or a session
// error.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	sess, err := s.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Raw == nil {
		return nil, ErrNoRawFile
	}
	if sess.Previous == nil {
		return nil, ErrNoPreviousFile
	}

	rawSheet := pickSheet(sess.Raw, req.RawSheet)
	previousSheet := pickSheet(sess.Previous, req.PreviousSheet)

	source, err := sess.Raw.Sheets.MustSheet(rawSheet)
	if err != nil {
		return nil, &compare.ComparisonError{Side: compare.SideSource, Err: err}
	}
	reference, err := sess.Previous.Sheets.MustSheet(previousSheet)
	if err != nil {
		return nil, &compare.ComparisonError{Side: compare.SideReference, Err: err}
	}

	res, err := compare.Annotate(source, reference)
	if err != nil {
		s.logger.Warn("comparison failed", "session_id", sess.ID, "raw_sheet", rawSheet, "previous_sheet", previousSheet, "error", err)
		s.record(ctx, sess.ID, activity.TypeCompareFailed, err.Error(), map[string]any{
			"raw_sheet":      rawSheet,
			"previous_sheet": previousSheet,
		})
		return nil, err
	}

	comparison := Comparison{
		RawSheet:      rawSheet,
		PreviousSheet: previousSheet,
		Summary:       res.Summary,
		ComparedAt:    time.Now(),
	}

	raw := *sess.Raw
	raw.Sheets = sess.Raw.Sheets.Clone()
	raw.Sheets.Set(rawSheet, res.Table)
	sess.Raw = &raw
	sess.LastComparison = &comparison
	sess.UpdatedAt = comparison.ComparedAt
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}

	sum := res.Summary
	s.logger.Info("comparison complete", "session_id", sess.ID, "total", sum.Total, "matched", sum.Matched, "match_percentage", sum.MatchPercentage)
	s.record(ctx, sess.ID, activity.TypeCompare,
		fmt.Sprintf("Compared %q with %q: %d of %d rows done (%.1f%%)", rawSheet, previousSheet, sum.Matched, sum.Total, sum.MatchPercentage),
		comparison)

	return &CompareResult{
		SessionID:  sess.ID,
		Comparison: comparison,
		Table:      res.Table,
	}, nil
}

// Download writes the raw workbook, including any annotation, in its upload format.
func (s *Service) Download(ctx context.Context, sessionID string) (*Download, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Raw == nil {
		return nil, ErrNoRawFile
	}

	data, err := workbook.Write(sess.Raw)
	if err != nil {
		return nil, err
	}
	return &Download{
		FileName:    workbook.AnnotatedFileName(sess.Raw.FileName, sess.Raw.Format),
		ContentType: workbook.ContentType(sess.Raw.Format),
		Data:        data,
	}, nil
}

// Reset drops both uploads, the last comparison and the session history.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}
	if s.activity != nil {
		if err := s.activity.ClearSession(ctx, sessionID); err != nil {
			return err
		}
	}
	s.logger.Info("session reset", "session_id", sessionID)
	return nil
}

// Columns reports the columns of one uploaded sheet and the identifier column found.
func (s *Service) Columns(ctx context.Context, sessionID string, role Role, sheet string) (*ColumnReport, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	wb := sess.Workbook(role)
	if wb == nil {
		if role == RoleRaw {
			return nil, ErrNoRawFile
		}
		return nil, ErrNoPreviousFile
	}

	sheet = pickSheet(wb, sheet)
	tbl, err := wb.Sheets.MustSheet(sheet)
	if err != nil {
		return nil, err
	}

	report := &ColumnReport{
		Role:    role,
		Sheet:   sheet,
		Columns: tbl.ColumnNames(),
	}
	if col, err := compare.ResolveIdentifierColumn(report.Columns); err == nil {
		report.IdentifierColumn = col
		report.Found = true
	}
	return report, nil
}

// History returns the most recent activity of a session, newest first.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]activity.ActivityEntry, error) {
	if s.activity == nil {
		return nil, nil
	}
	return s.activity.GetRecentActivity(ctx, activity.ListActivityOptions{
		SessionID: sessionID,
		Limit:     limit,
	})
}

func (s *Service) record(ctx context.Context, sessionID string, typ activity.ActivityType, summary string, details any) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, sessionID, typ, summary, details)
}

func pickSheet(wb *workbook.Workbook, name string) string {
	if name != "" || wb.Sheets.Len() == 0 {
		return name
	}
	return wb.Sheets.Names()[0]
}

func uploadActivity(role Role) activity.ActivityType {
	if role == RoleRaw {
		return activity.TypeUploadRaw
	}
	return activity.TypeUploadPrevious
}
