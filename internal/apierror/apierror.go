// Package apierror maps domain errors to the codes and messages shown to API, MCP and
// browser clients.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/rpggio/sheetmatch/internal/domain/session"
	"github.com/rpggio/sheetmatch/internal/domain/table"
	"github.com/rpggio/sheetmatch/internal/workbook"
)

// Error is the client facing form of a failure.
type Error struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
	Status       int    `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Details attached to comparison failures.
type ComparisonDetails struct {
	Side    compare.Side `json:"side,omitempty"`
	Columns []string     `json:"available_columns,omitempty"`
}

// Map converts err to an Error; an *Error passes through. Unknown errors become INTERNAL with a generic message.
func Map(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var cmpErr *compare.ComparisonError
	var parseErr *workbook.ParseError
	var writeErr *workbook.WriteError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, compare.ErrColumnNotFound):
		return &Error{
			Code:         "COLUMN_NOT_FOUND",
			Message:      err.Error(),
			Details:      comparisonDetails(err),
			RecoveryHint: "Rename the identifier column so its header contains both 'patient' and 'name'",
			Status:       http.StatusUnprocessableEntity,
		}
	case errors.Is(err, table.ErrSheetNotFound):
		return &Error{
			Code:         "SHEET_NOT_FOUND",
			Message:      err.Error(),
			Details:      comparisonDetails(err),
			RecoveryHint: "Pick one of the sheets listed for the upload",
			Status:       http.StatusUnprocessableEntity,
		}
	case errors.Is(err, table.ErrRaggedTable):
		return &Error{Code: "INVALID_TABLE", Message: err.Error(), Details: comparisonDetails(err), Status: http.StatusUnprocessableEntity}
	case errors.As(err, &cmpErr):
		return &Error{Code: "COMPARISON_FAILED", Message: err.Error(), Details: comparisonDetails(err), Status: http.StatusInternalServerError}
	case errors.Is(err, session.ErrSessionNotFound):
		return &Error{Code: "SESSION_NOT_FOUND", Message: "session not found", RecoveryHint: "Upload a file to start a session", Status: http.StatusNotFound}
	case errors.Is(err, session.ErrNoRawFile):
		return &Error{Code: "NO_RAW_FILE", Message: err.Error(), RecoveryHint: "Upload the raw file", Status: http.StatusConflict}
	case errors.Is(err, session.ErrNoPreviousFile):
		return &Error{Code: "NO_PREVIOUS_FILE", Message: err.Error(), RecoveryHint: "Upload the previous file", Status: http.StatusConflict}
	case errors.Is(err, session.ErrInvalidRole):
		return &Error{Code: "INVALID_ROLE", Message: err.Error(), Status: http.StatusBadRequest}
	case errors.Is(err, session.ErrEmptyUpload):
		return &Error{Code: "EMPTY_UPLOAD", Message: err.Error(), Status: http.StatusBadRequest}
	case errors.Is(err, session.ErrInvalidInput):
		return &Error{Code: "INVALID_INPUT", Message: err.Error(), Status: http.StatusBadRequest}
	case errors.As(err, &tooLarge):
		return &Error{
			Code:    "UPLOAD_TOO_LARGE",
			Message: fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit),
			Status:  http.StatusRequestEntityTooLarge,
		}
	case errors.Is(err, workbook.ErrUnsupportedFormat):
		return &Error{Code: "UNSUPPORTED_FORMAT", Message: err.Error(), RecoveryHint: "Upload an .xlsx, .xlsm or .csv file", Status: http.StatusUnsupportedMediaType}
	case errors.As(err, &parseErr):
		return &Error{Code: "PARSE_ERROR", Message: err.Error(), Status: http.StatusUnprocessableEntity}
	case errors.As(err, &writeErr):
		return &Error{Code: "WRITE_ERROR", Message: err.Error(), Status: http.StatusInternalServerError}
	default:
		return &Error{Code: "INTERNAL", Message: "internal error", Status: http.StatusInternalServerError}
	}
}

// Invalid builds an INVALID_INPUT error for malformed requests.
func Invalid(format string, args ...any) *Error {
	return &Error{Code: "INVALID_INPUT", Message: fmt.Sprintf(format, args...), Status: http.StatusBadRequest}
}

func comparisonDetails(err error) any {
	var cmpErr *compare.ComparisonError
	if !errors.As(err, &cmpErr) {
		return nil
	}
	return ComparisonDetails{Side: cmpErr.Side, Columns: cmpErr.Columns()}
}
