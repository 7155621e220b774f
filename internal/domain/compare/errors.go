package compare

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrColumnNotFound indicates no column looks like a patient name column.
	ErrColumnNotFound = errors.New("patient name column not found")
	// ErrInternal indicates an unexpected fault while annotating.
	ErrInternal = errors.New("internal comparison error")
)

// Side identifies which table of a comparison a failure refers to.
type Side string

const (
	SideSource    Side = "raw"
	SideReference Side = "previous"
)

// ColumnNotFoundError carries the columns that were searched.
type ColumnNotFoundError struct {
	Columns []string
}

// maxListedColumns caps the columns named in the message; Columns keeps them all.
const maxListedColumns = 20

func (e *ColumnNotFoundError) Error() string {
	listed := e.Columns
	if len(listed) > maxListedColumns {
		listed = listed[:maxListedColumns]
	}
	msg := fmt.Sprintf("%v; available columns: %s", ErrColumnNotFound, strings.Join(listed, ", "))
	if rest := len(e.Columns) - len(listed); rest > 0 {
		msg += fmt.Sprintf(" and %d more", rest)
	}
	return msg
}

func (e *ColumnNotFoundError) Unwrap() error {
	return ErrColumnNotFound
}

// ComparisonError reports a failed Annotate call.
type ComparisonError struct {
	// Side is empty when the failure is not tied to one table.
	Side Side
	Err  error
}

func (e *ComparisonError) Error() string {
	if e.Side == "" {
		return fmt.Sprintf("comparison failed: %v", e.Err)
	}
	return fmt.Sprintf("comparison failed (%s file): %v", e.Side, e.Err)
}

func (e *ComparisonError) Unwrap() error {
	return e.Err
}

// Columns returns the searched column list when the failure is a missing identifier.
func (e *ComparisonError) Columns() []string {
	var notFound *ColumnNotFoundError
	if errors.As(e.Err, &notFound) {
		return notFound.Columns
	}
	return nil
}
