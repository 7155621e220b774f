package workbook

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat indicates a file extension the codec cannot read or write.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoSheets indicates a workbook without any readable sheet.
	ErrNoSheets = errors.New("workbook has no sheets")
)

// ParseError represents a failure to read an uploaded file.
type ParseError struct {
	FileName string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot read %q: %v", e.FileName, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WriteError represents a failure to produce file bytes.
type WriteError struct {
	FileName string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write %q: %v", e.FileName, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
