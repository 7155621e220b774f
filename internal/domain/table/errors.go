package table

import "errors"

var (
	// ErrRaggedTable indicates columns of different lengths.
	ErrRaggedTable = errors.New("table columns have different lengths")
	// ErrSheetNotFound indicates the requested sheet is not in the table set.
	ErrSheetNotFound = errors.New("sheet not found")
)
