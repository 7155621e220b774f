// Package report renders comparison results for the command line.
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/rpggio/sheetmatch/internal/domain/table"
)

// Report describes one finished comparison.
type Report struct {
	RawFile       string          `json:"raw_file"`
	RawSheet      string          `json:"raw_sheet"`
	PreviousFile  string          `json:"previous_file"`
	PreviousSheet string          `json:"previous_sheet"`
	OutputFile    string          `json:"output_file,omitempty"`
	Summary       compare.Summary `json:"summary"`
	// Pending lists the identifiers of rows not marked Done, in sheet order.
	Pending     []string  `json:"pending"`
	GeneratedAt time.Time `json:"generated_at"`
}

// PendingIdentifiers returns the identifier of every row of an annotated table whose
// status is not Done. Blank identifiers are listed as "(blank)".
func PendingIdentifiers(annotated table.Table, identifierColumn string) []string {
	idCol := annotated.ColumnIndex(identifierColumn)
	statusCol := annotated.ColumnIndex(compare.StatusColumn)
	if idCol < 0 || statusCol < 0 {
		return nil
	}

	pending := []string{}
	ids := annotated.Columns[idCol].Values
	for i, status := range annotated.Columns[statusCol].Values {
		if status.String() == compare.StatusDone {
			continue
		}
		id := ids[i].String()
		if id == "" {
			id = "(blank)"
		}
		pending = append(pending, id)
	}
	return pending
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
