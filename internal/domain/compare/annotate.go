package compare

import (
	"fmt"
	"math"
	"strings"

	"github.com/rpggio/sheetmatch/internal/domain/table"
)

const (
	// StatusColumn is the name of the column added by Annotate.
	StatusColumn = "Status"
	// StatusDone marks a row whose identifier appears in the reference table.
	StatusDone = "Done"
)

// Summary describes the outcome of one Annotate call.
type Summary struct {
	Total           int     `json:"total"`
	Matched         int     `json:"matched"`
	Unmatched       int     `json:"unmatched"`
	MatchPercentage float64 `json:"match_percentage"`
	SourceColumn    string  `json:"source_column"`
	ReferenceColumn string  `json:"reference_column"`
}

// Result holds the summary and the annotated copy of the source table.
type Result struct {
	Summary Summary     `json:"summary"`
	Table   table.Table `json:"table"`
}

// Annotate tags each row of source with "Done" when its identifier appears in
// reference. The returned table is a copy of source with a Status column directly
// right of the identifier column; neither input is modified. Any existing column named
// Status is replaced, so annotating an annotated table again gives the same result.
// Every failure, including an unexpected panic, is returned as a *ComparisonError.
func Annotate(source, reference table.Table) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &ComparisonError{Err: fmt.Errorf("%w: %v", ErrInternal, r)}
		}
	}()

	if err := source.Validate(); err != nil {
		return nil, &ComparisonError{Side: SideSource, Err: err}
	}
	if err := reference.Validate(); err != nil {
		return nil, &ComparisonError{Side: SideReference, Err: err}
	}

	sourceCol, err := ResolveIdentifierColumn(source.ColumnNames())
	if err != nil {
		return nil, &ComparisonError{Side: SideSource, Err: err}
	}
	referenceCol, err := ResolveIdentifierColumn(reference.ColumnNames())
	if err != nil {
		return nil, &ComparisonError{Side: SideReference, Err: err}
	}

	seen := identifierSet(reference.Columns[reference.ColumnIndex(referenceCol)].Values)

	annotated := source.Clone()
	annotated.RemoveColumn(StatusColumn)
	idx := annotated.ColumnIndex(sourceCol)

	rows := source.RowCount()
	status := make([]table.Cell, rows)
	matched := 0
	for i, cell := range annotated.Columns[idx].Values {
		key := normalize(cell)
		if key != "" && seen[key] {
			status[i] = table.Text(StatusDone)
			matched++
			continue
		}
		status[i] = table.Text("")
	}

	if err := annotated.InsertColumn(idx+1, table.Column{Name: StatusColumn, Values: status}); err != nil {
		return nil, &ComparisonError{Side: SideSource, Err: fmt.Errorf("%w: %v", ErrInternal, err)}
	}

	return &Result{
		Summary: Summary{
			Total:           rows,
			Matched:         matched,
			Unmatched:       rows - matched,
			MatchPercentage: percentage(matched, rows),
			SourceColumn:    sourceCol,
			ReferenceColumn: referenceCol,
		},
		Table: annotated,
	}, nil
}

func identifierSet(values []table.Cell) map[string]bool {
	seen := make(map[string]bool, len(values))
	for _, cell := range values {
		if key := normalize(cell); key != "" {
			seen[key] = true
		}
	}
	return seen
}

func normalize(cell table.Cell) string {
	if cell.IsEmpty() {
		return ""
	}
	return strings.TrimSpace(cell.String())
}

// percentage rounds to one decimal place and is 0 for an empty table.
func percentage(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(matched)/float64(total)*1000) / 10
}
