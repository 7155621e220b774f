// Package compare matches the rows of a raw sheet against the patient names of a
// previous sheet and tags the rows already seen.
package compare

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ResolveIdentifierColumn returns the first column whose name contains both "patient"
// and "name", ignoring case. On a miss the error is a *ColumnNotFoundError listing
// every column searched.
func ResolveIdentifierColumn(names []string) (string, error) {
	lower := cases.Lower(language.Und)
	for _, name := range names {
		folded := lower.String(name)
		if strings.Contains(folded, "patient") && strings.Contains(folded, "name") {
			return name, nil
		}
	}
	columns := make([]string, len(names))
	copy(columns, names)
	return "", &ColumnNotFoundError{Columns: columns}
}
