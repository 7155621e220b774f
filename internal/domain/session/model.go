package session

import (
	"time"

	"github.com/rpggio/sheetmatch/internal/domain/compare"
	"github.com/rpggio/sheetmatch/internal/workbook"
)

// Role tells which of the two uploads a workbook fills.
type Role string

const (
	RoleRaw      Role = "raw"
	RolePrevious Role = "previous"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleRaw, RolePrevious:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

// Comparison records the last successful compare of a session
type Comparison struct {
	RawSheet      string          `json:"raw_sheet"`
	PreviousSheet string          `json:"previous_sheet"`
	Summary       compare.Summary `json:"summary"`
	ComparedAt    time.Time       `json:"compared_at"`
}

// Session holds one user's uploads between requests
type Session struct {
	ID             string             `json:"id"`
	Raw            *workbook.Workbook `json:"raw,omitempty"`
	Previous       *workbook.Workbook `json:"previous,omitempty"`
	LastComparison *Comparison        `json:"last_comparison,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Workbook returns the upload stored for role, or nil.
func (s *Session) Workbook(role Role) *workbook.Workbook {
	switch role {
	case RoleRaw:
		return s.Raw
	case RolePrevious:
		return s.Previous
	default:
		return nil
	}
}

func (s *Session) setWorkbook(role Role, wb *workbook.Workbook) {
	switch role {
	case RoleRaw:
		s.Raw = wb
	case RolePrevious:
		s.Previous = wb
	}
}

// ColumnReport describes how the identifier column resolves for one sheet
type ColumnReport struct {
	Role             Role     `json:"role"`
	Sheet            string   `json:"sheet"`
	Columns          []string `json:"columns"`
	IdentifierColumn string   `json:"identifier_column,omitempty"`
	Found            bool     `json:"found"`
}
