package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeUploadRaw      ActivityType = "upload_raw"
	TypeUploadPrevious ActivityType = "upload_previous"
	TypeCompare        ActivityType = "compare"
	TypeCompareFailed  ActivityType = "compare_failed"
)

// ActivityEntry represents an event in a session's history
type ActivityEntry struct {
	ID           int64        `json:"id"`
	SessionID    string       `json:"session_id"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
