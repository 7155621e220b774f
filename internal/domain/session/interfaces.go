package session

import (
	"context"

	"github.com/rpggio/sheetmatch/internal/domain/activity"
)

// SessionRepository provides persistence for sessions.
type SessionRepository interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

// ActivityLog records session history.
type ActivityLog interface {
	Record(ctx context.Context, sessionID string, typ activity.ActivityType, summary string, details any)
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
	ClearSession(ctx context.Context, sessionID string) error
}
