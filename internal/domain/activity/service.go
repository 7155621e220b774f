package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || entry.SessionID == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Record builds and logs an entry, marshalling details to JSON. Failures are logged
// and swallowed so history never blocks the operation being recorded.
func (s *Service) Record(ctx context.Context, sessionID string, typ ActivityType, summary string, details any) {
	entry := &ActivityEntry{
		SessionID:    sessionID,
		ActivityType: typ,
		Summary:      summary,
	}
	if details != nil {
		data, err := json.Marshal(details)
		if err == nil {
			entry.Details = string(data)
		}
	}
	if err := s.LogActivity(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("failed to record activity", "type", typ, "session_id", sessionID, "error", err)
	}
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	return s.repo.List(ctx, opts)
}

// ClearSession removes the history of one session.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("clearing activity: %w", err)
	}
	return nil
}
