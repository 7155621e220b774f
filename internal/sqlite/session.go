package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/sheetmatch/internal/domain/session"
	"github.com/rpggio/sheetmatch/internal/repository"
	"github.com/rpggio/sheetmatch/internal/workbook"
)

var _ session.SessionRepository = (*SessionRepository)(nil)

// SessionRepository implements session.SessionRepository for SQLite. Workbooks and
// the last comparison are stored as JSON documents.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	raw, previous, comparison, err := encodeSession(sess)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (
			id, raw, previous, last_comparison, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		sess.ID,
		raw,
		previous,
		comparison,
		sess.CreatedAt,
		sess.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT id, raw, previous, last_comparison, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	var sess session.Session
	var raw, previous, comparison sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID,
		&raw,
		&previous,
		&comparison,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if sess.Raw, err = decodeWorkbook(raw); err != nil {
		return nil, fmt.Errorf("failed to decode raw workbook: %w", err)
	}
	if sess.Previous, err = decodeWorkbook(previous); err != nil {
		return nil, fmt.Errorf("failed to decode previous workbook: %w", err)
	}
	if comparison.Valid {
		var c session.Comparison
		if err := json.Unmarshal([]byte(comparison.String), &c); err != nil {
			return nil, fmt.Errorf("failed to decode last comparison: %w", err)
		}
		sess.LastComparison = &c
	}

	return &sess, nil
}

// Update stores the current uploads and comparison of a session
func (r *SessionRepository) Update(ctx context.Context, sess *session.Session) error {
	raw, previous, comparison, err := encodeSession(sess)
	if err != nil {
		return err
	}

	query := `
		UPDATE sessions
		SET raw = ?, previous = ?, last_comparison = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, raw, previous, comparison, sess.UpdatedAt, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a session and, through the foreign key, its activity
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func encodeSession(sess *session.Session) (raw, previous, comparison sql.NullString, err error) {
	if raw, err = encodeJSON(sess.Raw); err != nil {
		return raw, previous, comparison, fmt.Errorf("failed to encode raw workbook: %w", err)
	}
	if previous, err = encodeJSON(sess.Previous); err != nil {
		return raw, previous, comparison, fmt.Errorf("failed to encode previous workbook: %w", err)
	}
	if comparison, err = encodeJSON(sess.LastComparison); err != nil {
		return raw, previous, comparison, fmt.Errorf("failed to encode last comparison: %w", err)
	}
	return raw, previous, comparison, nil
}

func encodeJSON[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeWorkbook(s sql.NullString) (*workbook.Workbook, error) {
	if !s.Valid {
		return nil, nil
	}
	var wb workbook.Workbook
	if err := json.Unmarshal([]byte(s.String), &wb); err != nil {
		return nil, err
	}
	return &wb, nil
}
