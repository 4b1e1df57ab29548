package storage

import (
	"database/sql"
	"fmt"
	"time"

	mendErrors "mend/internal/errors"
)

// SessionRepository provides operations for the debug_sessions table
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new debug session
func (r *SessionRepository) Create(session *DebugSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if session.ActualBehaviorJSON == "" {
		session.ActualBehaviorJSON = "{}"
	}
	if session.DiscrepanciesJSON == "" {
		session.DiscrepanciesJSON = "[]"
	}
	if session.FixesAppliedJSON == "" {
		session.FixesAppliedJSON = "[]"
	}

	_, err := r.db.Exec(`
		INSERT INTO debug_sessions (
			id, room_id, trigger_action, user_intent,
			expected_behavior_json, actual_behavior_json,
			discrepancies_json, fixes_applied_json,
			created_at, resolved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.RoomID,
		session.TriggerAction,
		session.UserIntent,
		session.ExpectedBehaviorJSON,
		session.ActualBehaviorJSON,
		session.DiscrepanciesJSON,
		session.FixesAppliedJSON,
		session.CreatedAt.Format(time.RFC3339),
		formatTimePtr(session.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create debug session: %w", err)
	}
	return nil
}

// Get retrieves a debug session by id
func (r *SessionRepository) Get(roomID, id string) (*DebugSession, error) {
	var session DebugSession
	var createdAt string
	var resolvedAt sql.NullString

	err := r.db.QueryRow(`
		SELECT id, room_id, trigger_action, user_intent,
		       expected_behavior_json, actual_behavior_json,
		       discrepancies_json, fixes_applied_json,
		       created_at, resolved_at
		FROM debug_sessions
		WHERE room_id = ? AND id = ?
	`, roomID, id).Scan(
		&session.ID,
		&session.RoomID,
		&session.TriggerAction,
		&session.UserIntent,
		&session.ExpectedBehaviorJSON,
		&session.ActualBehaviorJSON,
		&session.DiscrepanciesJSON,
		&session.FixesAppliedJSON,
		&createdAt,
		&resolvedAt,
	)
	if err == sql.ErrNoRows {
		return nil, mendErrors.New(mendErrors.SessionNotFound,
			fmt.Sprintf("debug session %q not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debug session: %w", err)
	}

	session.CreatedAt = parseTime(createdAt)
	session.ResolvedAt = parseTimePtr(resolvedAt)

	return &session, nil
}

// Update writes the session's mutable fields (actual behavior,
// discrepancies, fixes, resolution)
func (r *SessionRepository) Update(session *DebugSession) error {
	res, err := r.db.Exec(`
		UPDATE debug_sessions
		SET actual_behavior_json = ?,
		    discrepancies_json = ?,
		    fixes_applied_json = ?,
		    resolved_at = ?
		WHERE room_id = ? AND id = ?
	`,
		session.ActualBehaviorJSON,
		session.DiscrepanciesJSON,
		session.FixesAppliedJSON,
		formatTimePtr(session.ResolvedAt),
		session.RoomID,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update debug session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return mendErrors.New(mendErrors.SessionNotFound,
			fmt.Sprintf("debug session %q not found", session.ID), nil)
	}
	return nil
}

// List returns sessions in the room ordered most recent first
func (r *SessionRepository) List(roomID string, limit int) ([]*DebugSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT id, room_id, trigger_action, user_intent,
		       expected_behavior_json, actual_behavior_json,
		       discrepancies_json, fixes_applied_json,
		       created_at, resolved_at
		FROM debug_sessions
		WHERE room_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list debug sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*DebugSession
	for rows.Next() {
		var session DebugSession
		var createdAt string
		var resolvedAt sql.NullString

		if err := rows.Scan(
			&session.ID,
			&session.RoomID,
			&session.TriggerAction,
			&session.UserIntent,
			&session.ExpectedBehaviorJSON,
			&session.ActualBehaviorJSON,
			&session.DiscrepanciesJSON,
			&session.FixesAppliedJSON,
			&createdAt,
			&resolvedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan debug session: %w", err)
		}

		session.CreatedAt = parseTime(createdAt)
		session.ResolvedAt = parseTimePtr(resolvedAt)
		sessions = append(sessions, &session)
	}
	return sessions, rows.Err()
}
