package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	mendErrors "mend/internal/errors"
)

// ActionRepository provides operations for the healing_actions table
type ActionRepository struct {
	db *DB
}

// NewActionRepository creates a new action repository
func NewActionRepository(db *DB) *ActionRepository {
	return &ActionRepository{db: db}
}

// Create inserts a new healing action in pending state
func (r *ActionRepository) Create(action *HealingAction) error {
	planJSON, err := json.Marshal(action.ExecutionPlan)
	if err != nil {
		return fmt.Errorf("failed to marshal execution plan: %w", err)
	}

	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}
	if action.Status == "" {
		action.Status = ActionPending
	}

	_, err = r.db.Exec(`
		INSERT INTO healing_actions (
			id, room_id, prediction_id, action_type, description,
			execution_plan_json, status, created_at, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		action.ID,
		action.RoomID,
		nullString(action.PredictionID),
		action.ActionType,
		action.Description,
		string(planJSON),
		string(action.Status),
		action.CreatedAt.Format(time.RFC3339),
		formatTimePtr(action.StartedAt),
		formatTimePtr(action.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create healing action: %w", err)
	}
	return nil
}

// UpdateStatus transitions the action's status and stamps the matching
// timestamp (started_at on executing, completed_at on terminal states).
func (r *ActionRepository) UpdateStatus(roomID, id string, status ActionStatus) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var res sql.Result
	var err error
	switch status {
	case ActionExecuting:
		res, err = r.db.Exec(`
			UPDATE healing_actions SET status = ?, started_at = ?
			WHERE room_id = ? AND id = ?
		`, string(status), now, roomID, id)
	case ActionCompleted, ActionFailed:
		res, err = r.db.Exec(`
			UPDATE healing_actions SET status = ?, completed_at = ?
			WHERE room_id = ? AND id = ?
		`, string(status), now, roomID, id)
	default:
		res, err = r.db.Exec(`
			UPDATE healing_actions SET status = ?
			WHERE room_id = ? AND id = ?
		`, string(status), roomID, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update healing action status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return mendErrors.New(mendErrors.ActionNotFound,
			fmt.Sprintf("healing action %q not found", id), nil)
	}
	return nil
}

// Get retrieves a healing action by id
func (r *ActionRepository) Get(roomID, id string) (*HealingAction, error) {
	row := r.db.QueryRow(`
		SELECT id, room_id, prediction_id, action_type, description,
		       execution_plan_json, status, created_at, started_at, completed_at
		FROM healing_actions
		WHERE room_id = ? AND id = ?
	`, roomID, id)

	action, err := scanAction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, mendErrors.New(mendErrors.ActionNotFound,
			fmt.Sprintf("healing action %q not found", id), nil)
	}
	return action, err
}

// ListByRoom returns actions in the room ordered most recent first
func (r *ActionRepository) ListByRoom(roomID string, limit int) ([]*HealingAction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT id, room_id, prediction_id, action_type, description,
		       execution_plan_json, status, created_at, started_at, completed_at
		FROM healing_actions
		WHERE room_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list healing actions: %w", err)
	}
	defer rows.Close()

	var actions []*HealingAction
	for rows.Next() {
		action, err := scanAction(rows.Scan)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

func scanAction(scan func(dest ...interface{}) error) (*HealingAction, error) {
	var action HealingAction
	var predictionID sql.NullString
	var planJSON, status, createdAt string
	var startedAt, completedAt sql.NullString

	err := scan(
		&action.ID,
		&action.RoomID,
		&predictionID,
		&action.ActionType,
		&action.Description,
		&planJSON,
		&status,
		&createdAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(planJSON), &action.ExecutionPlan); err != nil {
		return nil, fmt.Errorf("failed to parse execution plan: %w", err)
	}
	action.PredictionID = predictionID.String
	action.Status = ActionStatus(status)
	action.CreatedAt = parseTime(createdAt)
	action.StartedAt = parseTimePtr(startedAt)
	action.CompletedAt = parseTimePtr(completedAt)

	return &action, nil
}

// ExecutionRepository provides operations for the healing_executions table
type ExecutionRepository struct {
	db *DB
}

// NewExecutionRepository creates a new execution repository
func NewExecutionRepository(db *DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// Create inserts a new execution row in executing state
func (r *ExecutionRepository) Create(exec *HealingExecution) error {
	if exec.StartedAt.IsZero() {
		exec.StartedAt = time.Now().UTC()
	}
	if exec.Status == "" {
		exec.Status = ExecutionRunning
	}

	_, err := r.db.Exec(`
		INSERT INTO healing_executions (
			id, room_id, action_id, step_number, description,
			status, result, error_message, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		exec.ID,
		exec.RoomID,
		exec.ActionID,
		exec.StepNumber,
		exec.Description,
		string(exec.Status),
		nullString(exec.Result),
		nullString(exec.ErrorMessage),
		exec.StartedAt.Format(time.RFC3339),
		formatTimePtr(exec.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create healing execution: %w", err)
	}
	return nil
}

// Complete marks the execution as completed with its result
func (r *ExecutionRepository) Complete(roomID, id, result string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`
		UPDATE healing_executions
		SET status = ?, result = ?, completed_at = ?
		WHERE room_id = ? AND id = ?
	`, string(ExecutionCompleted), result, now, roomID, id)
	if err != nil {
		return fmt.Errorf("failed to complete healing execution: %w", err)
	}
	return nil
}

// Fail marks the execution as failed with the error message
func (r *ExecutionRepository) Fail(roomID, id, errorMessage string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`
		UPDATE healing_executions
		SET status = ?, error_message = ?, completed_at = ?
		WHERE room_id = ? AND id = ?
	`, string(ExecutionFailed), errorMessage, now, roomID, id)
	if err != nil {
		return fmt.Errorf("failed to record healing execution failure: %w", err)
	}
	return nil
}

// ListByAction returns all execution rows for an action in step order
func (r *ExecutionRepository) ListByAction(roomID, actionID string) ([]*HealingExecution, error) {
	rows, err := r.db.Query(`
		SELECT id, room_id, action_id, step_number, description,
		       status, result, error_message, started_at, completed_at
		FROM healing_executions
		WHERE room_id = ? AND action_id = ?
		ORDER BY step_number
	`, roomID, actionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list healing executions: %w", err)
	}
	defer rows.Close()

	var execs []*HealingExecution
	for rows.Next() {
		var exec HealingExecution
		var status, startedAt string
		var result, errorMessage, completedAt sql.NullString

		if err := rows.Scan(
			&exec.ID,
			&exec.RoomID,
			&exec.ActionID,
			&exec.StepNumber,
			&exec.Description,
			&status,
			&result,
			&errorMessage,
			&startedAt,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan healing execution: %w", err)
		}

		exec.Status = ExecutionStatus(status)
		exec.Result = result.String
		exec.ErrorMessage = errorMessage.String
		exec.StartedAt = parseTime(startedAt)
		exec.CompletedAt = parseTimePtr(completedAt)

		execs = append(execs, &exec)
	}
	return execs, rows.Err()
}
