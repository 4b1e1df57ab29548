package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	mendErrors "mend/internal/errors"
)

// CaptureRepository provides operations for the intent_captures table
type CaptureRepository struct {
	db *DB
}

// NewCaptureRepository creates a new capture repository
func NewCaptureRepository(db *DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// Create inserts a new intent capture. Captures are immutable; there is no
// update path.
func (r *CaptureRepository) Create(capture *IntentCapture) error {
	beforeJSON, err := json.Marshal(capture.ContextBefore)
	if err != nil {
		return fmt.Errorf("failed to marshal before context: %w", err)
	}
	afterJSON, err := json.Marshal(capture.ContextAfter)
	if err != nil {
		return fmt.Errorf("failed to marshal after context: %w", err)
	}

	if capture.CreatedAt.IsZero() {
		capture.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.Exec(`
		INSERT INTO intent_captures (
			id, room_id, action, intent, confidence,
			context_before_json, context_after_json,
			target_type, target_id,
			direct_count, transitive_count, overall_risk, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		capture.ID,
		capture.RoomID,
		capture.Action,
		capture.Intent,
		capture.Confidence,
		string(beforeJSON),
		string(afterJSON),
		nullString(capture.TargetType),
		nullString(capture.TargetID),
		capture.DirectCount,
		capture.TransitiveCount,
		capture.OverallRisk,
		capture.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create intent capture: %w", err)
	}
	return nil
}

// Get retrieves an intent capture by id
func (r *CaptureRepository) Get(roomID, id string) (*IntentCapture, error) {
	var capture IntentCapture
	var beforeJSON, afterJSON, createdAt string
	var targetType, targetID sql.NullString

	err := r.db.QueryRow(`
		SELECT id, room_id, action, intent, confidence,
		       context_before_json, context_after_json,
		       target_type, target_id,
		       direct_count, transitive_count, overall_risk, created_at
		FROM intent_captures
		WHERE room_id = ? AND id = ?
	`, roomID, id).Scan(
		&capture.ID,
		&capture.RoomID,
		&capture.Action,
		&capture.Intent,
		&capture.Confidence,
		&beforeJSON,
		&afterJSON,
		&targetType,
		&targetID,
		&capture.DirectCount,
		&capture.TransitiveCount,
		&capture.OverallRisk,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, mendErrors.New(mendErrors.CaptureNotFound,
			fmt.Sprintf("intent capture %q not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intent capture: %w", err)
	}

	if err := json.Unmarshal([]byte(beforeJSON), &capture.ContextBefore); err != nil {
		return nil, fmt.Errorf("failed to parse before context: %w", err)
	}
	if err := json.Unmarshal([]byte(afterJSON), &capture.ContextAfter); err != nil {
		return nil, fmt.Errorf("failed to parse after context: %w", err)
	}
	capture.TargetType = targetType.String
	capture.TargetID = targetID.String
	capture.CreatedAt = parseTime(createdAt)

	return &capture, nil
}

// PredictionRepository provides operations for the impact_predictions table
type PredictionRepository struct {
	db *DB
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create inserts a new impact prediction
func (r *PredictionRepository) Create(pred *ImpactPrediction) error {
	affectedJSON, err := json.Marshal(pred.AffectedComponents)
	if err != nil {
		return fmt.Errorf("failed to marshal affected components: %w", err)
	}
	fixJSON, err := json.Marshal(pred.AutoFixSuggestion)
	if err != nil {
		return fmt.Errorf("failed to marshal auto-fix suggestion: %w", err)
	}

	if pred.CreatedAt.IsZero() {
		pred.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.Exec(`
		INSERT INTO impact_predictions (
			id, room_id, capture_id, prediction_type, severity, description,
			affected_components_json, auto_fix_suggestion_json, confidence, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		pred.ID,
		pred.RoomID,
		pred.CaptureID,
		pred.PredictionType,
		pred.Severity,
		pred.Description,
		string(affectedJSON),
		string(fixJSON),
		pred.Confidence,
		pred.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create impact prediction: %w", err)
	}
	return nil
}

// ListByCapture returns all predictions belonging to a capture
func (r *PredictionRepository) ListByCapture(roomID, captureID string) ([]*ImpactPrediction, error) {
	rows, err := r.db.Query(`
		SELECT id, room_id, capture_id, prediction_type, severity, description,
		       affected_components_json, auto_fix_suggestion_json, confidence, created_at
		FROM impact_predictions
		WHERE room_id = ? AND capture_id = ?
		ORDER BY severity DESC, created_at
	`, roomID, captureID)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	var preds []*ImpactPrediction
	for rows.Next() {
		var pred ImpactPrediction
		var affectedJSON, fixJSON, createdAt string

		if err := rows.Scan(
			&pred.ID,
			&pred.RoomID,
			&pred.CaptureID,
			&pred.PredictionType,
			&pred.Severity,
			&pred.Description,
			&affectedJSON,
			&fixJSON,
			&pred.Confidence,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan impact prediction: %w", err)
		}

		if err := json.Unmarshal([]byte(affectedJSON), &pred.AffectedComponents); err != nil {
			return nil, fmt.Errorf("failed to parse affected components: %w", err)
		}
		if err := json.Unmarshal([]byte(fixJSON), &pred.AutoFixSuggestion); err != nil {
			return nil, fmt.Errorf("failed to parse auto-fix suggestion: %w", err)
		}
		pred.CreatedAt = parseTime(createdAt)

		preds = append(preds, &pred)
	}
	return preds, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
