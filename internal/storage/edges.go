package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EdgeRepository provides CRUD operations for the dependency_edges table
type EdgeRepository struct {
	db *DB
}

// NewEdgeRepository creates a new edge repository
func NewEdgeRepository(db *DB) *EdgeRepository {
	return &EdgeRepository{db: db}
}

// Upsert inserts or overwrites an edge. The edge key is
// (room, source, target, relationshipType); strength and metadata of an
// existing edge are replaced (last writer wins).
func (r *EdgeRepository) Upsert(edge *DependencyEdge) error {
	metadataJSON, err := json.Marshal(edge.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal edge metadata: %w", err)
	}

	now := time.Now().UTC()
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = now
	}
	edge.UpdatedAt = now

	_, err = r.db.Exec(`
		INSERT INTO dependency_edges (
			room_id, source_type, source_id, target_type, target_id,
			relationship_type, coupling_strength, metadata_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (room_id, source_type, source_id, target_type, target_id, relationship_type)
		DO UPDATE SET
			coupling_strength = excluded.coupling_strength,
			metadata_json = excluded.metadata_json,
			updated_at = excluded.updated_at
	`,
		edge.RoomID,
		edge.SourceType,
		edge.SourceID,
		edge.TargetType,
		edge.TargetID,
		edge.RelationshipType,
		edge.CouplingStrength,
		string(metadataJSON),
		edge.CreatedAt.Format(time.RFC3339),
		edge.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert dependency edge: %w", err)
	}
	return nil
}

// ListByTarget returns all edges pointing at the given node, i.e. the
// node's direct dependents.
func (r *EdgeRepository) ListByTarget(roomID, targetType, targetID string) ([]*DependencyEdge, error) {
	rows, err := r.db.Query(`
		SELECT room_id, source_type, source_id, target_type, target_id,
		       relationship_type, coupling_strength, metadata_json, created_at, updated_at
		FROM dependency_edges
		WHERE room_id = ? AND target_type = ? AND target_id = ?
		ORDER BY source_type, source_id, relationship_type
	`, roomID, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges by target: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// ListBySource returns all edges originating at the given node
func (r *EdgeRepository) ListBySource(roomID, sourceType, sourceID string) ([]*DependencyEdge, error) {
	rows, err := r.db.Query(`
		SELECT room_id, source_type, source_id, target_type, target_id,
		       relationship_type, coupling_strength, metadata_json, created_at, updated_at
		FROM dependency_edges
		WHERE room_id = ? AND source_type = ? AND source_id = ?
		ORDER BY target_type, target_id, relationship_type
	`, roomID, sourceType, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges by source: %w", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// Count returns the number of edges in the room
func (r *EdgeRepository) Count(roomID string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM dependency_edges WHERE room_id = ?
	`, roomID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count edges: %w", err)
	}
	return count, nil
}

func scanEdges(rows *sql.Rows) ([]*DependencyEdge, error) {
	var edges []*DependencyEdge
	for rows.Next() {
		var edge DependencyEdge
		var metadataJSON, createdAt, updatedAt string

		if err := rows.Scan(
			&edge.RoomID,
			&edge.SourceType,
			&edge.SourceID,
			&edge.TargetType,
			&edge.TargetID,
			&edge.RelationshipType,
			&edge.CouplingStrength,
			&metadataJSON,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dependency edge: %w", err)
		}

		if err := json.Unmarshal([]byte(metadataJSON), &edge.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse edge metadata: %w", err)
		}
		edge.CreatedAt = parseTime(createdAt)
		edge.UpdatedAt = parseTime(updatedAt)

		edges = append(edges, &edge)
	}
	return edges, rows.Err()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}
