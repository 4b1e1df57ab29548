package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}

		if err := createDependencyEdgesTable(tx); err != nil {
			return err
		}
		if err := createIntentCapturesTable(tx); err != nil {
			return err
		}
		if err := createImpactPredictionsTable(tx); err != nil {
			return err
		}
		if err := createHealingActionsTable(tx); err != nil {
			return err
		}
		if err := createHealingExecutionsTable(tx); err != nil {
			return err
		}
		if err := createDebugSessionsTable(tx); err != nil {
			return err
		}

		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}
	if version == 0 {
		// Database file without a schema_version table; treat as new
		return db.initializeSchema()
	}

	db.logger.Info("Running database migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Migrations run sequentially as the schema evolves
	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createDependencyEdgesTable creates the dependency_edges table.
// Edges are mutable: re-tracking overwrites strength and metadata.
func createDependencyEdgesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS dependency_edges (
			room_id TEXT NOT NULL,
			source_type TEXT NOT NULL,
			source_id TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT NOT NULL,
			relationship_type TEXT NOT NULL,
			coupling_strength REAL NOT NULL CHECK(coupling_strength >= 0.1 AND coupling_strength <= 1.0),
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,

			PRIMARY KEY (room_id, source_type, source_id, target_type, target_id, relationship_type)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create dependency_edges table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_dependency_edges_target ON dependency_edges(room_id, target_type, target_id)",
		"CREATE INDEX IF NOT EXISTS idx_dependency_edges_source ON dependency_edges(room_id, source_type, source_id)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// createIntentCapturesTable creates the intent_captures table.
// Rows are written once and never mutated.
func createIntentCapturesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS intent_captures (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			action TEXT NOT NULL,
			intent TEXT NOT NULL,
			confidence REAL NOT NULL CHECK(confidence >= 0.0 AND confidence <= 1.0),
			context_before_json TEXT NOT NULL DEFAULT '{}',
			context_after_json TEXT NOT NULL DEFAULT '{}',
			target_type TEXT,
			target_id TEXT,
			direct_count INTEGER NOT NULL DEFAULT 0,
			transitive_count INTEGER NOT NULL DEFAULT 0,
			overall_risk INTEGER NOT NULL DEFAULT 0 CHECK(overall_risk >= 0 AND overall_risk <= 100),
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create intent_captures table: %w", err)
	}

	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_intent_captures_room ON intent_captures(room_id, created_at)")
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// createImpactPredictionsTable creates the impact_predictions table
func createImpactPredictionsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS impact_predictions (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			capture_id TEXT NOT NULL,
			prediction_type TEXT NOT NULL,
			severity INTEGER NOT NULL CHECK(severity >= 0 AND severity <= 10),
			description TEXT NOT NULL,
			affected_components_json TEXT NOT NULL DEFAULT '[]',
			auto_fix_suggestion_json TEXT NOT NULL DEFAULT '{}',
			confidence REAL NOT NULL CHECK(confidence >= 0.0 AND confidence <= 1.0),
			created_at TEXT NOT NULL,

			FOREIGN KEY (capture_id) REFERENCES intent_captures(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create impact_predictions table: %w", err)
	}

	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_impact_predictions_capture ON impact_predictions(capture_id)")
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// createHealingActionsTable creates the healing_actions table
func createHealingActionsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS healing_actions (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			prediction_id TEXT,
			action_type TEXT NOT NULL,
			description TEXT NOT NULL,
			execution_plan_json TEXT NOT NULL DEFAULT '[]',
			status TEXT NOT NULL CHECK(status IN ('pending', 'executing', 'completed', 'failed')),
			created_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT,

			FOREIGN KEY (prediction_id) REFERENCES impact_predictions(id) ON DELETE SET NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create healing_actions table: %w", err)
	}

	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_healing_actions_room ON healing_actions(room_id, created_at)")
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// createHealingExecutionsTable creates the healing_executions table.
// One row per step; rows are append-only per action.
func createHealingExecutionsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS healing_executions (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			action_id TEXT NOT NULL,
			step_number INTEGER NOT NULL,
			description TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('executing', 'completed', 'failed')),
			result TEXT,
			error_message TEXT,
			started_at TEXT NOT NULL,
			completed_at TEXT,

			FOREIGN KEY (action_id) REFERENCES healing_actions(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create healing_executions table: %w", err)
	}

	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_healing_executions_action ON healing_executions(action_id, step_number)")
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// createDebugSessionsTable creates the debug_sessions table
func createDebugSessionsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS debug_sessions (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			trigger_action TEXT NOT NULL,
			user_intent TEXT NOT NULL,
			expected_behavior_json TEXT NOT NULL DEFAULT '{}',
			actual_behavior_json TEXT NOT NULL DEFAULT '{}',
			discrepancies_json TEXT NOT NULL DEFAULT '[]',
			fixes_applied_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			resolved_at TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create debug_sessions table: %w", err)
	}

	_, err = tx.Exec("CREATE INDEX IF NOT EXISTS idx_debug_sessions_room ON debug_sessions(room_id, created_at)")
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}
