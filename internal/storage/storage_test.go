package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	mendErrors "mend/internal/errors"
	"mend/internal/logging"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"), logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	db.Close()

	// Reopening an existing database must not re-run the schema
	db, err = Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db.Close()

	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version < 1 {
		t.Errorf("schema version = %d, want >= 1", version)
	}
}

func TestEdgeUpsertAndQuery(t *testing.T) {
	db := openTestDB(t)
	repo := NewEdgeRepository(db)

	edge := &DependencyEdge{
		RoomID:           "room-1",
		SourceType:       "file",
		SourceID:         "src/App.tsx",
		TargetType:       "file",
		TargetID:         "src/lib/api.ts",
		RelationshipType: "imports",
		CouplingStrength: 0.8,
		Metadata:         map[string]interface{}{"isCritical": true},
	}
	if err := repo.Upsert(edge); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	dependents, err := repo.ListByTarget("room-1", "file", "src/lib/api.ts")
	if err != nil {
		t.Fatalf("ListByTarget: %v", err)
	}
	if len(dependents) != 1 {
		t.Fatalf("dependents = %d, want 1", len(dependents))
	}
	got := dependents[0]
	if got.SourceKey() != "file:src/App.tsx" || got.CouplingStrength != 0.8 {
		t.Errorf("edge = %+v", got)
	}
	if got.Metadata["isCritical"] != true {
		t.Errorf("metadata = %v", got.Metadata)
	}

	dependencies, err := repo.ListBySource("room-1", "file", "src/App.tsx")
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	if len(dependencies) != 1 || dependencies[0].TargetKey() != "file:src/lib/api.ts" {
		t.Errorf("dependencies = %+v", dependencies)
	}

	// Re-tracking the same relation overwrites, never duplicates
	edge.CouplingStrength = 1.0
	if err := repo.Upsert(edge); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	dependents, _ = repo.ListByTarget("room-1", "file", "src/lib/api.ts")
	if len(dependents) != 1 || dependents[0].CouplingStrength != 1.0 {
		t.Errorf("after re-track: %+v", dependents)
	}

	count, err := repo.Count("room-1")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestEdgeRoomIsolation(t *testing.T) {
	db := openTestDB(t)
	repo := NewEdgeRepository(db)

	for _, room := range []string{"room-a", "room-b"} {
		err := repo.Upsert(&DependencyEdge{
			RoomID: room, SourceType: "file", SourceID: "a.ts",
			TargetType: "file", TargetID: "b.ts",
			RelationshipType: "imports", CouplingStrength: 0.8,
		})
		if err != nil {
			t.Fatalf("Upsert %s: %v", room, err)
		}
	}

	count, err := repo.Count("room-a")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("room-a count = %d, want 1", count)
	}

	dependents, _ := repo.ListByTarget("room-b", "file", "b.ts")
	if len(dependents) != 1 || dependents[0].RoomID != "room-b" {
		t.Errorf("room-b dependents = %+v", dependents)
	}
}

func TestCaptureAndPredictionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	captures := NewCaptureRepository(db)
	predictions := NewPredictionRepository(db)

	capture := &IntentCapture{
		ID:              "cap-1",
		RoomID:          "room-1",
		Action:          "delete file src/lib/api.ts",
		Intent:          "delete",
		Confidence:      0.9,
		ContextBefore:   map[string]interface{}{"branch": "main"},
		TargetType:      "file",
		TargetID:        "src/lib/api.ts",
		DirectCount:     2,
		TransitiveCount: 1,
		OverallRisk:     55,
	}
	if err := captures.Create(capture); err != nil {
		t.Fatalf("Create capture: %v", err)
	}

	for i, severity := range []int{7, 9} {
		err := predictions.Create(&ImpactPrediction{
			ID:                 "pred-" + string(rune('a'+i)),
			RoomID:             "room-1",
			CaptureID:          "cap-1",
			PredictionType:     "breaking_change",
			Severity:           severity,
			Description:        "dependents will break",
			AffectedComponents: []string{"file:src/App.tsx"},
			Confidence:         0.8,
		})
		if err != nil {
			t.Fatalf("Create prediction: %v", err)
		}
	}

	got, err := captures.Get("room-1", "cap-1")
	if err != nil {
		t.Fatalf("Get capture: %v", err)
	}
	if got.Intent != "delete" || got.OverallRisk != 55 || got.TargetID != "src/lib/api.ts" {
		t.Errorf("capture = %+v", got)
	}
	if got.ContextBefore["branch"] != "main" {
		t.Errorf("context = %v", got.ContextBefore)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created at not persisted")
	}

	preds, err := predictions.ListByCapture("room-1", "cap-1")
	if err != nil {
		t.Fatalf("ListByCapture: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("predictions = %d, want 2", len(preds))
	}
	// Highest severity first
	if preds[0].Severity != 9 || preds[1].Severity != 7 {
		t.Errorf("severity order = [%d %d]", preds[0].Severity, preds[1].Severity)
	}
	if len(preds[0].AffectedComponents) != 1 || preds[0].AffectedComponents[0] != "file:src/App.tsx" {
		t.Errorf("affected = %v", preds[0].AffectedComponents)
	}
}

func TestCaptureGetNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := NewCaptureRepository(db).Get("room-1", "missing")
	if mendErrors.CodeOf(err) != mendErrors.CaptureNotFound {
		t.Errorf("error = %v, want CAPTURE_NOT_FOUND", err)
	}
	if !mendErrors.IsNotFound(err) {
		t.Error("capture-not-found should satisfy IsNotFound")
	}
}

func TestActionLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewActionRepository(db)

	action := &HealingAction{
		ID:          "act-1",
		RoomID:      "room-1",
		ActionType:  "migration_plan",
		Description: "plan the migration",
		ExecutionPlan: []PlanStep{
			{Verb: "draft_migration_plan", Target: "file:a.ts", Description: "draft"},
		},
	}
	if err := repo.Create(action); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get("room-1", "act-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != ActionPending {
		t.Errorf("fresh action status = %s, want pending", got.Status)
	}
	if len(got.ExecutionPlan) != 1 || got.ExecutionPlan[0].Verb != "draft_migration_plan" {
		t.Errorf("plan = %+v", got.ExecutionPlan)
	}

	if err := repo.UpdateStatus("room-1", "act-1", ActionExecuting); err != nil {
		t.Fatalf("UpdateStatus executing: %v", err)
	}
	got, _ = repo.Get("room-1", "act-1")
	if got.Status != ActionExecuting || got.StartedAt == nil {
		t.Errorf("executing action = %+v", got)
	}

	if err := repo.UpdateStatus("room-1", "act-1", ActionCompleted); err != nil {
		t.Fatalf("UpdateStatus completed: %v", err)
	}
	got, _ = repo.Get("room-1", "act-1")
	if got.Status != ActionCompleted || got.CompletedAt == nil {
		t.Errorf("completed action = %+v", got)
	}

	if err := repo.UpdateStatus("room-1", "missing", ActionFailed); mendErrors.CodeOf(err) != mendErrors.ActionNotFound {
		t.Errorf("update of missing action = %v, want ACTION_NOT_FOUND", err)
	}

	listed, err := repo.ListByRoom("room-1", 0)
	if err != nil {
		t.Fatalf("ListByRoom: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("listed = %d, want 1", len(listed))
	}
}

func TestExecutionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewExecutionRepository(db)

	first := &HealingExecution{
		ID: "exec-1", RoomID: "room-1", ActionID: "act-1",
		StepNumber: 1, Description: "draft", Status: ExecutionRunning,
	}
	second := &HealingExecution{
		ID: "exec-2", RoomID: "room-1", ActionID: "act-1",
		StepNumber: 2, Description: "review", Status: ExecutionRunning,
	}
	for _, exec := range []*HealingExecution{first, second} {
		if err := repo.Create(exec); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := repo.Complete("room-1", "exec-1", "drafted"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := repo.Fail("room-1", "exec-2", "review rejected"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	execs, err := repo.ListByAction("room-1", "act-1")
	if err != nil {
		t.Fatalf("ListByAction: %v", err)
	}
	if len(execs) != 2 {
		t.Fatalf("executions = %d, want 2", len(execs))
	}
	if execs[0].Status != ExecutionCompleted || execs[0].Result != "drafted" {
		t.Errorf("first = %+v", execs[0])
	}
	if execs[1].Status != ExecutionFailed || execs[1].ErrorMessage != "review rejected" {
		t.Errorf("second = %+v", execs[1])
	}
	if execs[0].CompletedAt == nil || execs[1].CompletedAt == nil {
		t.Error("completed timestamps not stamped")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)

	session := &DebugSession{
		ID:                   "sess-1",
		RoomID:               "room-1",
		TriggerAction:        "submit form",
		UserIntent:           "should register user",
		ExpectedBehaviorJSON: `{"outcome":{"status":"success"}}`,
	}
	if err := repo.Create(session); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get("room-1", "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Resolved() {
		t.Error("fresh session reports resolved")
	}
	if got.ActualBehaviorJSON != "{}" || got.DiscrepanciesJSON != "[]" || got.FixesAppliedJSON != "[]" {
		t.Errorf("JSON defaults not applied: %+v", got)
	}

	now := time.Now().UTC()
	got.ActualBehaviorJSON = `{"outcome":{"status":"error"}}`
	got.ResolvedAt = &now
	if err := repo.Update(got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ = repo.Get("room-1", "sess-1")
	if !got.Resolved() {
		t.Error("session not resolved after update")
	}
	if got.ActualBehaviorJSON != `{"outcome":{"status":"error"}}` {
		t.Errorf("actual behavior = %s", got.ActualBehaviorJSON)
	}

	if err := repo.Update(&DebugSession{ID: "missing", RoomID: "room-1"}); mendErrors.CodeOf(err) != mendErrors.SessionNotFound {
		t.Errorf("update of missing session = %v, want SESSION_NOT_FOUND", err)
	}

	sessions, err := repo.List("room-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(sessions))
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)

	wantErr := errors.New("abort")
	err := db.WithTx(func(tx *sql.Tx) error {
		_, execErr := tx.Exec(`
			INSERT INTO dependency_edges (
				room_id, source_type, source_id, target_type, target_id,
				relationship_type, coupling_strength, metadata_json, created_at, updated_at
			) VALUES ('room-1', 'file', 'a', 'file', 'b', 'imports', 0.8, '{}', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')
		`)
		if execErr != nil {
			return execErr
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("WithTx error = %v, want %v", err, wantErr)
	}

	count, err := NewEdgeRepository(db).Count("room-1")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("rolled-back insert visible, count = %d", count)
	}
}
