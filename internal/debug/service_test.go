package debug

import (
	"encoding/json"
	"path/filepath"
	"testing"

	mendErrors "mend/internal/errors"
	"mend/internal/logging"
	"mend/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), logging.NewNop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewService("room-1", storage.NewSessionRepository(db), logging.NewNop())
}

func TestSessionLifecycle(t *testing.T) {
	svc := newTestService(t)

	expected := &Behavior{
		ExecutionPath: []string{"validate", "persist", "respond"},
		Outcome:       map[string]interface{}{"status": "success", "created": true},
		Performance:   &Performance{ResponseTimeMs: 100},
	}
	session, err := svc.StartSession("submit signup form", "user should be registered", expected)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if session.ID == "" || session.Resolved() {
		t.Fatalf("fresh session = %+v", session)
	}

	actual := &Behavior{
		ExecutionPath: []string{"validate", "reject"},
		Outcome:       map[string]interface{}{"status": "error", "created": true},
		Performance:   &Performance{ResponseTimeMs: 110},
	}
	result, err := svc.AnalyzeDiscrepancy(session.ID, actual)
	if err != nil {
		t.Fatalf("AnalyzeDiscrepancy: %v", err)
	}
	if result.SessionID != session.ID {
		t.Errorf("result session = %s, want %s", result.SessionID, session.ID)
	}
	if len(result.Discrepancies) != 2 {
		t.Fatalf("discrepancies = %d, want path + outcome: %v",
			len(result.Discrepancies), result.Discrepancies)
	}
	if result.Discrepancies[0].Type != TypeExecutionPath || result.Discrepancies[1].Type != TypeOutcome {
		t.Errorf("discrepancy types = [%s %s]",
			result.Discrepancies[0].Type, result.Discrepancies[1].Type)
	}
	if len(result.SuggestedFixes) != 2 {
		t.Errorf("suggested fixes = %d, want 2", len(result.SuggestedFixes))
	}

	// Analysis is persisted on the session row
	stored, err := svc.GetSession(session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	var persisted []Discrepancy
	if err := json.Unmarshal([]byte(stored.DiscrepanciesJSON), &persisted); err != nil {
		t.Fatalf("decode persisted discrepancies: %v", err)
	}
	if len(persisted) != 2 {
		t.Errorf("persisted discrepancies = %d, want 2", len(persisted))
	}
	if stored.ActualBehaviorJSON == "{}" || stored.ActualBehaviorJSON == "" {
		t.Error("actual behavior not persisted")
	}

	if _, err := svc.ApplyFix(session.ID, result.SuggestedFixes[0]); err != nil {
		t.Fatalf("ApplyFix: %v", err)
	}
	stored, _ = svc.GetSession(session.ID)
	var applied []Fix
	if err := json.Unmarshal([]byte(stored.FixesAppliedJSON), &applied); err != nil {
		t.Fatalf("decode applied fixes: %v", err)
	}
	if len(applied) != 1 || applied[0].DiscrepancyType != TypeExecutionPath {
		t.Errorf("applied fixes = %+v", applied)
	}

	resolved, err := svc.ResolveSession(session.ID)
	if err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}
	if !resolved.Resolved() {
		t.Error("session not marked resolved")
	}
}

func TestResolvedSessionIsTerminal(t *testing.T) {
	svc := newTestService(t)

	session, err := svc.StartSession("trigger", "intent", &Behavior{
		Outcome: map[string]interface{}{"status": "success"},
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := svc.ResolveSession(session.ID); err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}

	if _, err := svc.ResolveSession(session.ID); mendErrors.CodeOf(err) != mendErrors.SessionResolved {
		t.Errorf("second resolve error = %v, want SESSION_RESOLVED", err)
	}
	if _, err := svc.AnalyzeDiscrepancy(session.ID, &Behavior{}); mendErrors.CodeOf(err) != mendErrors.SessionResolved {
		t.Errorf("analyze after resolve error = %v, want SESSION_RESOLVED", err)
	}
	if _, err := svc.ApplyFix(session.ID, Fix{DiscrepancyType: TypeOutcome}); mendErrors.CodeOf(err) != mendErrors.SessionResolved {
		t.Errorf("apply fix after resolve error = %v, want SESSION_RESOLVED", err)
	}
}

func TestAnalyzeDiscrepancyUnknownSession(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AnalyzeDiscrepancy("no-such-session", &Behavior{})
	if !mendErrors.IsNotFound(err) {
		t.Errorf("error = %v, want not-found", err)
	}
}

func TestAnalyzeMatchingBehaviorYieldsNothing(t *testing.T) {
	svc := newTestService(t)

	behavior := &Behavior{
		ExecutionPath: []string{"a", "b"},
		Outcome:       map[string]interface{}{"status": "success"},
	}
	session, err := svc.StartSession("trigger", "intent", behavior)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	result, err := svc.AnalyzeDiscrepancy(session.ID, behavior)
	if err != nil {
		t.Fatalf("AnalyzeDiscrepancy: %v", err)
	}
	if len(result.Discrepancies) != 0 || len(result.SuggestedFixes) != 0 {
		t.Errorf("matching behavior produced %v / %v",
			result.Discrepancies, result.SuggestedFixes)
	}
}

func TestListSessions(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.StartSession("trigger", "intent", &Behavior{}); err != nil {
			t.Fatalf("StartSession: %v", err)
		}
	}

	sessions, err := svc.ListSessions(2)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("sessions = %d, want limit 2 applied", len(sessions))
	}
}
