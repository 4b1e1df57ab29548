package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"mend/internal/debug"
	"mend/internal/logging"
	"mend/internal/storage"
)

func newTestExporter(t *testing.T) (*Exporter, *storage.DB) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), logging.NewNop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	exporter := NewExporter("room-1",
		storage.NewEdgeRepository(db),
		storage.NewActionRepository(db),
		storage.NewExecutionRepository(db),
		storage.NewSessionRepository(db),
		logging.NewNop())
	return exporter, db
}

func seedRoom(t *testing.T, db *storage.DB) {
	t.Helper()

	err := storage.NewEdgeRepository(db).Upsert(&storage.DependencyEdge{
		RoomID: "room-1", SourceType: "file", SourceID: "src/App.tsx",
		TargetType: "file", TargetID: "src/lib/api.ts",
		RelationshipType: "imports", CouplingStrength: 0.8,
	})
	if err != nil {
		t.Fatalf("seed edge: %v", err)
	}

	action := &storage.HealingAction{
		ID: "act-1", RoomID: "room-1", ActionType: "migration_plan",
		Description: "plan migration",
		ExecutionPlan: []storage.PlanStep{
			{Verb: "draft_migration_plan", Description: "draft"},
		},
	}
	if err := storage.NewActionRepository(db).Create(action); err != nil {
		t.Fatalf("seed action: %v", err)
	}
	exec := &storage.HealingExecution{
		ID: "exec-1", RoomID: "room-1", ActionID: "act-1",
		StepNumber: 1, Description: "draft", Status: storage.ExecutionCompleted,
	}
	if err := storage.NewExecutionRepository(db).Create(exec); err != nil {
		t.Fatalf("seed execution: %v", err)
	}

	discrepancies, _ := json.Marshal([]debug.Discrepancy{
		{Type: debug.TypeOutcome, Severity: "high", Messages: []string{"Status: expected \"success\" but got \"error\""}},
	})
	session := &storage.DebugSession{
		ID: "sess-1", RoomID: "room-1",
		TriggerAction: "submit form", UserIntent: "user registers",
		ExpectedBehaviorJSON: `{"outcome":{"status":"success"}}`,
		DiscrepanciesJSON:    string(discrepancies),
	}
	if err := storage.NewSessionRepository(db).Create(session); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func TestBuildReport(t *testing.T) {
	exporter, db := newTestExporter(t)
	seedRoom(t, db)

	report, err := exporter.BuildReport(Options{})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if report.Metadata.RoomID != "room-1" || report.Metadata.Generated == "" {
		t.Errorf("metadata = %+v", report.Metadata)
	}
	if report.Graph.EdgeCount != 1 {
		t.Errorf("edge count = %d, want 1", report.Graph.EdgeCount)
	}
	if len(report.Healing.Actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(report.Healing.Actions))
	}
	record := report.Healing.Actions[0]
	if record.Action.ID != "act-1" || len(record.Executions) != 1 {
		t.Errorf("action record = %+v", record)
	}
	if len(report.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(report.Sessions))
	}
	session := report.Sessions[0]
	if session.TriggerAction != "submit form" || session.Resolved {
		t.Errorf("session record = %+v", session)
	}
	if len(session.Discrepancies) != 1 || session.Discrepancies[0].Type != debug.TypeOutcome {
		t.Errorf("discrepancies = %+v", session.Discrepancies)
	}
}

func TestBuildReportEmptyRoom(t *testing.T) {
	exporter, _ := newTestExporter(t)

	report, err := exporter.BuildReport(Options{})
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if report.Graph.EdgeCount != 0 || len(report.Healing.Actions) != 0 || len(report.Sessions) != 0 {
		t.Errorf("empty room report = %+v", report)
	}
}

func TestEncodeFormats(t *testing.T) {
	report := &Report{
		Metadata: ReportMetadata{RoomID: "room-1", Generated: "2026-08-29T00:00:00Z"},
		Graph:    GraphSummary{EdgeCount: 3},
	}

	jsonData, err := Encode(report, FormatJSON)
	if err != nil {
		t.Fatalf("Encode json: %v", err)
	}
	var fromJSON Report
	if err := json.Unmarshal(jsonData, &fromJSON); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if fromJSON.Graph.EdgeCount != 3 {
		t.Errorf("json round trip = %+v", fromJSON.Graph)
	}

	yamlData, err := Encode(report, FormatYAML)
	if err != nil {
		t.Fatalf("Encode yaml: %v", err)
	}
	var fromYAML Report
	if err := yaml.Unmarshal(yamlData, &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if fromYAML.Metadata.RoomID != "room-1" {
		t.Errorf("yaml round trip = %+v", fromYAML.Metadata)
	}

	// Empty format defaults to JSON
	if _, err := Encode(report, ""); err != nil {
		t.Errorf("Encode default: %v", err)
	}
	if _, err := Encode(report, "xml"); err == nil {
		t.Error("unsupported format accepted")
	}
}

func TestWriteReportPlain(t *testing.T) {
	exporter, db := newTestExporter(t)
	seedRoom(t, db)

	outPath := filepath.Join(t.TempDir(), "reports", "room.json")
	written, err := exporter.WriteReport(outPath, Options{Format: FormatJSON})
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if written != outPath {
		t.Errorf("written path = %q, want %q", written, outPath)
	}

	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if report.Graph.EdgeCount != 1 {
		t.Errorf("report = %+v", report.Graph)
	}
}

func TestWriteReportCompressed(t *testing.T) {
	exporter, db := newTestExporter(t)
	seedRoom(t, db)

	outPath := filepath.Join(t.TempDir(), "room.json")
	written, err := exporter.WriteReport(outPath, Options{Format: FormatJSON, Compress: true})
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !strings.HasSuffix(written, ".zst") {
		t.Errorf("compressed path = %q, want .zst suffix", written)
	}

	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	decompressed, err := Decompress(data)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	var report Report
	if err := json.Unmarshal(decompressed, &report); err != nil {
		t.Fatalf("decompressed report is not valid JSON: %v", err)
	}
	if report.Metadata.RoomID != "room-1" {
		t.Errorf("report metadata = %+v", report.Metadata)
	}
}
