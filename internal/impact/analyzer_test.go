package impact

import (
	"context"
	"strings"
	"testing"

	"mend/internal/logging"
	"mend/internal/storage"
)

// fakeGraph serves dependents from a static adjacency map keyed by
// "type:id" of the target node.
type fakeGraph struct {
	dependents map[string][]*storage.DependencyEdge
	calls      int
}

func (f *fakeGraph) Dependents(ctx context.Context, nodeType, nodeID string) ([]*storage.DependencyEdge, error) {
	f.calls++
	return f.dependents[nodeType+":"+nodeID], nil
}

func edge(sourceType, sourceID, targetType, targetID string) *storage.DependencyEdge {
	return &storage.DependencyEdge{
		RoomID:           "room-1",
		SourceType:       sourceType,
		SourceID:         sourceID,
		TargetType:       targetType,
		TargetID:         targetID,
		RelationshipType: "imports",
		CouplingStrength: 0.8,
	}
}

func TestFindImpactDirectDependent(t *testing.T) {
	graph := &fakeGraph{dependents: map[string][]*storage.DependencyEdge{
		"file:B": {edge("file", "A", "file", "B")},
	}}
	analyzer := NewAnalyzer(graph, logging.NewNop())

	analysis, err := analyzer.FindImpact(context.Background(), "file", "B", ChangeDeletion)
	if err != nil {
		t.Fatalf("FindImpact: %v", err)
	}

	if len(analysis.DirectDependencies) != 1 {
		t.Fatalf("direct = %d, want 1", len(analysis.DirectDependencies))
	}
	if analysis.DirectDependencies[0].Edge.SourceID != "A" {
		t.Errorf("direct dependent = %s, want A", analysis.DirectDependencies[0].Edge.SourceID)
	}
	if len(analysis.TransitiveDependencies) != 0 {
		t.Errorf("transitive = %d, want 0", len(analysis.TransitiveDependencies))
	}

	if len(analysis.BreakingChanges) != 1 {
		t.Fatalf("breaking changes = %d, want 1", len(analysis.BreakingChanges))
	}
	bc := analysis.BreakingChanges[0]
	if bc.Severity != 9 {
		t.Errorf("severity = %d, want 9", bc.Severity)
	}
	if !strings.Contains(bc.Description, "imports") {
		t.Errorf("description %q should mention broken imports", bc.Description)
	}
}

func TestFindImpactTransitiveChain(t *testing.T) {
	// C -> B -> A: deleting A affects B directly and C transitively
	graph := &fakeGraph{dependents: map[string][]*storage.DependencyEdge{
		"file:A": {edge("file", "B", "file", "A")},
		"file:B": {edge("file", "C", "file", "B")},
	}}
	analyzer := NewAnalyzer(graph, logging.NewNop())

	analysis, err := analyzer.FindImpact(context.Background(), "file", "A", ChangeModification)
	if err != nil {
		t.Fatalf("FindImpact: %v", err)
	}

	if len(analysis.DirectDependencies) != 1 {
		t.Errorf("direct = %d, want 1", len(analysis.DirectDependencies))
	}
	if len(analysis.TransitiveDependencies) != 1 {
		t.Fatalf("transitive = %d, want 1", len(analysis.TransitiveDependencies))
	}
	dep := analysis.TransitiveDependencies[0]
	if dep.Edge.SourceID != "C" || dep.Depth != 1 {
		t.Errorf("transitive dependent = %s at depth %d, want C at depth 1", dep.Edge.SourceID, dep.Depth)
	}
}

func TestFindImpactTerminatesOnCycle(t *testing.T) {
	// A <-> B cycle must not recurse forever
	graph := &fakeGraph{dependents: map[string][]*storage.DependencyEdge{
		"file:A": {edge("file", "B", "file", "A")},
		"file:B": {edge("file", "A", "file", "B")},
	}}
	analyzer := NewAnalyzer(graph, logging.NewNop())

	analysis, err := analyzer.FindImpact(context.Background(), "file", "A", ChangeModification)
	if err != nil {
		t.Fatalf("FindImpact: %v", err)
	}

	// B direct; the back-edge to A is recorded once, then the visited set
	// stops expansion.
	if len(analysis.DirectDependencies) != 1 {
		t.Errorf("direct = %d, want 1", len(analysis.DirectDependencies))
	}
	if len(analysis.TransitiveDependencies) != 1 {
		t.Errorf("transitive = %d, want 1", len(analysis.TransitiveDependencies))
	}
	if graph.calls > 3 {
		t.Errorf("graph queried %d times, cycle not cut", graph.calls)
	}
}

func TestFindImpactDepthBound(t *testing.T) {
	// A chain longer than MaxTraversalDepth must be truncated
	dependents := make(map[string][]*storage.DependencyEdge)
	for i := 0; i < 30; i++ {
		target := nodeName(i)
		source := nodeName(i + 1)
		dependents["file:"+target] = []*storage.DependencyEdge{
			edge("file", source, "file", target),
		}
	}
	graph := &fakeGraph{dependents: dependents}
	analyzer := NewAnalyzer(graph, logging.NewNop())

	analysis, err := analyzer.FindImpact(context.Background(), "file", nodeName(0), ChangeModification)
	if err != nil {
		t.Fatalf("FindImpact: %v", err)
	}

	total := len(analysis.DirectDependencies) + len(analysis.TransitiveDependencies)
	if total > MaxTraversalDepth+1 {
		t.Errorf("recorded %d dependents, depth bound not applied", total)
	}
	for _, dep := range analysis.TransitiveDependencies {
		if dep.Depth > MaxTraversalDepth {
			t.Errorf("dependent recorded at depth %d, beyond bound", dep.Depth)
		}
	}
}

func nodeName(i int) string {
	return string(rune('a'+i%26)) + string(rune('0'+i/26))
}

func TestFindImpactNoRuleNoBreakingChange(t *testing.T) {
	graph := &fakeGraph{dependents: map[string][]*storage.DependencyEdge{}}
	analyzer := NewAnalyzer(graph, logging.NewNop())

	// file/modification has no entry in the rule table
	analysis, err := analyzer.FindImpact(context.Background(), "file", "X", ChangeModification)
	if err != nil {
		t.Fatalf("FindImpact: %v", err)
	}
	if len(analysis.BreakingChanges) != 0 {
		t.Errorf("breaking changes = %d, want 0", len(analysis.BreakingChanges))
	}
}

func TestFindImpactSeverityTable(t *testing.T) {
	tests := []struct {
		targetType string
		changeType ChangeType
		severity   int
	}{
		{"file", ChangeDeletion, 9},
		{"file", ChangeRename, 6},
		{"api", ChangeDeletion, 10},
		{"api", ChangeModification, 7},
		{"data_model", ChangeModification, 8},
		{"data_model", ChangeDeletion, 9},
		{"component", ChangeDeletion, 8},
	}

	graph := &fakeGraph{dependents: map[string][]*storage.DependencyEdge{}}
	analyzer := NewAnalyzer(graph, logging.NewNop())

	for _, tt := range tests {
		analysis, err := analyzer.FindImpact(context.Background(), tt.targetType, "x", tt.changeType)
		if err != nil {
			t.Fatalf("FindImpact(%s, %s): %v", tt.targetType, tt.changeType, err)
		}
		if len(analysis.BreakingChanges) != 1 {
			t.Errorf("%s/%s: breaking changes = %d, want 1", tt.targetType, tt.changeType, len(analysis.BreakingChanges))
			continue
		}
		if got := analysis.BreakingChanges[0].Severity; got != tt.severity {
			t.Errorf("%s/%s: severity = %d, want %d", tt.targetType, tt.changeType, got, tt.severity)
		}
	}
}

func TestDeriveSuggestions(t *testing.T) {
	many := func(n int) []Dependency {
		deps := make([]Dependency, n)
		for i := range deps {
			deps[i] = Dependency{Edge: edge("file", nodeName(i), "file", "t")}
		}
		return deps
	}

	tests := []struct {
		name     string
		analysis *Analysis
		contains string
	}{
		{
			"isolated artifact",
			&Analysis{ChangeType: ChangeModification},
			"isolated",
		},
		{
			"many direct dependents",
			&Analysis{ChangeType: ChangeModification, DirectDependencies: many(6)},
			"compatibility layer",
		},
		{
			"many transitive dependents",
			&Analysis{ChangeType: ChangeModification, DirectDependencies: many(1), TransitiveDependencies: many(11)},
			"integration suite",
		},
		{
			"deletion notice",
			&Analysis{ChangeType: ChangeDeletion, DirectDependencies: many(1)},
			"deprecation notice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suggestions := deriveSuggestions(tt.analysis)
			found := false
			for _, s := range suggestions {
				if strings.Contains(s, tt.contains) {
					found = true
				}
			}
			if !found {
				t.Errorf("suggestions %v missing %q", suggestions, tt.contains)
			}
		})
	}
}
