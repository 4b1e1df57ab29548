// Package impact computes the blast radius and breaking-change risk of a
// proposed change by traversing the dependency graph.
package impact

import (
	"context"
	"fmt"

	"mend/internal/logging"
	"mend/internal/storage"
)

// MaxTraversalDepth bounds the traversal. Together with the visited set it
// guarantees termination even over corrupted or cyclic edge data.
const MaxTraversalDepth = 10

// DependentProvider supplies the dependents of a node. Satisfied by
// graph.Store.
type DependentProvider interface {
	Dependents(ctx context.Context, nodeType, nodeID string) ([]*storage.DependencyEdge, error)
}

// Analyzer performs impact analysis over the dependency graph
type Analyzer struct {
	graph  DependentProvider
	logger *logging.Logger
}

// NewAnalyzer creates an impact analyzer
func NewAnalyzer(graph DependentProvider, logger *logging.Logger) *Analyzer {
	return &Analyzer{
		graph:  graph,
		logger: logger,
	}
}

// FindImpact traverses dependents of targetType:targetId depth-first,
// classifies the change against the breaking-change rule table, and derives
// suggestions from the dependent counts.
func (a *Analyzer) FindImpact(ctx context.Context, targetType, targetID string, changeType ChangeType) (*Analysis, error) {
	if targetType == "" || targetID == "" {
		return nil, fmt.Errorf("impact target must be set")
	}

	analysis := &Analysis{
		TargetType:             targetType,
		TargetID:               targetID,
		ChangeType:             changeType,
		DirectDependencies:     make([]Dependency, 0),
		TransitiveDependencies: make([]Dependency, 0),
		BreakingChanges:        make([]BreakingChange, 0),
	}

	visited := map[string]bool{targetType + ":" + targetID: true}
	if err := a.walk(ctx, targetType, targetID, 0, visited, analysis); err != nil {
		return nil, err
	}

	if rule, ok := lookupBreakingRule(targetType, changeType); ok {
		analysis.BreakingChanges = append(analysis.BreakingChanges, BreakingChange{
			Severity:    rule.severity,
			Description: rule.message,
		})
	}

	analysis.Suggestions = deriveSuggestions(analysis)

	a.logger.Debug("Impact analysis finished", map[string]interface{}{
		"target":     targetType + ":" + targetID,
		"changeType": string(changeType),
		"direct":     len(analysis.DirectDependencies),
		"transitive": len(analysis.TransitiveDependencies),
	})

	return analysis, nil
}

// walk records the dependents of one node at the given depth and recurses.
// Each node is expanded at most once per call; depth never exceeds
// MaxTraversalDepth regardless of the visited set.
func (a *Analyzer) walk(ctx context.Context, nodeType, nodeID string, depth int, visited map[string]bool, analysis *Analysis) error {
	if depth > MaxTraversalDepth {
		return nil
	}

	edges, err := a.graph.Dependents(ctx, nodeType, nodeID)
	if err != nil {
		return err
	}

	for _, edge := range edges {
		if depth == 0 {
			analysis.DirectDependencies = append(analysis.DirectDependencies, Dependency{Edge: edge, Depth: 0})
		} else {
			analysis.TransitiveDependencies = append(analysis.TransitiveDependencies, Dependency{Edge: edge, Depth: depth})
		}

		sourceKey := edge.SourceKey()
		if visited[sourceKey] {
			continue
		}
		visited[sourceKey] = true

		if err := a.walk(ctx, edge.SourceType, edge.SourceID, depth+1, visited, analysis); err != nil {
			return err
		}
	}
	return nil
}

// deriveSuggestions is a pure function of the already-computed impact
func deriveSuggestions(analysis *Analysis) []string {
	var suggestions []string

	direct := len(analysis.DirectDependencies)
	transitive := len(analysis.TransitiveDependencies)

	if direct > 5 {
		suggestions = append(suggestions, fmt.Sprintf(
			"%d components depend directly on this artifact; stage the change behind a compatibility layer", direct))
	}
	if transitive > 10 {
		suggestions = append(suggestions, fmt.Sprintf(
			"%d components are transitively affected; run the full integration suite before shipping", transitive))
	}
	if analysis.ChangeType == ChangeDeletion {
		suggestions = append(suggestions, "Publish a deprecation notice before removing this artifact")
	}
	if direct == 0 && transitive == 0 {
		suggestions = append(suggestions, "No tracked dependents; the change appears isolated")
	}

	return suggestions
}
