package impact

import (
	"mend/internal/storage"
)

// ChangeType represents the type of change applied to an artifact
type ChangeType string

const (
	ChangeDeletion     ChangeType = "deletion"
	ChangeModification ChangeType = "modification"
	ChangeRename       ChangeType = "rename"
)

// Dependency is one edge reached during traversal, tagged with the depth it
// was seen at (0 = direct dependent of the target).
type Dependency struct {
	Edge  *storage.DependencyEdge `json:"edge"`
	Depth int                     `json:"depth"`
}

// BreakingChange is a fixed severity/message produced by the rule table for
// a (targetType, changeType) pair, independent of graph shape.
type BreakingChange struct {
	Severity    int    `json:"severity"`
	Description string `json:"description"`
}

// Analysis contains the complete result of one impact traversal
type Analysis struct {
	TargetType string     `json:"targetType"`
	TargetID   string     `json:"targetId"`
	ChangeType ChangeType `json:"changeType"`

	DirectDependencies     []Dependency     `json:"directDependencies"`
	TransitiveDependencies []Dependency     `json:"transitiveDependencies"`
	BreakingChanges        []BreakingChange `json:"breakingChanges"`
	Suggestions            []string         `json:"suggestions"`
}

// AffectedComponents returns the "type:id" keys of the direct dependents
func (a *Analysis) AffectedComponents() []string {
	components := make([]string, 0, len(a.DirectDependencies))
	for _, dep := range a.DirectDependencies {
		components = append(components, dep.Edge.SourceKey())
	}
	return components
}

// MaxSeverity returns the highest breaking-change severity, or 0
func (a *Analysis) MaxSeverity() int {
	max := 0
	for _, bc := range a.BreakingChanges {
		if bc.Severity > max {
			max = bc.Severity
		}
	}
	return max
}
