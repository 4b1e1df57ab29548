package healing

import (
	"context"
	"fmt"
	"strings"

	"mend/internal/storage"
)

// StepHandler executes one step of a healing action and returns a
// descriptive result.
type StepHandler func(ctx context.Context, step storage.PlanStep) (string, error)

// DependentSource supplies dependents for coupling-aware steps.
// Satisfied by graph.Store; nil degrades the steps to descriptive stubs.
type DependentSource interface {
	Dependents(ctx context.Context, nodeType, nodeID string) ([]*storage.DependencyEdge, error)
}

// defaultHandlers builds the fixed step dispatch table. Shims and
// migrations are described, not generated and compiled: the simulated
// verbs return descriptive stubs and mutate nothing.
func defaultHandlers(graph DependentSource) map[string]StepHandler {
	return map[string]StepHandler{
		StepCreateCompatibilityShim: func(ctx context.Context, step storage.PlanStep) (string, error) {
			return fmt.Sprintf("Compatibility shim drafted for %s preserving the previous contract", step.Target), nil
		},

		StepUpdateImports: func(ctx context.Context, step storage.PlanStep) (string, error) {
			nodeType, nodeID, ok := splitNodeKey(step.Target)
			if !ok || graph == nil {
				return fmt.Sprintf("Import rewrite queued for dependents of %s", step.Target), nil
			}
			deps, err := graph.Dependents(ctx, nodeType, nodeID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Import rewrite queued for %d dependents of %s", len(deps), step.Target), nil
		},

		StepMarkDeprecated: func(ctx context.Context, step storage.PlanStep) (string, error) {
			return fmt.Sprintf("Deprecation notice recorded for %s", step.Target), nil
		},

		StepAnalyzeCoupling: func(ctx context.Context, step storage.PlanStep) (string, error) {
			nodeType, nodeID, ok := splitNodeKey(step.Target)
			if !ok || graph == nil {
				return fmt.Sprintf("Coupling analysis requested for %s", step.Target), nil
			}
			deps, err := graph.Dependents(ctx, nodeType, nodeID)
			if err != nil {
				return "", err
			}
			if len(deps) == 0 {
				return fmt.Sprintf("No dependents coupled to %s", step.Target), nil
			}
			var total float64
			tight := 0
			for _, dep := range deps {
				total += dep.CouplingStrength
				if dep.CouplingStrength >= 0.8 {
					tight++
				}
			}
			return fmt.Sprintf("%d dependents of %s, mean coupling %.2f, %d tightly coupled",
				len(deps), step.Target, total/float64(len(deps)), tight), nil
		},

		StepDraftMigrationPlan: func(ctx context.Context, step storage.PlanStep) (string, error) {
			return fmt.Sprintf("Migration plan drafted for consumers of %s", step.Target), nil
		},

		StepScheduleMigrationReview: func(ctx context.Context, step storage.PlanStep) (string, error) {
			return fmt.Sprintf("Migration review scheduled for %s", step.Target), nil
		},

		StepSimulatePerformanceFix: func(ctx context.Context, step storage.PlanStep) (string, error) {
			return fmt.Sprintf("Performance remediation outlined for %s: %s", step.Target, step.Description), nil
		},

		StepSimulateSecurityPatch: func(ctx context.Context, step storage.PlanStep) (string, error) {
			return fmt.Sprintf("Security remediation outlined for %s: %s", step.Target, step.Description), nil
		},

		StepSimulateRefactor: func(ctx context.Context, step storage.PlanStep) (string, error) {
			return fmt.Sprintf("Refactor outline prepared for %s", step.Target), nil
		},
	}
}

// splitNodeKey parses a "type:id" node key
func splitNodeKey(key string) (nodeType, nodeID string, ok bool) {
	idx := strings.Index(key, ":")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}
