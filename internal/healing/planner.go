// Package healing turns high-risk impact predictions into ordered
// remediation plans and executes them under a single-flight policy.
package healing

import (
	"fmt"

	"github.com/google/uuid"

	"mend/internal/storage"
)

// Planning thresholds
const (
	// defaultSeverityThreshold filters which predictions produce actions
	defaultSeverityThreshold = 7

	// compatibilityThreshold is the severity at which a compatibility
	// layer is planned in addition to the migration plan
	compatibilityThreshold = 8

	// reviewThreshold is the direct-dependent count above which an
	// architectural review is always planned
	reviewThreshold = 10
)

// Planner generates healing plans. GeneratePlan is a pure function of its
// inputs; nothing is persisted or mutated until the executor runs the plan.
type Planner struct {
	severityThreshold int
}

// NewPlanner creates a planner with the given severity threshold
// (0 uses the default of 7).
func NewPlanner(severityThreshold int) *Planner {
	if severityThreshold <= 0 {
		severityThreshold = defaultSeverityThreshold
	}
	return &Planner{severityThreshold: severityThreshold}
}

// GeneratePlan emits zero or more actions per qualifying prediction, plus a
// preventive architectural review when the capture's direct impact is wide.
func (p *Planner) GeneratePlan(capture *storage.IntentCapture, predictions []*storage.ImpactPrediction) *Plan {
	plan := &Plan{
		ID:        uuid.New().String(),
		RoomID:    capture.RoomID,
		CaptureID: capture.ID,
	}

	target := capture.TargetType + ":" + capture.TargetID

	for _, pred := range predictions {
		if pred.Severity < p.severityThreshold {
			continue
		}

		switch pred.PredictionType {
		case "breaking_change":
			if pred.Severity >= compatibilityThreshold {
				plan.Actions = append(plan.Actions, &storage.HealingAction{
					ID:           uuid.New().String(),
					RoomID:       capture.RoomID,
					PredictionID: pred.ID,
					ActionType:   ActionCompatibilityLayer,
					Description:  fmt.Sprintf("Maintain compatibility for dependents of %s", target),
					ExecutionPlan: []storage.PlanStep{
						{Verb: StepCreateCompatibilityShim, Target: target, Description: "Create a compatibility shim preserving the old contract"},
						{Verb: StepUpdateImports, Target: target, Description: "Point dependents at the compatibility shim"},
						{Verb: StepMarkDeprecated, Target: target, Description: "Mark the old contract deprecated"},
					},
					Status: storage.ActionPending,
				})
			}

			plan.Actions = append(plan.Actions, &storage.HealingAction{
				ID:           uuid.New().String(),
				RoomID:       capture.RoomID,
				PredictionID: pred.ID,
				ActionType:   ActionMigrationPlan,
				Description:  fmt.Sprintf("Plan the migration of %d affected components", len(pred.AffectedComponents)),
				ExecutionPlan: []storage.PlanStep{
					{Verb: StepDraftMigrationPlan, Target: target, Description: "Draft an ordered migration plan for affected components"},
					{Verb: StepScheduleMigrationReview, Target: target, Description: "Schedule a review of the migration plan"},
				},
				Status: storage.ActionPending,
			})

		case "performance":
			plan.Actions = append(plan.Actions, p.genericFix(capture, pred, StepSimulatePerformanceFix))
		case "security":
			plan.Actions = append(plan.Actions, p.genericFix(capture, pred, StepSimulateSecurityPatch))
		}
	}

	if capture.DirectCount > reviewThreshold {
		plan.Actions = append(plan.Actions, &storage.HealingAction{
			ID:          uuid.New().String(),
			RoomID:      capture.RoomID,
			ActionType:  ActionArchitecturalReview,
			Description: fmt.Sprintf("Review coupling around %s (%d direct dependents)", target, capture.DirectCount),
			ExecutionPlan: []storage.PlanStep{
				{Verb: StepAnalyzeCoupling, Target: target, Description: "Analyze coupling strength across direct dependents"},
			},
			Status: storage.ActionPending,
		})
	}

	return plan
}

func (p *Planner) genericFix(capture *storage.IntentCapture, pred *storage.ImpactPrediction, verb string) *storage.HealingAction {
	target := capture.TargetType + ":" + capture.TargetID
	return &storage.HealingAction{
		ID:           uuid.New().String(),
		RoomID:       capture.RoomID,
		PredictionID: pred.ID,
		ActionType:   ActionFix,
		Description:  pred.Description,
		ExecutionPlan: []storage.PlanStep{
			{Verb: verb, Target: target, Description: pred.Description},
		},
		Status: storage.ActionPending,
	}
}
