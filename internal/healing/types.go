package healing

import (
	"mend/internal/storage"
)

// Action types emitted by the planner
const (
	ActionCompatibilityLayer  = "compatibility_layer"
	ActionMigrationPlan       = "migration_plan"
	ActionFix                 = "fix"
	ActionArchitecturalReview = "architectural_review"
)

// Step verbs understood by the executor's dispatch table
const (
	StepCreateCompatibilityShim = "create_compatibility_shim"
	StepUpdateImports           = "update_imports"
	StepMarkDeprecated          = "mark_deprecated"
	StepAnalyzeCoupling         = "analyze_coupling"
	StepDraftMigrationPlan      = "draft_migration_plan"
	StepScheduleMigrationReview = "schedule_migration_review"
	StepSimulatePerformanceFix  = "simulate_performance_fix"
	StepSimulateSecurityPatch   = "simulate_security_patch"
	StepSimulateRefactor        = "simulate_refactor"
)

// Plan is an ordered list of healing actions produced deterministically
// from a capture's predictions. Plans carry no side effects until executed.
type Plan struct {
	ID        string                   `json:"id"`
	RoomID    string                   `json:"roomId"`
	CaptureID string                   `json:"captureId"`
	Actions   []*storage.HealingAction `json:"actions"`
}

// Empty reports whether the plan contains no actions
func (p *Plan) Empty() bool {
	return len(p.Actions) == 0
}

// StepOutcome records how one step of an action ended
type StepOutcome struct {
	StepNumber int                     `json:"stepNumber"`
	Verb       string                  `json:"verb"`
	Status     storage.ExecutionStatus `json:"status"`
	Result     string                  `json:"result,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// ActionResult records the outcome of one action. Steps after the first
// failure are absent: they were never attempted.
type ActionResult struct {
	ActionID   string               `json:"actionId"`
	ActionType string               `json:"actionType"`
	Status     storage.ActionStatus `json:"status"`
	Steps      []StepOutcome        `json:"steps"`
}

// ExecutionResult summarizes a whole plan run
type ExecutionResult struct {
	PlanID           string          `json:"planId"`
	ActionResults    []*ActionResult `json:"actionResults"`
	ActionsCompleted int             `json:"actionsCompleted"`
	ActionsFailed    int             `json:"actionsFailed"`
}

// Failed reports whether any action in the plan failed
func (r *ExecutionResult) Failed() bool {
	return r.ActionsFailed > 0
}

// Status represents the orchestrator's answer to a healing request
type Status string

const (
	StatusQueued    Status = "queued"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Response is returned by InitiateHealing. Queued responses carry only the
// position; terminal responses carry the plan and its results.
type Response struct {
	Status   Status           `json:"status"`
	Position int              `json:"position,omitempty"`
	Plan     *Plan            `json:"healingPlan,omitempty"`
	Result   *ExecutionResult `json:"result,omitempty"`
}
