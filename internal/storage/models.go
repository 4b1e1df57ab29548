package storage

import (
	"time"
)

// DependencyEdge represents a directed, attributed relation between two
// project artifacts. Keyed by (room, source, target, relationshipType);
// re-tracking overwrites strength and metadata.
type DependencyEdge struct {
	RoomID           string                 `json:"roomId"`
	SourceType       string                 `json:"sourceType"`
	SourceID         string                 `json:"sourceId"`
	TargetType       string                 `json:"targetType"`
	TargetID         string                 `json:"targetId"`
	RelationshipType string                 `json:"relationshipType"`
	CouplingStrength float64                `json:"couplingStrength"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

// SourceKey returns the "type:id" key of the edge's source node
func (e *DependencyEdge) SourceKey() string {
	return e.SourceType + ":" + e.SourceID
}

// TargetKey returns the "type:id" key of the edge's target node
func (e *DependencyEdge) TargetKey() string {
	return e.TargetType + ":" + e.TargetID
}

// IntentCapture records one classified user/agent action.
// Immutable once created.
type IntentCapture struct {
	ID              string                 `json:"id"`
	RoomID          string                 `json:"roomId"`
	Action          string                 `json:"action"`
	Intent          string                 `json:"intent"`
	Confidence      float64                `json:"confidence"`
	ContextBefore   map[string]interface{} `json:"contextBefore,omitempty"`
	ContextAfter    map[string]interface{} `json:"contextAfter,omitempty"`
	TargetType      string                 `json:"targetType,omitempty"`
	TargetID        string                 `json:"targetId,omitempty"`
	DirectCount     int                    `json:"directCount"`
	TransitiveCount int                    `json:"transitiveCount"`
	OverallRisk     int                    `json:"overallRisk"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// ImpactPrediction is a child of an IntentCapture, one per breaking-change
// entry found at capture time. Never mutated.
type ImpactPrediction struct {
	ID                 string                 `json:"id"`
	RoomID             string                 `json:"roomId"`
	CaptureID          string                 `json:"captureId"`
	PredictionType     string                 `json:"predictionType"`
	Severity           int                    `json:"severity"`
	Description        string                 `json:"description"`
	AffectedComponents []string               `json:"affectedComponents"`
	AutoFixSuggestion  map[string]interface{} `json:"autoFixSuggestion,omitempty"`
	Confidence         float64                `json:"confidence"`
	CreatedAt          time.Time              `json:"createdAt"`
}

// ActionStatus represents the lifecycle state of a healing action
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionExecuting ActionStatus = "executing"
	ActionCompleted ActionStatus = "completed"
	ActionFailed    ActionStatus = "failed"
)

// PlanStep is one ordered step of a healing action's execution plan
type PlanStep struct {
	Verb        string `json:"verb"`
	Target      string `json:"target,omitempty"`
	Description string `json:"description"`
}

// HealingAction is a unit of remediation tied to zero-or-one prediction.
// Created by the planner, mutated only by the executor.
type HealingAction struct {
	ID            string       `json:"id"`
	RoomID        string       `json:"roomId"`
	PredictionID  string       `json:"predictionId,omitempty"`
	ActionType    string       `json:"actionType"`
	Description   string       `json:"description"`
	ExecutionPlan []PlanStep   `json:"executionPlan"`
	Status        ActionStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	StartedAt     *time.Time   `json:"startedAt,omitempty"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
}

// ExecutionStatus represents the state of a single healing step
type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "executing"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// HealingExecution records the outcome of one step of a healing action.
// Rows are append-only per action; the action's final status is the
// conjunction of all its steps' success.
type HealingExecution struct {
	ID           string          `json:"id"`
	RoomID       string          `json:"roomId"`
	ActionID     string          `json:"actionId"`
	StepNumber   int             `json:"stepNumber"`
	Description  string          `json:"description"`
	Status       ExecutionStatus `json:"status"`
	Result       string          `json:"result,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	StartedAt    time.Time       `json:"startedAt"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
}

// DebugSession tracks an expected-vs-actual debugging workflow.
// Behavior, discrepancy and fix payloads are stored as opaque JSON;
// the debug package owns their shape. Terminal once ResolvedAt is set.
type DebugSession struct {
	ID                   string     `json:"id"`
	RoomID               string     `json:"roomId"`
	TriggerAction        string     `json:"triggerAction"`
	UserIntent           string     `json:"userIntent"`
	ExpectedBehaviorJSON string     `json:"expectedBehaviorJson"`
	ActualBehaviorJSON   string     `json:"actualBehaviorJson"`
	DiscrepanciesJSON    string     `json:"discrepanciesJson"`
	FixesAppliedJSON     string     `json:"fixesAppliedJson"`
	CreatedAt            time.Time  `json:"createdAt"`
	ResolvedAt           *time.Time `json:"resolvedAt,omitempty"`
}

// Resolved reports whether the session has reached its terminal state
func (s *DebugSession) Resolved() bool {
	return s.ResolvedAt != nil
}
