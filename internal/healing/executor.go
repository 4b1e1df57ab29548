package healing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	mendErrors "mend/internal/errors"
	"mend/internal/logging"
	"mend/internal/storage"
)

// Executor runs healing plans action by action, step by step, recording one
// execution row per attempted step.
type Executor struct {
	roomID     string
	actions    *storage.ActionRepository
	executions *storage.ExecutionRepository
	handlers   map[string]StepHandler
	logger     *logging.Logger
}

// NewExecutor creates an executor with the default step dispatch table.
// graph may be nil; coupling-aware steps then degrade to stubs.
func NewExecutor(
	roomID string,
	actions *storage.ActionRepository,
	executions *storage.ExecutionRepository,
	graph DependentSource,
	logger *logging.Logger,
) *Executor {
	return &Executor{
		roomID:     roomID,
		actions:    actions,
		executions: executions,
		handlers:   defaultHandlers(graph),
		logger:     logger,
	}
}

// RegisterHandler overrides or adds a step handler
func (e *Executor) RegisterHandler(verb string, handler StepHandler) {
	e.handlers[verb] = handler
}

// ExecutePlan runs every action of the plan in order. A step failure aborts
// the remaining steps of that action only; subsequent actions still run.
// Persistence failures abort the whole run and propagate.
func (e *Executor) ExecutePlan(ctx context.Context, plan *Plan) (*ExecutionResult, error) {
	result := &ExecutionResult{PlanID: plan.ID}

	for _, action := range plan.Actions {
		actionResult, err := e.executeAction(ctx, action)
		if err != nil {
			return nil, err
		}

		result.ActionResults = append(result.ActionResults, actionResult)
		if actionResult.Status == storage.ActionCompleted {
			result.ActionsCompleted++
		} else {
			result.ActionsFailed++
		}
	}

	e.logger.Info("Healing plan executed", map[string]interface{}{
		"plan":      plan.ID,
		"completed": result.ActionsCompleted,
		"failed":    result.ActionsFailed,
	})
	return result, nil
}

// executeAction persists the action, runs its steps strictly in list order,
// and settles its final status: completed iff every step completed.
func (e *Executor) executeAction(ctx context.Context, action *storage.HealingAction) (*ActionResult, error) {
	if err := e.actions.Create(action); err != nil {
		return nil, err
	}
	if err := e.actions.UpdateStatus(action.RoomID, action.ID, storage.ActionExecuting); err != nil {
		return nil, err
	}

	actionResult := &ActionResult{
		ActionID:   action.ID,
		ActionType: action.ActionType,
	}

	failed := false
	for i, step := range action.ExecutionPlan {
		stepNumber := i + 1

		execution := &storage.HealingExecution{
			ID:          uuid.New().String(),
			RoomID:      action.RoomID,
			ActionID:    action.ID,
			StepNumber:  stepNumber,
			Description: step.Description,
			Status:      storage.ExecutionRunning,
		}
		if err := e.executions.Create(execution); err != nil {
			return nil, err
		}

		stepResult, stepErr := e.runStep(ctx, step)
		if stepErr != nil {
			if err := e.executions.Fail(action.RoomID, execution.ID, stepErr.Error()); err != nil {
				return nil, err
			}
			actionResult.Steps = append(actionResult.Steps, StepOutcome{
				StepNumber: stepNumber,
				Verb:       step.Verb,
				Status:     storage.ExecutionFailed,
				Error:      stepErr.Error(),
			})
			e.logger.Warn("Healing step failed", map[string]interface{}{
				"action": action.ID,
				"step":   stepNumber,
				"verb":   step.Verb,
				"error":  stepErr.Error(),
			})
			failed = true
			break // remaining steps of this action are not executed
		}

		if err := e.executions.Complete(action.RoomID, execution.ID, stepResult); err != nil {
			return nil, err
		}
		actionResult.Steps = append(actionResult.Steps, StepOutcome{
			StepNumber: stepNumber,
			Verb:       step.Verb,
			Status:     storage.ExecutionCompleted,
			Result:     stepResult,
		})
	}

	finalStatus := storage.ActionCompleted
	if failed {
		finalStatus = storage.ActionFailed
	}
	if err := e.actions.UpdateStatus(action.RoomID, action.ID, finalStatus); err != nil {
		return nil, err
	}
	actionResult.Status = finalStatus

	return actionResult, nil
}

// runStep dispatches one step. Unknown verbs fail immediately.
func (e *Executor) runStep(ctx context.Context, step storage.PlanStep) (string, error) {
	handler, ok := e.handlers[step.Verb]
	if !ok {
		return "", mendErrors.New(mendErrors.UnknownStep,
			fmt.Sprintf("no handler registered for step verb %q", step.Verb), nil)
	}
	return handler(ctx, step)
}
