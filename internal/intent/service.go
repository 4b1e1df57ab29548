package intent

import (
	"context"

	"github.com/google/uuid"

	"mend/internal/impact"
	"mend/internal/logging"
	"mend/internal/storage"
)

// PredictionConfidence is the fixed confidence attached to every persisted
// impact prediction.
const PredictionConfidence = 0.8

// Context carries optional explicit targets and opaque before/after
// snapshots supplied by the collaborator.
type Context struct {
	TargetFile  string                 `json:"targetFile,omitempty"`
	TargetAPI   string                 `json:"targetApi,omitempty"`
	TargetModel string                 `json:"targetModel,omitempty"`
	Before      map[string]interface{} `json:"before,omitempty"`
	After       map[string]interface{} `json:"after,omitempty"`
}

// CaptureResult is the full outcome of capturing one user action
type CaptureResult struct {
	Capture     *storage.IntentCapture      `json:"intentCapture"`
	Predictions []*storage.ImpactPrediction `json:"predictions"`
	Analysis    *impact.Analysis            `json:"impactAnalysis,omitempty"`
	OverallRisk int                         `json:"overallRisk"`
}

// Service captures user/agent actions: classify, persist, analyze impact,
// persist predictions.
type Service struct {
	roomID      string
	captures    *storage.CaptureRepository
	predictions *storage.PredictionRepository
	analyzer    *impact.Analyzer
	classifier  Classifier
	logger      *logging.Logger
}

// NewService creates an intent capture service
func NewService(
	roomID string,
	captures *storage.CaptureRepository,
	predictions *storage.PredictionRepository,
	analyzer *impact.Analyzer,
	classifier Classifier,
	logger *logging.Logger,
) *Service {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &Service{
		roomID:      roomID,
		captures:    captures,
		predictions: predictions,
		analyzer:    analyzer,
		classifier:  classifier,
		logger:      logger,
	}
}

// changeTypeFor maps a canonical intent to the change type fed into impact
// analysis.
func changeTypeFor(intent string) impact.ChangeType {
	switch intent {
	case "delete":
		return impact.ChangeDeletion
	case "refactor":
		return impact.ChangeRename
	default:
		return impact.ChangeModification
	}
}

// CaptureUserAction classifies the action, persists the capture, and when a
// target is resolvable runs impact analysis and persists one prediction per
// breaking change found. Untargeted actions return an empty result with
// zero risk.
func (s *Service) CaptureUserAction(ctx context.Context, action string, actionCtx Context) (*CaptureResult, error) {
	classification := s.classifier.Classify(action)

	capture := &storage.IntentCapture{
		ID:            uuid.New().String(),
		RoomID:        s.roomID,
		Action:        action,
		Intent:        classification.Intent,
		Confidence:    classification.Confidence,
		ContextBefore: actionCtx.Before,
		ContextAfter:  actionCtx.After,
	}

	target, found := extractTarget(action, actionCtx)
	if !found {
		if err := s.captures.Create(capture); err != nil {
			return nil, err
		}
		s.logger.Debug("Captured untargeted action", map[string]interface{}{
			"capture": capture.ID,
			"intent":  capture.Intent,
		})
		return &CaptureResult{
			Capture:     capture,
			Predictions: []*storage.ImpactPrediction{},
			OverallRisk: 0,
		}, nil
	}

	analysis, err := s.analyzer.FindImpact(ctx, target.Type, target.ID, changeTypeFor(capture.Intent))
	if err != nil {
		return nil, err
	}

	capture.TargetType = target.Type
	capture.TargetID = target.ID
	capture.DirectCount = len(analysis.DirectDependencies)
	capture.TransitiveCount = len(analysis.TransitiveDependencies)
	capture.OverallRisk = computeOverallRisk(analysis)

	if err := s.captures.Create(capture); err != nil {
		return nil, err
	}

	predictions := make([]*storage.ImpactPrediction, 0, len(analysis.BreakingChanges))
	for _, bc := range analysis.BreakingChanges {
		pred := &storage.ImpactPrediction{
			ID:                 uuid.New().String(),
			RoomID:             s.roomID,
			CaptureID:          capture.ID,
			PredictionType:     "breaking_change",
			Severity:           bc.Severity,
			Description:        bc.Description,
			AffectedComponents: analysis.AffectedComponents(),
			AutoFixSuggestion: map[string]interface{}{
				"suggestions": analysis.Suggestions,
			},
			Confidence: PredictionConfidence,
		}
		if err := s.predictions.Create(pred); err != nil {
			return nil, err
		}
		predictions = append(predictions, pred)
	}

	s.logger.Info("Captured action", map[string]interface{}{
		"capture":     capture.ID,
		"intent":      capture.Intent,
		"target":      target.Type + ":" + target.ID,
		"risk":        capture.OverallRisk,
		"predictions": len(predictions),
	})

	return &CaptureResult{
		Capture:     capture,
		Predictions: predictions,
		Analysis:    analysis,
		OverallRisk: capture.OverallRisk,
	}, nil
}

// GetCapture loads a capture with its predictions
func (s *Service) GetCapture(ctx context.Context, captureID string) (*storage.IntentCapture, []*storage.ImpactPrediction, error) {
	capture, err := s.captures.Get(s.roomID, captureID)
	if err != nil {
		return nil, nil, err
	}
	predictions, err := s.predictions.ListByCapture(s.roomID, captureID)
	if err != nil {
		return nil, nil, err
	}
	return capture, predictions, nil
}

// computeOverallRisk scores 10 per direct dependent, 5 per transitive
// dependent, 5 per breaking-change severity point, clamped to [0, 100].
func computeOverallRisk(analysis *impact.Analysis) int {
	severitySum := 0
	for _, bc := range analysis.BreakingChanges {
		severitySum += bc.Severity
	}

	risk := 10*len(analysis.DirectDependencies) +
		5*len(analysis.TransitiveDependencies) +
		5*severitySum

	if risk < 0 {
		return 0
	}
	if risk > 100 {
		return 100
	}
	return risk
}
