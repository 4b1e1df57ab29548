package debug

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	mendErrors "mend/internal/errors"
	"mend/internal/logging"
	"mend/internal/storage"
)

// Service owns the debug session lifecycle: start, analyze, fix, resolve.
// Sessions are terminal once resolved; every mutating operation refuses a
// resolved session.
type Service struct {
	roomID   string
	sessions *storage.SessionRepository
	logger   *logging.Logger
}

// NewService creates a debug service bound to one room
func NewService(roomID string, sessions *storage.SessionRepository, logger *logging.Logger) *Service {
	return &Service{
		roomID:   roomID,
		sessions: sessions,
		logger:   logger.With(map[string]interface{}{"component": "debug"}),
	}
}

// StartSession opens a new session holding the expected behavior contract
func (s *Service) StartSession(triggerAction, userIntent string, expected *Behavior) (*storage.DebugSession, error) {
	if expected == nil {
		expected = &Behavior{}
	}
	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		return nil, fmt.Errorf("failed to encode expected behavior: %w", err)
	}

	session := &storage.DebugSession{
		ID:                   uuid.NewString(),
		RoomID:               s.roomID,
		TriggerAction:        triggerAction,
		UserIntent:           userIntent,
		ExpectedBehaviorJSON: string(expectedJSON),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	s.logger.Info("Debug session started", map[string]interface{}{
		"session": session.ID,
		"trigger": triggerAction,
	})
	return session, nil
}

// AnalyzeDiscrepancy diffs the observed behavior against the session's
// expected contract, persists both on the session, and returns the
// discrepancies with suggested fixes.
func (s *Service) AnalyzeDiscrepancy(sessionID string, actual *Behavior) (*AnalysisResult, error) {
	session, err := s.mutableSession(sessionID)
	if err != nil {
		return nil, err
	}

	var expected Behavior
	if err := json.Unmarshal([]byte(session.ExpectedBehaviorJSON), &expected); err != nil {
		return nil, fmt.Errorf("failed to decode expected behavior: %w", err)
	}
	if actual == nil {
		actual = &Behavior{}
	}

	discrepancies := compareBehaviors(&expected, actual)
	fixes := GenerateFixes(discrepancies)

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		return nil, fmt.Errorf("failed to encode actual behavior: %w", err)
	}
	discrepanciesJSON, err := json.Marshal(discrepancies)
	if err != nil {
		return nil, fmt.Errorf("failed to encode discrepancies: %w", err)
	}

	session.ActualBehaviorJSON = string(actualJSON)
	session.DiscrepanciesJSON = string(discrepanciesJSON)
	if err := s.sessions.Update(session); err != nil {
		return nil, err
	}

	s.logger.Info("Discrepancy analysis completed", map[string]interface{}{
		"session":       sessionID,
		"discrepancies": len(discrepancies),
	})

	return &AnalysisResult{
		SessionID:      sessionID,
		Discrepancies:  discrepancies,
		SuggestedFixes: fixes,
	}, nil
}

// ApplyFix records a remediation taken against the session
func (s *Service) ApplyFix(sessionID string, fix Fix) (*storage.DebugSession, error) {
	session, err := s.mutableSession(sessionID)
	if err != nil {
		return nil, err
	}

	var applied []Fix
	if err := json.Unmarshal([]byte(session.FixesAppliedJSON), &applied); err != nil {
		return nil, fmt.Errorf("failed to decode applied fixes: %w", err)
	}
	applied = append(applied, fix)

	appliedJSON, err := json.Marshal(applied)
	if err != nil {
		return nil, fmt.Errorf("failed to encode applied fixes: %w", err)
	}
	session.FixesAppliedJSON = string(appliedJSON)

	if err := s.sessions.Update(session); err != nil {
		return nil, err
	}
	return session, nil
}

// ResolveSession marks the session terminal. Resolving twice is an error.
func (s *Service) ResolveSession(sessionID string) (*storage.DebugSession, error) {
	session, err := s.mutableSession(sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.ResolvedAt = &now
	if err := s.sessions.Update(session); err != nil {
		return nil, err
	}

	s.logger.Info("Debug session resolved", map[string]interface{}{
		"session": sessionID,
	})
	return session, nil
}

// GetSession retrieves a session by id
func (s *Service) GetSession(sessionID string) (*storage.DebugSession, error) {
	return s.sessions.Get(s.roomID, sessionID)
}

// ListSessions returns the room's sessions, most recent first
func (s *Service) ListSessions(limit int) ([]*storage.DebugSession, error) {
	return s.sessions.List(s.roomID, limit)
}

func (s *Service) mutableSession(sessionID string) (*storage.DebugSession, error) {
	session, err := s.sessions.Get(s.roomID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Resolved() {
		return nil, mendErrors.New(mendErrors.SessionResolved,
			fmt.Sprintf("debug session %q is already resolved", sessionID), nil)
	}
	return session, nil
}
