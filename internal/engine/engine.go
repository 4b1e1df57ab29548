// Package engine wires the room-scoped services over one database.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mend/internal/config"
	"mend/internal/debug"
	"mend/internal/export"
	"mend/internal/graph"
	"mend/internal/healing"
	"mend/internal/impact"
	"mend/internal/intent"
	"mend/internal/logging"
	"mend/internal/rooms"
	"mend/internal/storage"
)

// Engine holds the fully wired service graph for one room. The CLI and
// the daemon both construct one and talk to the services through it.
type Engine struct {
	Root   string
	Config *config.Config
	Logger *logging.Logger

	DB          *storage.DB
	Edges       *storage.EdgeRepository
	Captures    *storage.CaptureRepository
	Predictions *storage.PredictionRepository
	Actions     *storage.ActionRepository
	Executions  *storage.ExecutionRepository
	Sessions    *storage.SessionRepository

	Graph    *graph.Store
	Scanner  *graph.Scanner
	Impact   *impact.Analyzer
	Intent   *intent.Service
	Healing  *healing.Orchestrator
	Debug    *debug.Service
	Exporter *export.Exporter

	// riskThreshold is the effective auto-heal trigger after room overrides
	riskThreshold int
}

// Open constructs the engine for the room configured at root. Room
// declarations in ROOMS.toml may override the healing thresholds.
func Open(root string, cfg *config.Config, logger *logging.Logger) (*Engine, error) {
	dbPath := cfg.DBPath(root)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := storage.Open(dbPath, logger)
	if err != nil {
		return nil, err
	}

	severityThreshold := cfg.Healing.SeverityThreshold
	riskThreshold := cfg.Healing.RiskThreshold
	declarations, err := rooms.Load(root, cfg.Room.DeclarationFile)
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, decl := range declarations {
		if decl.ID != cfg.Room.ID || decl.Thresholds == nil {
			continue
		}
		if decl.Thresholds.SeverityThreshold > 0 {
			severityThreshold = decl.Thresholds.SeverityThreshold
		}
		if decl.Thresholds.RiskThreshold > 0 {
			riskThreshold = decl.Thresholds.RiskThreshold
		}
	}

	e := &Engine{
		Root:          root,
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Edges:         storage.NewEdgeRepository(db),
		Captures:      storage.NewCaptureRepository(db),
		Predictions:   storage.NewPredictionRepository(db),
		Actions:       storage.NewActionRepository(db),
		Executions:    storage.NewExecutionRepository(db),
		Sessions:      storage.NewSessionRepository(db),
		riskThreshold: riskThreshold,
	}

	roomID := cfg.Room.ID
	e.Graph, err = graph.NewStore(roomID, e.Edges, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	e.Scanner, err = graph.NewScanner(e.Graph, graph.ScannerOptions{
		PatternFile:      cfg.Scan.PatternFile,
		MaxFileSizeBytes: cfg.Scan.MaxFileSizeBytes,
	}, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	e.Impact = impact.NewAnalyzer(e.Graph, logger)
	e.Intent = intent.NewService(roomID, e.Captures, e.Predictions, e.Impact, nil, logger)

	planner := healing.NewPlanner(severityThreshold)
	executor := healing.NewExecutor(roomID, e.Actions, e.Executions, e.Graph, logger)
	e.Healing = healing.NewOrchestrator(planner, executor, cfg.Healing.QueueSize, logger)

	e.Debug = debug.NewService(roomID, e.Sessions, logger)
	e.Exporter = export.NewExporter(roomID, e.Edges, e.Actions, e.Executions, e.Sessions, logger)

	return e, nil
}

// Close stops the healing worker and closes the database
func (e *Engine) Close() error {
	if e.Healing != nil {
		e.Healing.Close()
	}
	if e.DB != nil {
		return e.DB.Close()
	}
	return nil
}

// CaptureUserAction records the action and, when auto-heal is enabled and
// the capture's risk reaches the room's threshold, initiates healing. The
// healing response (terminal or queued) rides along with the capture
// result.
func (e *Engine) CaptureUserAction(ctx context.Context, action string, actionCtx intent.Context) (*intent.CaptureResult, *healing.Response, error) {
	result, err := e.Intent.CaptureUserAction(ctx, action, actionCtx)
	if err != nil {
		return nil, nil, err
	}

	if !e.Config.Healing.AutoHeal || result.OverallRisk < e.riskThreshold {
		return result, nil, nil
	}

	resp, err := e.Healing.InitiateHealing(ctx, result.Capture, result.Predictions)
	if err != nil {
		// The capture itself succeeded; report it alongside the error
		return result, nil, err
	}
	return result, resp, nil
}

// HealCapture initiates healing for a previously recorded capture
func (e *Engine) HealCapture(ctx context.Context, captureID string) (*healing.Response, error) {
	capture, predictions, err := e.Intent.GetCapture(ctx, captureID)
	if err != nil {
		return nil, err
	}
	return e.Healing.InitiateHealing(ctx, capture, predictions)
}

// RiskThreshold returns the effective auto-heal threshold after room
// declaration overrides
func (e *Engine) RiskThreshold() int {
	return e.riskThreshold
}
