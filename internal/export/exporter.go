package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"mend/internal/debug"
	"mend/internal/logging"
	"mend/internal/storage"
	"mend/internal/version"
)

// Exporter assembles a room's state into a shareable report
type Exporter struct {
	roomID     string
	edges      *storage.EdgeRepository
	actions    *storage.ActionRepository
	executions *storage.ExecutionRepository
	sessions   *storage.SessionRepository
	logger     *logging.Logger
}

// NewExporter creates an exporter bound to one room
func NewExporter(roomID string, edges *storage.EdgeRepository, actions *storage.ActionRepository,
	executions *storage.ExecutionRepository, sessions *storage.SessionRepository,
	logger *logging.Logger) *Exporter {
	return &Exporter{
		roomID:     roomID,
		edges:      edges,
		actions:    actions,
		executions: executions,
		sessions:   sessions,
		logger:     logger,
	}
}

// BuildReport collects the room's graph, healing and session state
func (e *Exporter) BuildReport(opts Options) (*Report, error) {
	if opts.SessionLimit <= 0 {
		opts.SessionLimit = 50
	}
	if opts.ActionLimit <= 0 {
		opts.ActionLimit = 100
	}

	edgeCount, err := e.edges.Count(e.roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to count edges: %w", err)
	}

	actions, err := e.actions.ListByRoom(e.roomID, opts.ActionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list healing actions: %w", err)
	}
	actionRecords := make([]ActionRecord, 0, len(actions))
	for _, action := range actions {
		execs, err := e.executions.ListByAction(e.roomID, action.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list executions for action %s: %w", action.ID, err)
		}
		actionRecords = append(actionRecords, ActionRecord{Action: action, Executions: execs})
	}

	sessions, err := e.sessions.List(e.roomID, opts.SessionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list debug sessions: %w", err)
	}
	sessionRecords := make([]SessionRecord, 0, len(sessions))
	for _, session := range sessions {
		record := SessionRecord{
			ID:            session.ID,
			TriggerAction: session.TriggerAction,
			UserIntent:    session.UserIntent,
			Resolved:      session.Resolved(),
			CreatedAt:     session.CreatedAt.Format(time.RFC3339),
		}
		// Payloads are stored as opaque JSON; decode failures leave the
		// record's lists empty rather than failing the export.
		var discrepancies []debug.Discrepancy
		if err := json.Unmarshal([]byte(session.DiscrepanciesJSON), &discrepancies); err == nil {
			record.Discrepancies = discrepancies
		}
		var fixes []debug.Fix
		if err := json.Unmarshal([]byte(session.FixesAppliedJSON), &fixes); err == nil {
			record.FixesApplied = fixes
		}
		sessionRecords = append(sessionRecords, record)
	}

	return &Report{
		Metadata: ReportMetadata{
			RoomID:    e.roomID,
			Generated: time.Now().UTC().Format(time.RFC3339),
			Version:   version.Version,
		},
		Graph:    GraphSummary{EdgeCount: edgeCount},
		Healing:  HealingSection{Actions: actionRecords},
		Sessions: sessionRecords,
	}, nil
}

// Encode renders the report in the requested format
func Encode(report *Report, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(report)
	case FormatJSON, "":
		return json.MarshalIndent(report, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteReport builds, encodes and writes the report to outPath. When
// compression is requested the file gets a .zst suffix. The final path
// is returned.
func (e *Exporter) WriteReport(outPath string, opts Options) (string, error) {
	report, err := e.BuildReport(opts)
	if err != nil {
		return "", err
	}

	data, err := Encode(report, opts.Format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	if opts.Compress {
		outPath += ".zst"
		data, err = compress(data)
		if err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	e.logger.Info("Report exported", map[string]interface{}{
		"path":       outPath,
		"bytes":      len(data),
		"compressed": opts.Compress,
	})
	return outPath, nil
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// Decompress reverses compression applied by WriteReport, for consumers
// reading a .zst report back.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
