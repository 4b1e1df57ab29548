package export

import (
	"mend/internal/debug"
	"mend/internal/storage"
)

// Format selects the report encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Options controls what a report contains and how it is written
type Options struct {
	// Format is the report encoding (json or yaml, default json)
	Format Format

	// Compress writes the report zstd-compressed with a .zst suffix
	Compress bool

	// SessionLimit caps the number of debug sessions included (default 50)
	SessionLimit int

	// ActionLimit caps the number of healing actions included (default 100)
	ActionLimit int
}

// Report is a point-in-time snapshot of a room's healing and debugging
// history, suitable for sharing outside the tool.
type Report struct {
	Metadata ReportMetadata  `json:"metadata" yaml:"metadata"`
	Graph    GraphSummary    `json:"graph" yaml:"graph"`
	Healing  HealingSection  `json:"healing" yaml:"healing"`
	Sessions []SessionRecord `json:"sessions" yaml:"sessions"`
}

// ReportMetadata identifies the room and the moment of the snapshot
type ReportMetadata struct {
	RoomID    string `json:"roomId" yaml:"roomId"`
	Generated string `json:"generated" yaml:"generated"`
	Version   string `json:"version" yaml:"version"`
}

// GraphSummary carries aggregate graph figures
type GraphSummary struct {
	EdgeCount int `json:"edgeCount" yaml:"edgeCount"`
}

// HealingSection lists the room's healing actions with their step outcomes
type HealingSection struct {
	Actions []ActionRecord `json:"actions" yaml:"actions"`
}

// ActionRecord is one healing action plus its executed steps
type ActionRecord struct {
	Action     *storage.HealingAction      `json:"action" yaml:"action"`
	Executions []*storage.HealingExecution `json:"executions,omitempty" yaml:"executions,omitempty"`
}

// SessionRecord is one debug session with its decoded payloads
type SessionRecord struct {
	ID            string              `json:"id" yaml:"id"`
	TriggerAction string              `json:"triggerAction" yaml:"triggerAction"`
	UserIntent    string              `json:"userIntent" yaml:"userIntent"`
	Discrepancies []debug.Discrepancy `json:"discrepancies,omitempty" yaml:"discrepancies,omitempty"`
	FixesApplied  []debug.Fix         `json:"fixesApplied,omitempty" yaml:"fixesApplied,omitempty"`
	Resolved      bool                `json:"resolved" yaml:"resolved"`
	CreatedAt     string              `json:"createdAt" yaml:"createdAt"`
}
