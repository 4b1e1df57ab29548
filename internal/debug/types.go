package debug

// Behavior is an execution contract: the path a request was expected to
// take, the structured outcome it should produce, and its performance
// envelope. The same shape describes observed behavior.
type Behavior struct {
	ExecutionPath []string               `json:"executionPath,omitempty"`
	Outcome       map[string]interface{} `json:"outcome,omitempty"`
	Performance   *Performance           `json:"performance,omitempty"`
}

// Performance holds the measurable half of a behavior contract.
// Zero values mean "not specified" and are skipped during comparison.
type Performance struct {
	ResponseTimeMs float64 `json:"responseTimeMs,omitempty"`
	MemoryMB       float64 `json:"memoryMb,omitempty"`
}

// Discrepancy types, one per comparison axis
const (
	TypeExecutionPath = "execution_path_mismatch"
	TypeOutcome       = "outcome_mismatch"
	TypePerformance   = "performance_degradation"
)

// Discrepancy is one non-empty comparison axis between expected and
// actual behavior
type Discrepancy struct {
	Type     string   `json:"type"`
	Severity string   `json:"severity"`
	Messages []string `json:"messages"`
}

// Fix is an advisory remediation template for one discrepancy type.
// Steps are descriptive text, not executable.
type Fix struct {
	DiscrepancyType string   `json:"discrepancyType"`
	Severity        string   `json:"severity"`
	Description     string   `json:"description"`
	Steps           []string `json:"steps"`
}

// AnalysisResult is the outcome of analyzing a session's actual behavior
type AnalysisResult struct {
	SessionID     string        `json:"sessionId"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	SuggestedFixes []Fix        `json:"suggestedFixes"`
}
