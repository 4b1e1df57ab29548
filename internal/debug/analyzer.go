package debug

import "fmt"

// Ratio thresholds over the expected performance envelope. Actual values
// below the threshold are within contract.
const (
	responseTimeRatio = 1.5
	memoryRatio       = 1.3
)

// compareBehaviors diffs actual behavior against the expected contract
// across three independent axes. Each axis that produced at least one
// message becomes one discrepancy.
func compareBehaviors(expected, actual *Behavior) []Discrepancy {
	var discrepancies []Discrepancy

	if msgs := comparePaths(expected.ExecutionPath, actual.ExecutionPath); len(msgs) > 0 {
		discrepancies = append(discrepancies, Discrepancy{
			Type:     TypeExecutionPath,
			Severity: "high",
			Messages: msgs,
		})
	}
	if msgs := compareOutcomes(expected.Outcome, actual.Outcome); len(msgs) > 0 {
		discrepancies = append(discrepancies, Discrepancy{
			Type:     TypeOutcome,
			Severity: "high",
			Messages: msgs,
		})
	}
	if msgs := comparePerformance(expected.Performance, actual.Performance); len(msgs) > 0 {
		discrepancies = append(discrepancies, Discrepancy{
			Type:     TypePerformance,
			Severity: "medium",
			Messages: msgs,
		})
	}

	return discrepancies
}

// comparePaths checks the execution paths position by position, reporting
// a length mismatch and the first index where the sequences diverge.
func comparePaths(expected, actual []string) []string {
	if len(expected) == 0 {
		return nil
	}

	var msgs []string
	if len(expected) != len(actual) {
		msgs = append(msgs, fmt.Sprintf("Execution path length: expected %d steps but got %d",
			len(expected), len(actual)))
	}

	limit := len(expected)
	if len(actual) < limit {
		limit = len(actual)
	}
	for i := 0; i < limit; i++ {
		if expected[i] != actual[i] {
			msgs = append(msgs, fmt.Sprintf("Step %d: expected %q but got %q",
				i, expected[i], actual[i]))
			break
		}
	}

	return msgs
}

// compareOutcomes checks the status strings first, then deep-compares the
// remaining outcome keys.
func compareOutcomes(expected, actual map[string]interface{}) []string {
	if len(expected) == 0 {
		return nil
	}
	if actual == nil {
		actual = map[string]interface{}{}
	}

	var msgs []string

	expectedStatus, expectedHas := statusOf(expected)
	actualStatus, actualHas := statusOf(actual)
	if expectedHas && actualHas && expectedStatus != actualStatus {
		msgs = append(msgs, fmt.Sprintf("Status: expected %q but got %q",
			expectedStatus, actualStatus))
	}

	msgs = append(msgs, deepCompare(withoutStatus(expected), withoutStatus(actual), "")...)
	return msgs
}

func statusOf(outcome map[string]interface{}) (string, bool) {
	s, ok := outcome["status"].(string)
	return s, ok
}

func withoutStatus(outcome map[string]interface{}) map[string]interface{} {
	rest := make(map[string]interface{}, len(outcome))
	for k, v := range outcome {
		if k == "status" {
			continue
		}
		rest[k] = v
	}
	return rest
}

// comparePerformance applies the ratio thresholds to each specified
// metric of the expected envelope.
func comparePerformance(expected, actual *Performance) []string {
	if expected == nil || actual == nil {
		return nil
	}

	var msgs []string
	if expected.ResponseTimeMs > 0 && actual.ResponseTimeMs > expected.ResponseTimeMs*responseTimeRatio {
		msgs = append(msgs, fmt.Sprintf("Response time: expected ~%.0fms but observed %.0fms",
			expected.ResponseTimeMs, actual.ResponseTimeMs))
	}
	if expected.MemoryMB > 0 && actual.MemoryMB > expected.MemoryMB*memoryRatio {
		msgs = append(msgs, fmt.Sprintf("Memory usage: expected ~%.0fMB but observed %.0fMB",
			expected.MemoryMB, actual.MemoryMB))
	}
	return msgs
}
