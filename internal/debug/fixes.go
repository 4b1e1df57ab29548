package debug

// fixTemplates maps a discrepancy type to its canned remediation. The
// steps are guidance for whoever owns the affected code path.
var fixTemplates = map[string]Fix{
	TypeExecutionPath: {
		DiscrepancyType: TypeExecutionPath,
		Severity:        "high",
		Description:     "The request took a different path than the contract expects",
		Steps: []string{
			"Compare the first divergent step against recent changes to routing or middleware",
			"Check feature flags and conditionals guarding the expected branch",
			"Add a trace log at the divergence point and re-run the trigger action",
		},
	},
	TypeOutcome: {
		DiscrepancyType: TypeOutcome,
		Severity:        "high",
		Description:     "The result payload does not match the expected outcome",
		Steps: []string{
			"Inspect the handler producing the mismatched keys",
			"Verify upstream data sources return the shape the contract assumes",
			"Update the contract if the new shape is intentional",
		},
	},
	TypePerformance: {
		DiscrepancyType: TypePerformance,
		Severity:        "medium",
		Description:     "Response time or memory exceeds the performance envelope",
		Steps: []string{
			"Profile the trigger action and identify the dominant cost",
			"Check for missing caching or N+1 query patterns introduced recently",
			"Re-measure after the fix to confirm the envelope holds",
		},
	},
}

// GenerateFixes returns one remediation template per distinct discrepancy
// type, in the order the discrepancies were reported.
func GenerateFixes(discrepancies []Discrepancy) []Fix {
	seen := make(map[string]bool, len(discrepancies))
	var fixes []Fix
	for _, d := range discrepancies {
		if seen[d.Type] {
			continue
		}
		seen[d.Type] = true
		if fix, ok := fixTemplates[d.Type]; ok {
			fixes = append(fixes, fix)
		}
	}
	return fixes
}
