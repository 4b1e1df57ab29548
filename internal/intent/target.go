package intent

import (
	"regexp"
)

// Target identifies the artifact an action is aimed at
type Target struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Positional extraction patterns: the word introducing the artifact kind
// followed by its name. Checked in order; first match wins.
var targetPatterns = []struct {
	targetType string
	pattern    *regexp.Regexp
}{
	{"file", regexp.MustCompile(`(?i)\bfile\s+([\w@./-]+)`)},
	{"api", regexp.MustCompile(`(?i)\bapi\s+([\w@./-]+)`)},
	{"data_model", regexp.MustCompile(`(?i)\bmodel\s+([\w.-]+)`)},
}

// extractTarget parses a change target out of the action text, falling back
// to explicit context fields. Returns false when no target is resolvable;
// that is the contract for "untargeted" actions, not an error.
func extractTarget(action string, actionCtx Context) (Target, bool) {
	for _, tp := range targetPatterns {
		if match := tp.pattern.FindStringSubmatch(action); match != nil {
			return Target{Type: tp.targetType, ID: match[1]}, true
		}
	}

	if actionCtx.TargetFile != "" {
		return Target{Type: "file", ID: actionCtx.TargetFile}, true
	}
	if actionCtx.TargetAPI != "" {
		return Target{Type: "api", ID: actionCtx.TargetAPI}, true
	}
	if actionCtx.TargetModel != "" {
		return Target{Type: "data_model", ID: actionCtx.TargetModel}, true
	}

	return Target{}, false
}
