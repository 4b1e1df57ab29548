// Package intent classifies free-text user/agent actions and links the
// resulting impact predictions to the capture that produced them.
package intent

import (
	"regexp"
)

// Fixed confidence constants. These are heuristic, not calibrated.
const (
	MatchedConfidence  = 0.9
	FallbackConfidence = 0.7
)

// FallbackIntent is returned when no keyword pattern matches
const FallbackIntent = "modification"

// Classification is the outcome of classifying an action
type Classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Classifier extracts a canonical intent from free-form action text.
// It is a replaceable strategy; the default is keyword-based.
type Classifier interface {
	Classify(action string) Classification
}

type intentPattern struct {
	intent  string
	pattern *regexp.Regexp
}

// KeywordClassifier matches an ordered keyword pattern list; the first
// match wins.
type KeywordClassifier struct {
	patterns []intentPattern
}

// NewKeywordClassifier creates the default classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		patterns: []intentPattern{
			{"refactor", regexp.MustCompile(`(?i)\b(refactor|rename|restructure|reorgani[sz]e|extract|consolidate)\b`)},
			{"feature", regexp.MustCompile(`(?i)\b(add|create|implement|build|introduce)\b`)},
			{"fix", regexp.MustCompile(`(?i)\b(fix|repair|resolve|correct|bug|patch)\b`)},
			{"optimize", regexp.MustCompile(`(?i)\b(optimi[sz]e|improve|performance|faster|speed)\b`)},
			{"security", regexp.MustCompile(`(?i)\b(secure|security|vulnerab\w*|saniti[sz]e|encrypt|authenticat\w*)\b`)},
			{"delete", regexp.MustCompile(`(?i)\b(delete|remove|drop|eliminate)\b`)},
			{"update", regexp.MustCompile(`(?i)\b(update|upgrade|bump|revise)\b`)},
		},
	}
}

// Classify returns the first matching category with the fixed matched
// confidence, or the fallback intent.
func (c *KeywordClassifier) Classify(action string) Classification {
	for _, p := range c.patterns {
		if p.pattern.MatchString(action) {
			return Classification{Intent: p.intent, Confidence: MatchedConfidence}
		}
	}
	return Classification{Intent: FallbackIntent, Confidence: FallbackConfidence}
}
