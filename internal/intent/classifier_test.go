package intent

import "testing"

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		action     string
		intent     string
		confidence float64
	}{
		{"Rename UserProfile to ProfileCard", "refactor", MatchedConfidence},
		{"Refactor the checkout flow", "refactor", MatchedConfidence},
		{"restructure the billing module", "refactor", MatchedConfidence},
		{"Add a referral dashboard page", "feature", MatchedConfidence},
		{"implement webhook retries", "feature", MatchedConfidence},
		{"Fix the broken signup redirect", "fix", MatchedConfidence},
		{"patch the session bug", "fix", MatchedConfidence},
		{"Optimize the project list query", "optimize", MatchedConfidence},
		{"make image uploads faster", "optimize", MatchedConfidence},
		{"sanitize user input on the chat form", "security", MatchedConfidence},
		{"encrypt stored tokens", "security", MatchedConfidence},
		{"Delete the legacy billing endpoint", "delete", MatchedConfidence},
		{"remove unused styles", "delete", MatchedConfidence},
		{"bump the react version", "update", MatchedConfidence},
		{"change the page title", FallbackIntent, FallbackConfidence},
		{"", FallbackIntent, FallbackConfidence},
	}

	classifier := NewKeywordClassifier()
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			got := classifier.Classify(tt.action)
			if got.Intent != tt.intent {
				t.Errorf("intent = %q, want %q", got.Intent, tt.intent)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.confidence)
			}
		})
	}
}

// Order matters: "remove and rename" hits refactor before delete because
// the pattern list is checked in declaration order.
func TestKeywordClassifierFirstMatchWins(t *testing.T) {
	classifier := NewKeywordClassifier()
	got := classifier.Classify("remove the old component and rename the new one")
	if got.Intent != "refactor" {
		t.Errorf("intent = %q, want refactor (first pattern in order)", got.Intent)
	}
}

func TestExtractTarget(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		ctx      Context
		want     Target
		resolved bool
	}{
		{
			"file from text",
			"delete file src/legacy/billing.ts",
			Context{},
			Target{Type: "file", ID: "src/legacy/billing.ts"},
			true,
		},
		{
			"api from text",
			"modify api /v1/orders",
			Context{},
			Target{Type: "api", ID: "/v1/orders"},
			true,
		},
		{
			"model from text",
			"update model Subscription",
			Context{},
			Target{Type: "data_model", ID: "Subscription"},
			true,
		},
		{
			"file from context",
			"rename the profile card",
			Context{TargetFile: "src/UserProfile.tsx"},
			Target{Type: "file", ID: "src/UserProfile.tsx"},
			true,
		},
		{
			"api from context",
			"tighten rate limits",
			Context{TargetAPI: "/v1/chat"},
			Target{Type: "api", ID: "/v1/chat"},
			true,
		},
		{
			"text beats context",
			"delete file a.ts",
			Context{TargetFile: "b.ts"},
			Target{Type: "file", ID: "a.ts"},
			true,
		},
		{
			"unresolvable",
			"improve the onboarding experience",
			Context{},
			Target{},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractTarget(tt.action, tt.ctx)
			if ok != tt.resolved {
				t.Fatalf("resolved = %v, want %v", ok, tt.resolved)
			}
			if got != tt.want {
				t.Errorf("target = %+v, want %+v", got, tt.want)
			}
		})
	}
}
