package impact

type ruleKey struct {
	targetType string
	changeType ChangeType
}

type breakingRule struct {
	severity int
	message  string
}

// breakingRules maps (targetType, changeType) to a fixed severity and
// message. Pairs with no rule produce no breaking-change entry; that is
// the contract, not an error.
var breakingRules = map[ruleKey]breakingRule{
	{"file", ChangeDeletion}:           {9, "File deletion will break imports"},
	{"file", ChangeRename}:             {6, "File rename requires updating all import paths"},
	{"api", ChangeDeletion}:            {10, "API deletion will break all consumers"},
	{"api", ChangeModification}:        {7, "API modification may break consumers expecting the old contract"},
	{"data_model", ChangeModification}: {8, "Data model modification may break queries and serializers"},
	{"data_model", ChangeDeletion}:     {9, "Data model deletion will break all dependent queries"},
	{"component", ChangeDeletion}:      {8, "Component deletion will break pages that render it"},
}

// lookupBreakingRule returns the rule for the pair, if any
func lookupBreakingRule(targetType string, changeType ChangeType) (breakingRule, bool) {
	rule, ok := breakingRules[ruleKey{targetType, changeType}]
	return rule, ok
}
