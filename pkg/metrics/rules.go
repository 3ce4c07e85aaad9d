package metrics

// Rule keys for the issues raised from report content.
const (
	RuleTask                  = "TASK"
	RuleArchitectureViolation = "ARCHITECTURE_VIOLATION"
	RuleCycleGroup            = "CYCLE_GROUP"
	RuleThresholdWarning      = "THRESHOLD_WARNING"
	RuleDuplicateCode         = "DUPLICATE_CODE"
	RuleWorkspaceWarning      = "WORKSPACE_WARNING"
)

// RuleKeys returns every known rule key in declaration order.
func RuleKeys() []string {
	return []string{
		RuleTask,
		RuleArchitectureViolation,
		RuleCycleGroup,
		RuleThresholdWarning,
		RuleDuplicateCode,
		RuleWorkspaceWarning,
	}
}

// IsRuleKey reports whether key names a known rule.
func IsRuleKey(key string) bool {
	for _, k := range RuleKeys() {
		if k == key {
			return true
		}
	}

	return false
}
