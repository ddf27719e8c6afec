package policy

import "fmt"

const (
	policyErrorWithRuleTemplateConstant = "invalid policy: rule %q: %s"
	policyErrorTemplateConstant         = "invalid policy: %s"
)

// PolicyError reports a malformed policy document, a duplicate rule id, or a
// pattern that fails to compile. It is fatal for the invocation and surfaces
// before any file is evaluated.
type PolicyError struct {
	RuleID string
	Reason string
	cause  error
}

// Error names the offending rule when one is known.
func (policyError *PolicyError) Error() string {
	if len(policyError.RuleID) > 0 {
		return fmt.Sprintf(policyErrorWithRuleTemplateConstant, policyError.RuleID, policyError.Reason)
	}
	return fmt.Sprintf(policyErrorTemplateConstant, policyError.Reason)
}

// Unwrap exposes the underlying failure when one exists.
func (policyError *PolicyError) Unwrap() error {
	return policyError.cause
}

func newPolicyError(ruleID string, reason string, cause error) *PolicyError {
	return &PolicyError{RuleID: ruleID, Reason: reason, cause: cause}
}
