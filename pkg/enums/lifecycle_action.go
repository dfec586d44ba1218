package enums

import "fmt"

// LifecycleAction names a user action that may move a dispute between statuses.
type LifecycleAction string

const (
	LifecycleActionActivate        LifecycleAction = "activate"
	LifecycleActionBeginEvidence   LifecycleAction = "begin_evidence"
	LifecycleActionSubmitEvidence  LifecycleAction = "submit_evidence"
	LifecycleActionTriggerAnalysis LifecycleAction = "trigger_analysis"
	LifecycleActionEscalate        LifecycleAction = "escalate"
	LifecycleActionSubmitDecision  LifecycleAction = "submit_decision"
	LifecycleActionAppeal          LifecycleAction = "appeal"
	LifecycleActionReReview        LifecycleAction = "re_review"
	LifecycleActionClose           LifecycleAction = "close"
)

var validLifecycleActions = []LifecycleAction{
	LifecycleActionActivate,
	LifecycleActionBeginEvidence,
	LifecycleActionSubmitEvidence,
	LifecycleActionTriggerAnalysis,
	LifecycleActionEscalate,
	LifecycleActionSubmitDecision,
	LifecycleActionAppeal,
	LifecycleActionReReview,
	LifecycleActionClose,
}

// LifecycleActions returns every action in table order.
func LifecycleActions() []LifecycleAction {
	out := make([]LifecycleAction, len(validLifecycleActions))
	copy(out, validLifecycleActions)
	return out
}

// String implements fmt.Stringer.
func (a LifecycleAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known LifecycleAction.
func (a LifecycleAction) IsValid() bool {
	for _, candidate := range validLifecycleActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseLifecycleAction converts raw input into a LifecycleAction. Hyphens are
// accepted in place of underscores so URL segments like "begin-evidence" work.
func ParseLifecycleAction(value string) (LifecycleAction, error) {
	normalized := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] == '-' {
			normalized = append(normalized, '_')
			continue
		}
		normalized = append(normalized, value[i])
	}
	for _, candidate := range validLifecycleActions {
		if string(candidate) == string(normalized) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lifecycle action %q", value)
}
