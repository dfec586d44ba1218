package lifecycle

import "time"

// AppealPolicy decides whether a decided dispute may still be appealed.
type AppealPolicy interface {
	AppealOpen(decidedAt, now time.Time) bool
}

// ClosedPolicy refuses every appeal. It is used when no window is configured.
type ClosedPolicy struct{}

func (ClosedPolicy) AppealOpen(time.Time, time.Time) bool {
	return false
}

// WindowPolicy accepts appeals for a fixed period after the decision. A zero
// window or an unknown decision time keeps appeals closed.
type WindowPolicy struct {
	Window time.Duration
}

func (p WindowPolicy) AppealOpen(decidedAt, now time.Time) bool {
	if p.Window <= 0 || decidedAt.IsZero() {
		return false
	}
	return !now.After(decidedAt.Add(p.Window))
}

// PolicyFromWindow returns a WindowPolicy for a positive window and a
// ClosedPolicy otherwise.
func PolicyFromWindow(window time.Duration) AppealPolicy {
	if window <= 0 {
		return ClosedPolicy{}
	}
	return WindowPolicy{Window: window}
}
