// Package lifecycle decides which dispute actions are legal from a given
// status. Every mutating call is checked here before any canister is reached.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/metrics"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
)

// Input is the dispute state a gate decision depends on.
type Input struct {
	Status            enums.DisputeStatus
	Caller            types.Principal
	Arbitrator        types.Optional[types.Principal]
	EvidenceCount     int
	HasRecommendation bool
	HasFile           bool
	HasDescription    bool
	EscrowLinked      bool
	EscrowStatus      types.Optional[enums.EscrowStatus]
	DecidedAt         time.Time
}

type edge struct {
	from   enums.DisputeStatus
	action enums.LifecycleAction
}

var transitions = map[edge]enums.DisputeStatus{
	{enums.DisputeStatusDraft, enums.LifecycleActionActivate}:                     enums.DisputeStatusActive,
	{enums.DisputeStatusActive, enums.LifecycleActionBeginEvidence}:               enums.DisputeStatusEvidenceSubmission,
	{enums.DisputeStatusEvidenceSubmission, enums.LifecycleActionSubmitEvidence}:  enums.DisputeStatusEvidenceSubmission,
	{enums.DisputeStatusEvidenceSubmission, enums.LifecycleActionTriggerAnalysis}: enums.DisputeStatusAIAnalysis,
	{enums.DisputeStatusAIAnalysis, enums.LifecycleActionEscalate}:                enums.DisputeStatusArbitratorReview,
	{enums.DisputeStatusArbitratorReview, enums.LifecycleActionSubmitDecision}:    enums.DisputeStatusDecided,
	{enums.DisputeStatusDecided, enums.LifecycleActionAppeal}:                     enums.DisputeStatusAppealed,
	{enums.DisputeStatusAppealed, enums.LifecycleActionReReview}:                  enums.DisputeStatusArbitratorReview,
	{enums.DisputeStatusDecided, enums.LifecycleActionClose}:                      enums.DisputeStatusClosed,
	{enums.DisputeStatusSettled, enums.LifecycleActionClose}:                      enums.DisputeStatusClosed,
}

// Target returns the status reached by action from status, if the pair is
// in the transition table.
func Target(status enums.DisputeStatus, action enums.LifecycleAction) (enums.DisputeStatus, bool) {
	to, ok := transitions[edge{from: status, action: action}]
	return to, ok
}

// Gate evaluates transitions and their preconditions.
type Gate struct {
	appeal  AppealPolicy
	metrics *metrics.LifecycleMetrics
	now     func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithMetrics counts every decision.
func WithMetrics(m *metrics.LifecycleMetrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

// WithClock overrides the clock used by the appeal policy.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate builds a gate. A nil policy keeps appeals closed.
func NewGate(appeal AppealPolicy, opts ...Option) *Gate {
	if appeal == nil {
		appeal = ClosedPolicy{}
	}
	g := &Gate{appeal: appeal, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns the status action leads to, or the reason it is refused.
// Pairs outside the table are state conflicts; missing submission content is
// a validation error; any other unmet precondition is a domain rejection.
func (g *Gate) Check(action enums.LifecycleAction, in Input) (enums.DisputeStatus, error) {
	to, err := g.check(action, in)
	g.record(action, err)
	return to, err
}

// Allowed lists the actions whose pair exists and whose preconditions hold.
// Submission content is not known ahead of time, so it is assumed present.
func (g *Gate) Allowed(in Input) []enums.LifecycleAction {
	probe := in
	probe.HasFile = true
	probe.HasDescription = true

	out := make([]enums.LifecycleAction, 0, 2)
	for _, action := range enums.LifecycleActions() {
		if _, err := g.check(action, probe); err == nil {
			out = append(out, action)
		}
	}
	return out
}

func (g *Gate) check(action enums.LifecycleAction, in Input) (enums.DisputeStatus, error) {
	to, ok := Target(in.Status, action)
	if !ok {
		return in.Status, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("action %s is not allowed while dispute is %s", action, in.Status))
	}

	switch action {
	case enums.LifecycleActionSubmitEvidence:
		if !in.HasFile {
			return in.Status, pkgerrors.New(pkgerrors.CodeValidation, "evidence file is required")
		}
		if !in.HasDescription {
			return in.Status, pkgerrors.New(pkgerrors.CodeValidation, "evidence description is required")
		}
	case enums.LifecycleActionTriggerAnalysis:
		if in.EvidenceCount < 1 {
			return in.Status, pkgerrors.New(pkgerrors.CodeDomainRejected, "at least one evidence item is required before analysis")
		}
	case enums.LifecycleActionEscalate:
		if !in.HasRecommendation {
			return in.Status, pkgerrors.New(pkgerrors.CodeDomainRejected, "an AI recommendation is required before arbitrator review")
		}
	case enums.LifecycleActionSubmitDecision:
		arbitrator, assigned := in.Arbitrator.Get()
		if !assigned || in.Caller.IsZero() || arbitrator != in.Caller {
			return in.Status, pkgerrors.New(pkgerrors.CodeDomainRejected, "only the assigned arbitrator can submit a decision")
		}
	case enums.LifecycleActionAppeal:
		if !g.appeal.AppealOpen(in.DecidedAt, g.now()) {
			return in.Status, pkgerrors.New(pkgerrors.CodeDomainRejected, "the appeal window is closed")
		}
	case enums.LifecycleActionClose:
		if in.EscrowLinked {
			status, known := in.EscrowStatus.Get()
			if !known || status != enums.EscrowStatusReleased {
				return in.Status, pkgerrors.New(pkgerrors.CodeDomainRejected, "escrow must be released before the dispute can close")
			}
		}
	}
	return to, nil
}

func (g *Gate) record(action enums.LifecycleAction, err error) {
	result := "allowed"
	if err != nil {
		result = string(pkgerrors.CodeOf(err))
	}
	g.metrics.IncDecision(action.String(), result)
}
