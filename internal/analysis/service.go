// Package analysis starts AI analysis of a dispute and reads back the
// advisory recommendation.
package analysis

import (
	"context"

	"github.com/angelmondragon/arbitra-backend/internal/canister"
	"github.com/angelmondragon/arbitra-backend/internal/disputes"
	"github.com/angelmondragon/arbitra-backend/internal/evidence"
	"github.com/angelmondragon/arbitra-backend/internal/lifecycle"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
)

// StatusUpdater moves a dispute to a new status on the ledger.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, disputeID string, status enums.DisputeStatus) error
}

// Report is the analysis state of one dispute.
type Report struct {
	DisputeID      string                                    `json:"disputeId"`
	Status         enums.DisputeStatus                       `json:"status"`
	Recommendation types.Optional[disputes.AIRecommendation] `json:"recommendation"`
	CanTrigger     bool                                      `json:"canTrigger"`
}

// ServiceParams groups dependencies for the analysis service.
type ServiceParams struct {
	Disputes disputes.Service
	Engine   canister.AnalysisEngine
	Ledger   StatusUpdater
	Gate     *lifecycle.Gate
	Logger   *logger.Logger
}

// Service triggers analysis and reports its outcome.
type Service interface {
	Trigger(ctx context.Context, caller disputes.Caller, disputeID string) (disputes.View, error)
	Get(ctx context.Context, caller disputes.Caller, disputeID string) (Report, error)
}

type service struct {
	disputes disputes.Service
	engine   canister.AnalysisEngine
	ledger   StatusUpdater
	gate     *lifecycle.Gate
	logg     *logger.Logger
}

// NewService builds an analysis service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Disputes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute service is required")
	}
	if params.Engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "analysis engine is required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute ledger is required")
	}
	if params.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lifecycle gate is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		disputes: params.Disputes,
		engine:   params.Engine,
		ledger:   params.Ledger,
		gate:     params.Gate,
		logg:     logg,
	}, nil
}

// Trigger asks the engine to analyse the dispute's evidence. The status is
// moved to AIAnalysis unless the engine already did so.
func (s *service) Trigger(ctx context.Context, caller disputes.Caller, disputeID string) (disputes.View, error) {
	d, err := s.disputes.Load(ctx, caller, disputeID)
	if err != nil {
		return disputes.View{}, err
	}
	if caller.Role != enums.UserRoleAdmin && !d.IsParty(caller.Principal) && !d.IsArbitrator(caller.Principal) {
		return disputes.View{}, pkgerrors.New(pkgerrors.CodeForbidden, "caller cannot start analysis for this dispute")
	}
	to, err := s.gate.Check(enums.LifecycleActionTriggerAnalysis, disputes.GateInput(d, caller.Principal))
	if err != nil {
		return disputes.View{}, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"dispute_id":     d.ID,
		"evidence_count": len(d.Evidence),
	})
	if err := s.engine.TriggerAnalysis(ctx, d.ID); err != nil {
		return disputes.View{}, err
	}
	s.logg.Info(ctx, "analysis.triggered")

	// The engine accepted the run; read-back failures are not reported to
	// the caller.
	view, err := s.disputes.Refresh(ctx, caller, d.ID)
	if err != nil {
		return s.assumeMoved(ctx, d, to, err), nil
	}
	if view.Status != d.Status {
		return view, nil
	}
	if err := s.ledger.UpdateStatus(ctx, d.ID, to); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analysis.status_update_failed")
		return view, nil
	}
	view, err = s.disputes.Refresh(ctx, caller, d.ID)
	if err != nil {
		return s.assumeMoved(ctx, d, to, err), nil
	}
	return view, nil
}

func (s *service) assumeMoved(ctx context.Context, d disputes.Dispute, to enums.DisputeStatus, cause error) disputes.View {
	s.logg.Warn(s.logg.WithField(ctx, "error", cause.Error()), "analysis.refresh_failed")
	d.Status = to
	return disputes.View{Dispute: d}
}

// Get returns the engine's recommendation, falling back to the one embedded
// in the dispute record.
func (s *service) Get(ctx context.Context, caller disputes.Caller, disputeID string) (Report, error) {
	d, err := s.disputes.Load(ctx, caller, disputeID)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		DisputeID:      d.ID,
		Status:         d.Status,
		Recommendation: d.Recommendation,
		CanTrigger:     evidence.CanTriggerAnalysis(d),
	}

	raw, found, err := s.engine.GetAnalysis(ctx, d.ID)
	if err != nil {
		if report.Recommendation.IsSome() {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"dispute_id": d.ID, "error": err.Error()}), "analysis.fetch_failed")
			return report, nil
		}
		return Report{}, err
	}
	if found && raw != nil {
		report.Recommendation = types.Some(disputes.ProjectRecommendation(*raw))
	}
	return report, nil
}
