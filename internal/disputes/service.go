package disputes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/arbitra-backend/internal/canister"
	"github.com/angelmondragon/arbitra-backend/internal/lifecycle"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
	"github.com/angelmondragon/arbitra-backend/pkg/money"
	"github.com/angelmondragon/arbitra-backend/pkg/redis"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
	"github.com/angelmondragon/arbitra-backend/pkg/wire"
)

// Caller identifies the authenticated principal acting on a dispute.
type Caller struct {
	Principal types.Principal
	Role      enums.UserRole
}

// View is a projected dispute with its derived timeline and the actions the
// caller may take next. Stale marks a snapshot served from cache because the
// ledger could not be reached.
type View struct {
	Dispute
	Timeline       []TimelineEvent         `json:"timeline"`
	AllowedActions []enums.LifecycleAction `json:"allowedActions"`
	Stale          bool                    `json:"-"`
}

// List is the set of disputes a principal takes part in.
type List struct {
	Items []View `json:"items"`
	Stale bool   `json:"-"`
}

// CreateInput holds the fields a claimant submits to open a dispute. Amount
// is in major units of Currency.
type CreateInput struct {
	Title             string
	Description       string
	Respondent        types.Principal
	Amount            string
	Currency          string
	GoverningLaw      string
	ArbitrationClause string
}

// EscrowReader looks up the escrow held against a dispute.
type EscrowReader interface {
	GetEscrow(ctx context.Context, disputeID string) (*canister.RawEscrow, bool, error)
}

// EvidenceLister reads evidence kept outside the dispute record.
type EvidenceLister interface {
	GetEvidenceByDispute(ctx context.Context, disputeID string) ([]canister.RawEvidence, error)
}

// ServiceParams groups dependencies for the dispute service. Evidence is
// optional; when set, vault evidence is merged into single-dispute reads.
type ServiceParams struct {
	Ledger   canister.DisputeLedger
	Escrow   EscrowReader
	Evidence EvidenceLister
	Cache    redis.SnapshotStore
	CacheTTL time.Duration
	Gate     *lifecycle.Gate
	Logger   *logger.Logger
	Clock    Clock
}

// Service exposes dispute reads and the status transitions that carry no
// payload beyond the action itself.
type Service interface {
	Get(ctx context.Context, caller Caller, disputeID string) (View, error)
	ListMine(ctx context.Context, caller Caller) (List, error)
	Create(ctx context.Context, caller Caller, input CreateInput) (View, error)
	Transition(ctx context.Context, caller Caller, disputeID string, action enums.LifecycleAction) (View, error)
	AssignArbitrator(ctx context.Context, caller Caller, disputeID string, arbitrator types.Principal) (View, error)
	SubmitDecision(ctx context.Context, caller Caller, disputeID, decision string) (View, error)
	// Load fetches a fresh dispute for a mutation. Cached snapshots are never
	// returned.
	Load(ctx context.Context, caller Caller, disputeID string) (Dispute, error)
	// Refresh re-reads a dispute after a mutation made elsewhere.
	Refresh(ctx context.Context, caller Caller, disputeID string) (View, error)
}

type service struct {
	ledger   canister.DisputeLedger
	escrow   EscrowReader
	evidence EvidenceLister
	cache    redis.SnapshotStore
	cacheTTL time.Duration
	gate     *lifecycle.Gate
	logg     *logger.Logger
	now      Clock
}

// NewService builds a dispute service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute ledger is required")
	}
	if params.Escrow == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "escrow reader is required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot cache is required")
	}
	if params.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lifecycle gate is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{
		ledger:   params.Ledger,
		escrow:   params.Escrow,
		evidence: params.Evidence,
		cache:    params.Cache,
		cacheTTL: ttl,
		gate:     params.Gate,
		logg:     logg,
		now:      now,
	}, nil
}

func (s *service) Get(ctx context.Context, caller Caller, disputeID string) (View, error) {
	raw, stale, err := s.fetch(ctx, disputeID, true)
	if err != nil {
		return View{}, err
	}
	d := Project(*raw)
	if err := authorizeRead(d, caller); err != nil {
		return View{}, err
	}
	if !stale {
		s.attachEvidence(ctx, &d)
	}
	view := s.view(ctx, d, caller, true)
	view.Stale = stale
	return view, nil
}

func (s *service) ListMine(ctx context.Context, caller Caller) (List, error) {
	if caller.Principal.IsZero() {
		return List{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller principal is required")
	}
	key := s.cache.UserDisputesKey(caller.Principal.String())

	raws, err := s.ledger.GetDisputesByUser(ctx, caller.Principal)
	stale := false
	if err != nil {
		cached, ok := s.fromCache(ctx, key, err, &raws)
		if !ok {
			return List{}, err
		}
		stale = cached
	} else {
		s.store(ctx, key, raws)
	}

	out := List{Items: make([]View, 0, len(raws)), Stale: stale}
	for _, d := range ProjectAll(raws) {
		out.Items = append(out.Items, s.view(ctx, d, caller, false))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, caller Caller, input CreateInput) (View, error) {
	params, err := validateCreate(caller, input)
	if err != nil {
		return View{}, err
	}

	id, err := s.ledger.CreateDispute(ctx, params)
	if err != nil {
		return View{}, err
	}
	ctx = s.logg.WithDisputeID(ctx, id)
	s.logg.Info(ctx, "dispute.created")

	view, err := s.Refresh(ctx, caller, id)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dispute.created.refresh_failed")
		d := Project(canister.RawDispute{
			ID:                wire.ID(id),
			Title:             params.Title,
			Description:       params.Description,
			Claimant:          caller.Principal,
			Respondent:        params.Respondent,
			Amount:            wire.SomeOpt(params.Amount),
			Currency:          params.Currency,
			GoverningLaw:      params.GoverningLaw,
			ArbitrationClause: params.ArbitrationClause,
		})
		return s.view(ctx, d, caller, false), nil
	}
	return view, nil
}

func (s *service) Transition(ctx context.Context, caller Caller, disputeID string, action enums.LifecycleAction) (View, error) {
	switch action {
	case enums.LifecycleActionActivate,
		enums.LifecycleActionBeginEvidence,
		enums.LifecycleActionEscalate,
		enums.LifecycleActionAppeal,
		enums.LifecycleActionReReview,
		enums.LifecycleActionClose:
	case enums.LifecycleActionSubmitEvidence,
		enums.LifecycleActionTriggerAnalysis,
		enums.LifecycleActionSubmitDecision:
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("action %s has its own endpoint", action))
	default:
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown action %q", action))
	}

	d, err := s.Load(ctx, caller, disputeID)
	if err != nil {
		return View{}, err
	}
	in, err := s.gateInput(ctx, d, caller, action == enums.LifecycleActionClose)
	if err != nil {
		return View{}, err
	}
	to, err := s.gate.Check(action, in)
	if err != nil {
		return View{}, err
	}
	if err := s.ledger.UpdateStatus(ctx, d.ID, to); err != nil {
		return View{}, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"dispute_id": d.ID,
		"action":     action.String(),
		"from":       d.Status.String(),
		"to":         to.String(),
	})
	s.logg.Info(ctx, "dispute.transitioned")
	return s.refreshOr(ctx, caller, d, to), nil
}

func (s *service) AssignArbitrator(ctx context.Context, caller Caller, disputeID string, arbitrator types.Principal) (View, error) {
	if caller.Role != enums.UserRoleAdmin {
		return View{}, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can assign arbitrators")
	}
	if arbitrator.IsZero() {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "arbitrator is required")
	}

	d, err := s.Load(ctx, caller, disputeID)
	if err != nil {
		return View{}, err
	}
	if d.IsParty(arbitrator) {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "arbitrator must differ from both parties")
	}
	if d.Status.AtLeast(enums.DisputeStatusDecided) && d.Status != enums.DisputeStatusAppealed {
		return View{}, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("arbitrator cannot be assigned while dispute is %s", d.Status))
	}
	if err := s.ledger.AssignArbitrator(ctx, d.ID, arbitrator); err != nil {
		return View{}, err
	}
	d.Arbitrator = types.Some(arbitrator)
	ctx = s.logg.WithFields(ctx, map[string]any{"dispute_id": d.ID, "arbitrator": arbitrator.String()})
	s.logg.Info(ctx, "dispute.arbitrator_assigned")

	// Assignment during analysis hands the dispute to the arbitrator once the
	// recommendation is in.
	status := d.Status
	if d.Status == enums.DisputeStatusAIAnalysis && d.Recommendation.IsSome() {
		to, err := s.gate.Check(enums.LifecycleActionEscalate, GateInput(d, caller.Principal))
		if err == nil {
			if err := s.ledger.UpdateStatus(ctx, d.ID, to); err != nil {
				return View{}, err
			}
			status = to
			s.logg.Info(ctx, "dispute.escalated")
		}
	}
	return s.refreshOr(ctx, caller, d, status), nil
}

func (s *service) SubmitDecision(ctx context.Context, caller Caller, disputeID, decision string) (View, error) {
	decision = strings.TrimSpace(decision)
	if decision == "" {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "decision text is required")
	}

	d, err := s.Load(ctx, caller, disputeID)
	if err != nil {
		return View{}, err
	}
	to, err := s.gate.Check(enums.LifecycleActionSubmitDecision, GateInput(d, caller.Principal))
	if err != nil {
		return View{}, err
	}
	if err := s.ledger.SubmitDecision(ctx, d.ID, decision); err != nil {
		return View{}, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"dispute_id": d.ID, "arbitrator": caller.Principal.String()})
	s.logg.Info(ctx, "dispute.decision_submitted")

	// The decision is committed from here on; read-back failures are not
	// reported to the caller.
	view, err := s.Refresh(ctx, caller, d.ID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dispute.refresh_failed")
		d.Status = to
		return s.view(ctx, d, caller, false), nil
	}
	if view.Status != d.Status {
		return view, nil
	}
	// Some ledgers record the decision without moving the status.
	if err := s.ledger.UpdateStatus(ctx, d.ID, to); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dispute.decision_status_update_failed")
		return view, nil
	}
	return s.refreshOr(ctx, caller, d, to), nil
}

func (s *service) Load(ctx context.Context, caller Caller, disputeID string) (Dispute, error) {
	raw, _, err := s.fetch(ctx, disputeID, false)
	if err != nil {
		return Dispute{}, err
	}
	d := Project(*raw)
	if err := authorizeRead(d, caller); err != nil {
		return Dispute{}, err
	}
	s.attachEvidence(ctx, &d)
	return d, nil
}

func (s *service) Refresh(ctx context.Context, caller Caller, disputeID string) (View, error) {
	d, err := s.Load(ctx, caller, disputeID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, d, caller, true), nil
}

// refreshOr re-reads the dispute and falls back to the local copy moved to
// status when the ledger cannot be read back.
func (s *service) refreshOr(ctx context.Context, caller Caller, d Dispute, status enums.DisputeStatus) View {
	view, err := s.Refresh(ctx, caller, d.ID)
	if err == nil {
		return view
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dispute.refresh_failed")
	d.Status = status
	return s.view(ctx, d, caller, false)
}

// fetch reads a dispute from the ledger and records the snapshot. When the
// ledger is unreachable and allowStale is set the cached snapshot is returned
// with stale=true.
func (s *service) fetch(ctx context.Context, disputeID string, allowStale bool) (*canister.RawDispute, bool, error) {
	disputeID = strings.TrimSpace(disputeID)
	if disputeID == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "dispute id is required")
	}
	key := s.cache.DisputeKey(disputeID)

	raw, found, err := s.ledger.GetDispute(ctx, disputeID)
	if err != nil {
		if !allowStale {
			return nil, false, err
		}
		var cached canister.RawDispute
		if stale, ok := s.fromCache(ctx, key, err, &cached); ok {
			return &cached, stale, nil
		}
		return nil, false, err
	}
	if !found || raw == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
	}
	s.store(ctx, key, raw)
	return raw, false, nil
}

// fromCache loads a snapshot after a failed ledger read. Only connection
// failures fall back; domain rejections are returned as is.
func (s *service) fromCache(ctx context.Context, key string, cause error, dst any) (bool, bool) {
	if !pkgerrors.IsCode(cause, pkgerrors.CodeConnection) {
		return false, false
	}
	found, err := s.cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dispute.cache.read_failed")
		return false, false
	}
	if !found {
		return false, false
	}
	s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "dispute.cache.serving_stale")
	return true, true
}

func (s *service) store(ctx context.Context, key string, value any) {
	if err := s.cache.PutJSON(ctx, key, value, s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dispute.cache.write_failed")
	}
}

// attachEvidence appends vault evidence missing from the dispute record,
// keeping the record's own items first. Vault failures leave d unchanged.
func (s *service) attachEvidence(ctx context.Context, d *Dispute) {
	if s.evidence == nil {
		return
	}
	items, err := s.evidence.GetEvidenceByDispute(ctx, d.ID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dispute.evidence.lookup_failed")
		return
	}
	seen := make(map[string]struct{}, len(d.Evidence))
	for _, item := range d.Evidence {
		seen[item.ID] = struct{}{}
	}
	for _, raw := range items {
		item := ProjectEvidence(d.ID, raw)
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		d.Evidence = append(d.Evidence, item)
	}
}

// view decorates a dispute with its timeline and allowed actions. The escrow
// is consulted only for single-dispute reads where close is reachable.
func (s *service) view(ctx context.Context, d Dispute, caller Caller, lookupEscrow bool) View {
	withEscrow := lookupEscrow && canClose(d.Status)
	in, err := s.gateInput(ctx, d, caller, withEscrow)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dispute.escrow.lookup_failed")
		in = GateInput(d, caller.Principal)
	}
	return View{
		Dispute:        d,
		Timeline:       Timeline(d, s.now),
		AllowedActions: s.gate.Allowed(in),
	}
}

func (s *service) gateInput(ctx context.Context, d Dispute, caller Caller, withEscrow bool) (lifecycle.Input, error) {
	in := GateInput(d, caller.Principal)
	if !withEscrow || !in.EscrowLinked {
		return in, nil
	}
	escrow, found, err := s.escrow.GetEscrow(ctx, d.ID)
	if err != nil {
		return in, err
	}
	if found && escrow != nil {
		if status, ok := EscrowStatus(escrow.Status); ok {
			in.EscrowStatus = types.Some(status)
		}
	}
	return in, nil
}

// GateInput derives the lifecycle gate input from a projected dispute.
// Escrow status is left unknown; callers that need it fill it in.
func GateInput(d Dispute, caller types.Principal) lifecycle.Input {
	in := lifecycle.Input{
		Status:            d.Status,
		Caller:            caller,
		Arbitrator:        d.Arbitrator,
		EvidenceCount:     len(d.Evidence),
		HasRecommendation: d.Recommendation.IsSome(),
		EscrowLinked:      d.EscrowID.IsSome(),
	}
	if ruling, ok := d.Ruling.Get(); ok && !ruling.IssuedAt.IsZero() {
		in.DecidedAt = ruling.IssuedAt.At
	} else if d.Status == enums.DisputeStatusDecided {
		in.DecidedAt = d.UpdatedAt.At
	}
	return in
}

// EscrowStatus normalizes an escrow status variant or string.
func EscrowStatus(raw []byte) (enums.EscrowStatus, bool) {
	variant, ok := wire.ParseVariant(raw)
	if !ok {
		return "", false
	}
	for _, tag := range variant.Tags() {
		if status, err := enums.ParseEscrowStatus(tag); err == nil {
			return status, true
		}
	}
	return "", false
}

func canClose(status enums.DisputeStatus) bool {
	return status == enums.DisputeStatusDecided || status == enums.DisputeStatusSettled
}

// authorizeRead allows parties, the assigned arbitrator, arbitrators and
// administrators to see a dispute.
func authorizeRead(d Dispute, caller Caller) error {
	if caller.Principal.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "caller principal is required")
	}
	switch caller.Role {
	case enums.UserRoleAdmin, enums.UserRoleArbitrator:
		return nil
	}
	if d.IsParty(caller.Principal) || d.IsArbitrator(caller.Principal) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "caller is not a participant in this dispute")
}

func validateCreate(caller Caller, input CreateInput) (canister.CreateDisputeParams, error) {
	if caller.Principal.IsZero() {
		return canister.CreateDisputeParams{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller principal is required")
	}

	required := []struct {
		field string
		value string
	}{
		{"title", input.Title},
		{"description", input.Description},
		{"respondent", input.Respondent.String()},
		{"amount", input.Amount},
		{"governingLaw", input.GoverningLaw},
		{"arbitrationClause", input.ArbitrationClause},
	}
	missing := make([]string, 0, len(required))
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return canister.CreateDisputeParams{}, pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").
			WithDetails(map[string]any{"missing": missing})
	}

	if input.Respondent == caller.Principal {
		return canister.CreateDisputeParams{}, pkgerrors.New(pkgerrors.CodeValidation, "respondent must differ from claimant")
	}

	code := currencyCode(input.Currency)
	if !code.IsValid() {
		return canister.CreateDisputeParams{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency %q", input.Currency))
	}
	minor, err := money.ParseMajorUnits(input.Amount, code.Info().Decimals)
	if err != nil {
		return canister.CreateDisputeParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}
	if minor.Sign() <= 0 {
		return canister.CreateDisputeParams{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	return canister.CreateDisputeParams{
		Title:             strings.TrimSpace(input.Title),
		Description:       strings.TrimSpace(input.Description),
		Respondent:        input.Respondent,
		Amount:            wire.NatFromBig(minor),
		Currency:          code.String(),
		GoverningLaw:      strings.TrimSpace(input.GoverningLaw),
		ArbitrationClause: strings.TrimSpace(input.ArbitrationClause),
	}, nil
}
