// Package escrow locks, releases and refunds the funds held against a
// dispute.
package escrow

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/arbitra-backend/internal/canister"
	"github.com/angelmondragon/arbitra-backend/internal/disputes"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
	"github.com/angelmondragon/arbitra-backend/pkg/money"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
	"github.com/angelmondragon/arbitra-backend/pkg/wire"
)

// Operation is a funds movement requested through the API.
type Operation string

const (
	OperationLock    Operation = "lock"
	OperationRelease Operation = "release"
	OperationRefund  Operation = "refund"
)

// ParseOperation converts a path segment into an Operation.
func ParseOperation(value string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(value))); op {
	case OperationLock, OperationRelease, OperationRefund:
		return op, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown escrow operation %q", value))
	}
}

// Linker records the escrow reference on the dispute.
type Linker interface {
	LinkEscrow(ctx context.Context, disputeID, escrowID string) error
}

// Record is the display form of an escrow.
type Record struct {
	ID          string                             `json:"id"`
	DisputeID   string                             `json:"disputeId"`
	Amount      disputes.Amount                    `json:"amount"`
	Depositor   types.Principal                    `json:"depositor"`
	Beneficiary types.Principal                    `json:"beneficiary"`
	Status      types.Optional[enums.EscrowStatus] `json:"status"`
	CreatedAt   disputes.Timestamp                 `json:"createdAt"`
	ReleasedAt  types.Optional[disputes.Timestamp] `json:"releasedAt"`
}

// Result is returned by every funds movement.
type Result struct {
	Operation   Operation      `json:"operation"`
	Transaction string         `json:"transaction"`
	Dispute     *disputes.View `json:"dispute,omitempty"`
}

// ServiceParams groups dependencies for the escrow service.
type ServiceParams struct {
	Disputes disputes.Service
	Escrow   canister.Escrow
	Ledger   Linker
	Logger   *logger.Logger
}

// Service exposes escrow reads and movements.
type Service interface {
	Get(ctx context.Context, caller disputes.Caller, disputeID string) (Record, error)
	Execute(ctx context.Context, caller disputes.Caller, disputeID string, op Operation) (Result, error)
}

type service struct {
	disputes disputes.Service
	escrow   canister.Escrow
	ledger   Linker
	logg     *logger.Logger
}

// NewService builds an escrow service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Disputes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute service is required")
	}
	if params.Escrow == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "escrow canister is required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute ledger is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		disputes: params.Disputes,
		escrow:   params.Escrow,
		ledger:   params.Ledger,
		logg:     logg,
	}, nil
}

func (s *service) Get(ctx context.Context, caller disputes.Caller, disputeID string) (Record, error) {
	d, err := s.disputes.Load(ctx, caller, disputeID)
	if err != nil {
		return Record{}, err
	}
	raw, found, err := s.escrow.GetEscrow(ctx, d.ID)
	if err != nil {
		return Record{}, err
	}
	if !found || raw == nil {
		return Record{}, pkgerrors.New(pkgerrors.CodeNotFound, "no escrow is linked to this dispute")
	}
	return project(*raw, d), nil
}

// Execute runs op after checking who may move funds and in which state.
// Claimants lock funds before a ruling exists. Releases follow a decision.
// Refunds are reserved to administrators and the assigned arbitrator.
func (s *service) Execute(ctx context.Context, caller disputes.Caller, disputeID string, op Operation) (Result, error) {
	d, err := s.disputes.Load(ctx, caller, disputeID)
	if err != nil {
		return Result{}, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"dispute_id": d.ID,
		"operation":  string(op),
	})

	var ref string
	switch op {
	case OperationLock:
		ref, err = s.lock(ctx, caller, d)
	case OperationRelease:
		ref, err = s.release(ctx, caller, d)
	case OperationRefund:
		ref, err = s.refund(ctx, caller, d)
	default:
		err = pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown escrow operation %q", op))
	}
	if err != nil {
		return Result{}, err
	}
	s.logg.Info(s.logg.WithField(ctx, "transaction", ref), "escrow.executed")

	out := Result{Operation: op, Transaction: ref}
	view, err := s.disputes.Refresh(ctx, caller, d.ID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "escrow.refresh_failed")
		return out, nil
	}
	out.Dispute = &view
	return out, nil
}

func (s *service) lock(ctx context.Context, caller disputes.Caller, d disputes.Dispute) (string, error) {
	if caller.Principal != d.Claimant.Principal {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "only the claimant can lock funds")
	}
	if d.EscrowID.IsSome() {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "funds are already locked for this dispute")
	}
	if d.Status.IsTerminal() || d.Status.AtLeast(enums.DisputeStatusDecided) {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("funds cannot be locked while dispute is %s", d.Status))
	}
	minor := d.Amount.MinorUnits()
	if minor.Sign() <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "dispute amount must be positive to lock funds")
	}

	ref, err := s.escrow.LockFunds(ctx, canister.LockParams{
		DisputeID:   d.ID,
		Amount:      wire.NatFromBig(minor),
		Depositor:   d.Claimant.Principal,
		Beneficiary: d.Respondent.Principal,
	})
	if err != nil {
		return "", err
	}
	escrowID := ref
	if raw, found, err := s.escrow.GetEscrow(ctx, d.ID); err == nil && found && raw != nil && raw.ID.String() != "" {
		escrowID = raw.ID.String()
	}
	if err := s.ledger.LinkEscrow(ctx, d.ID, escrowID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeOf(err), err, "funds locked but escrow could not be linked")
	}
	return ref, nil
}

func (s *service) release(ctx context.Context, caller disputes.Caller, d disputes.Dispute) (string, error) {
	if caller.Role != enums.UserRoleAdmin && !d.IsArbitrator(caller.Principal) {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "only the assigned arbitrator can release funds")
	}
	if d.Status != enums.DisputeStatusDecided && d.Status != enums.DisputeStatusSettled {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("funds cannot be released while dispute is %s", d.Status))
	}
	if err := s.requireStatus(ctx, d, enums.EscrowStatusFunded); err != nil {
		return "", err
	}
	return s.escrow.ReleaseFunds(ctx, d.ID)
}

func (s *service) refund(ctx context.Context, caller disputes.Caller, d disputes.Dispute) (string, error) {
	if caller.Role != enums.UserRoleAdmin && !d.IsArbitrator(caller.Principal) {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "only the assigned arbitrator can refund funds")
	}
	if d.Status == enums.DisputeStatusClosed {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "funds cannot be refunded once the dispute is closed")
	}
	if err := s.requireStatus(ctx, d, enums.EscrowStatusFunded, enums.EscrowStatusDisputed); err != nil {
		return "", err
	}
	return s.escrow.RefundFunds(ctx, d.ID)
}

// requireStatus checks the escrow is in one of want. An escrow whose status
// cannot be read is treated as not matching.
func (s *service) requireStatus(ctx context.Context, d disputes.Dispute, want ...enums.EscrowStatus) error {
	raw, found, err := s.escrow.GetEscrow(ctx, d.ID)
	if err != nil {
		return err
	}
	if !found || raw == nil {
		return pkgerrors.New(pkgerrors.CodeDomainRejected, "no escrow is linked to this dispute")
	}
	status, ok := disputes.EscrowStatus(raw.Status)
	if ok {
		for _, w := range want {
			if status == w {
				return nil
			}
		}
	}
	return pkgerrors.New(pkgerrors.CodeDomainRejected,
		fmt.Sprintf("escrow must be %s, not %s", joinStatuses(want), statusLabel(status, ok)))
}

func project(raw canister.RawEscrow, d disputes.Dispute) Record {
	minor := raw.Amount.Big()
	currency := d.Amount.Currency
	info := enums.Currency(currency).Info()
	rec := Record{
		ID:        raw.ID.String(),
		DisputeID: firstNonEmpty(raw.DisputeID.String(), d.ID),
		Amount: disputes.Amount{
			Minor:    minor.String(),
			Major:    money.ToMajorUnits(minor, info.Decimals),
			Currency: currency,
			Decimals: info.Decimals,
			Display:  money.Format(minor, currency),
		},
		Depositor:   raw.Depositor,
		Beneficiary: raw.Beneficiary,
		CreatedAt:   disputes.ProjectTimestamp(raw.CreatedAt),
	}
	if status, ok := disputes.EscrowStatus(raw.Status); ok {
		rec.Status = types.Some(status)
	}
	if released, ok := raw.ReleasedAt.Optional().Get(); ok {
		rec.ReleasedAt = types.Some(disputes.ProjectTimestamp(released))
	}
	return rec
}

func joinStatuses(statuses []enums.EscrowStatus) string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}
	return strings.Join(names, " or ")
}

func statusLabel(status enums.EscrowStatus, known bool) string {
	if !known {
		return "unknown"
	}
	return status.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
