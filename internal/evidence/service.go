package evidence

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/angelmondragon/arbitra-backend/internal/canister"
	"github.com/angelmondragon/arbitra-backend/internal/disputes"
	"github.com/angelmondragon/arbitra-backend/internal/lifecycle"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
)

// Upload is an evidence file submitted by a party.
type Upload struct {
	FileName     string
	Content      io.Reader
	Description  string
	EvidenceType enums.EvidenceType
}

// Submission is the outcome of a successful upload. Dispute is absent when
// the ledger could not be read back after the write.
type Submission struct {
	Evidence disputes.Evidence `json:"evidence"`
	Dispute  *disputes.View    `json:"dispute,omitempty"`
}

// ServiceParams groups dependencies for the evidence service.
type ServiceParams struct {
	Disputes       disputes.Service
	Vault          canister.EvidenceVault
	Gate           *lifecycle.Gate
	MaxUploadBytes int64
	Logger         *logger.Logger
	Clock          func() time.Time
}

// Service accepts evidence for disputes and lists what is attached.
type Service interface {
	Submit(ctx context.Context, caller disputes.Caller, disputeID string, upload Upload) (Submission, error)
	List(ctx context.Context, caller disputes.Caller, disputeID string) ([]disputes.Evidence, error)
}

type service struct {
	disputes disputes.Service
	vault    canister.EvidenceVault
	gate     *lifecycle.Gate
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds an evidence service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Disputes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute service is required")
	}
	if params.Vault == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "evidence vault is required")
	}
	if params.Gate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lifecycle gate is required")
	}
	if params.MaxUploadBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max upload size must be positive")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		disputes: params.Disputes,
		vault:    params.Vault,
		gate:     params.Gate,
		maxBytes: params.MaxUploadBytes,
		logg:     logg,
		now:      now,
	}, nil
}

// Submit validates and hashes the upload, opens the evidence phase when the
// dispute is still Active, and records the evidence in the vault.
func (s *service) Submit(ctx context.Context, caller disputes.Caller, disputeID string, upload Upload) (Submission, error) {
	d, err := s.disputes.Load(ctx, caller, disputeID)
	if err != nil {
		return Submission{}, err
	}
	if !d.IsParty(caller.Principal) {
		return Submission{}, pkgerrors.New(pkgerrors.CodeForbidden, "only the parties can submit evidence")
	}
	if !CanSubmitEvidence(d) {
		return Submission{}, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("evidence is not accepted while dispute is %s", d.Status))
	}

	description := strings.TrimSpace(upload.Description)
	fileName := strings.TrimSpace(upload.FileName)
	in := disputes.GateInput(d, caller.Principal)
	in.Status = enums.DisputeStatusEvidenceSubmission
	in.HasFile = upload.Content != nil && fileName != ""
	in.HasDescription = description != ""
	if _, err := s.gate.Check(enums.LifecycleActionSubmitEvidence, in); err != nil {
		return Submission{}, err
	}

	inspection, err := Inspect(upload.Content, s.maxBytes)
	if err != nil {
		return Submission{}, err
	}
	tracker := NewTracker(d.Evidence)
	if tracker.ContainsHash(inspection.ContentHash) {
		return Submission{}, pkgerrors.New(pkgerrors.CodeStateConflict, "evidence with identical content is already attached")
	}

	evidenceType := upload.EvidenceType
	if !evidenceType.IsValid() {
		evidenceType = enums.EvidenceTypeForMime(inspection.MimeType)
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"dispute_id":   d.ID,
		"content_hash": inspection.ContentHash,
	})

	if d.Status == enums.DisputeStatusActive {
		if _, err := s.disputes.Transition(ctx, caller, d.ID, enums.LifecycleActionBeginEvidence); err != nil {
			return Submission{}, err
		}
		s.logg.Info(ctx, "evidence.phase_opened")
	}

	id, err := s.vault.SubmitEvidence(ctx, d.ID, canister.FileMeta{
		FileName:     fileName,
		MimeType:     inspection.MimeType,
		Size:         inspection.Size,
		EvidenceType: evidenceType,
	}, inspection.ContentHash, description)
	if err != nil {
		return Submission{}, err
	}

	uploadedAt := s.now().UTC()
	item := disputes.Evidence{
		ID:           id,
		DisputeID:    d.ID,
		ContentHash:  inspection.ContentHash,
		FileName:     fileName,
		MimeType:     inspection.MimeType,
		Size:         inspection.Size,
		Description:  description,
		EvidenceType: evidenceType,
		UploadedBy:   caller.Principal,
		UploadedAt:   disputes.Timestamp{At: uploadedAt, Display: uploadedAt.Format(disputes.DisplayTimeLayout)},
	}
	if err := tracker.Append(item); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "evidence.tracker.append_failed")
	}
	s.logg.Info(s.logg.WithField(ctx, "evidence_id", id), "evidence.submitted")

	out := Submission{Evidence: item}
	view, err := s.disputes.Refresh(ctx, caller, d.ID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "evidence.refresh_failed")
		return out, nil
	}
	out.Dispute = &view
	return out, nil
}

// List returns the dispute's evidence in submission order.
func (s *service) List(ctx context.Context, caller disputes.Caller, disputeID string) ([]disputes.Evidence, error) {
	d, err := s.disputes.Load(ctx, caller, disputeID)
	if err != nil {
		return nil, err
	}
	return NewTracker(d.Evidence).Items(), nil
}
