package canister

import (
	"encoding/json"

	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
	"github.com/angelmondragon/arbitra-backend/pkg/wire"
)

// RawDispute is a dispute record as returned by the ledger. It accepts both
// record layouts the ledger has shipped: plaintiff/defendant/amountInDispute/
// ruling and claimant/respondent/amount/decision/escrowId/arbitrator.
type RawDispute struct {
	ID          wire.ID `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`

	Claimant   types.Principal `json:"claimant"`
	Respondent types.Principal `json:"respondent"`
	Plaintiff  types.Principal `json:"plaintiff"`
	Defendant  types.Principal `json:"defendant"`

	Arbitrator wire.Opt[types.Principal] `json:"arbitrator"`

	Amount          wire.Opt[wire.Nat] `json:"amount"`
	AmountInDispute wire.Opt[wire.Nat] `json:"amountInDispute"`
	Currency        string             `json:"currency"`

	GoverningLaw      string `json:"governingLaw"`
	ArbitrationClause string `json:"arbitrationClause"`
	Jurisdiction      string `json:"jurisdiction"`

	Status    json.RawMessage `json:"status"`
	CreatedAt wire.Nat        `json:"createdAt"`
	UpdatedAt wire.Nat        `json:"updatedAt"`

	Evidence []RawEvidence `json:"evidence"`

	Recommendation wire.Opt[RawRecommendation] `json:"recommendation"`
	FinalRuling    wire.Opt[RawFinalRuling]    `json:"finalRuling"`
	// Ruling is the older advisory record carrying a confidence score.
	Ruling wire.Opt[RawRecommendation] `json:"ruling"`
	// Decision is the older free-text arbitrator decision.
	Decision wire.Opt[string] `json:"decision"`
	EscrowID wire.Opt[string] `json:"escrowId"`
}

// RawEvidence covers both the full evidence record and the lighter evidence
// reference embedded in dispute records.
type RawEvidence struct {
	ID        wire.ID `json:"id"`
	DisputeID wire.ID `json:"disputeId"`

	Hash        string `json:"hash"`
	ContentHash string `json:"contentHash"`

	FileName string             `json:"fileName"`
	MimeType string             `json:"mimeType"`
	FileType string             `json:"fileType"`
	Size     wire.Opt[wire.Nat] `json:"fileSize"`

	Description  string          `json:"description"`
	EvidenceType json.RawMessage `json:"evidenceType"`

	UploadedBy  types.Principal `json:"uploadedBy"`
	SubmittedBy types.Principal `json:"submittedBy"`

	UploadedAt  wire.Nat `json:"uploadedAt"`
	SubmittedAt wire.Nat `json:"submittedAt"`
	Timestamp   wire.Nat `json:"timestamp"`

	Verified bool `json:"verified"`
}

// RawRecommendation is the advisory output of the analysis engine.
type RawRecommendation struct {
	DisputeID wire.ID `json:"disputeId"`

	Confidence      *float64 `json:"confidence"`
	ConfidenceScore *float64 `json:"confidenceScore"`

	Reasoning string `json:"reasoning"`
	Summary   string `json:"summary"`

	KeyFactors []string `json:"keyFactors"`
	KeyPoints  []string `json:"keyPoints"`

	Decision       string `json:"decision"`
	Recommendation string `json:"recommendation"`

	Timestamp wire.Nat `json:"timestamp"`
	IssuedAt  wire.Nat `json:"issuedAt"`
}

// RawFinalRuling is the binding decision recorded by a human arbitrator.
type RawFinalRuling struct {
	Arbitrator   types.Principal `json:"arbitrator"`
	Decision     string          `json:"decision"`
	Reasoning    string          `json:"reasoning"`
	GoverningLaw string          `json:"governingLaw"`
	Jurisdiction string          `json:"jurisdiction"`
	AwardID      wire.ID         `json:"awardId"`
	IssuedAt     wire.Nat        `json:"issuedAt"`
}

// RawEscrow is an escrow record from the escrow canister.
type RawEscrow struct {
	ID          wire.ID            `json:"id"`
	DisputeID   wire.ID            `json:"disputeId"`
	Amount      wire.Nat           `json:"amount"`
	Depositor   types.Principal    `json:"depositor"`
	Beneficiary types.Principal    `json:"beneficiary"`
	Status      json.RawMessage    `json:"status"`
	CreatedAt   wire.Nat           `json:"createdAt"`
	ReleasedAt  wire.Opt[wire.Nat] `json:"releasedAt"`
}

// CreateDisputeParams carries the fields accepted by createDisputeFull.
type CreateDisputeParams struct {
	Title             string
	Description       string
	Respondent        types.Principal
	Amount            wire.Nat
	Currency          string
	GoverningLaw      string
	ArbitrationClause string
}

// FileMeta describes an evidence file without its content.
type FileMeta struct {
	FileName     string
	MimeType     string
	Size         int64
	EvidenceType enums.EvidenceType
}

// LockParams carries the fields needed to lock escrow funds.
type LockParams struct {
	DisputeID   string
	Amount      wire.Nat
	Depositor   types.Principal
	Beneficiary types.Principal
}
