package canister

import (
	"context"

	"github.com/angelmondragon/arbitra-backend/pkg/wire"
)

// EvidenceVault stores evidence metadata and anchors content hashes.
type EvidenceVault interface {
	SubmitEvidence(ctx context.Context, disputeID string, meta FileMeta, contentHash, description string) (string, error)
	GetEvidenceByDispute(ctx context.Context, disputeID string) ([]RawEvidence, error)
}

type fileMetaArg struct {
	FileName     string       `json:"fileName"`
	MimeType     string       `json:"mimeType"`
	FileSize     wire.Nat     `json:"fileSize"`
	EvidenceType wire.Variant `json:"evidenceType"`
}

func (c *Client) SubmitEvidence(ctx context.Context, disputeID string, meta FileMeta, contentHash, description string) (string, error) {
	arg := fileMetaArg{
		FileName:     meta.FileName,
		MimeType:     meta.MimeType,
		FileSize:     wire.NewNat(meta.Size),
		EvidenceType: wire.NewVariant(meta.EvidenceType.String()),
	}
	id, err := callResult[wire.ID](ctx, c, c.names.EvidenceVault, "submitEvidence", disputeID, arg, contentHash, description)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (c *Client) GetEvidenceByDispute(ctx context.Context, disputeID string) ([]RawEvidence, error) {
	return callList[RawEvidence](ctx, c, c.names.EvidenceVault, "getEvidenceByDispute", disputeID)
}
