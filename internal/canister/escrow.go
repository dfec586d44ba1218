package canister

import (
	"context"

	"github.com/angelmondragon/arbitra-backend/pkg/wire"
)

// Escrow holds dispute funds. Every mutation is keyed by dispute id and
// returns a transaction reference.
type Escrow interface {
	LockFunds(ctx context.Context, params LockParams) (string, error)
	ReleaseFunds(ctx context.Context, disputeID string) (string, error)
	RefundFunds(ctx context.Context, disputeID string) (string, error)
	GetEscrow(ctx context.Context, disputeID string) (*RawEscrow, bool, error)
}

func (c *Client) LockFunds(ctx context.Context, params LockParams) (string, error) {
	ref, err := callResult[wire.ID](ctx, c, c.names.Escrow, "lockFunds", params.DisputeID, params.Amount, params.Depositor, params.Beneficiary)
	if err != nil {
		return "", err
	}
	return ref.String(), nil
}

func (c *Client) ReleaseFunds(ctx context.Context, disputeID string) (string, error) {
	ref, err := callResult[wire.ID](ctx, c, c.names.Escrow, "releaseFunds", disputeID)
	if err != nil {
		return "", err
	}
	return ref.String(), nil
}

func (c *Client) RefundFunds(ctx context.Context, disputeID string) (string, error) {
	ref, err := callResult[wire.ID](ctx, c, c.names.Escrow, "refundFunds", disputeID)
	if err != nil {
		return "", err
	}
	return ref.String(), nil
}

func (c *Client) GetEscrow(ctx context.Context, disputeID string) (*RawEscrow, bool, error) {
	return callOpt[RawEscrow](ctx, c, c.names.Escrow, "getEscrow", disputeID)
}
