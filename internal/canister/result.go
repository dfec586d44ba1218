package canister

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/wire"
)

// callResult invokes a method returning {"ok": T} | {"err": text}. The err
// text is surfaced verbatim and never inspected.
func callResult[T any](ctx context.Context, c *Client, canister, method string, args ...any) (T, error) {
	var zero T
	var res wire.Result[T]
	if err := c.call(ctx, canister, method, args, &res); err != nil {
		return zero, err
	}
	if res.IsErr {
		return zero, pkgerrors.New(pkgerrors.CodeDomainRejected, res.Err)
	}
	return res.Ok, nil
}

// callUnit invokes a method whose ok payload carries nothing useful.
func callUnit(ctx context.Context, c *Client, canister, method string, args ...any) error {
	_, err := callResult[json.RawMessage](ctx, c, canister, method, args...)
	return err
}

// callOpt invokes a query returning [] | [T].
func callOpt[T any](ctx context.Context, c *Client, canister, method string, args ...any) (*T, bool, error) {
	var opt wire.Opt[T]
	if err := c.call(ctx, canister, method, args, &opt); err != nil {
		return nil, false, err
	}
	if !opt.Valid {
		return nil, false, nil
	}
	value := opt.Value
	return &value, true, nil
}

// callList invokes a query returning a vector.
func callList[T any](ctx context.Context, c *Client, canister, method string, args ...any) ([]T, error) {
	var out []T
	if err := c.call(ctx, canister, method, args, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
