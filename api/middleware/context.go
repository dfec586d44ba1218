package middleware

import (
	"context"

	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxRole      contextKey = "actor_role"
)

func PrincipalFromContext(ctx context.Context) types.Principal {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxPrincipal).(types.Principal); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.UserRole); ok {
		return v
	}
	return ""
}

// WithIdentity injects the authenticated principal and role into the context.
func WithIdentity(ctx context.Context, principal types.Principal, role enums.UserRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxPrincipal, principal)
	return context.WithValue(ctx, ctxRole, role)
}
