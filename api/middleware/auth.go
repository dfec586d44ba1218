package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/arbitra-backend/api/responses"
	pkgAuth "github.com/angelmondragon/arbitra-backend/pkg/auth"
	"github.com/angelmondragon/arbitra-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
)

// Auth validates a bearer token issued by the identity bridge and seeds the
// request context with its principal and role.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithIdentity(r.Context(), claims.Principal, claims.Role)
			if logg != nil {
				ctx = logg.WithPrincipal(ctx, claims.Principal.String())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
