package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/arbitra-backend/api/middleware"
	"github.com/angelmondragon/arbitra-backend/internal/disputes"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
)

// callerFrom builds the acting caller from the identity Auth placed on the
// request.
func callerFrom(r *http.Request) (disputes.Caller, error) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal.IsZero() {
		return disputes.Caller{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller principal is required")
	}
	return disputes.Caller{
		Principal: principal,
		Role:      middleware.RoleFromContext(r.Context()),
	}, nil
}

func disputeIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "disputeId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "dispute id is required")
	}
	return id, nil
}
