package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/arbitra-backend/api/responses"
	"github.com/angelmondragon/arbitra-backend/api/validators"
	"github.com/angelmondragon/arbitra-backend/internal/disputes"
	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
	"github.com/angelmondragon/arbitra-backend/pkg/types"
)

type createDisputeRequest struct {
	Title             string `json:"title" validate:"required,max=200"`
	Description       string `json:"description" validate:"required,max=5000"`
	Respondent        string `json:"respondent" validate:"required,principal"`
	Amount            string `json:"amount" validate:"required,numeric"`
	Currency          string `json:"currency" validate:"omitempty,currency"`
	GoverningLaw      string `json:"governingLaw" validate:"required,max=200"`
	ArbitrationClause string `json:"arbitrationClause" validate:"required,max=5000"`
}

func (r createDisputeRequest) toInput() disputes.CreateInput {
	return disputes.CreateInput{
		Title:             r.Title,
		Description:       r.Description,
		Respondent:        types.Principal(strings.TrimSpace(r.Respondent)),
		Amount:            r.Amount,
		Currency:          r.Currency,
		GoverningLaw:      r.GoverningLaw,
		ArbitrationClause: r.ArbitrationClause,
	}
}

type assignArbitratorRequest struct {
	Arbitrator string `json:"arbitrator" validate:"required,principal"`
}

type submitDecisionRequest struct {
	Decision string `json:"decision" validate:"required,max=10000"`
}

// DisputeList returns every dispute the caller takes part in.
func DisputeList(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListMine(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteView(w, http.StatusOK, list, list.Stale)
	}
}

// DisputeGet returns one projected dispute.
func DisputeGet(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := disputeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), caller, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteView(w, http.StatusOK, view, view.Stale)
	}
}

// DisputeCreate opens a dispute with the caller as claimant.
func DisputeCreate(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createDisputeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Create(r.Context(), caller, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// DisputeAction applies a payload-free lifecycle action such as activate or
// close.
func DisputeAction(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := disputeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := enums.ParseLifecycleAction(strings.TrimSpace(chi.URLParam(r, "action")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown lifecycle action"))
			return
		}
		view, err := svc.Transition(r.Context(), caller, id, action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// DisputeAssignArbitrator assigns an arbitrator. Administrators only.
func DisputeAssignArbitrator(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := disputeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body assignArbitratorRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.AssignArbitrator(r.Context(), caller, id, types.Principal(strings.TrimSpace(body.Arbitrator)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// DisputeSubmitDecision records the assigned arbitrator's ruling.
func DisputeSubmitDecision(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := disputeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body submitDecisionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.SubmitDecision(r.Context(), caller, id, body.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
