package controllers

import (
	"net/http"

	"github.com/angelmondragon/arbitra-backend/api/responses"
	"github.com/angelmondragon/arbitra-backend/internal/analysis"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
)

// AnalysisTrigger starts AI analysis of a dispute's evidence.
func AnalysisTrigger(svc analysis.Service, logg *logger.Logger) http.HandlerFunc {
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
		view, err := svc.Trigger(r.Context(), caller, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, view)
	}
}

// AnalysisGet reports analysis progress and any recommendation.
func AnalysisGet(svc analysis.Service, logg *logger.Logger) http.HandlerFunc {
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
		report, err := svc.Get(r.Context(), caller, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
