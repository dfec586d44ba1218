package controllers

import (
	"net/http"

	"github.com/angelmondragon/arbitra-backend/api/responses"
	"github.com/angelmondragon/arbitra-backend/api/validators"
	"github.com/angelmondragon/arbitra-backend/internal/evidence"
	"github.com/angelmondragon/arbitra-backend/pkg/logger"
)

// EvidenceList returns a dispute's evidence in submission order.
func EvidenceList(svc evidence.Service, logg *logger.Logger) http.HandlerFunc {
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
		items, err := svc.List(r.Context(), caller, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// EvidenceSubmit accepts a multipart upload with file, description and an
// optional type.
func EvidenceSubmit(svc evidence.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
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
		form, err := validators.ParseEvidenceForm(w, r, maxUploadBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer form.Close()

		upload := evidence.Upload{
			FileName:     form.FileName,
			Description:  form.Description,
			EvidenceType: form.EvidenceType,
		}
		if form.File != nil {
			upload.Content = form.File
		}
		out, err := svc.Submit(r.Context(), caller, id, upload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}
