package validators

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
)

const (
	evidenceFileField        = "file"
	evidenceDescriptionField = "description"
	evidenceTypeField        = "type"

	// MaxDescriptionLength bounds the evidence description.
	MaxDescriptionLength = 2000

	multipartMemory = 1 << 20
	multipartSlack  = 64 << 10
)

// EvidenceForm is a parsed evidence upload. Close must be called once the
// file has been consumed.
type EvidenceForm struct {
	File         multipart.File
	FileName     string
	Description  string
	EvidenceType enums.EvidenceType
	form         *multipart.Form
}

// Close releases the uploaded file and any temporary storage.
func (f *EvidenceForm) Close() error {
	if f == nil {
		return nil
	}
	var err error
	if f.File != nil {
		err = f.File.Close()
	}
	if f.form != nil {
		if rmErr := f.form.RemoveAll(); err == nil {
			err = rmErr
		}
	}
	return err
}

// ParseEvidenceForm reads a multipart evidence upload with fields file,
// description and an optional type. Bodies larger than maxBytes plus a small
// allowance for the other parts are rejected.
func ParseEvidenceForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*EvidenceForm, error) {
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content type must be multipart/form-data")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartSlack)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "evidence upload is too large").
				WithDetails(map[string]any{"max_bytes": maxBytes})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}

	out := &EvidenceForm{form: r.MultipartForm}
	out.Description = SanitizeString(r.FormValue(evidenceDescriptionField), MaxDescriptionLength)

	if raw := strings.TrimSpace(r.FormValue(evidenceTypeField)); raw != "" {
		evidenceType, err := enums.ParseEvidenceType(raw)
		if err != nil {
			_ = out.Close()
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{evidenceTypeField: "must be one of Document Image Video Audio Text"})
		}
		out.EvidenceType = evidenceType
	}

	file, header, err := r.FormFile(evidenceFileField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// The lifecycle gate reports a missing file.
		return out, nil
	case err != nil:
		_ = out.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid evidence file")
	}
	out.File = file
	out.FileName = filepath.Base(SanitizeString(header.Filename, 255))
	if out.FileName == "." || out.FileName == string(filepath.Separator) {
		out.FileName = ""
	}
	return out, nil
}
