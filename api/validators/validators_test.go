package validators

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/arbitra-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/arbitra-backend/pkg/errors"
)

type createBody struct {
	Title      string `json:"title" validate:"required,min=3"`
	Respondent string `json:"respondent" validate:"required,principal"`
	Currency   string `json:"currency" validate:"required,currency"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Late delivery","respondent":"resp-0001","currency":"USD"}`))
	var body createBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "resp-0001", body.Respondent)
}

func TestDecodeJSONBodyFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x","respondent":"Not A Principal","currency":"XYZ"}`))
	var body createBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be at least 3", details["title"])
	assert.Contains(t, details["respondent"], "principal")
	assert.Equal(t, "must be a supported currency", details["currency"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"abc","respondent":"r","currency":"USD","extra":1}`))
	var body createBody
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeStringKeepsRunes(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abc  ", 10))
	assert.Equal(t, "ab", SanitizeString("abc", 2))
	// "é" is two bytes; a cut inside it backs off to the rune start.
	assert.Equal(t, "a", SanitizeString("aé", 2))
}

func multipartRequest(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/evidence", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParseEvidenceForm(t *testing.T) {
	req := multipartRequest(t, map[string]string{"description": " contract scan ", "type": "document"}, "../scan.pdf", []byte("%PDF-1.4"))
	form, err := ParseEvidenceForm(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)
	defer form.Close()

	assert.Equal(t, "scan.pdf", form.FileName)
	assert.Equal(t, "contract scan", form.Description)
	assert.Equal(t, enums.EvidenceTypeDocument, form.EvidenceType)
	data, err := io.ReadAll(form.File)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestParseEvidenceFormWithoutFile(t *testing.T) {
	req := multipartRequest(t, map[string]string{"description": "only words"}, "", nil)
	form, err := ParseEvidenceForm(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)
	defer form.Close()
	assert.Nil(t, form.File)
	assert.Empty(t, form.FileName)
}

func TestParseEvidenceFormRejects(t *testing.T) {
	t.Run("bad type", func(t *testing.T) {
		req := multipartRequest(t, map[string]string{"type": "Hologram"}, "a.txt", []byte("hi"))
		_, err := ParseEvidenceForm(httptest.NewRecorder(), req, 1<<20)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})
	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/evidence", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		_, err := ParseEvidenceForm(httptest.NewRecorder(), req, 1<<20)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})
	t.Run("too large", func(t *testing.T) {
		req := multipartRequest(t, nil, "big.txt", bytes.Repeat([]byte("a"), 200<<10))
		_, err := ParseEvidenceForm(httptest.NewRecorder(), req, 1<<10)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})
}
