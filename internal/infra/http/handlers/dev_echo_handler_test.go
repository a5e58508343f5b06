package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/immo-leads/internal/infra/http/handlers"
	"github.com/xavierca1/immo-leads/internal/usecase"
)

func echoRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
}

func TestDevEchoHiddenInProduction(t *testing.T) {
	uc := usecase.NewSubmitLeadUseCase(nil, "", nil, nil, false)
	h := handlers.NewDevEchoHandler(uc, false, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, echoRequest(leadBody))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"error": "Cette route n'est pas disponible en production"}, decode(t, rec))
}

func TestDevEchoReturnsSanitizedLead(t *testing.T) {
	uc := usecase.NewSubmitLeadUseCase(nil, "", nil, nil, true)
	h := handlers.NewDevEchoHandler(uc, true, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, echoRequest(`{"contact_email":" Claire@Example.FR","contact_tel":"06 01 02 03 04","contact_nom":"  Martin "}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Données reçues avec succès", body["message"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "claire@example.fr", data["contact_email"])
	assert.Equal(t, "0601020304", data["contact_tel"])
	assert.Equal(t, "Martin", data["contact_nom"])
	assert.Equal(t, "default", data["source_region"])
	assert.NotEmpty(t, data["Date"])
}

func TestDevEchoValidationError(t *testing.T) {
	uc := usecase.NewSubmitLeadUseCase(nil, "", nil, nil, true)
	h := handlers.NewDevEchoHandler(uc, true, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, echoRequest(`{"contact_email":"a@b.fr","contact_tel":"abc"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Téléphone invalide", decode(t, rec)["error"])

	rec = httptest.NewRecorder()
	h.Handle(rec, echoRequest(`nope`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Données invalides", decode(t, rec)["error"])
}
