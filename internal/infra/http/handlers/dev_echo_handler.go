package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/xavierca1/immo-leads/internal/usecase"
	"go.uber.org/zap"
)

// DevEchoHandler validates and sanitizes a lead without forwarding it. It
// answers 404 unless the server runs in development.
type DevEchoHandler struct {
	SubmitLead  *usecase.SubmitLeadUseCase
	Development bool
	Logger      *zap.Logger
}

func NewDevEchoHandler(uc *usecase.SubmitLeadUseCase, development bool, logger *zap.Logger) *DevEchoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DevEchoHandler{SubmitLead: uc, Development: development, Logger: logger}
}

func (h *DevEchoHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.Development {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "Cette route n'est pas disponible en production",
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, DefaultMaxBodyBytes))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Données invalides")
		return
	}

	lead, err := h.SubmitLead.Prepare(body)
	if err != nil {
		var domainErr *usecase.DomainError
		if errors.As(err, &domainErr) {
			writeErrorResponse(w, http.StatusBadRequest, domainErr.Message)
			return
		}
		h.Logger.Error("dev echo failed", zap.Error(err))
		writeErrorResponse(w, http.StatusInternalServerError, "Erreur lors du traitement des données")
		return
	}

	h.Logger.Debug("dev echo received lead", zap.Any("lead", lead))

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Données reçues avec succès",
		Data:    lead,
	})
}
