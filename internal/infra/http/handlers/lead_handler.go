package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/xavierca1/immo-leads/internal/infra/http/middleware"
	"github.com/xavierca1/immo-leads/internal/infra/http/security"
	"github.com/xavierca1/immo-leads/internal/usecase"
	"go.uber.org/zap"
)

const (
	DefaultMaxBodyBytes = 1 << 20
	resetHeaderLayout   = "2006-01-02T15:04:05.000Z07:00"
)

type LeadHandler struct {
	SubmitLead   *usecase.SubmitLeadUseCase
	RateLimiter  *usecase.RateLimiter
	CSRF         *security.CSRFGuard
	Logger       *zap.Logger
	MaxBodyBytes int64
}

func NewLeadHandler(
	submitLead *usecase.SubmitLeadUseCase,
	rateLimiter *usecase.RateLimiter,
	csrf *security.CSRFGuard,
	logger *zap.Logger,
) *LeadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadHandler{
		SubmitLead:   submitLead,
		RateLimiter:  rateLimiter,
		CSRF:         csrf,
		Logger:       logger,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

type csrfTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// IssueToken handles GET /api/submit.
func (h *LeadHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	token := h.CSRF.Issue(w)
	writeJSON(w, http.StatusOK, csrfTokenResponse{CSRFToken: token})
}

// Submit handles POST /api/submit: rate limit, CSRF, validation, forward.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID := security.ClientIdentifier(r)
	decision, err := h.RateLimiter.Check(ctx, clientID)
	if err != nil {
		h.Logger.Warn("rate limit store unavailable, allowing request", zap.Error(err))
	}

	if !decision.Allowed {
		retryAfter := decision.RetryAfter(h.RateLimiter.Now())
		setRateLimitHeaders(w, decision)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		middleware.RecordLeadOutcome("rate_limited")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Success:    false,
			Error:      "Trop de requêtes. Veuillez réessayer plus tard.",
			RetryAfter: &retryAfter,
		})
		return
	}

	if !h.CSRF.Verify(r) {
		middleware.RecordLeadOutcome("csrf_rejected")
		writeErrorResponse(w, http.StatusForbidden, "Token CSRF invalide")
		return
	}

	body, err := h.readBody(w, r)
	if err != nil {
		h.writeUseCaseError(w, err)
		return
	}

	output, err := h.SubmitLead.Execute(ctx, body)
	if err != nil {
		h.writeUseCaseError(w, err)
		return
	}

	middleware.RecordLeadOutcome("forwarded")
	setRateLimitHeaders(w, decision)
	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Données envoyées avec succès",
		Data:    output.Data,
	})
}

func (h *LeadHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &usecase.DomainError{Code: usecase.CodePayloadTooLarge, Message: "Payload trop volumineux"}
		}
		return nil, &usecase.DomainError{Code: usecase.CodeInvalidShape, Message: "Données invalides"}
	}
	return body, nil
}

func (h *LeadHandler) writeUseCaseError(w http.ResponseWriter, err error) {
	var domainErr *usecase.DomainError
	if errors.As(err, &domainErr) {
		middleware.RecordLeadOutcome("validation_failed")
		writeErrorResponse(w, http.StatusBadRequest, domainErr.Message)
		return
	}

	var techErr *usecase.TechnicalError
	if !errors.As(err, &techErr) {
		h.Logger.Error("unexpected submission failure", zap.Error(err))
		middleware.RecordLeadOutcome("forward_failed")
		writeErrorResponse(w, http.StatusInternalServerError, "Erreur lors du traitement de la requête")
		return
	}

	switch techErr.Code {
	case usecase.CodeSinkUnconfigured:
		middleware.RecordLeadOutcome("sink_unconfigured")
		writeErrorResponse(w, http.StatusInternalServerError, techErr.Message)
	case usecase.CodeSinkTimeout:
		middleware.RecordLeadOutcome("forward_timeout")
		middleware.RecordIntegrationError("webhook")
		writeErrorResponse(w, http.StatusGatewayTimeout, techErr.Message)
	case usecase.CodeSinkUnreachable:
		middleware.RecordLeadOutcome("forward_failed")
		middleware.RecordIntegrationError("webhook")
		writeErrorResponse(w, http.StatusBadGateway, techErr.Message)
	default:
		middleware.RecordLeadOutcome("forward_failed")
		middleware.RecordIntegrationError("webhook")
		writeErrorResponse(w, http.StatusInternalServerError, techErr.Message)
	}
}

func setRateLimitHeaders(w http.ResponseWriter, d usecase.RateLimitDecision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", d.ResetAt.UTC().Format(resetHeaderLayout))
}
