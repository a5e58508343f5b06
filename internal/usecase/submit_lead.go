package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/xavierca1/immo-leads/internal/entity"
	"github.com/xavierca1/immo-leads/internal/infra/integration/webhook"
	"go.uber.org/zap"
)

const defaultNotifyTimeout = 10 * time.Second

func NewSubmitLeadUseCase(
	sink entity.LeadSink,
	sinkURL string,
	notifier entity.LeadNotifier,
	logger *zap.Logger,
	development bool,
) *SubmitLeadUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmitLeadUseCase{
		Sink:          sink,
		SinkURL:       sinkURL,
		Notifier:      notifier,
		Logger:        logger,
		Development:   development,
		NotifyTimeout: defaultNotifyTimeout,
	}
}

// Prepare parses, validates and sanitizes a raw body. It is shared by the
// submission endpoint and the development echo.
func (uc *SubmitLeadUseCase) Prepare(body []byte) (entity.Lead, error) {
	payload, err := ParsePayload(body)
	if err != nil {
		return entity.Lead{}, err
	}
	if err := ValidatePayload(payload); err != nil {
		return entity.Lead{}, err
	}
	return Sanitize(payload.(map[string]any), uc.now()), nil
}

func (uc *SubmitLeadUseCase) Execute(ctx context.Context, body []byte) (*SubmitLeadOutput, error) {
	lead, err := uc.Prepare(body)
	if err != nil {
		return nil, err
	}

	if uc.SinkURL == "" || uc.Sink == nil {
		uc.Logger.Error("lead sink URL is not configured")
		return nil, &TechnicalError{Code: CodeSinkUnconfigured, Message: uc.unconfiguredMessage()}
	}

	data, err := uc.Sink.Forward(ctx, uc.SinkURL, lead)
	if err != nil {
		return nil, uc.classifySinkError(err)
	}

	if uc.Development {
		uc.Logger.Debug("lead forwarded to sink", zap.String("source_ref", lead.SourceRef))
	}

	uc.notify(ctx, lead)

	return &SubmitLeadOutput{Lead: lead, Data: data}, nil
}

func (uc *SubmitLeadUseCase) classifySinkError(err error) error {
	var statusErr *webhook.StatusError
	switch {
	case errors.Is(err, webhook.ErrTimeout):
		uc.Logger.Warn("lead sink timed out")
		return &TechnicalError{Code: CodeSinkTimeout, Message: "Timeout lors de l'envoi au webhook", Err: err}

	case errors.As(err, &statusErr):
		if uc.Development {
			uc.Logger.Error("lead sink rejected submission",
				zap.Int("status", statusErr.StatusCode),
				zap.String("body", statusErr.Body))
		} else {
			uc.Logger.Error("lead sink rejected submission", zap.Int("status", statusErr.StatusCode))
		}
		return &TechnicalError{Code: CodeSinkError, Message: "Erreur lors du traitement de la requête", Err: err}
	}

	if uc.Development {
		uc.Logger.Error("lead sink unreachable", zap.Error(err))
	} else {
		uc.Logger.Error("lead sink unreachable")
	}
	return &TechnicalError{Code: CodeSinkUnreachable, Message: "Erreur lors du traitement de la requête", Err: err}
}

func (uc *SubmitLeadUseCase) unconfiguredMessage() string {
	if uc.Development {
		return "Aucune URL de webhook configurée. Ajoutez MAKE_WEBHOOK_URL ou NEXT_PUBLIC_MAKE_WEBHOOK_URL dans .env.local puis redémarrez le serveur."
	}
	return "Configuration serveur manquante. Configurez MAKE_WEBHOOK_URL dans les variables d'environnement."
}

// notify runs detached from the request; the lead is already delivered so a
// notification failure is only logged.
func (uc *SubmitLeadUseCase) notify(ctx context.Context, lead entity.Lead) {
	if uc.Notifier == nil {
		return
	}

	timeout := uc.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}

	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		if err := uc.Notifier.NotifyLead(nctx, lead); err != nil {
			uc.Logger.Warn("lead notification failed", zap.Error(err))
		}
	}()
}

func (uc *SubmitLeadUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock()
	}
	return time.Now()
}
