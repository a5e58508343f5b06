package usecase

import (
	"time"

	"github.com/xavierca1/immo-leads/internal/entity"
	"go.uber.org/zap"
)

type SubmitLeadOutput struct {
	Lead entity.Lead `json:"lead"`
	Data any         `json:"data"`
}

type SubmitLeadUseCase struct {
	Sink     entity.LeadSink
	SinkURL  string
	Notifier entity.LeadNotifier
	Logger   *zap.Logger
	// Development enables upstream diagnostics in logs and operator hints in
	// error messages.
	Development   bool
	NotifyTimeout time.Duration
	Clock         func() time.Time
}
