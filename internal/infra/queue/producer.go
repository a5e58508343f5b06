package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/immo-leads/internal/entity"
)

// Publisher is the part of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type LeadMessage struct {
	Lead       entity.Lead `json:"lead"`
	AcceptedAt time.Time   `json:"accepted_at"`
}

// Producer publishes accepted leads so notifications run outside the request.
type Producer struct {
	Ch    Publisher
	Clock func() time.Time
}

func NewProducer(ch Publisher) *Producer {
	return &Producer{Ch: ch}
}

func (p *Producer) NotifyLead(ctx context.Context, lead entity.Lead) error {
	now := time.Now().UTC()
	if p.Clock != nil {
		now = p.Clock()
	}

	body, err := json.Marshal(LeadMessage{Lead: lead, AcceptedAt: now})
	if err != nil {
		return fmt.Errorf("marshal lead message: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    now,
		},
	)
	if err != nil {
		return fmt.Errorf("publish lead message: %w", err)
	}

	return nil
}
