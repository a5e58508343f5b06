package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/immo-leads/internal/entity"
	"go.uber.org/zap"
)

// Consumer is the part of *amqp.Channel the worker needs.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Worker drains the lead queue into a downstream notifier (e-mail).
type Worker struct {
	Channel  Consumer
	Notifier entity.LeadNotifier
	Logger   *zap.Logger
}

func NewWorker(ch Consumer, notifier entity.LeadNotifier, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{Channel: ch, Notifier: notifier, Logger: logger}
}

// Start blocks until ctx is done or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer on %s: %w", queueName, err)
	}

	w.Logger.Info("lead worker waiting for messages", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("lead worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				w.Logger.Warn("lead worker delivery channel closed")
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var msg LeadMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.Logger.Error("malformed lead message", zap.Error(err))
		// Unparseable messages go to the DLQ instead of looping.
		d.Nack(false, false)
		return
	}

	if err := w.Notifier.NotifyLead(ctx, msg.Lead); err != nil {
		// Interrupted by shutdown: hand the lead back to the queue.
		if ctx.Err() != nil {
			w.Logger.Warn("lead notification interrupted, requeueing",
				zap.String("source_ref", msg.Lead.SourceRef))
			d.Nack(false, true)
			return
		}
		w.Logger.Error("lead notification failed",
			zap.String("source_ref", msg.Lead.SourceRef),
			zap.Error(err))
		d.Nack(false, false)
		return
	}

	d.Ack(false)
}
