package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/immo-leads/internal/entity"
)

// fakeAcknowledger records what the worker did with each delivery tag.
type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeConsumer struct {
	msgs chan amqp.Delivery
	err  error
}

func (c *fakeConsumer) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.msgs, c.err
}

type recordingNotifier struct {
	mu    sync.Mutex
	leads []entity.Lead
	err   error
}

func (n *recordingNotifier) NotifyLead(_ context.Context, lead entity.Lead) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leads = append(n.leads, lead)
	return n.err
}

func delivery(t *testing.T, ack amqp.Acknowledger, tag uint64, body []byte) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: body}
}

func leadMessageBody(t *testing.T, lead entity.Lead) []byte {
	t.Helper()
	body, err := json.Marshal(LeadMessage{Lead: lead, AcceptedAt: time.Now()})
	require.NoError(t, err)
	return body
}

func TestWorkerAcksDeliveredLeads(t *testing.T) {
	ack := &fakeAcknowledger{}
	consumer := &fakeConsumer{msgs: make(chan amqp.Delivery, 2)}
	notifier := &recordingNotifier{}

	lead := entity.Lead{LastName: "Martin", Email: "claire@example.fr"}
	consumer.msgs <- delivery(t, ack, 1, leadMessageBody(t, lead))
	consumer.msgs <- delivery(t, ack, 2, []byte("not json"))
	close(consumer.msgs)

	w := NewWorker(consumer, notifier, nil)
	require.NoError(t, w.Start(context.Background(), QueueName))

	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeue, "malformed messages are dead-lettered")
	require.Len(t, notifier.leads, 1)
	assert.Equal(t, lead, notifier.leads[0])
}

func TestWorkerDeadLettersNotifierFailures(t *testing.T) {
	ack := &fakeAcknowledger{}
	consumer := &fakeConsumer{msgs: make(chan amqp.Delivery, 1)}
	notifier := &recordingNotifier{err: errors.New("smtp: 421")}

	consumer.msgs <- delivery(t, ack, 7, leadMessageBody(t, entity.Lead{}))
	close(consumer.msgs)

	require.NoError(t, NewWorker(consumer, notifier, nil).Start(context.Background(), QueueName))

	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{7}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeue)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	consumer := &fakeConsumer{msgs: make(chan amqp.Delivery)}
	w := NewWorker(consumer, &recordingNotifier{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, QueueName) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerConsumeError(t *testing.T) {
	consumer := &fakeConsumer{err: errors.New("channel/connection is not open")}
	err := NewWorker(consumer, &recordingNotifier{}, nil).Start(context.Background(), QueueName)
	assert.ErrorContains(t, err, QueueName)
}

// cancellingNotifier simulates a shutdown that lands while a lead is being sent.
type cancellingNotifier struct {
	cancel context.CancelFunc
}

func (n *cancellingNotifier) NotifyLead(ctx context.Context, _ entity.Lead) error {
	n.cancel()
	return ctx.Err()
}

func TestWorkerRequeuesOnShutdown(t *testing.T) {
	ack := &fakeAcknowledger{}
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(&fakeConsumer{}, &cancellingNotifier{cancel: cancel}, nil)

	w.handle(ctx, delivery(t, ack, 9, leadMessageBody(t, entity.Lead{LastName: "Martin"})))

	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{9}, ack.nacked)
	assert.Equal(t, []bool{true}, ack.requeue)
}
