package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/bus-seat-reservation/internal/queue"
)

// RabbitPublisher publishes booking events to a durable RabbitMQ queue.  It
// opens a connection per publish.
type RabbitPublisher struct {
	url       string
	queueName string
}

// NewRabbitPublisher returns a publisher for the given broker URL and queue.
// An empty queue name selects q.BookingQueueName.
func NewRabbitPublisher(url, queueName string) *RabbitPublisher {
	if queueName == "" {
		queueName = q.BookingQueueName
	}
	return &RabbitPublisher{url: url, queueName: queueName}
}

// PublishBookingConfirmed sends ev as a persistent JSON message.
func (p *RabbitPublisher) PublishBookingConfirmed(ctx context.Context, ev q.BookingConfirmedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
