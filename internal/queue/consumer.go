package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BookingLogConsumer reads booking events from the broker and appends one
// line per booking to <Dir>/booking.log.
type BookingLogConsumer struct {
	URL       string
	QueueName string
	Dir       string
	Logger    *slog.Logger
}

// Run connects to the broker, declares the queue and consumes until ctx is
// cancelled.  Dial failures and closed channels are retried with backoff.
// A message that cannot be handled is rejected without requeue so one bad
// payload cannot wedge the queue.
func (c *BookingLogConsumer) Run(ctx context.Context) error {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	queueName := c.QueueName
	if queueName == "" {
		queueName = BookingQueueName
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Warn("booking consumer: dial failed", slog.Any("error", err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn, queueName, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("booking consumer: consume loop ended, reconnecting", slog.Any("error", err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *BookingLogConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection, queueName string, log *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("booking consumer: set QoS failed", slog.Any("error", err))
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := AppendBookingLog(c.Dir, d.Body); err != nil {
			log.Error("booking consumer: handle message failed", slog.Any("error", err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// AppendBookingLog decodes a BookingConfirmedEvent and appends a single
// human-readable line for it to dir/booking.log.
func AppendBookingLog(dir string, body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(FormatBookingLine(ev))
	if err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatBookingLine renders ev as one newline-terminated log line.
func FormatBookingLine(ev BookingConfirmedEvent) string {
	code := ev.BookingCode
	if code == "" {
		code = "-"
	}
	return fmt.Sprintf("[%s] Booking confirmed | booking_code=%s | trip_id=%d | trip=%q | route=%q | depart_at=%s | seats=[%s] | customer=%q | wa=%s | by=%s\n",
		ev.BookedAt, code, ev.TripID, ev.TripTitle, ev.RouteFrom+" -> "+ev.RouteTo, ev.DepartAt,
		strings.Join(ev.SeatCodes, ","), ev.CustomerName, ev.CustomerWA, ev.BookedBy)
}
