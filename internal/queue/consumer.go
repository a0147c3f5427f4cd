package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/mailer"
)

// errMalformed marks deliveries that can never succeed.
var errMalformed = errors.New("malformed email event")

// Consumer reads EmailEvents and delivers them through a mailer.Sender.
type Consumer struct {
	url    string
	sender mailer.Sender
	log    *zap.Logger
}

func NewConsumer(url string, sender mailer.Sender, log *zap.Logger) *Consumer {
	return &Consumer{url: url, sender: sender, log: log}
}

// Run keeps a consumer attached to the broker until ctx is cancelled,
// redialling with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("email consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("email consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		c.log.Warn("email consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(EmailQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EmailQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info("email consumer: waiting for messages", zap.String("queue", EmailQueue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery sends one email and settles the delivery. Malformed
// payloads are dropped; a failed send is retried once through a requeue.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	ev, err := c.process(ctx, d.Body)
	if err == nil {
		c.log.Info("email sent", zap.String("event_id", ev.ID), zap.String("kind", string(ev.Message.Kind)))
		_ = d.Ack(false)
		return
	}
	requeue := !errors.Is(err, errMalformed) && !d.Redelivered
	c.log.Error("email delivery failed",
		zap.String("event_id", ev.ID),
		zap.Bool("requeue", requeue),
		zap.Error(err))
	_ = d.Nack(false, requeue)
}

func (c *Consumer) process(ctx context.Context, body []byte) (EmailEvent, error) {
	var ev EmailEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if ev.Message.To == "" || ev.Message.Kind == "" {
		return ev, fmt.Errorf("%w: missing recipient or kind", errMalformed)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return ev, c.sender.Send(ctx, ev.Message)
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
