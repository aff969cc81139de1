package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// DefaultLogPath is where the consumer appends one line per event.
var DefaultLogPath = filepath.Join("logs", "reveal.log")

// Consumer drains QueueName into an append-only audit file.
type Consumer struct {
	url     string
	logPath string
	log     zerolog.Logger
	mu      sync.Mutex
}

func NewConsumer(url, logPath string, log zerolog.Logger) *Consumer {
	if logPath == "" {
		logPath = DefaultLogPath
	}
	return &Consumer{url: url, logPath: logPath, log: log.With().Str("component", "reveal-consumer").Logger()}
}

// Run keeps a consumer attached to the broker until ctx is cancelled,
// reconnecting with exponential backoff. It only returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = time.Second
	exp.MaxInterval = 30 * time.Second
	exp.MaxElapsedTime = 0
	exp.Reset()

	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			wait := exp.NextBackOff()
			c.log.Warn().Err(err).Dur("retry_in", wait).Msg("dial broker failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		exp.Reset()

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("consume loop ended; reconnecting")
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.log.Error().Err(err).Msg("handle message failed")
				_ = d.Nack(false, false) // do not requeue, avoids tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one delivery and appends it to the audit file.
func (c *Consumer) Handle(body []byte) error {
	var ev RevealEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev RevealEvent) string {
	line := fmt.Sprintf("[%s] %s | record_id=%s | is_revealed=%t", ev.OccurredAt, ev.Type, ev.RecordID, ev.IsRevealed)
	if ev.OpeningDate != "" {
		line += fmt.Sprintf(" | opening_date=%q", ev.OpeningDate)
	}
	if len(ev.Fields) > 0 {
		line += fmt.Sprintf(" | fields=[%s]", strings.Join(ev.Fields, ","))
	}
	return line + "\n"
}
