package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	DefaultExchange = "campaign.events"

	RoutingCampaignCreated = "campaign.created"
	RoutingSendSent        = "campaign.send.sent"
	RoutingSendFailed      = "campaign.send.failed"

	// Wait window for Return / Confirm
	publishWait = 150 * time.Millisecond
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Envelope wraps every published event.
type Envelope struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type Publisher struct {
	exchange string
	lg       zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return

	now func() time.Time
}

// NewPublisher dials RabbitMQ, declares the topic exchange and enables publisher confirms.
func NewPublisher(url, exchange string, lg zerolog.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	p := newPublisher(ch, exchange, lg)
	p.conn = conn
	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))
	return p, nil
}

func newPublisher(ch channel, exchange string, lg zerolog.Logger) *Publisher {
	return &Publisher{
		exchange: exchange,
		ch:       ch,
		lg:       lg.With().Str("component", "rabbit_publisher").Logger(),
		now:      time.Now,
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}

// Publish wraps payload in an Envelope and publishes it with mandatory + confirms.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if routingKey == "" {
		return errors.New("missing routingKey")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	env := Envelope{
		EventID:    uuid.NewString(),
		Type:       routingKey,
		OccurredAt: p.now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		return errors.New("publisher channel not ready")
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, true, false, amqp.Publishing{
		MessageId:    env.EventID,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    env.OccurredAt,
		Type:         routingKey,
		Body:         body,
	})
	if err != nil {
		return err
	}
	if p.confirmCh == nil {
		return nil
	}

	select {
	case ret := <-p.returnCh:
		return errors.New("NO_ROUTE: " + ret.RoutingKey)
	case conf := <-p.confirmCh:
		if !conf.Ack {
			return errors.New("publish nack")
		}
		return nil
	case <-time.After(publishWait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoopPublisher drops events. Used when RABBIT_URL is empty.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, routingKey string, payload any) error { return nil }
func (NoopPublisher) Close() error                                                      { return nil }
