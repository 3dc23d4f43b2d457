// Package publisher delivers decision events to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/placementcell/eligibility/internal/domain/model"
	"github.com/placementcell/eligibility/pkg/logger"
)

// Defaults for the decision exchange.
const (
	DefaultExchange   = "placement.decisions"
	DefaultRoutingKey = "application.decision"
	exchangeKind      = "topic"
	contentTypeJSON   = "application/json"
)

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("publisher closed")

// AMQP publishes decision events as persistent JSON messages on a durable
// topic exchange. The routing key gets the decision status appended, for
// example "application.decision.eligible".
type AMQP struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string

	mu     sync.Mutex
	closed bool

	logger logger.Logger
}

// AMQPOption configures an AMQP publisher.
type AMQPOption func(*AMQP)

// WithExchange overrides the exchange name.
func WithExchange(name string) AMQPOption {
	return func(p *AMQP) {
		if name != "" {
			p.exchange = name
		}
	}
}

// WithRoutingKey overrides the routing key prefix.
func WithRoutingKey(key string) AMQPOption {
	return func(p *AMQP) {
		if key != "" {
			p.routingKey = key
		}
	}
}

// DialAMQP connects to the broker at url and declares the exchange.
func DialAMQP(url string, opts ...AMQPOption) (*AMQP, error) {
	if url == "" {
		return nil, errors.New("amqp url is required")
	}

	p := &AMQP{
		exchange:   DefaultExchange,
		routingKey: DefaultRoutingKey,
		logger:     logger.Get().Named("amqp"),
	}
	for _, opt := range opts {
		opt(p)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		p.exchange,
		exchangeKind,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", p.exchange, err)
	}

	p.conn = conn
	p.ch = ch
	p.logger.Info(context.Background(), "connected to broker",
		logger.String("exchange", p.exchange),
		logger.String("routingKey", p.routingKey),
	)
	return p, nil
}

// Publish sends ev to the exchange.
func (p *AMQP) Publish(ctx context.Context, ev model.DecisionEvent) error { //nolint:gocritic // hugeParam: matches the worker Publisher signature
	msg, err := Message(ev)
	if err != nil {
		return err
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(p.routingKey, ev), false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.EventID, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return errors.Join(p.ch.Close(), p.conn.Close())
}

// Message builds the broker message for ev.
func Message(ev model.DecisionEvent) (amqp.Publishing, error) { //nolint:gocritic // hugeParam
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode decision event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Trigger,
		Body:         body,
	}, nil
}

// RoutingKey returns prefix.status, or prefix alone when the status is empty.
func RoutingKey(prefix string, ev model.DecisionEvent) string { //nolint:gocritic // hugeParam
	if ev.Status == "" {
		return prefix
	}
	return prefix + "." + string(ev.Status)
}
