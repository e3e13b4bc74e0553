// Package rabbitmq publishes bread van events to a RabbitMQ topic exchange.
// The event type is the routing key, so consumers bind with patterns such as
// "drive.*" or "van.nearby".
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"breadvan-backend/internal/events"
)

var _ events.Publisher = (*Publisher)(nil)

const (
	ExchangeName = "breadvan.events"
	exchangeKind = "topic"
)

// channel is the part of *amqp.Channel the publisher uses
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
}

// Dial connects to url and declares the events exchange
func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("rabbitmq channel: %w", err), conn.Close())
	}
	if err := ch.ExchangeDeclare(ExchangeName, exchangeKind, true, false, false, false, nil); err != nil {
		return nil, errors.Join(fmt.Errorf("declare exchange: %w", err), conn.Close())
	}
	log.Printf("✅ Publishing events to RabbitMQ exchange %s", ExchangeName)
	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	msg, err := encode(e)
	if err != nil {
		return err
	}
	// amqp channels are not safe for concurrent publishes
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, ExchangeName, e.Type, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func encode(e events.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         e.Type,
		Body:         body,
	}, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
