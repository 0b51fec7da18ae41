// Package events publishes order events to RabbitMQ for other services
// (kitchen displays, receipts) to consume.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fast-food-fast/logger"
	"fast-food-fast/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	Exchange = "orders_fanout"

	EventOrderPlaced   = "order_placed"
	EventStatusChanged = "status_changed"
)

// Message is the JSON body of every published event.
type Message struct {
	Event     string       `json:"event"`
	Order     models.Order `json:"order"`
	Timestamp time.Time    `json:"timestamp"`
}

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	conn *amqp.Connection
	ch   Channel
	log  *logger.Logger
	now  func() time.Time
}

// Dial connects to the broker and declares the durable fanout exchange.
func Dial(url string, log *logger.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		Exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", Exchange, err)
	}
	p := NewWithChannel(ch, log)
	p.conn = conn
	return p, nil
}

func NewWithChannel(ch Channel, log *logger.Logger) *Publisher {
	return &Publisher{ch: ch, log: log, now: time.Now}
}

func (p *Publisher) OrderPlaced(ctx context.Context, o models.Order) error {
	return p.publish(ctx, EventOrderPlaced, o)
}

func (p *Publisher) StatusChanged(ctx context.Context, o models.Order) error {
	return p.publish(ctx, EventStatusChanged, o)
}

func (p *Publisher) publish(ctx context.Context, event string, o models.Order) error {
	now := p.now()
	body, err := json.Marshal(Message{Event: event, Order: o, Timestamp: now})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}

	err = p.ch.PublishWithContext(ctx,
		Exchange,        // exchange
		"orders."+event, // routing key, ignored by fanout
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    o.PublicID,
			Timestamp:    now,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event, err)
	}

	p.log.Debug("event_published", logger.RequestID(ctx), fmt.Sprintf("Published %s for order %s", event, o.PublicID))
	return nil
}

// Close closes the broker connection, if Dial opened one.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
