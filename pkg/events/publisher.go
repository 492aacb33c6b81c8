package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"campusportal/pkg/domain"
)

// DefaultExchange is the topic exchange notifications are published to.
const DefaultExchange = "portal.notifications"

// Publisher fans committed notifications out to other consumers (mailers, push).
type Publisher interface {
	PublishNotification(ctx context.Context, n domain.Notification) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishNotification(context.Context, domain.Notification) error { return nil }

// NotificationEvent is the wire payload of one published notification.
type NotificationEvent struct {
	Event        string                       `json:"event"`
	Notification domain.Notification          `json:"notification"`
	Metadata     *domain.NotificationMetadata `json:"metadata,omitempty"`
	PublishedAt  time.Time                    `json:"publishedAt"`
}

// RoutingKey returns the topic key for a notification, e.g. "notification.success".
func RoutingKey(n domain.Notification) string {
	kind := strings.TrimSpace(string(n.Type))
	if kind == "" {
		kind = string(domain.NotificationInfo)
	}
	return "notification." + kind
}

// EncodeNotification builds the JSON body published for n.
func EncodeNotification(n domain.Notification, at time.Time) ([]byte, error) {
	return json.Marshal(NotificationEvent{
		Event:        "notification.created",
		Notification: n,
		Metadata:     n.Metadata,
		PublishedAt:  at.UTC(),
	})
}

// AMQPPublisher publishes to a RabbitMQ topic exchange. A closed channel is
// re-opened on the next publish.
type AMQPPublisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher dials url and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("amqp url required")
	}
	if strings.TrimSpace(exchange) == "" {
		exchange = DefaultExchange
	}
	p := &AMQPPublisher{url: url, exchange: exchange}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connectLocked() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *AMQPPublisher) PublishNotification(ctx context.Context, n domain.Notification) error {
	now := time.Now()
	body, err := EncodeNotification(n, now)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		p.closeLocked()
		if err := p.connectLocked(); err != nil {
			return err
		}
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(n), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Timestamp:    now,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification %s: %w", n.ID, err)
	}
	return nil
}

// Close shuts the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *AMQPPublisher) closeLocked() error {
	var errs []error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		p.ch = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		p.conn = nil
	}
	return errors.Join(errs...)
}
