package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for order lifecycle events.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderRated         = "order.rated"
)

// Publisher emits domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close()
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

func (Nop) Close() {}

// OrderEvent is the body published for order lifecycle changes.
type OrderEvent struct {
	OrderID      string    `json:"orderId"`
	OrderNumber  string    `json:"orderNumber"`
	UserID       string    `json:"userId"`
	RestaurantID string    `json:"restaurantId"`
	Status       string    `json:"status"`
	Previous     string    `json:"previousStatus,omitempty"`
	Total        float64   `json:"total"`
	Rating       *int      `json:"rating,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// AMQPPublisher publishes JSON messages to a durable topic exchange.
type AMQPPublisher struct {
	url      string
	exchange string

	// lock is a one-slot semaphore so waiting publishers can give up when
	// their context ends.
	lock chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

const (
	dialAttempts = 5
	dialTimeout  = 5 * time.Second
)

// NewAMQPPublisher connects to the broker, retrying with exponential
// backoff, and declares the exchange.
func NewAMQPPublisher(ctx context.Context, url, exchange string) (*AMQPPublisher, error) {
	p := newAMQPPublisher(url, exchange)
	if err := p.connect(ctx, dialAttempts); err != nil {
		return nil, err
	}
	return p, nil
}

func newAMQPPublisher(url, exchange string) *AMQPPublisher {
	return &AMQPPublisher{url: url, exchange: exchange, lock: make(chan struct{}, 1)}
}

// Connect returns an AMQP publisher when url is set, falling back to Nop
// when it is empty or the broker cannot be reached.
func Connect(ctx context.Context, url, exchange string) Publisher {
	if url == "" {
		log.Println("[Events] RABBITMQ_URL not set, order events disabled")
		return Nop{}
	}
	p, err := NewAMQPPublisher(ctx, url, exchange)
	if err != nil {
		log.Printf("[Events] broker unavailable, order events disabled: %v", err)
		return Nop{}
	}
	return p
}

// connect dials up to attempts times, backing off between tries. The
// caller must hold the lock.
func (p *AMQPPublisher) connect(ctx context.Context, attempts int) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = p.dial(); err == nil {
			log.Printf("[Events] connected to RabbitMQ, exchange %s", p.exchange)
			return nil
		}
		log.Printf("[Events] RabbitMQ dial attempt %d failed: %v", i, err)
		if i == attempts {
			break
		}

		backoff := time.NewTimer(time.Duration(1<<i) * time.Second)
		select {
		case <-ctx.Done():
			backoff.Stop()
			return ctx.Err()
		case <-backoff.C:
		}
	}
	return fmt.Errorf("connect to RabbitMQ after %d attempts: %w", attempts, err)
}

func (p *AMQPPublisher) dial() error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

// Publish marshals payload to JSON and publishes it with routingKey. A
// closed channel is redialled once; the startup backoff is not repeated
// here.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", routingKey, err)
	}

	select {
	case p.lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", routingKey, ctx.Err())
	}
	defer func() { <-p.lock }()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	if p.ch == nil || p.ch.IsClosed() {
		p.release()
		if err := p.connect(ctx, 1); err != nil {
			return err
		}
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() {
	p.lock <- struct{}{}
	defer func() { <-p.lock }()
	p.release()
	log.Println("[Events] RabbitMQ connection closed")
}

func (p *AMQPPublisher) release() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
