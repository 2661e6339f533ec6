package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultDialTimeout bounds connecting to the broker when the caller's context has no earlier deadline.
const DefaultDialTimeout = 5 * time.Second

// AMQPPublisher publishes persistent JSON messages to RabbitMQ, reconnecting lazily after failures.
type AMQPPublisher struct {
	url         string
	dialTimeout time.Duration
	log         *zap.Logger

	// sem holds one token and guards conn and ch. Waiting on it honours the caller's context.
	sem  chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher creates a publisher. The connection is opened on first publish.
func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:         url,
		dialTimeout: DefaultDialTimeout,
		log:         log.With(zap.String("component", "amqp-publisher")),
		sem:         make(chan struct{}, 1),
	}
}

func (p *AMQPPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AMQPPublisher) unlock() {
	<-p.sem
}

// PublishOrderPlaced sends event to the order.placed queue.
func (p *AMQPPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.publish(ctx, OrderPlacedQueue, body)
}

func (p *AMQPPublisher) publish(ctx context.Context, queue string, body []byte) error {
	if err := p.lock(ctx); err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	defer p.unlock()

	ch, err := p.channel(ctx, queue)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// channel returns an open channel with queue declared. Caller holds sem.
func (p *AMQPPublisher) channel(ctx context.Context, queue string) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	timeout := p.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return nil, fmt.Errorf("dial broker: %w", context.DeadlineExceeded)
		}
		if left < timeout {
			timeout = left
		}
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	p.conn, p.ch = conn, ch
	p.log.Info("connected to broker", zap.String("queue", queue))
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.sem <- struct{}{}
	defer p.unlock()
	p.reset()
	return nil
}
