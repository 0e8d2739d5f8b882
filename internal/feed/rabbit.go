// internal/feed/rabbit.go
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"choir-dashboard/internal/logger"
	"choir-dashboard/internal/metrics"
	"choir-dashboard/internal/model"
)

// DefaultBrokerTimeout bounds every broker round trip when Timeout is unset.
const DefaultBrokerTimeout = 5 * time.Second

// RabbitFeed fans events out through one fanout exchange per (choir, table).
// Every subscription owns an exclusive auto-delete queue bound to it.
type RabbitFeed struct {
	conn   *amqp.Connection
	buffer int
	log    *zap.Logger
	URL    string

	// Timeout bounds each Publish and Subscribe.
	Timeout time.Duration

	pubMu    sync.Mutex
	channel  *amqp.Channel
	declared map[string]bool
}

func NewRabbitFeed(url string, buffer int, log *zap.Logger) (*RabbitFeed, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return &RabbitFeed{
		conn:     conn,
		channel:  ch,
		buffer:   buffer,
		log:      logger.OrNop(log).Named("feed.rabbit"),
		URL:      url,
		Timeout:  DefaultBrokerTimeout,
		declared: make(map[string]bool),
	}, nil
}

func (r *RabbitFeed) GetConnection() *amqp.Connection {
	return r.conn
}

// declareExchange creates the durable fanout exchange for a topic.
func declareExchange(ch *amqp.Channel, name string) error {
	err := ch.ExchangeDeclare(
		name,
		"fanout",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

// withTimeout runs fn and gives up once ctx ends or d passes. fn keeps
// running in the background after a give-up, so it must own its cleanup.
func withTimeout(ctx context.Context, d time.Duration, op string, fn func() error) error {
	if d <= 0 {
		d = DefaultBrokerTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return brokerError(fmt.Errorf("%s: %w", op, ctx.Err()))
	}
}

// Publish sends the event to every queue bound to the topic exchange.
func (r *RabbitFeed) Publish(ctx context.Context, ev Event) error {
	body, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	exchange := topic(ev.ChoirID, ev.Table)

	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	if !r.declared[exchange] {
		err := withTimeout(ctx, r.Timeout, exchange+": declare", func() error {
			return declareExchange(r.channel, exchange)
		})
		if err != nil {
			return brokerError(err)
		}
		r.declared[exchange] = true
	}

	err = withTimeout(ctx, r.Timeout, exchange+": publish", func() error {
		return r.publish(exchange, ev, body)
	})
	if err != nil {
		return brokerError(err)
	}
	metrics.FeedPublished.WithLabelValues(string(ev.Table)).Inc()
	return nil
}

func (r *RabbitFeed) publish(exchange string, ev Event, body []byte) error {
	err := r.channel.Publish(
		exchange,
		"", // fanout ignores the routing key
		false,
		false,
		amqp.Publishing{
			ContentType: contentType,
			Timestamp:   ev.CommittedAt,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to exchange %s: %w", exchange, err)
	}
	return nil
}

func (r *RabbitFeed) Subscribe(ctx context.Context, choirID uuid.UUID, table Table) (*Subscription, error) {
	exchange := topic(choirID, table)

	var (
		mu        sync.Mutex
		c         *consumer
		abandoned bool
	)
	err := withTimeout(ctx, r.Timeout, exchange+": subscribe", func() error {
		started, err := r.startQueue(exchange)
		mu.Lock()
		defer mu.Unlock()
		if err == nil && abandoned {
			_ = started.Channel.Close()
			return nil
		}
		c = started
		return err
	})
	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		abandoned = true
		if c != nil {
			_ = c.Channel.Close()
		}
		return nil, brokerError(err)
	}

	sub := newSubscription(ctx, table, r.buffer, c.Stop)
	c.forward(sub)
	return sub, nil
}

// startQueue binds a fresh exclusive queue to the exchange and starts
// consuming it.
func (r *RabbitFeed) startQueue(exchange string) (*consumer, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open channel: %w", exchange, err)
	}
	fail := func(err error) (*consumer, error) {
		ch.Close()
		return nil, err
	}

	if err := declareExchange(ch, exchange); err != nil {
		return fail(err)
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false,
		nil,
	)
	if err != nil {
		return fail(fmt.Errorf("%s: declare queue: %w", exchange, err))
	}
	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return fail(fmt.Errorf("%s: bind queue: %w", exchange, err))
	}

	c, err := startConsumer(ch, q.Name, exchange, r.log)
	if err != nil {
		return fail(err)
	}
	return c, nil
}

// Close cleans up connection and channel
func (r *RabbitFeed) Close() error {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	if err := r.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	if err := r.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}

func brokerError(err error) error {
	if errors.Is(err, model.ErrUnreachable) {
		return err
	}
	var amqpErr *amqp.Error
	if errors.Is(err, amqp.ErrClosed) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &amqpErr) && !amqpErr.Server) {
		return fmt.Errorf("%w: %w", model.ErrUnreachable, err)
	}
	return err
}
