// internal/feed/consumer.go
package feed

import (
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"choir-dashboard/internal/metrics"
	"choir-dashboard/internal/model"
)

// consumer drains one subscription queue until stopped.
type consumer struct {
	Exchange    string
	QueueName   string
	Channel     *amqp.Channel
	StopChan    chan struct{}
	DoneChan    chan struct{}
	ConsumerTag string

	deliveries <-chan amqp.Delivery
	log        *zap.Logger
}

func startConsumer(ch *amqp.Channel, queueName, exchange string, log *zap.Logger) (*consumer, error) {
	consumerTag := fmt.Sprintf("consumer-%s", queueName)

	msgs, err := ch.Consume(
		queueName,
		consumerTag,
		true, // autoAck: a live view has no use for redelivery
		true, // exclusive
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to start consuming: %w", exchange, err)
	}

	return &consumer{
		Exchange:    exchange,
		QueueName:   queueName,
		Channel:     ch,
		StopChan:    make(chan struct{}),
		DoneChan:    make(chan struct{}),
		ConsumerTag: consumerTag,
		deliveries:  msgs,
		log:         log.With(zap.String("exchange", exchange)),
	}, nil
}

func (c *consumer) forward(sub *Subscription) {
	go c.consumeLoop(sub)
}

// consumeLoop decodes deliveries into the subscription until StopChan is
// closed or the broker closes the delivery channel.
func (c *consumer) consumeLoop(sub *Subscription) {
	defer func() {
		close(c.DoneChan)
		close(sub.events)
		// the broker may have gone away first; release the subscription too
		go sub.Close()
	}()

	for {
		select {
		case msg, ok := <-c.deliveries:
			if !ok {
				c.log.Warn("delivery channel closed")
				sub.end(fmt.Errorf("%s: delivery channel closed: %w", c.Exchange, model.ErrUnreachable))
				return
			}
			ev, err := decodeEvent(msg.Body)
			if err != nil {
				c.log.Error("failed to decode event", zap.Error(err))
				metrics.FeedDiscarded.WithLabelValues("unknown", "decode").Inc()
				continue
			}
			select {
			case sub.events <- ev:
			case <-c.StopChan:
				return
			}

		case <-c.StopChan:
			_ = c.Channel.Cancel(c.ConsumerTag, false)
			return
		}
	}
}

// Stop signals the consumer to stop and waits for cleanup
func (c *consumer) Stop() {
	select {
	case <-c.StopChan:
	default:
		close(c.StopChan)
	}
	<-c.DoneChan
	_ = c.Channel.Close()
	c.log.Debug("stopped consumer", zap.String("queue", c.QueueName))
}
