package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const routingPrefix = "owner."

// AMQPNotifier shares change signals between server instances through a topic
// exchange. Each instance consumes from its own exclusive queue and hands
// signals to a LocalNotifier; signals it published itself are dispatched
// locally right away and skipped when they come back from the broker.
type AMQPNotifier struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	queue      string
	instanceID string
	local      *LocalNotifier
	logger     *logrus.Logger

	publishMu sync.Mutex
}

func NewAMQPNotifier(url, exchange string, local *LocalNotifier, logger *logrus.Logger) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	n := &AMQPNotifier{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		instanceID: uuid.Must(uuid.NewV4()).String(),
		local:      local,
		logger:     logger,
	}

	if err := n.setup(); err != nil {
		_ = n.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return n, nil
}

func (n *AMQPNotifier) setup() error {
	err := n.channel.ExchangeDeclare(
		n.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Server-named queue, removed when this instance disconnects.
	queue, err := n.channel.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	n.queue = queue.Name

	err = n.channel.QueueBind(
		n.queue,
		routingPrefix+"#",
		n.exchange,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

func (n *AMQPNotifier) Publish(ctx context.Context, ownerID string) error {
	n.local.Dispatch(ownerID)

	body, err := NewChangeMessage(ownerID, n.instanceID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n.publishMu.Lock()
	defer n.publishMu.Unlock()

	err = n.channel.PublishWithContext(
		ctx,
		n.exchange,
		routingPrefix+ownerID,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Transient,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	n.logger.WithField("ownerID", ownerID).Debug("AMQPNotifier.Publish.sent")
	return nil
}

func (n *AMQPNotifier) Listen(ownerID string, fn func()) func() {
	return n.local.Listen(ownerID, fn)
}

// Consume dispatches change messages from other instances until ctx is done.
func (n *AMQPNotifier) Consume(ctx context.Context) error {
	deliveries, err := n.channel.Consume(
		n.queue, // queue
		"",      // consumer
		false,   // auto-ack
		true,    // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	n.logger.WithField("queue", n.queue).Info("AMQPNotifier.Consume.started")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("AMQPNotifier.Consume.stopping")
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			n.handleDelivery(delivery)
		}
	}
}

func (n *AMQPNotifier) handleDelivery(delivery amqp091.Delivery) {
	msg, err := ChangeMessageFromJSON(delivery.Body)
	if err != nil {
		n.logger.WithError(err).Error("AMQPNotifier.Consume.invalid message")
		_ = delivery.Nack(false, false)
		return
	}

	if msg.OriginID != n.instanceID {
		n.local.Dispatch(msg.OwnerID)
	}

	_ = delivery.Ack(false)
}

func (n *AMQPNotifier) Close() error {
	if n.channel != nil {
		_ = n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
