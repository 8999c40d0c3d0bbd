package notification

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "transaction.events"

// AMQPNotifier publishes settlement events to a RabbitMQ topic exchange so
// downstream consumers (SMS, email, analytics) can react without coupling to
// the settlement path.
type AMQPNotifier struct {
	ch *amqp.Channel
}

// NewAMQPNotifier opens a channel on the connection and declares the
// exchange.
func NewAMQPNotifier(conn *amqp.Connection) (*AMQPNotifier, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPNotifier{ch: ch}, nil
}

// Send publishes the message with the kind as routing key.
func (n *AMQPNotifier) Send(ctx context.Context, message Message) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return n.ch.PublishWithContext(ctx, exchangeName, message.Kind, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Close releases the channel.
func (n *AMQPNotifier) Close() error {
	return n.ch.Close()
}
