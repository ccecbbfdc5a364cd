package publish

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/streadway/amqp"

	"botlist/internal/common/errors"
	"botlist/internal/webhook"
)

// AMQPPublisher publishes votes as persistent JSON messages to a durable
// RabbitMQ queue.
type AMQPPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewAMQPPublisher connects to RabbitMQ and declares the target queue.
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.ConfigError("amqp publisher requires a connection url")
	}
	if queue == "" {
		queue = "votes"
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to amqp broker", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.NetworkError("failed to open amqp channel", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.NetworkError("failed to declare queue "+queue, err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, vote *webhook.Vote) error {
	body, err := json.Marshal(vote)
	if err != nil {
		return errors.DeserializationError("failed to marshal vote", err)
	}

	// amqp.Channel is not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return errors.NetworkError("failed to publish vote", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
