package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/todoapp/apiserver/config"
)

const (
	exchangeKind       = "topic"
	defaultRoutingKey  = "task"
	bindAllRoutingKeys = "#"
)

// RabbitMQClient publishes to a topic exchange per channel. The routing key
// is the event type, so consumers can bind to the events they care about.
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	durable bool

	mu        sync.Mutex
	exchanges map[string]struct{}
}

// NewRabbitMQClient dials the broker named in cfg.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{
		conn:      conn,
		channel:   ch,
		durable:   cfg.Durable,
		exchanges: make(map[string]struct{}),
	}, nil
}

// Publish sends data to the exchange named by channel, routed by the
// AttrEventType attribute.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}
	if err := r.declareExchange(channel); err != nil {
		return "", err
	}

	headers := amqp.Table{}
	for key, value := range attrs {
		headers[key] = value
	}

	messageID := newMessageID()
	err := r.channel.PublishWithContext(ctx, channel, routingKey(attrs), false, false, amqp.Publishing{
		ContentType:  contentType(attrs),
		DeliveryMode: r.deliveryMode(),
		Timestamp:    time.Now(),
		MessageId:    messageID,
		Headers:      headers,
		Body:         data,
	})
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	return messageID, nil
}

// Subscribe binds a private queue to every routing key of the channel's
// exchange and hands each delivery to handler until ctx is done. The queue
// is removed when the subscriber goes away.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}
	if err := r.declareExchange(channel); err != nil {
		return err
	}

	queue, err := r.channel.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := r.channel.QueueBind(queue.Name, bindAllRoutingKeys, channel, false, nil); err != nil {
		return fmt.Errorf("bind queue to %s: %w", channel, err)
	}

	consumerTag := "tail-" + newMessageID()
	deliveries, err := r.channel.Consume(queue.Name, consumerTag, false, true, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			message := Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: headersToAttributes(delivery.Headers),
			}
			if err := handler(ctx, message); err != nil {
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the underlying channel and connection.
func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) declareExchange(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.exchanges[name]; ok {
		return nil
	}
	if err := r.channel.ExchangeDeclare(name, exchangeKind, r.durable, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	r.exchanges[name] = struct{}{}
	return nil
}

func (r *RabbitMQClient) deliveryMode() uint8 {
	if r.durable {
		return amqp.Persistent
	}
	return amqp.Transient
}

func routingKey(attrs map[string]string) string {
	if key := strings.TrimSpace(attrs[AttrEventType]); key != "" {
		return key
	}
	return defaultRoutingKey
}

func contentType(attrs map[string]string) string {
	if ct := attrs[AttrContentType]; ct != "" {
		return ct
	}
	return "application/json"
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}

func newMessageID() string {
	return uuid.NewString()
}
