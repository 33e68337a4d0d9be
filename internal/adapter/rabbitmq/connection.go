package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/canteen/internal/config"
)

var ErrConnectionClosed = errors.New("rabbitmq connection closed")

type Connection interface {
	Channel() (Channel, error)
	Close() error
	NotifyClose() <-chan *amqp.Error
	IsClosed() bool
}

// Channel is the subset of *amqp.Channel the publisher and consumer use.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Qos(prefetchCount, prefetchSize int, global bool) error
	Close() error
	NotifyClose() <-chan *amqp.Error
}

type Queue struct {
	Name      string
	Messages  int
	Consumers int
}

// URI renders the broker address of cfg on the default vhost.
func URI(cfg config.RabbitMQConfig) string {
	return amqp.URI{
		Scheme:   "amqp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		Password: cfg.Password,
		Vhost:    "/",
	}.String()
}

// amqpConnection redials lazily: a dropped connection is replaced the next
// time a channel is requested.
type amqpConnection struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	dial     func() (*amqp.Connection, error)
	shutdown bool
}

// Connect dials the broker. name shows up as the connection name in the
// management UI, one per service mode.
func Connect(cfg config.RabbitMQConfig, name string) (Connection, error) {
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName("canteen-" + name)

	uri := URI(cfg)
	dial := func() (*amqp.Connection, error) {
		return amqp.DialConfig(uri, amqp.Config{
			Heartbeat:  10 * time.Second,
			Locale:     "en_US",
			Properties: props,
		})
	}

	conn, err := dial()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &amqpConnection{conn: conn, dial: dial}, nil
}

func (c *amqpConnection) Channel() (Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		return nil, ErrConnectionClosed
	}

	if c.conn.IsClosed() {
		conn, err := c.dial()
		if err != nil {
			return nil, fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
		}
		c.conn = conn
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return &amqpChannel{Channel: ch}, nil
}

func (c *amqpConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shutdown = true
	if c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}

func (c *amqpConnection) NotifyClose() <-chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (c *amqpConnection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdown || c.conn.IsClosed()
}

// amqpChannel adapts the two methods whose signatures differ from Channel.
type amqpChannel struct {
	*amqp.Channel
}

func (ch *amqpChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (Queue, error) {
	q, err := ch.Channel.QueueDeclare(name, durable, autoDelete, exclusive, noWait, args)
	if err != nil {
		return Queue{}, err
	}
	return Queue{Name: q.Name, Messages: q.Messages, Consumers: q.Consumers}, nil
}

func (ch *amqpChannel) NotifyClose() <-chan *amqp.Error {
	return ch.Channel.NotifyClose(make(chan *amqp.Error, 1))
}
