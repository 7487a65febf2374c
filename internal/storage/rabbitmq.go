package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"interview-assistant/internal/config"
	"interview-assistant/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher publishes raw messages to an exchange.
type Publisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

// MessageQueue is the broker surface used by the service.
type MessageQueue interface {
	Publisher
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
	EnsureExchange(exchangeName, exchangeType string, durable bool) error
	EnsureQueue(queueName string, durable bool) error
	BindQueue(queueName, exchangeName, routingKey string) error
	Close() error
}

var _ MessageQueue = (*RabbitMQ)(nil)

// RabbitMQ keeps one connection and a pool of channels.
type RabbitMQ struct {
	conn        *amqp.Connection
	channelPool sync.Pool

	mu          sync.Mutex
	exchangeMap map[string]bool
	queueMap    map[string]bool
	bindingMap  map[string]bool // "exchange:queue:routingKey"

	publishMutex sync.Mutex
	cfg          *config.RabbitMQConfig
	log          zerolog.Logger
}

func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("rabbitmq config is nil")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	mq := &RabbitMQ{
		conn:        conn,
		exchangeMap: make(map[string]bool),
		queueMap:    make(map[string]bool),
		bindingMap:  make(map[string]bool),
		cfg:         cfg,
		log:         logger.Component("rabbitmq"),
	}
	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, err := conn.Channel()
			if err != nil {
				mq.log.Error().Err(err).Msg("open channel")
				return nil
			}
			return ch
		},
	}

	testCh := mq.getChannel()
	if testCh == nil {
		conn.Close()
		return nil, fmt.Errorf("cannot open rabbitmq channel")
	}
	mq.putChannel(testCh)

	mq.log.Info().Msg("connected to RabbitMQ")
	return mq, nil
}

func (r *RabbitMQ) getChannel() *amqp.Channel {
	if v := r.channelPool.Get(); v != nil {
		if ch, ok := v.(*amqp.Channel); ok && !ch.IsClosed() {
			return ch
		}
	}
	ch, err := r.conn.Channel()
	if err != nil {
		r.log.Error().Err(err).Msg("open channel")
		return nil
	}
	return ch
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil && !ch.IsClosed() {
		r.channelPool.Put(ch)
	}
}

func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// EnsureExchange declares the exchange once per process.
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	if exchangeName == "" || exchangeName == "amq.default" || exchangeName == "default" {
		return fmt.Errorf("invalid exchange name %q", exchangeName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exchangeMap[exchangeName] {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("cannot open rabbitmq channel")
	}
	defer r.putChannel(ch)

	if err := ch.ExchangeDeclare(exchangeName, exchangeType, durable, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchangeName, err)
	}
	r.exchangeMap[exchangeName] = true
	r.log.Info().Str("exchange", exchangeName).Str("type", exchangeType).Msg("exchange declared")
	return nil
}

func (r *RabbitMQ) EnsureQueue(queueName string, durable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queueMap[queueName] {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("cannot open rabbitmq channel")
	}
	defer r.putChannel(ch)

	if _, err := ch.QueueDeclare(queueName, durable, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	r.queueMap[queueName] = true
	r.log.Info().Str("queue", queueName).Msg("queue declared")
	return nil
}

func (r *RabbitMQ) BindQueue(queueName, exchangeName, routingKey string) error {
	key := exchangeName + ":" + queueName + ":" + routingKey
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bindingMap[key] {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("cannot open rabbitmq channel")
	}
	defer r.putChannel(ch)

	if err := ch.QueueBind(queueName, routingKey, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", queueName, exchangeName, err)
	}
	r.bindingMap[key] = true
	return nil
}

func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("cannot open rabbitmq channel")
	}
	defer r.putChannel(ch)

	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}
	return ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		DeliveryMode: mode,
		ContentType:  "application/json",
		Body:         message,
		Timestamp:    time.Now(),
	})
}

func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return r.PublishMessage(ctx, exchangeName, routingKey, body, persistent)
}

// StartConsumer runs handler on workers goroutines until ctx is cancelled.
// A false return from handler nacks the delivery with requeue.
func (r *RabbitMQ) StartConsumer(ctx context.Context, queueName string, prefetchCount, workers int, handler func(context.Context, []byte) bool) error {
	if workers < 1 {
		workers = 1
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("consume %s: %w", queueName, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					if handler(ctx, d.Body) {
						if err := d.Ack(false); err != nil {
							r.log.Error().Err(err).Msg("ack failed")
						}
					} else if err := d.Nack(false, true); err != nil {
						r.log.Error().Err(err).Msg("nack failed")
					}
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		ch.Close()
		r.log.Info().Str("queue", queueName).Msg("consumer stopped")
	}()

	r.log.Info().Str("queue", queueName).Int("prefetch", prefetchCount).Int("workers", workers).Msg("consumer started")
	return nil
}
