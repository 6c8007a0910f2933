package rabbitmq_consumer

import (
	"context"
	"fmt"
	"sync"

	"leboncoin-parser-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler обрабатывает одно сообщение. Ошибка приводит к Nack
// без повторной постановки в очередь.
type MessageHandler func(d amqp.Delivery) error

// ConsumerConfig конфигурация для потребителя
type ConsumerConfig struct {
	rabbitmq_common.Config
	// Настройки очереди
	QueueName       string
	DeclareQueue    bool // Пытаться ли объявить очередь
	DurableQueue    bool
	ExclusiveQueue  bool
	AutoDeleteQueue bool
	QueueArgs       amqp.Table
	// Настройки обменника (если нужно объявлять или привязываться к нему)
	ExchangeNameForBind    string // Если пусто, привязка не выполняется
	DeclareExchangeForBind bool
	ExchangeTypeForBind    string
	DurableExchangeForBind bool
	// Настройки привязки
	RoutingKeyForBind string
	// Настройки QoS
	PrefetchCount int // 0 или меньше - без ограничений
	// Настройки потребителя
	ConsumerTag string // Если пустой, генерируется RabbitMQ

	Logger rabbitmq_common.Logger
}

// Consumer последовательно обрабатывает сообщения одной очереди.
type Consumer struct {
	config          ConsumerConfig
	connection      *amqp.Connection
	channel         *amqp.Channel
	actualQueueName string // Имя может быть сгенерировано сервером
	wg              sync.WaitGroup

	Logger rabbitmq_common.Logger
}

// NewConsumer создает потребителя: получает канал от менеджера и
// настраивает очередь, обменник и привязку.
func NewConsumer(cfg ConsumerConfig, connManager *rabbitmq_common.ConnectionManager) (*Consumer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("consumer: invalid base config: %w", err)
	}
	if !cfg.DeclareQueue && cfg.QueueName == "" {
		return nil, fmt.Errorf("consumer: queue name is required if DeclareQueue is false")
	}
	if cfg.ExchangeNameForBind != "" && cfg.ExchangeTypeForBind == "" && cfg.DeclareExchangeForBind {
		return nil, fmt.Errorf("consumer: exchange type is required if declaring an exchange for binding")
	}

	c := &Consumer{
		config: cfg,
		Logger: logger,
	}

	conn, ch, err := connManager.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("consumer: failed to get channel from manager: %w", err)
	}
	c.connection = conn
	c.channel = ch
	c.Logger.Debug("Channel obtained from ConnectionManager")

	if err := c.setup(); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consumer: setup failed: %w", err)
	}

	return c, nil
}

// setup настраивает QoS, очередь, обменник и привязку.
func (c *Consumer) setup() error {
	if c.config.PrefetchCount > 0 {
		if err := c.channel.Qos(c.config.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	c.actualQueueName = c.config.QueueName
	if c.config.DeclareQueue {
		q, err := c.channel.QueueDeclare(
			c.config.QueueName,
			c.config.DurableQueue,
			c.config.AutoDeleteQueue,
			c.config.ExclusiveQueue,
			false, // no-wait
			c.config.QueueArgs,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue '%s': %w", c.config.QueueName, err)
		}
		c.actualQueueName = q.Name
		c.Logger.Debug("Queue declared", "name", q.Name)
	}

	if c.config.ExchangeNameForBind != "" {
		if c.config.DeclareExchangeForBind {
			err := c.channel.ExchangeDeclare(
				c.config.ExchangeNameForBind,
				c.config.ExchangeTypeForBind,
				c.config.DurableExchangeForBind,
				false, // auto-delete
				false, // internal
				false, // no-wait
				nil,
			)
			if err != nil {
				return fmt.Errorf("failed to declare exchange '%s': %w", c.config.ExchangeNameForBind, err)
			}
		}

		err := c.channel.QueueBind(
			c.actualQueueName,
			c.config.RoutingKeyForBind,
			c.config.ExchangeNameForBind,
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w",
				c.actualQueueName, c.config.ExchangeNameForBind, err)
		}
		c.Logger.Debug("Queue bound to exchange",
			"queue", c.actualQueueName,
			"exchange", c.config.ExchangeNameForBind,
			"routing_key", c.config.RoutingKeyForBind,
		)
	}

	return nil
}

// StartConsuming блокируется до отмены контекста или закрытия канала,
// обрабатывая сообщения по одному.
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	deliveries, err := c.channel.Consume(
		c.actualQueueName,
		c.config.ConsumerTag,
		false, // auto-ack выключен: подтверждаем только после обработки
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consumer: failed to start consuming from '%s': %w", c.actualQueueName, err)
	}

	c.Logger.Info("Started consuming", "queue", c.actualQueueName)

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Context cancelled, stopping consumer", "queue", c.actualQueueName)
			c.wg.Wait()
			return nil
		case d, ok := <-deliveries:
			if !ok {
				c.Logger.Warn("Delivery channel closed", "queue", c.actualQueueName)
				c.wg.Wait()
				return fmt.Errorf("consumer: delivery channel for '%s' closed", c.actualQueueName)
			}

			c.wg.Add(1)
			err := handler(d)
			c.wg.Done()

			if err != nil {
				c.Logger.Error(err, "Message handling failed", "queue", c.actualQueueName)
				if nackErr := d.Nack(false, false); nackErr != nil {
					c.Logger.Error(nackErr, "Failed to nack message")
				}
				continue
			}

			if ackErr := d.Ack(false); ackErr != nil {
				c.Logger.Error(ackErr, "Failed to ack message")
			}
		}
	}
}

// Close закрывает канал потребителя
func (c *Consumer) Close() error {
	c.Logger.Debug("Consumer: Closing...")
	c.wg.Wait()

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.Logger.Error(err, "Error closing channel")
			return err
		}
		c.channel = nil
	}
	c.Logger.Info("Consumer closed.")
	return nil
}
