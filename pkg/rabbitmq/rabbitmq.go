// Package rabbitmq — клиент RabbitMQ для событий смены статуса заказа.
// Потребители очереди (уведомления, синхронизация витрины) живут вне этого
// сервиса; публикация не входит в транзакцию перехода и не влияет на ее исход.
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/nkoryagin/atelier-orders/internal/domain/models"
)

const statusQueue = "order_status_events"

// Client держит соединение и канал RabbitMQ.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config — параметры подключения к RabbitMQ.
type Config struct {
	URL string
}

// StatusChangedEvent — событие перехода заказа в новый статус
type StatusChangedEvent struct {
	EventID        string           `json:"event_id"`
	OrderID        int64            `json:"order_id"`
	OrderType      models.OrderType `json:"order_type"`
	PreviousStatus string           `json:"previous_status"`
	NewStatus      string           `json:"new_status"`
	ActorRole      models.Role      `json:"actor_role"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

// NewClient подключается к RabbitMQ и заранее объявляет очередь событий.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		statusQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s queue: %w", statusQueue, err)
	}

	return &Client{conn: conn, channel: ch}, nil
}

// Close закрывает канал и соединение.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishStatusChanged публикует событие смены статуса в очередь событий.
func (c *Client) PublishStatusChanged(event StatusChangedEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	err = c.channel.Publish(
		"",          // exchange по умолчанию
		statusQueue, // routing key — имя очереди
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish status event: %w", err)
	}
	return nil
}

// ConsumeStatusEvents запускает обработку очереди событий в отдельной горутине.
// Обработчик подтверждает сообщение при nil-ошибке, иначе сообщение
// возвращается в очередь.
func (c *Client) ConsumeStatusEvents(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		statusQueue,
		"",    // consumer tag
		false, // auto-ack выключен, подтверждаем вручную
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := handler(msg); err != nil {
				if nackErr := msg.Nack(false, true); nackErr != nil {
					continue
				}
			} else {
				_ = msg.Ack(false)
			}
		}
	}()

	return nil
}
