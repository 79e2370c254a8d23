package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"

	"github.com/nkoryagin/atelier-orders/internal/config"
	"github.com/nkoryagin/atelier-orders/internal/lib/logger"
	"github.com/nkoryagin/atelier-orders/pkg/rabbitmq"
)

// Воркер уведомлений: слушает очередь событий смены статуса и логирует их.
// Рассылка писем/пушей по этим событиям подключается здесь же, не трогая
// транзакцию перехода в основном сервисе.
func main() {
	cfg := config.MustLoad()
	log := logger.SetupLogger(cfg.Env)

	if cfg.RabbitMQ.URL == "" {
		log.Error("RABBITMQ_URL is required for the worker")
		os.Exit(1)
	}

	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL})
	if err != nil {
		log.Error("failed to initialize RabbitMQ client", slog.Any("error", err))
		os.Exit(1)
	}
	defer mqClient.Close()

	log.Info("starting status event worker")
	err = mqClient.ConsumeStatusEvents(func(msg amqp.Delivery) error {
		var event rabbitmq.StatusChangedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Error("failed to decode status event", slog.Any("error", err))
			// битое сообщение подтверждаем, повторная доставка не поможет
			return nil
		}
		log.Info("order status changed",
			slog.String("eventID", event.EventID),
			slog.Int64("orderID", event.OrderID),
			slog.String("orderType", string(event.OrderType)),
			slog.String("from", event.PreviousStatus),
			slog.String("to", event.NewStatus),
			slog.String("actorRole", string(event.ActorRole)),
		)
		return nil
	})
	if err != nil {
		log.Error("failed to start consumer", slog.Any("error", err))
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("worker stopped")
}
