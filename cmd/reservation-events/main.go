package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roombook/internal/reservations/events"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
	"roombook/pkg/logger"
)

const ServiceName = "reservation-events"

const metricsInterval = time.Minute

// handleEvent is the audit sink: every domain event becomes one structured
// log line.
func handleEvent(log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := events.Decode(msg)
		if err != nil {
			return err
		}

		args := []any{
			"event_id", event.ID,
			"type", event.Type,
			"room_id", event.RoomID,
			"actor_id", event.ActorID,
			"occurred_at", event.OccurredAt,
			"correlation_id", msg.GetCorrelationID(),
		}
		if event.Reservation != nil {
			args = append(args,
				"reservation_id", event.Reservation.ID,
				"owner_id", event.Reservation.OwnerID,
				"start_time", event.Reservation.StartTime,
				"end_time", event.Reservation.EndTime,
			)
		}
		if event.Room != nil {
			args = append(args, "room_name", event.Room.Name)
		}
		log.Info("Reservation event", args...)
		return nil
	}
}

func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.KafkaEventsTopic, handleEvent(cfg.Log), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	consumer.Use(metrics.ConsumerMiddleware())
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(metricsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.Log(cfg.Log)
			}
		}
	}()

	cfg.Log.Info("Consuming reservation events", "topic", cfg.KafkaEventsTopic, "group", kafkaCfg.ConsumerGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	metrics.Log(cfg.Log)
	cfg.Log.Info("Reservation events consumer stopped")
}
