package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	circservice "circdesk/internal/circulation/service"
	"circdesk/pkg/config"
	kafkautil "circdesk/pkg/kafka"
	kafka_config "circdesk/pkg/kafka/config"
	kafkamiddleware "circdesk/pkg/kafka/middleware"
	"circdesk/pkg/locale"
	"circdesk/pkg/logger"
)

const ServiceName = "notifier"

// The notifier drains circulation events and delivers patron-facing
// notices. Delivery is currently structured logging; a mail or SMS
// gateway plugs in behind handleMessage without touching the consumer.
func main() {
	cfg := config.Load(ServiceName)
	log := cfg.Log

	kafkaCfg := kafka_config.Load()
	consumer, err := kafkautil.NewConsumer(
		kafkaCfg,
		cfg.NotificationsTopic,
		cfg.NotificationsGroupID,
		cfg.NotificationsDLQTopic,
		handleMessage(log),
	)
	if err != nil {
		log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware())
		consumer.Use(kafkamiddleware.MetricsConsumerMiddleware())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Notifier consuming",
		"topic", cfg.NotificationsTopic,
		"group_id", cfg.NotificationsGroupID)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Consumer stopped with error", "error", err)
		consumer.Close()
		os.Exit(1)
	}

	if err := consumer.Close(); err != nil {
		log.Error("Failed to close consumer cleanly", "error", err)
	}
	log.Info("Notifier shut down")
}

func handleMessage(log *logger.Logger) kafkautil.MessageHandler {
	return func(ctx context.Context, msg kafkautil.Message) error {
		eventType := msg.Headers[kafkautil.HeaderEventType]
		switch eventType {
		case circservice.EventTypeHoldPromoted:
			return deliverHoldNotice(log, msg)
		case circservice.EventTypeItemLost:
			return deliverLostNotice(log, msg)
		default:
			log.Warn("Skipping unknown event type",
				"event_type", eventType,
				"offset", msg.Offset)
			return nil
		}
	}
}

func deliverHoldNotice(log *logger.Logger, msg kafkautil.Message) error {
	var event circservice.HoldPromotedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}

	// Render the pickup deadline in the patron's local time when the phone
	// number gives us a timezone to work with.
	expiresAt := event.HoldExpiresAt
	tz := locale.InferTimezoneFromPhone(event.Phone)
	if loc, err := time.LoadLocation(tz); err == nil {
		expiresAt = expiresAt.In(loc)
	}

	log.Info("Hold ready for pickup",
		"item_id", event.ItemID,
		"barcode", event.Barcode,
		"title", event.Title,
		"shelf_location", event.ShelfLocation,
		"patron_id", event.PatronID,
		"patron_name", event.PatronName,
		"email", event.Email,
		"phone", event.Phone,
		"pickup_token", event.PickupToken,
		"hold_expires_at", expiresAt.Format(time.RFC1123))
	return nil
}

func deliverLostNotice(log *logger.Logger, msg kafkautil.Message) error {
	var event circservice.ItemLostEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}

	log.Info("Item declared lost",
		"item_id", event.ItemID,
		"barcode", event.Barcode,
		"title", event.Title,
		"patron_id", event.PatronID,
		"replacement_cents", event.ReplacementCents,
		"actor", event.Actor)
	return nil
}
