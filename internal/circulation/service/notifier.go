package service

import (
	"context"
	"time"

	kafkautil "circdesk/pkg/kafka"
	"circdesk/pkg/logger"
	"circdesk/pkg/model"
)

const (
	EventTypeHoldPromoted = "circulation.hold.promoted"
	EventTypeItemLost     = "circulation.item.lost"

	eventSchemaVersion = "1"
	eventSource        = "circulationd"
)

// HoldPromotedEvent tells the notification pipeline that an item is waiting
// at the desk for the named patron. Contact fields are denormalized so the
// consumer never has to call back into this service.
type HoldPromotedEvent struct {
	ItemID        string    `json:"item_id"`
	Barcode       string    `json:"barcode"`
	Title         string    `json:"title"`
	ShelfLocation string    `json:"shelf_location"`
	PatronID      string    `json:"patron_id"`
	PatronName    string    `json:"patron_name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	PickupToken   string    `json:"pickup_token,omitempty"`
	HoldExpiresAt time.Time `json:"hold_expires_at"`
}

// ItemLostEvent records an item written off as lost and the replacement
// charge assessed to the borrower, if any.
type ItemLostEvent struct {
	ItemID           string      `json:"item_id"`
	Barcode          string      `json:"barcode"`
	Title            string      `json:"title"`
	PatronID         string      `json:"patron_id,omitempty"`
	ReplacementCents model.Cents `json:"replacement_cents"`
	Actor            string      `json:"actor"`
}

// Notifier publishes circulation events after the owning transaction has
// committed. Publish failures must not fail the desk operation.
type Notifier interface {
	HoldPromoted(ctx context.Context, event *HoldPromotedEvent) error
	ItemLost(ctx context.Context, event *ItemLostEvent) error
}

type kafkaNotifier struct {
	producer *kafkautil.Producer
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafkautil.Producer, log *logger.Logger) Notifier {
	return &kafkaNotifier{
		producer: producer,
		log:      log,
	}
}

func (n *kafkaNotifier) HoldPromoted(ctx context.Context, event *HoldPromotedEvent) error {
	msg := kafkautil.NewMessage().
		WithKey(event.ItemID).
		WithValue(event).
		WithEventType(EventTypeHoldPromoted).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		Build()
	return n.producer.Publish(ctx, msg)
}

func (n *kafkaNotifier) ItemLost(ctx context.Context, event *ItemLostEvent) error {
	msg := kafkautil.NewMessage().
		WithKey(event.ItemID).
		WithValue(event).
		WithEventType(EventTypeItemLost).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		Build()
	return n.producer.Publish(ctx, msg)
}

// noopNotifier is used when Kafka is disabled; events are logged and dropped.
type noopNotifier struct {
	log *logger.Logger
}

func NewNoopNotifier(log *logger.Logger) Notifier {
	return &noopNotifier{log: log}
}

func (n *noopNotifier) HoldPromoted(_ context.Context, event *HoldPromotedEvent) error {
	n.log.Debug("Hold promotion notification skipped, messaging disabled",
		"item_id", event.ItemID,
		"patron_id", event.PatronID,
	)
	return nil
}

func (n *noopNotifier) ItemLost(_ context.Context, event *ItemLostEvent) error {
	n.log.Debug("Item lost notification skipped, messaging disabled",
		"item_id", event.ItemID,
	)
	return nil
}
