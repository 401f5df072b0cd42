package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shazamohamed705/amazing/internal/domain"
	pkgkafka "github.com/shazamohamed705/amazing/pkg/kafka"
)

// Kafka topics for cart activity events.
const (
	TopicCartUpdated = "storefront.cart.updated"
	TopicCartCleared = "storefront.cart.cleared"
)

const (
	aggregateTypeCart = "cart"
	sourceStorefront  = "storefront"
)

// CartUpdatedData is the payload of a cart.updated event. Totals are the
// derived values at publish time.
type CartUpdatedData struct {
	Items      []domain.CartItem `json:"items"`
	TotalItems int               `json:"total_items"`
	TotalPrice float64           `json:"total_price"`
}

// CartClearedData is the payload of a cart.cleared event.
type CartClearedData struct {
	DeviceID string `json:"device_id"`
}

// Producer publishes cart activity events.
type Producer struct {
	kafka    *pkgkafka.Producer
	deviceID string
	logger   *slog.Logger
}

// NewProducer creates an event producer for this device's cart. The device
// id keys the event stream so one device's activity stays ordered.
func NewProducer(kafka *pkgkafka.Producer, deviceID string, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:    kafka,
		deviceID: deviceID,
		logger:   logger,
	}
}

// PublishCartUpdated publishes a cart.updated event with the current view.
func (p *Producer) PublishCartUpdated(ctx context.Context, view domain.View) error {
	data := CartUpdatedData{
		Items:      view.Items,
		TotalItems: view.TotalItems,
		TotalPrice: view.TotalPrice,
	}

	ev, err := pkgkafka.NewEvent(TopicCartUpdated, p.deviceID, aggregateTypeCart, sourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, ev); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.Int("total_items", view.TotalItems),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context) error {
	ev, err := pkgkafka.NewEvent(TopicCartCleared, p.deviceID, aggregateTypeCart, sourceStorefront, CartClearedData{DeviceID: p.deviceID})
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, ev); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event")

	return nil
}
