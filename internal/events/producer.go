package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/order"
)

const DefaultOrdersTopic = "order.placed"

type OrderPlacedItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderPlacedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	UserID      uuid.UUID         `json:"user_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Items       []OrderPlacedItem `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
	EventTime   time.Time         `json:"event_time"`
}

func NewOrderPlacedEvent(o *order.Order) OrderPlacedEvent {
	items := make([]OrderPlacedItem, 0, len(o.OrderItems))
	for _, it := range o.OrderItems {
		items = append(items, OrderPlacedItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return OrderPlacedEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Items:       items,
		CreatedAt:   o.CreatedAt,
		EventTime:   time.Now().UTC(),
	}
}

// NewSyncProducer dials the brokers with acks from all in-sync replicas.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

// KafkaPublisher implements order.Publisher on top of a sarama SyncProducer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultOrdersTopic
	}
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(NewOrderPlacedEvent(o))
	if err != nil {
		return fmt.Errorf("failed to marshal order placed event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(o.ID.String()),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send order placed event: %w", err)
	}

	log.Info().
		Str("topic", p.topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Stringer("order_id", o.ID).
		Msg("Event published to Kafka")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Discard drops every event. Used when no brokers are configured.
type Discard struct{}

func (Discard) OrderPlaced(ctx context.Context, o *order.Order) error {
	log.Debug().Stringer("order_id", o.ID).Msg("No event broker configured, order placed event dropped")
	return nil
}
