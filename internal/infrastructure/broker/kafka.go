package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/garment-ledger/internal/application/dto"
	"github.com/jhoicas/garment-ledger/internal/application/inventory"
	"github.com/jhoicas/garment-ledger/pkg/logger"
)

var (
	_ inventory.LowStockPublisher = (*KafkaPublisher)(nil)
	_ inventory.LowStockPublisher = (*LogPublisher)(nil)
)

// messageWriter es el subconjunto de *kafka.Writer usado por el publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos de stock bajo en un tópico Kafka.
// La clave del mensaje es "<kind>:<id>" para conservar el orden por ítem dentro de la partición.
type KafkaPublisher struct {
	writer messageWriter
	log    *logger.Logger
}

// NewKafkaPublisher crea el writer con los mismos parámetros de entrega para todos los eventos.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return newKafkaPublisher(writer, log)
}

func newKafkaPublisher(w messageWriter, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, log: log}
}

// PublishLowStock serializa el evento y lo escribe en Kafka.
func (p *KafkaPublisher) PublishLowStock(ctx context.Context, event dto.LowStockEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal low stock event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.EntityKind + ":" + strconv.FormatInt(event.EntityID, 10)),
		Value: payload,
		Time:  event.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write low stock event: %w", err)
	}
	p.log.Debug().Str("key", string(msg.Key)).Msg("evento de stock bajo publicado")
	return nil
}

// Close cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher solo registra el evento; se usa cuando no hay brokers configurados.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher crea el publisher de respaldo.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishLowStock(_ context.Context, event dto.LowStockEvent) error {
	p.log.Warn().
		Str("entity_kind", event.EntityKind).
		Int64("entity_id", event.EntityID).
		Str("item", event.ItemName).
		Str("quantity", event.Quantity.String()).
		Str("threshold", event.Threshold.String()).
		Msg("stock bajo")
	return nil
}
