// Package messaging publica los eventos de movimientos confirmados en Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

// EventMovementRecorded valor del header event_type.
const EventMovementRecorded = "inventory.movement_recorded"

var _ inventory.EventPublisher = (*KafkaPublisher)(nil)

// MessageProducer lo que el publicador necesita del writer (instrumentado o no).
type MessageProducer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher serializa MovementRecordedEvent a JSON con clave = producto,
// de modo que los eventos de un mismo producto conservan el orden en la partición.
type KafkaPublisher struct {
	producer MessageProducer
	topic    string
}

// NewKafkaPublisher construye el writer de kafka-go envuelto con trazas (contexto W3C en headers).
func NewKafkaPublisher(cfg config.KafkaConfig, serviceName string, tp trace.TracerProvider) (*KafkaPublisher, error) {
	base := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              1,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		WriteTimeout:           cfg.PublishTimeout(),
		AllowAutoTopicCreation: true,
	}
	writer, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes([]attribute.KeyValue{
			semconv.MessagingDestinationNameKey.String(cfg.Topic),
			attribute.String("messaging.kafka.client_id", serviceName),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("crear writer kafka: %w", err)
	}
	return NewKafkaPublisherWithProducer(writer, cfg.Topic), nil
}

// NewKafkaPublisherWithProducer usa un producer ya construido.
func NewKafkaPublisherWithProducer(producer MessageProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// PublishMovementRecorded escribe el evento.
func (p *KafkaPublisher) PublishMovementRecorded(ctx context.Context, event inventory.MovementRecordedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.ProductID),
		Value: payload,
		Time:  event.MovedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventMovementRecorded)},
			{Key: "movement_id", Value: []byte(event.MovementID)},
		},
	}
	if err := p.producer.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("publicar %s en %s: %w", event.MovementID, p.topic, err)
	}
	return nil
}

// Close cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
