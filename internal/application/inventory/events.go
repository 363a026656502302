package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementRecordedEvent notificación emitida después del commit de un movimiento.
type MovementRecordedEvent struct {
	MovementID    string          `json:"movement_id"`
	ProductID     string          `json:"product_id"`
	Kind          string          `json:"kind"`
	OriginID      string          `json:"origin_id,omitempty"`
	DestinationID string          `json:"destination_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	DocumentKind  string          `json:"document_kind,omitempty"`
	DocumentID    string          `json:"document_id,omitempty"`
	MovedAt       time.Time       `json:"moved_at"`
}

// NewMovementRecordedEvent construye el evento a partir del movimiento persistido.
func NewMovementRecordedEvent(m *entity.Movement) MovementRecordedEvent {
	return MovementRecordedEvent{
		MovementID:    m.ID,
		ProductID:     m.ProductID,
		Kind:          string(m.Kind()),
		OriginID:      m.OriginID(),
		DestinationID: m.DestinationID(),
		Quantity:      m.Quantity,
		DocumentKind:  m.DocumentKind,
		DocumentID:    m.DocumentID,
		MovedAt:       m.MovedAt,
	}
}

// NoopPublisher descarta los eventos (sin broker configurado).
type NoopPublisher struct{}

func (NoopPublisher) PublishMovementRecorded(context.Context, MovementRecordedEvent) error { return nil }
