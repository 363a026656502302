package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Direcciones de un ajuste manual.
const (
	AdjustEntry = "ENTRY"
	AdjustExit  = "EXIT"
)

// AdjustInput entrada para un ajuste de inventario (corrección manual).
type AdjustInput struct {
	ProductID   string
	WarehouseID string
	Direction   string // ENTRY | EXIT
	Quantity    decimal.Decimal
	Reason      string
	UserID      string
}

// AdjustmentUseCase traduce un ajuste a una sola llamada al motor de movimientos.
type AdjustmentUseCase struct {
	engine *RegisterMovementUseCase
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(engine *RegisterMovementUseCase) *AdjustmentUseCase {
	return &AdjustmentUseCase{engine: engine}
}

// Adjust registra una entrada (solo destino) o salida (solo origen) con tipo de documento ADJUSTMENT.
// La suficiencia de stock en salidas la verifica el motor con la fila bloqueada.
func (uc *AdjustmentUseCase) Adjust(ctx context.Context, input AdjustInput) (*entity.Movement, error) {
	if input.WarehouseID == "" {
		return nil, fmt.Errorf("%w: warehouse_id es requerido", domain.ErrInvalidInput)
	}
	mov := MovementInput{
		ProductID:    input.ProductID,
		Quantity:     input.Quantity,
		DocumentKind: entity.DocumentKindAdjustment,
		Notes:        input.Reason,
		UserID:       input.UserID,
	}
	switch strings.ToUpper(input.Direction) {
	case AdjustEntry:
		mov.DestinationID = input.WarehouseID
	case AdjustExit:
		mov.OriginID = input.WarehouseID
	default:
		return nil, fmt.Errorf("%w: tipo de ajuste debe ser ENTRY o EXIT", domain.ErrInvalidInput)
	}
	return uc.engine.RecordMovement(ctx, mov)
}
