package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// TransferInput entrada para trasladar stock entre dos bodegas.
type TransferInput struct {
	ProductID     string
	OriginID      string
	DestinationID string
	Quantity      decimal.Decimal
	Notes         string
	UserID        string
}

// TransferResult par de movimientos generado por un traslado.
type TransferResult struct {
	Exit  *entity.Movement
	Entry *entity.Movement
}

// TransferUseCase compone un traslado como salida en origen + entrada en destino.
// Ambos tramos se confirman en la misma transacción: no existe estado "en tránsito" observable.
type TransferUseCase struct {
	engine *RegisterMovementUseCase
}

// NewTransferUseCase construye el caso de uso sobre el motor de movimientos.
func NewTransferUseCase(engine *RegisterMovementUseCase) *TransferUseCase {
	return &TransferUseCase{engine: engine}
}

// Transfer registra la salida (TRANSFER) y la entrada (TRANSFER, DocumentID = ID de la salida).
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.OriginID == "" || input.DestinationID == "" {
		return nil, fmt.Errorf("%w: una transferencia requiere bodega de origen y destino", domain.ErrInvalidState)
	}
	if input.OriginID == input.DestinationID {
		return nil, fmt.Errorf("%w: la bodega de origen y destino no pueden ser la misma", domain.ErrInvalidState)
	}

	e := uc.engine
	ctx, span := e.tracer.Start(ctx, "inventory.Transfer", trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.String("transfer.origin_id", input.OriginID),
		attribute.String("transfer.destination_id", input.DestinationID),
		attribute.String("transfer.quantity", input.Quantity.String()),
	))
	defer span.End()

	exitIn := MovementInput{
		ProductID:    input.ProductID,
		OriginID:     input.OriginID,
		Quantity:     input.Quantity,
		DocumentKind: entity.DocumentKindTransfer,
		Notes:        input.Notes,
		UserID:       input.UserID,
	}
	entryIn := MovementInput{
		ProductID:     input.ProductID,
		DestinationID: input.DestinationID,
		Quantity:      input.Quantity,
		DocumentKind:  entity.DocumentKindTransfer,
		Notes:         input.Notes,
		UserID:        input.UserID,
	}

	var out TransferResult
	err := e.txRunner.Run(ctx, func(repos Repositories) error {
		exitRoute, err := e.prepare(ctx, repos, exitIn)
		if err != nil {
			return err
		}
		entryRoute, err := e.prepare(ctx, repos, entryIn)
		if err != nil {
			return err
		}
		// Ambas filas se bloquean antes de tocar cualquiera, en orden de bodega.
		if _, err := lockLevels(ctx, repos, input.ProductID, input.OriginID, input.DestinationID); err != nil {
			return err
		}
		now := e.now()
		out.Exit, err = e.apply(ctx, repos, exitIn, exitRoute, now)
		if err != nil {
			return err
		}
		entryIn.DocumentID = out.Exit.ID
		out.Entry, err = e.apply(ctx, repos, entryIn, entryRoute, now)
		return err
	})
	if err != nil {
		return nil, e.fail(span, "registrar transferencia", err)
	}
	span.SetStatus(codes.Ok, "")
	e.committed(ctx, out.Exit)
	e.committed(ctx, out.Entry)
	return &out, nil
}
