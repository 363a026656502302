package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// RecordMovementFromRequest adapta el request HTTP al motor RecordMovement(ctx, MovementInput).
func (uc *RegisterMovementUseCase) RecordMovementFromRequest(ctx context.Context, userID string, in dto.RecordMovementRequest) (*entity.Movement, error) {
	return uc.RecordMovement(ctx, MovementInput{
		ProductID:     in.ProductID,
		OriginID:      in.OriginID,
		DestinationID: in.DestinationID,
		Quantity:      in.Quantity,
		DocumentKind:  in.DocumentKind,
		DocumentID:    in.DocumentID,
		Notes:         in.Notes,
		UserID:        userID,
	})
}

// TransferFromRequest adapta dto.TransferRequest.
func (uc *TransferUseCase) TransferFromRequest(ctx context.Context, userID string, in dto.TransferRequest) (*TransferResult, error) {
	return uc.Transfer(ctx, TransferInput{
		ProductID:     in.ProductID,
		OriginID:      in.OriginID,
		DestinationID: in.DestinationID,
		Quantity:      in.Quantity,
		Notes:         in.Notes,
		UserID:        userID,
	})
}

// AdjustFromRequest adapta dto.AdjustmentRequest.
func (uc *AdjustmentUseCase) AdjustFromRequest(ctx context.Context, userID string, in dto.AdjustmentRequest) (*entity.Movement, error) {
	return uc.Adjust(ctx, AdjustInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Direction:   in.Direction,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		UserID:      userID,
	})
}
