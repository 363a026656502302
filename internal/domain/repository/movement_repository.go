package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementFilter filtros para el listado paginado del libro de movimientos.
type MovementFilter struct {
	ProductID     string
	OriginID      string
	DestinationID string
	DocumentKind  string
	DocumentID    string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// MovementRepository define el puerto de persistencia del libro de movimientos (solo inserción).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// ListByProduct movimientos del producto, más recientes primero.
	ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, int, error)
	CountByWarehouse(ctx context.Context, warehouseID string) (int, error)
	// NetQuantity suma con signo de los movimientos que tocan el par (destino +, origen -).
	NetQuantity(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error)
}
