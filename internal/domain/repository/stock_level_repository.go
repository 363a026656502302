package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockFilter filtros para el listado paginado de niveles de stock.
type StockFilter struct {
	ProductID   string
	WarehouseID string
	Limit       int
	Offset      int
}

// StockLevelRepository define el puerto del índice de stock por producto+bodega.
// Las escrituras solo ocurren dentro de la transacción que agrega el movimiento.
type StockLevelRepository interface {
	// Get devuelve el nivel actual; un par sin fila se reporta con cantidad cero.
	Get(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error)
	// GetForUpdate crea la fila en cero si no existe y la bloquea hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error)
	Upsert(ctx context.Context, level *entity.StockLevel) error
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error)
	// ListByWarehouse ordenado por cantidad descendente.
	ListByWarehouse(ctx context.Context, warehouseID string, onlyPositive bool) ([]*entity.StockLevel, error)
	List(ctx context.Context, filter StockFilter) ([]*entity.StockLevel, int, error)
	CountByWarehouse(ctx context.Context, warehouseID string) (int, error)
}
