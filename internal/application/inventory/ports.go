package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Repositories agrupa los repositorios del núcleo de inventario.
// Dentro de TxRunner.Run todos comparten la misma transacción.
type Repositories struct {
	Movements  repository.MovementRepository
	Stock      repository.StockLevelRepository
	Products   repository.ProductRepository
	Warehouses repository.WarehouseRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error (o ctx se cancela antes del commit) se hace Rollback y no queda ningún cambio.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}

// EventPublisher publica notificaciones de movimientos ya confirmados.
type EventPublisher interface {
	PublishMovementRecorded(ctx context.Context, event MovementRecordedEvent) error
}

// StockSheetLine renglón de la hoja de conteo físico de una bodega.
type StockSheetLine struct {
	Level   *entity.StockLevel
	Product *entity.Product
}

// StockSheetGenerator genera la hoja de conteo (PDF) del stock de una bodega.
type StockSheetGenerator interface {
	GenerateStockSheet(ctx context.Context, warehouse *entity.Warehouse, lines []StockSheetLine) ([]byte, error)
}
