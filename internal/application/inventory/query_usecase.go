package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Límites del historial de movimientos por producto.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// StockQueryUseCase consultas de solo lectura sobre el índice de stock y el libro de movimientos.
type StockQueryUseCase struct {
	repos Repositories
	sheet StockSheetGenerator
}

// NewStockQueryUseCase construye el caso de uso con repositorios no transaccionales (pool).
// sheet puede ser nil si no se exporta la hoja de conteo.
func NewStockQueryUseCase(repos Repositories, sheet StockSheetGenerator) *StockQueryUseCase {
	return &StockQueryUseCase{repos: repos, sheet: sheet}
}

// ConsolidatedStock stock de un producto en todas las bodegas.
type ConsolidatedStock struct {
	Product *entity.Product
	Levels  []*entity.StockLevel
	Total   decimal.Decimal
}

// Availability resultado de la validación de disponibilidad.
type Availability struct {
	ProductID   string
	WarehouseID string // vacío = todas las bodegas
	Available   decimal.Decimal
	Required    decimal.Decimal
	Sufficient  bool
	Message     string
}

// LevelAudit compara la fila del índice con la suma del libro para un par producto/bodega.
type LevelAudit struct {
	ProductID      string
	WarehouseID    string
	IndexQuantity  decimal.Decimal
	LedgerQuantity decimal.Decimal
	Consistent     bool
}

// ConsolidatedStock devuelve los niveles del producto y su suma.
func (uc *StockQueryUseCase) ConsolidatedStock(ctx context.Context, productID string) (*ConsolidatedStock, error) {
	product, err := uc.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	levels, err := uc.repos.Stock.ListByProduct(ctx, productID)
	if err != nil {
		return nil, domain.WrapPersistence("stock consolidado", err)
	}
	total := decimal.Zero
	for _, l := range levels {
		total = total.Add(l.Quantity)
	}
	return &ConsolidatedStock{Product: product, Levels: levels, Total: total}, nil
}

// StockAtWarehouse niveles de una bodega ordenados por cantidad descendente.
func (uc *StockQueryUseCase) StockAtWarehouse(ctx context.Context, warehouseID string, onlyPositive bool) ([]*entity.StockLevel, error) {
	if _, err := uc.warehouse(ctx, warehouseID); err != nil {
		return nil, err
	}
	levels, err := uc.repos.Stock.ListByWarehouse(ctx, warehouseID, onlyPositive)
	if err != nil {
		return nil, domain.WrapPersistence("stock por bodega", err)
	}
	return levels, nil
}

// CheckAvailability compara el stock disponible con required. Sin warehouseID suma todas las bodegas.
func (uc *StockQueryUseCase) CheckAvailability(ctx context.Context, productID, warehouseID string, required decimal.Decimal) (*Availability, error) {
	if !entity.ValidQuantity(required) {
		return nil, fmt.Errorf("%w: la cantidad requerida debe ser mayor a 0 con máximo %d enteros y %d decimales", domain.ErrInvalidInput, entity.QuantityIntegerDigits, entity.QuantityScale)
	}
	product, err := uc.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := &Availability{ProductID: productID, WarehouseID: warehouseID, Required: required, Available: decimal.Zero}
	if warehouseID != "" {
		if _, err := uc.warehouse(ctx, warehouseID); err != nil {
			return nil, err
		}
	}
	if !product.IsStorable() {
		out.Message = "el producto no es almacenable"
		return out, nil
	}

	if warehouseID != "" {
		level, err := uc.repos.Stock.Get(ctx, productID, warehouseID)
		if err != nil {
			return nil, domain.WrapPersistence("validar disponibilidad", err)
		}
		out.Available = level.Quantity
	} else {
		levels, err := uc.repos.Stock.ListByProduct(ctx, productID)
		if err != nil {
			return nil, domain.WrapPersistence("validar disponibilidad", err)
		}
		for _, l := range levels {
			out.Available = out.Available.Add(l.Quantity)
		}
	}

	out.Sufficient = out.Available.GreaterThanOrEqual(required)
	scope := ""
	if warehouseID == "" {
		scope = " en total"
	}
	if out.Sufficient {
		out.Message = fmt.Sprintf("stock suficiente%s. Disponible: %s", scope, out.Available)
	} else {
		out.Message = fmt.Sprintf("stock insuficiente%s. Disponible: %s, Requerido: %s", scope, out.Available, required)
	}
	return out, nil
}

// MovementHistory movimientos del producto, más recientes primero. limit <= 0 usa DefaultHistoryLimit.
func (uc *StockQueryUseCase) MovementHistory(ctx context.Context, productID string, limit int) ([]*entity.Movement, error) {
	if _, err := uc.product(ctx, productID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	list, err := uc.repos.Movements.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, domain.WrapPersistence("historial del producto", err)
	}
	return list, nil
}

// GetMovement obtiene un movimiento por ID.
func (uc *StockQueryUseCase) GetMovement(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := uc.repos.Movements.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapPersistence("obtener movimiento", err)
	}
	if m == nil {
		return nil, domain.NewNotFound("movimiento", id)
	}
	return m, nil
}

// ListMovements listado paginado y filtrado del libro de movimientos.
func (uc *StockQueryUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, int, error) {
	if filter.DocumentKind != "" && !entity.ValidDocumentKind(filter.DocumentKind) {
		return nil, 0, fmt.Errorf("%w: tipo de documento origen desconocido %q", domain.ErrInvalidInput, filter.DocumentKind)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, 0, fmt.Errorf("%w: fecha_desde posterior a fecha_hasta", domain.ErrInvalidInput)
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	list, total, err := uc.repos.Movements.List(ctx, filter)
	if err != nil {
		return nil, 0, domain.WrapPersistence("listar movimientos", err)
	}
	return list, total, nil
}

// ListStockLevels listado paginado de niveles de stock.
func (uc *StockQueryUseCase) ListStockLevels(ctx context.Context, filter repository.StockFilter) ([]*entity.StockLevel, int, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	list, total, err := uc.repos.Stock.List(ctx, filter)
	if err != nil {
		return nil, 0, domain.WrapPersistence("listar niveles de stock", err)
	}
	return list, total, nil
}

// AuditStockLevel recalcula la cantidad del par desde el libro y la compara con el índice.
func (uc *StockQueryUseCase) AuditStockLevel(ctx context.Context, productID, warehouseID string) (*LevelAudit, error) {
	if _, err := uc.product(ctx, productID); err != nil {
		return nil, err
	}
	if _, err := uc.warehouse(ctx, warehouseID); err != nil {
		return nil, err
	}
	level, err := uc.repos.Stock.Get(ctx, productID, warehouseID)
	if err != nil {
		return nil, domain.WrapPersistence("auditar stock", err)
	}
	net, err := uc.repos.Movements.NetQuantity(ctx, productID, warehouseID)
	if err != nil {
		return nil, domain.WrapPersistence("auditar stock", err)
	}
	return &LevelAudit{
		ProductID:      productID,
		WarehouseID:    warehouseID,
		IndexQuantity:  level.Quantity,
		LedgerQuantity: net,
		Consistent:     level.Quantity.Equal(net),
	}, nil
}

// StockSheetPDF hoja de conteo físico de la bodega (solo productos con stock).
func (uc *StockQueryUseCase) StockSheetPDF(ctx context.Context, warehouseID string) ([]byte, error) {
	if uc.sheet == nil {
		return nil, fmt.Errorf("%w: generador de PDF no configurado", domain.ErrInvalidState)
	}
	wh, err := uc.warehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	levels, err := uc.repos.Stock.ListByWarehouse(ctx, warehouseID, true)
	if err != nil {
		return nil, domain.WrapPersistence("hoja de conteo", err)
	}
	lines := make([]StockSheetLine, 0, len(levels))
	for _, l := range levels {
		p, err := uc.repos.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, domain.WrapPersistence("hoja de conteo", err)
		}
		if p == nil {
			p = &entity.Product{ID: l.ProductID}
		}
		lines = append(lines, StockSheetLine{Level: l, Product: p})
	}
	return uc.sheet.GenerateStockSheet(ctx, wh, lines)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (uc *StockQueryUseCase) product(ctx context.Context, id string) (*entity.Product, error) {
	p, err := uc.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapPersistence("obtener producto", err)
	}
	if p == nil {
		return nil, domain.NewNotFound("producto", id)
	}
	return p, nil
}

func (uc *StockQueryUseCase) warehouse(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := uc.repos.Warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapPersistence("obtener bodega", err)
	}
	if w == nil {
		return nil, domain.NewNotFound("bodega", id)
	}
	return w, nil
}
