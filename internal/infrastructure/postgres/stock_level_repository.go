package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo índice de stock por producto+bodega sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// Get obtiene el stock actual de un producto en una bodega. Sin fila = cantidad cero.
func (r *StockLevelRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	if !isUUID(productID) || !isUUID(warehouseID) {
		return entity.NewStockLevel(productID, warehouseID), nil
	}
	query := `
		SELECT product_id, warehouse_id, quantity, updated_at
		FROM stock_levels WHERE product_id = $1 AND warehouse_id = $2`
	s, err := scanStockLevel(r.q.QueryRow(ctx, query, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.NewStockLevel(productID, warehouseID), nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return s, nil
}

// GetForUpdate asegura la fila (insert en cero si no existe) y la bloquea con SELECT FOR UPDATE.
// Sin la fila previa dos transacciones concurrentes no tendrían nada que bloquear.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`, productID, warehouseID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, stockReferenceError(productID, warehouseID, err)
		}
		if isLockTimeout(err) {
			return nil, lockTimeoutError(productID, warehouseID, err)
		}
		return nil, fmt.Errorf("ensure stock level: %w", err)
	}

	query := `
		SELECT product_id, warehouse_id, quantity, updated_at
		FROM stock_levels WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	s, err := scanStockLevel(r.q.QueryRow(ctx, query, productID, warehouseID))
	if err != nil {
		if isLockTimeout(err) {
			return nil, lockTimeoutError(productID, warehouseID, err)
		}
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return s, nil
}

// Upsert inserta o actualiza la cantidad (por producto y bodega).
func (r *StockLevelRepo) Upsert(ctx context.Context, level *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, level.ProductID, level.WarehouseID, level.Quantity, level.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: el stock de %s en %s quedaría negativo", domain.ErrInsufficientStock, level.ProductID, level.WarehouseID)
		}
		if isNumericOutOfRange(err) {
			return fmt.Errorf("%w: el stock de %s en %s excede %d dígitos enteros", domain.ErrInvalidInput, level.ProductID, level.WarehouseID, entity.QuantityIntegerDigits)
		}
		if isForeignKeyViolation(err) {
			return stockReferenceError(level.ProductID, level.WarehouseID, err)
		}
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// ListByProduct niveles del producto ordenados por bodega.
func (r *StockLevelRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error) {
	if !isUUID(productID) {
		return []*entity.StockLevel{}, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT product_id, warehouse_id, quantity, updated_at
		FROM stock_levels WHERE product_id = $1
		ORDER BY warehouse_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock by product: %w", err)
	}
	return collectStockLevels(rows)
}

// ListByWarehouse niveles de la bodega por cantidad descendente (desempate por producto).
func (r *StockLevelRepo) ListByWarehouse(ctx context.Context, warehouseID string, onlyPositive bool) ([]*entity.StockLevel, error) {
	if !isUUID(warehouseID) {
		return []*entity.StockLevel{}, nil
	}
	query := `
		SELECT product_id, warehouse_id, quantity, updated_at
		FROM stock_levels WHERE warehouse_id = $1`
	if onlyPositive {
		query += ` AND quantity > 0`
	}
	query += ` ORDER BY quantity DESC, product_id`
	rows, err := r.q.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list stock by warehouse: %w", err)
	}
	return collectStockLevels(rows)
}

// List listado paginado con total.
func (r *StockLevelRepo) List(ctx context.Context, f repository.StockFilter) ([]*entity.StockLevel, int, error) {
	for _, id := range []string{f.ProductID, f.WarehouseID} {
		if id != "" && !isUUID(id) {
			return []*entity.StockLevel{}, 0, nil
		}
	}
	where := " WHERE 1=1"
	args := []any{}
	pos := 1
	if f.ProductID != "" {
		where += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if f.WarehouseID != "" {
		where += fmt.Sprintf(" AND warehouse_id = $%d", pos)
		args = append(args, f.WarehouseID)
		pos++
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_levels`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock levels: %w", err)
	}
	query := `SELECT product_id, warehouse_id, quantity, updated_at FROM stock_levels` + where +
		fmt.Sprintf(" ORDER BY product_id, warehouse_id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock levels: %w", err)
	}
	list, err := collectStockLevels(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// CountByWarehouse filas del índice para la bodega.
func (r *StockLevelRepo) CountByWarehouse(ctx context.Context, warehouseID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_levels WHERE warehouse_id = $1`, warehouseID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stock by warehouse: %w", err)
	}
	return n, nil
}

func scanStockLevel(row pgx.Row) (*entity.StockLevel, error) {
	var s entity.StockLevel
	if err := row.Scan(&s.ProductID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectStockLevels(rows pgx.Rows) ([]*entity.StockLevel, error) {
	defer rows.Close()
	list := []*entity.StockLevel{}
	for rows.Next() {
		s, err := scanStockLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func stockReferenceError(productID, warehouseID string, err error) error {
	if constraintName(err) == "stock_levels_warehouse_id_fkey" {
		return domain.NewNotFound("bodega", warehouseID)
	}
	return domain.NewNotFound("producto", productID)
}

func lockTimeoutError(productID, warehouseID string, err error) error {
	return fmt.Errorf("stock %s/%s bloqueado por otra transacción: %w", productID, warehouseID, err)
}
