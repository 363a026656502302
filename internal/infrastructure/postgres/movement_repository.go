package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, product_id, origin_warehouse_id, destination_warehouse_id, quantity,
	moved_at, created_at, document_kind, document_id, notes, created_by`

// Orden canónico del historial: más reciente primero, desempate estable por created_at e id.
const movementOrder = ` ORDER BY moved_at DESC, created_at DESC, id DESC`

// MovementRepo implementación del libro de movimientos sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create agrega un movimiento al libro.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, nullable(m.OriginID()), nullable(m.DestinationID()), m.Quantity,
		m.MovedAt, m.CreatedAt, nullable(m.DocumentKind), nullable(m.DocumentID),
		nullable(m.Notes), nullable(m.CreatedBy),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return movementReferenceError(m, err)
		}
		if isNumericOutOfRange(err) {
			return fmt.Errorf("%w: la cantidad excede %d dígitos enteros", domain.ErrInvalidInput, entity.QuantityIntegerDigits)
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct movimientos del producto, más recientes primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = $1` +
		movementOrder + ` LIMIT $2`
	rows, err := r.q.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list movements by product: %w", err)
	}
	return collectMovements(rows)
}

// List listado filtrado y paginado; devuelve también el total sin paginar.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	for _, id := range []string{f.ProductID, f.OriginID, f.DestinationID} {
		if id != "" && !isUUID(id) {
			return []*entity.Movement{}, 0, nil
		}
	}
	where := " WHERE 1=1"
	args := []any{}
	pos := 1
	add := func(cond string, v any) {
		where += fmt.Sprintf(" AND "+cond, pos)
		args = append(args, v)
		pos++
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.OriginID != "" {
		add("origin_warehouse_id = $%d", f.OriginID)
	}
	if f.DestinationID != "" {
		add("destination_warehouse_id = $%d", f.DestinationID)
	}
	if f.DocumentKind != "" {
		add("document_kind = $%d", f.DocumentKind)
	}
	if f.DocumentID != "" {
		add("document_id = $%d", f.DocumentID)
	}
	if f.From != nil {
		add("moved_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("moved_at <= $%d", *f.To)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where + movementOrder +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	list, err := collectMovements(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// CountByWarehouse movimientos que referencian la bodega como origen o destino.
func (r *MovementRepo) CountByWarehouse(ctx context.Context, warehouseID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM stock_movements
		WHERE origin_warehouse_id = $1 OR destination_warehouse_id = $1`, warehouseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count movements by warehouse: %w", err)
	}
	return n, nil
}

// NetQuantity suma con signo de los movimientos del par (destino +, origen -).
func (r *MovementRepo) NetQuantity(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	var net decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN destination_warehouse_id = $2 THEN quantity ELSE -quantity END), 0)
		FROM stock_movements
		WHERE product_id = $1 AND (origin_warehouse_id = $2 OR destination_warehouse_id = $2)`,
		productID, warehouseID).Scan(&net)
	if err != nil {
		return decimal.Zero, fmt.Errorf("net quantity: %w", err)
	}
	return net, nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m                                entity.Movement
		origin, dest                     *string
		docKind, docID, notes, createdBy *string
	)
	if err := row.Scan(&m.ID, &m.ProductID, &origin, &dest, &m.Quantity,
		&m.MovedAt, &m.CreatedAt, &docKind, &docID, &notes, &createdBy); err != nil {
		return nil, err
	}
	route, err := entity.NewRoute(deref(origin), deref(dest))
	if err != nil {
		return nil, fmt.Errorf("movement %s: %w", m.ID, err)
	}
	m.Route = route
	m.DocumentKind = deref(docKind)
	m.DocumentID = deref(docID)
	m.Notes = deref(notes)
	m.CreatedBy = deref(createdBy)
	return &m, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	list := []*entity.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// movementReferenceError traduce la FK violada al NotFoundError correspondiente.
func movementReferenceError(m *entity.Movement, err error) error {
	switch constraintName(err) {
	case "stock_movements_origin_warehouse_id_fkey":
		return domain.NewNotFound("bodega de origen", m.OriginID())
	case "stock_movements_destination_warehouse_id_fkey":
		return domain.NewNotFound("bodega de destino", m.DestinationID())
	default:
		return domain.NewNotFound("producto", m.ProductID)
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
