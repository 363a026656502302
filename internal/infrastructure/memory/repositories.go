package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.MovementRepository   = (*movementRepo)(nil)
	_ repository.StockLevelRepository = (*stockRepo)(nil)
	_ repository.ProductRepository    = (*productRepo)(nil)
	_ repository.WarehouseRepository  = (*warehouseRepo)(nil)
)

// ---- movimientos ----

type movementRepo struct{ *view }

func (r *movementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := r.product(m.ProductID); !ok {
		return domain.NewNotFound("producto", m.ProductID)
	}
	for _, wh := range m.Route.Warehouses() {
		if _, ok := r.warehouse(wh); !ok {
			return domain.NewNotFound("bodega", wh)
		}
	}
	cp := *m
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, &cp)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, dup := r.store.movByID[cp.ID]; dup {
		return fmt.Errorf("insert movement: %w", domain.ErrDuplicate)
	}
	r.store.movements = append(r.store.movements, &cp)
	r.store.movByID[cp.ID] = &cp
	return nil
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	for _, m := range r.allMovements() {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *movementRepo) ListByProduct(_ context.Context, productID string, limit int) ([]*entity.Movement, error) {
	list := r.filter(repository.MovementFilter{ProductID: productID})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	list := r.filter(f)
	total := len(list)
	return paginate(list, f.Limit, f.Offset), total, nil
}

func (r *movementRepo) CountByWarehouse(_ context.Context, warehouseID string) (int, error) {
	n := 0
	for _, m := range r.allMovements() {
		if m.OriginID() == warehouseID || m.DestinationID() == warehouseID {
			n++
		}
	}
	return n, nil
}

func (r *movementRepo) NetQuantity(_ context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	net := decimal.Zero
	for _, m := range r.allMovements() {
		if m.ProductID == productID {
			net = net.Add(m.SignedQuantityAt(warehouseID))
		}
	}
	return net, nil
}

// filter aplica los filtros y ordena por moved_at desc, created_at desc, id desc.
func (r *movementRepo) filter(f repository.MovementFilter) []*entity.Movement {
	out := []*entity.Movement{}
	for _, m := range r.allMovements() {
		switch {
		case f.ProductID != "" && m.ProductID != f.ProductID,
			f.OriginID != "" && m.OriginID() != f.OriginID,
			f.DestinationID != "" && m.DestinationID() != f.DestinationID,
			f.DocumentKind != "" && m.DocumentKind != f.DocumentKind,
			f.DocumentID != "" && m.DocumentID != f.DocumentID,
			f.From != nil && m.MovedAt.Before(*f.From),
			f.To != nil && m.MovedAt.After(*f.To):
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.MovedAt.Equal(b.MovedAt) {
			return a.MovedAt.After(b.MovedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out
}

// ---- índice de stock ----

type stockRepo struct{ *view }

func (r *stockRepo) Get(_ context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	if l, ok := r.level(pairKey{productID, warehouseID}); ok {
		cp := *l
		return &cp, nil
	}
	return entity.NewStockLevel(productID, warehouseID), nil
}

// GetForUpdate dentro de una tx toma el bloqueo del par antes de leer.
func (r *stockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	if _, ok := r.product(productID); !ok {
		return nil, domain.NewNotFound("producto", productID)
	}
	if _, ok := r.warehouse(warehouseID); !ok {
		return nil, domain.NewNotFound("bodega", warehouseID)
	}
	if r.tx != nil {
		if err := r.store.acquire(ctx, r.tx, pairKey{productID, warehouseID}); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, productID, warehouseID)
}

func (r *stockRepo) Upsert(ctx context.Context, level *entity.StockLevel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if level.Quantity.IsNegative() {
		return fmt.Errorf("%w: el stock de %s en %s quedaría negativo", domain.ErrInsufficientStock, level.ProductID, level.WarehouseID)
	}
	if !entity.QuantityFits(level.Quantity) {
		return fmt.Errorf("%w: el stock de %s en %s excede %d dígitos enteros", domain.ErrInvalidInput, level.ProductID, level.WarehouseID, entity.QuantityIntegerDigits)
	}
	cp := *level
	k := pairKey{level.ProductID, level.WarehouseID}
	if r.tx != nil {
		r.tx.levels[k] = &cp
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.levels[k] = &cp
	return nil
}

func (r *stockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockLevel, error) {
	out := r.collect(func(l *entity.StockLevel) bool { return l.ProductID == productID })
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

func (r *stockRepo) ListByWarehouse(_ context.Context, warehouseID string, onlyPositive bool) ([]*entity.StockLevel, error) {
	out := r.collect(func(l *entity.StockLevel) bool {
		return l.WarehouseID == warehouseID && (!onlyPositive || l.Quantity.IsPositive())
	})
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Quantity.Cmp(out[j].Quantity); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func (r *stockRepo) List(_ context.Context, f repository.StockFilter) ([]*entity.StockLevel, int, error) {
	out := r.collect(func(l *entity.StockLevel) bool {
		return (f.ProductID == "" || l.ProductID == f.ProductID) &&
			(f.WarehouseID == "" || l.WarehouseID == f.WarehouseID)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return paginate(out, f.Limit, f.Offset), len(out), nil
}

func (r *stockRepo) CountByWarehouse(_ context.Context, warehouseID string) (int, error) {
	return len(r.collect(func(l *entity.StockLevel) bool { return l.WarehouseID == warehouseID })), nil
}

func (r *stockRepo) collect(keep func(*entity.StockLevel) bool) []*entity.StockLevel {
	out := []*entity.StockLevel{}
	for _, l := range r.allLevels() {
		if keep(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out
}

// ---- catálogo ----

type productRepo struct{ *view }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.product(id)
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// ---- bodegas ----

// warehouseRepo las bodegas no participan de la tx: sus escrituras se aplican de inmediato.
type warehouseRepo struct{ *view }

func (r *warehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, dup := r.store.warehouses[w.ID]; dup {
		return domain.ErrDuplicate
	}
	cp := *w
	r.store.warehouses[w.ID] = &cp
	return nil
}

func (r *warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	w, ok := r.warehouse(id)
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *warehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.warehouses[w.ID]; !ok {
		return domain.NewNotFound("bodega", w.ID)
	}
	cp := *w
	r.store.warehouses[w.ID] = &cp
	return nil
}

func (r *warehouseRepo) List(_ context.Context, limit, offset int) ([]*entity.Warehouse, error) {
	r.store.mu.RLock()
	out := make([]*entity.Warehouse, 0, len(r.store.warehouses))
	for _, w := range r.store.warehouses {
		cp := *w
		out = append(out, &cp)
	}
	r.store.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, limit, offset), nil
}

// Delete equivale al ON DELETE RESTRICT: una bodega referenciada no se elimina,
// tampoco mientras otra unidad de trabajo tiene bloqueado alguno de sus pares.
func (r *warehouseRepo) Delete(_ context.Context, id string) error {
	if r.store.lockedWarehouse(id) {
		return &domain.ConflictError{Entity: "bodega", ID: id, Reason: "tiene movimientos en curso"}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.warehouses[id]; !ok {
		return domain.NewNotFound("bodega", id)
	}
	for _, m := range r.store.movements {
		if m.OriginID() == id || m.DestinationID() == id {
			return &domain.ConflictError{Entity: "bodega", ID: id, Reason: "tiene movimientos o stock registrados"}
		}
	}
	for k := range r.store.levels {
		if k.warehouse == id {
			return &domain.ConflictError{Entity: "bodega", ID: id, Reason: "tiene movimientos o stock registrados"}
		}
	}
	delete(r.store.warehouses, id)
	return nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	if offset > 0 {
		list = list[offset:]
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
