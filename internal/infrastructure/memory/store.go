// Package memory implementa el almacenamiento del núcleo de inventario en memoria
// (STORE_DRIVER=memory y pruebas). Respeta la misma disciplina de bloqueo por fila que PostgreSQL:
// cada par producto/bodega tiene un bloqueo exclusivo que se toma dentro de Run y se libera al terminar.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

type pairKey struct {
	product   string
	warehouse string
}

// Store estado compartido: catálogo, bodegas, libro e índice.
type Store struct {
	mu         sync.RWMutex
	products   map[string]*entity.Product
	warehouses map[string]*entity.Warehouse
	movements  []*entity.Movement
	movByID    map[string]*entity.Movement
	levels     map[pairKey]*entity.StockLevel

	lockMu sync.Mutex
	locks  map[pairKey]chan struct{}
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		products:   make(map[string]*entity.Product),
		warehouses: make(map[string]*entity.Warehouse),
		movByID:    make(map[string]*entity.Movement),
		levels:     make(map[pairKey]*entity.StockLevel),
		locks:      make(map[pairKey]chan struct{}),
	}
}

// PutProduct inserta o reemplaza un producto del catálogo.
func (s *Store) PutProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
}

// Repositories repositorios sin transacción: cada escritura se aplica de inmediato.
func (s *Store) Repositories() inventory.Repositories {
	return s.repositories(nil)
}

// tx escrituras pendientes y bloqueos tomados por una unidad de trabajo.
type tx struct {
	movements []*entity.Movement
	levels    map[pairKey]*entity.StockLevel
	held      map[pairKey]chan struct{}
}

// Run ejecuta fn en una unidad de trabajo. Los cambios solo se publican si fn no falla
// y ctx sigue vigente; los bloqueos se liberan siempre.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	t := &tx{
		levels: make(map[pairKey]*entity.StockLevel),
		held:   make(map[pairKey]chan struct{}),
	}
	defer s.release(t)

	if err := fn(s.repositories(t)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return s.commit(t)
}

func (s *Store) repositories(t *tx) inventory.Repositories {
	v := &view{store: s, tx: t}
	return inventory.Repositories{
		Movements:  &movementRepo{v},
		Stock:      &stockRepo{v},
		Products:   &productRepo{v},
		Warehouses: &warehouseRepo{v},
	}
}

// acquire toma el bloqueo del par. Es reentrante dentro de la misma tx y respeta ctx.
func (s *Store) acquire(ctx context.Context, t *tx, k pairKey) error {
	if _, ok := t.held[k]; ok {
		return nil
	}
	s.lockMu.Lock()
	ch, ok := s.locks[k]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[k] = ch
	}
	s.lockMu.Unlock()

	select {
	case ch <- struct{}{}:
		t.held[k] = ch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("esperando bloqueo de stock %s/%s: %w", k.product, k.warehouse, ctx.Err())
	}
}

func (s *Store) release(t *tx) {
	for k, ch := range t.held {
		<-ch
		delete(t.held, k)
	}
}

// commit publica lo pendiente. Falla sin aplicar nada si una bodega referenciada ya no existe.
func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range t.movements {
		for _, id := range []string{m.OriginID(), m.DestinationID()} {
			if id == "" {
				continue
			}
			if _, ok := s.warehouses[id]; !ok {
				return domain.NewNotFound("bodega", id)
			}
		}
	}
	for k := range t.levels {
		if _, ok := s.warehouses[k.warehouse]; !ok {
			return domain.NewNotFound("bodega", k.warehouse)
		}
	}
	for _, m := range t.movements {
		s.movements = append(s.movements, m)
		s.movByID[m.ID] = m
	}
	for k, l := range t.levels {
		s.levels[k] = l
	}
	return nil
}

// lockedWarehouse reporta si alguna unidad de trabajo tiene tomado un par de la bodega.
func (s *Store) lockedWarehouse(id string) bool {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	for k, ch := range s.locks {
		if k.warehouse == id && len(ch) > 0 {
			return true
		}
	}
	return false
}

// view lectura combinada: estado confirmado más lo pendiente de la tx (si hay).
type view struct {
	store *Store
	tx    *tx
}

func (v *view) level(k pairKey) (*entity.StockLevel, bool) {
	if v.tx != nil {
		if l, ok := v.tx.levels[k]; ok {
			return l, true
		}
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	l, ok := v.store.levels[k]
	return l, ok
}

func (v *view) allLevels() map[pairKey]*entity.StockLevel {
	v.store.mu.RLock()
	out := make(map[pairKey]*entity.StockLevel, len(v.store.levels))
	for k, l := range v.store.levels {
		out[k] = l
	}
	v.store.mu.RUnlock()
	if v.tx != nil {
		for k, l := range v.tx.levels {
			out[k] = l
		}
	}
	return out
}

func (v *view) allMovements() []*entity.Movement {
	v.store.mu.RLock()
	out := make([]*entity.Movement, 0, len(v.store.movements))
	out = append(out, v.store.movements...)
	v.store.mu.RUnlock()
	if v.tx != nil {
		out = append(out, v.tx.movements...)
	}
	return out
}

func (v *view) product(id string) (*entity.Product, bool) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	p, ok := v.store.products[id]
	return p, ok
}

func (v *view) warehouse(id string) (*entity.Warehouse, bool) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	w, ok := v.store.warehouses[id]
	return w, ok
}
