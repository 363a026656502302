package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

const (
	prodP   = "prod-p"
	whMain  = "wh-principal"
	whNorth = "wh-norte"
)

type fixture struct {
	store    *memory.Store
	repos    inventory.Repositories
	events   *recordingPublisher
	engine   *inventory.RegisterMovementUseCase
	transfer *inventory.TransferUseCase
	adjust   *inventory.AdjustmentUseCase
	query    *inventory.StockQueryUseCase
	sheetSpy *sheetSpy
	txRunner inventory.TxRunner
}

// newFixture producto almacenable activo prodP y las bodegas whMain y whNorth.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRunner(t, nil)
}

// newFixtureWithRunner permite decorar el TxRunner del almacenamiento en memoria.
func newFixtureWithRunner(t *testing.T, wrap func(inventory.TxRunner) inventory.TxRunner) *fixture {
	t.Helper()
	store := memory.NewStore()
	var runner inventory.TxRunner = store
	if wrap != nil {
		runner = wrap(store)
	}
	f := &fixture{
		store:    store,
		repos:    store.Repositories(),
		events:   &recordingPublisher{},
		sheetSpy: &sheetSpy{},
		txRunner: runner,
	}
	f.engine = inventory.NewRegisterMovementUseCase(runner, f.events, nil)
	f.transfer = inventory.NewTransferUseCase(f.engine)
	f.adjust = inventory.NewAdjustmentUseCase(f.engine)
	f.query = inventory.NewStockQueryUseCase(f.repos, f.sheetSpy)

	f.addProduct(t, prodP, entity.ProductTypeStorable, true)
	f.addWarehouse(t, whMain)
	f.addWarehouse(t, whNorth)
	return f
}

func (f *fixture) addProduct(t *testing.T, id, typ string, active bool) {
	t.Helper()
	f.store.PutProduct(&entity.Product{ID: id, SKU: "SKU-" + id, Name: "Producto " + id, Type: typ, Active: active})
}

func (f *fixture) addWarehouse(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.repos.Warehouses.Create(context.Background(), &entity.Warehouse{ID: id, Name: "Bodega " + id}))
}

func (f *fixture) entry(t *testing.T, productID, warehouseID string, qty int64) *entity.Movement {
	t.Helper()
	mov, err := f.adjust.Adjust(context.Background(), inventory.AdjustInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Direction:   inventory.AdjustEntry,
		Quantity:    decimal.NewFromInt(qty),
	})
	require.NoError(t, err)
	return mov
}

func (f *fixture) level(t *testing.T, productID, warehouseID string) decimal.Decimal {
	t.Helper()
	l, err := f.repos.Stock.Get(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	return l.Quantity
}

func (f *fixture) movements(t *testing.T, productID string) []*entity.Movement {
	t.Helper()
	list, _, err := f.repos.Movements.List(context.Background(), repository.MovementFilter{ProductID: productID})
	require.NoError(t, err)
	return list
}

func (f *fixture) levelRows(t *testing.T, productID string) []*entity.StockLevel {
	t.Helper()
	list, err := f.repos.Stock.ListByProduct(context.Background(), productID)
	require.NoError(t, err)
	return list
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []inventory.MovementRecordedEvent
}

func (p *recordingPublisher) PublishMovementRecorded(_ context.Context, e inventory.MovementRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type sheetSpy struct {
	warehouse *entity.Warehouse
	lines     []inventory.StockSheetLine
}

func (s *sheetSpy) GenerateStockSheet(_ context.Context, w *entity.Warehouse, lines []inventory.StockSheetLine) ([]byte, error) {
	s.warehouse = w
	s.lines = lines
	return []byte("%PDF-fake"), nil
}

// failingUpsertRunner hace fallar Stock.Upsert dentro de la transacción, después de que el
// movimiento ya fue agregado al libro.
type failingUpsertRunner struct {
	inner inventory.TxRunner
	err   error
}

func (r *failingUpsertRunner) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	return r.inner.Run(ctx, func(repos inventory.Repositories) error {
		repos.Stock = &failingStock{StockLevelRepository: repos.Stock, err: r.err}
		return fn(repos)
	})
}

type failingStock struct {
	repository.StockLevelRepository
	err error
}

func (s *failingStock) Upsert(context.Context, *entity.StockLevel) error { return s.err }
