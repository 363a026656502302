package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios base
// ──────────────────────────────────────────────────────────────────────────────

// Escenario A: sin fila previa, una entrada crea el nivel.
func TestAdjust_EntradaSinNivelPrevio(t *testing.T) {
	f := newFixture(t)

	mov := f.entry(t, prodP, whMain, 10)

	assert.Equal(t, entity.MovementKindEntry, mov.Kind())
	assert.Equal(t, entity.DocumentKindAdjustment, mov.DocumentKind)
	assert.True(t, f.level(t, prodP, whMain).Equal(qty(10)))
	assert.Len(t, f.movements(t, prodP), 1)
	assert.Equal(t, 1, f.events.count())
}

// Escenario B: la salida que excede el stock falla y no cambia nada.
func TestAdjust_SalidaMayorAlStock(t *testing.T) {
	f := newFixture(t)
	f.entry(t, prodP, whMain, 10)

	_, err := f.adjust.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: prodP, WarehouseID: whMain, Direction: inventory.AdjustExit, Quantity: qty(15),
	})

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.True(t, ise.Available.Equal(qty(10)))
	assert.True(t, ise.Requested.Equal(qty(15)))
	assert.Equal(t, whMain, ise.WarehouseID)
	assert.True(t, f.level(t, prodP, whMain).Equal(qty(10)))
	assert.Len(t, f.movements(t, prodP), 1)
	assert.Equal(t, 1, f.events.count(), "un movimiento fallido no publica evento")
}

// Escenario C: transferencia descuenta en origen y suma en destino con dos movimientos enlazados.
func TestTransfer_MueveStockEntreBodegas(t *testing.T) {
	f := newFixture(t)
	f.entry(t, prodP, whMain, 10)

	res, err := f.transfer.Transfer(context.Background(), inventory.TransferInput{
		ProductID: prodP, OriginID: whMain, DestinationID: whNorth, Quantity: qty(4), UserID: "u-1",
	})
	require.NoError(t, err)

	assert.True(t, f.level(t, prodP, whMain).Equal(qty(6)))
	assert.True(t, f.level(t, prodP, whNorth).Equal(qty(4)))

	assert.Equal(t, entity.MovementKindExit, res.Exit.Kind())
	assert.Equal(t, whMain, res.Exit.OriginID())
	assert.Equal(t, entity.MovementKindEntry, res.Entry.Kind())
	assert.Equal(t, whNorth, res.Entry.DestinationID())
	assert.Equal(t, entity.DocumentKindTransfer, res.Exit.DocumentKind)
	assert.Equal(t, entity.DocumentKindTransfer, res.Entry.DocumentKind)
	assert.Equal(t, res.Exit.ID, res.Entry.DocumentID)
	assert.Equal(t, "u-1", res.Entry.CreatedBy)

	assert.Len(t, f.movements(t, prodP), 3)
	assert.Equal(t, 3, f.events.count())
}

// Escenario D: producto inactivo.
func TestRecordMovement_ProductoInactivo(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "prod-inactivo", entity.ProductTypeStorable, false)

	_, err := f.engine.RecordMovement(context.Background(), inventory.MovementInput{
		ProductID: "prod-inactivo", DestinationID: whMain, Quantity: qty(1),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Empty(t, f.movements(t, "prod-inactivo"))
	assert.Empty(t, f.levelRows(t, "prod-inactivo"))
}

// Escenario E: dos salidas concurrentes de 6 sobre 10; exactamente una gana.
func TestAdjust_SalidasConcurrentes(t *testing.T) {
	f := newFixture(t)
	f.entry(t, prodP, whMain, 10)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.adjust.Adjust(context.Background(), inventory.AdjustInput{
				ProductID: prodP, WarehouseID: whMain, Direction: inventory.AdjustExit, Quantity: qty(6),
			})
		}(i)
	}
	wg.Wait()

	ok, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.True(t, f.level(t, prodP, whMain).Equal(qty(4)))
}

func TestAdjust_MuchasSalidasConcurrentesNuncaNegativo(t *testing.T) {
	f := newFixture(t)
	f.entry(t, prodP, whMain, 10)

	const workers = 25
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.adjust.Adjust(context.Background(), inventory.AdjustInput{
				ProductID: prodP, WarehouseID: whMain, Direction: inventory.AdjustExit, Quantity: qty(1),
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.True(t, f.level(t, prodP, whMain).IsZero())
	assert.Len(t, f.movements(t, prodP), 11)
}

// Transferencias cruzadas concurrentes (A→B y B→A) no se bloquean mutuamente.
func TestTransfer_CruzadasConcurrentes(t *testing.T) {
	f := newFixture(t)
	f.entry(t, prodP, whMain, 50)
	f.entry(t, prodP, whNorth, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.transfer.Transfer(ctx, inventory.TransferInput{ProductID: prodP, OriginID: whMain, DestinationID: whNorth, Quantity: qty(1)})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.transfer.Transfer(ctx, inventory.TransferInput{ProductID: prodP, OriginID: whNorth, DestinationID: whMain, Quantity: qty(1)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, f.level(t, prodP, whMain).Equal(qty(50)))
	assert.True(t, f.level(t, prodP, whNorth).Equal(qty(50)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Validaciones del motor
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_Validaciones(t *testing.T) {
	cases := []struct {
		name  string
		input inventory.MovementInput
		want  error
	}{
		{"cantidad cero", inventory.MovementInput{ProductID: prodP, DestinationID: whMain, Quantity: decimal.Zero}, domain.ErrInvalidInput},
		{"cantidad negativa", inventory.MovementInput{ProductID: prodP, DestinationID: whMain, Quantity: qty(-2)}, domain.ErrInvalidInput},
		{"demasiados enteros", inventory.MovementInput{ProductID: prodP, DestinationID: whMain, Quantity: decimal.RequireFromString("1e15")}, domain.ErrInvalidInput},
		{"demasiados decimales", inventory.MovementInput{ProductID: prodP, DestinationID: whMain, Quantity: decimal.RequireFromString("0.00001")}, domain.ErrInvalidInput},
		{"tipo de documento desconocido", inventory.MovementInput{ProductID: prodP, DestinationID: whMain, Quantity: qty(1), DocumentKind: "REMISION"}, domain.ErrInvalidInput},
		{"sin producto", inventory.MovementInput{DestinationID: whMain, Quantity: qty(1)}, domain.ErrInvalidInput},
		{"producto inexistente", inventory.MovementInput{ProductID: "nope", DestinationID: whMain, Quantity: qty(1)}, domain.ErrNotFound},
		{"sin bodegas", inventory.MovementInput{ProductID: prodP, Quantity: qty(1)}, domain.ErrInvalidState},
		{"misma bodega", inventory.MovementInput{ProductID: prodP, OriginID: whMain, DestinationID: whMain, Quantity: qty(1)}, domain.ErrInvalidState},
		{"origen inexistente", inventory.MovementInput{ProductID: prodP, OriginID: "wh-x", Quantity: qty(1)}, domain.ErrNotFound},
		{"destino inexistente", inventory.MovementInput{ProductID: prodP, DestinationID: "wh-x", Quantity: qty(1)}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.engine.RecordMovement(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.movements(t, prodP))
			assert.Empty(t, f.levelRows(t, prodP))
		})
	}
}

func TestRecordMovement_ProductoNoAlmacenable(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "servicio", entity.ProductTypeService, true)

	_, err := f.engine.RecordMovement(context.Background(), inventory.MovementInput{
		ProductID: "servicio", DestinationID: whMain, Quantity: qty(1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, domain.CodeInvalidState, domain.ErrorCode(err))
}

func TestRecordMovement_NotFoundIndicaBodega(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.RecordMovement(context.Background(), inventory.MovementInput{
		ProductID: prodP, DestinationID: "wh-x", Quantity: qty(1),
	})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "wh-x", nf.ID)
	assert.Equal(t, "bodega de destino", nf.Entity)
}

func TestRecordMovement_TramoDeTransferencia(t *testing.T) {
	f := newFixture(t)
	f.entry(t, prodP, whMain, 5)

	mov, err := f.engine.RecordMovement(context.Background(), inventory.MovementInput{
		ProductID: prodP, OriginID: whMain, DestinationID: whNorth, Quantity: decimal.RequireFromString("2.5"),
		DocumentKind: entity.DocumentKindSalesOrder, DocumentID: "so-17", Notes: "despacho",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.MovementKindTransferLeg, mov.Kind())
	assert.Equal(t, "so-17", mov.DocumentID)
	assert.True(t, f.level(t, prodP, whMain).Equal(decimal.RequireFromString("2.5")))
	assert.True(t, f.level(t, prodP, whNorth).Equal(decimal.RequireFromString("2.5")))
}

func TestAdjust_DireccionInvalida(t *testing.T) {
	f := newFixture(t)
	_, err := f.adjust.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: prodP, WarehouseID: whMain, Direction: "SIDEWAYS", Quantity: qty(1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.adjust.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: prodP, Direction: inventory.AdjustEntry, Quantity: qty(1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjust_DireccionSinDistinguirMayusculas(t *testing.T) {
	f := newFixture(t)
	mov, err := f.adjust.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: prodP, WarehouseID: whMain, Direction: "entry", Quantity: qty(3), Reason: "conteo",
	})
	require.NoError(t, err)
	assert.Equal(t, "conteo", mov.Notes)
}

func TestTransfer_Validaciones(t *testing.T) {
	f := newFixture(t)

	_, err := f.transfer.Transfer(context.Background(), inventory.TransferInput{ProductID: prodP, OriginID: whMain, Quantity: qty(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.transfer.Transfer(context.Background(), inventory.TransferInput{ProductID: prodP, OriginID: whMain, DestinationID: whMain, Quantity: qty(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.transfer.Transfer(context.Background(), inventory.TransferInput{ProductID: prodP, OriginID: whMain, DestinationID: "wh-x", Quantity: qty(1)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Un traslado sin stock suficiente no deja ninguno de sus dos tramos.
func TestTransfer_StockInsuficienteNoDejaTramos(t *testing.T) {
	f := newFixture(t)
	f.entry(t, prodP, whMain, 3)

	_, err := f.transfer.Transfer(context.Background(), inventory.TransferInput{
		ProductID: prodP, OriginID: whMain, DestinationID: whNorth, Quantity: qty(4),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Len(t, f.movements(t, prodP), 1)
	assert.True(t, f.level(t, prodP, whMain).Equal(qty(3)))
	assert.True(t, f.level(t, prodP, whNorth).IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad y cancelación
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_FalloDelIndiceRevierteElLibro(t *testing.T) {
	boom := errors.New("disco lleno")
	f := newFixtureWithRunner(t, func(inner inventory.TxRunner) inventory.TxRunner {
		return &failingUpsertRunner{inner: inner, err: boom}
	})

	_, err := f.engine.RecordMovement(context.Background(), inventory.MovementInput{
		ProductID: prodP, DestinationID: whMain, Quantity: qty(5),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.movements(t, prodP), "el movimiento no debe quedar en el libro")
	assert.Empty(t, f.levelRows(t, prodP))
	assert.Zero(t, f.events.count())
}

func TestRecordMovement_ContextoCancelado(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.RecordMovement(ctx, inventory.MovementInput{
		ProductID: prodP, DestinationID: whMain, Quantity: qty(5),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.movements(t, prodP))
}

// Mientras otra transacción retiene la fila, la espera respeta el deadline del llamador.
func TestRecordMovement_EsperaDeBloqueoRespetaDeadline(t *testing.T) {
	f := newFixture(t)
	f.entry(t, prodP, whMain, 10)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.store.Run(context.Background(), func(repos inventory.Repositories) error {
			if _, err := repos.Stock.GetForUpdate(context.Background(), prodP, whMain); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.adjust.Adjust(ctx, inventory.AdjustInput{
		ProductID: prodP, WarehouseID: whMain, Direction: inventory.AdjustExit, Quantity: qty(1),
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)

	// Liberada la fila, la misma salida procede.
	_, err = f.adjust.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: prodP, WarehouseID: whMain, Direction: inventory.AdjustExit, Quantity: qty(1),
	})
	require.NoError(t, err)
	assert.True(t, f.level(t, prodP, whMain).Equal(qty(9)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Consistencia libro / índice
// ──────────────────────────────────────────────────────────────────────────────

func TestLibroEIndiceCoinciden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.entry(t, prodP, whMain, 20)
	f.entry(t, prodP, whNorth, 3)
	_, err := f.transfer.Transfer(ctx, inventory.TransferInput{ProductID: prodP, OriginID: whMain, DestinationID: whNorth, Quantity: qty(7)})
	require.NoError(t, err)
	_, err = f.adjust.Adjust(ctx, inventory.AdjustInput{ProductID: prodP, WarehouseID: whNorth, Direction: inventory.AdjustExit, Quantity: qty(2)})
	require.NoError(t, err)
	_, err = f.adjust.Adjust(ctx, inventory.AdjustInput{ProductID: prodP, WarehouseID: whMain, Direction: inventory.AdjustExit, Quantity: qty(100)})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	for _, wh := range []string{whMain, whNorth} {
		audit, err := f.query.AuditStockLevel(ctx, prodP, wh)
		require.NoError(t, err)
		assert.True(t, audit.Consistent, "bodega %s: índice %s, libro %s", wh, audit.IndexQuantity, audit.LedgerQuantity)
	}
	assert.True(t, f.level(t, prodP, whMain).Equal(qty(13)))
	assert.True(t, f.level(t, prodP, whNorth).Equal(qty(8)))
}

func TestEventos_PublicadosDespuesDelCommit(t *testing.T) {
	f := newFixture(t)
	mov := f.entry(t, prodP, whMain, 4)

	require.Equal(t, 1, f.events.count())
	e := f.events.events[0]
	assert.Equal(t, mov.ID, e.MovementID)
	assert.Equal(t, string(entity.MovementKindEntry), e.Kind)
	assert.Equal(t, whMain, e.DestinationID)
	assert.True(t, e.Quantity.Equal(qty(4)))
}

func TestAdjust_SaldoFueraDeRangoNoSeRegistra(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	top := decimal.RequireFromString("99999999999999")
	_, err := f.adjust.Adjust(ctx, inventory.AdjustInput{ProductID: prodP, WarehouseID: whMain, Direction: inventory.AdjustEntry, Quantity: top})
	require.NoError(t, err)

	_, err = f.adjust.Adjust(ctx, inventory.AdjustInput{ProductID: prodP, WarehouseID: whMain, Direction: inventory.AdjustEntry, Quantity: qty(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, f.movements(t, prodP), 1)
	assert.True(t, f.level(t, prodP, whMain).Equal(top))
}

// deleteBeforeCommitRunner ejecuta del cuando fn ya terminó bien y la unidad de trabajo aún no confirma.
type deleteBeforeCommitRunner struct {
	inner inventory.TxRunner
	del   func() error
	err   error
}

func (r *deleteBeforeCommitRunner) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	return r.inner.Run(ctx, func(repos inventory.Repositories) error {
		if err := fn(repos); err != nil {
			return err
		}
		r.err = r.del()
		return nil
	})
}

func TestRecordMovement_BodegaNoSeEliminaConMovimientoEnCurso(t *testing.T) {
	runner := &deleteBeforeCommitRunner{}
	f := newFixtureWithRunner(t, func(inner inventory.TxRunner) inventory.TxRunner {
		runner.inner = inner
		return runner
	})
	warehouses := usecase.NewWarehouseUseCase(f.repos.Warehouses, f.repos.Movements, f.repos.Stock)
	runner.del = func() error { return warehouses.Delete(context.Background(), whNorth) }

	_, err := f.adjust.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: prodP, WarehouseID: whNorth, Direction: inventory.AdjustEntry, Quantity: qty(3),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, runner.err, domain.ErrConflict)

	_, err = warehouses.GetByID(context.Background(), whNorth)
	require.NoError(t, err)
	movs := f.movements(t, prodP)
	require.Len(t, movs, 1)
	assert.Equal(t, whNorth, movs[0].DestinationID())
}

// slowPublisher espera hasta que su contexto vence.
type slowPublisher struct {
	err chan error
}

func (p *slowPublisher) PublishMovementRecorded(ctx context.Context, _ inventory.MovementRecordedEvent) error {
	<-ctx.Done()
	p.err <- ctx.Err()
	return ctx.Err()
}

func TestEventos_PublicacionAcotadaPorTimeout(t *testing.T) {
	f := newFixture(t)
	pub := &slowPublisher{err: make(chan error, 1)}
	engine := inventory.NewRegisterMovementUseCase(f.store, pub, nil)
	engine.SetPublishTimeout(20 * time.Millisecond)

	start := time.Now()
	mov, err := engine.RecordMovement(context.Background(), inventory.MovementInput{
		ProductID: prodP, DestinationID: whMain, Quantity: qty(2),
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, <-pub.err, context.DeadlineExceeded)

	// El fallo del broker no revierte el movimiento confirmado.
	got, err := f.query.GetMovement(context.Background(), mov.ID)
	require.NoError(t, err)
	assert.Equal(t, mov.ID, got.ID)
	assert.True(t, f.level(t, prodP, whMain).Equal(qty(2)))
}
