package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const tracerName = "github.com/jhoicas/inventario-ledger/internal/application/inventory"

// DefaultPublishTimeout tope para publicar el evento de un movimiento ya confirmado.
const DefaultPublishTimeout = 2 * time.Second

// RegisterMovementUseCase motor transaccional de movimientos: valida, bloquea la fila de stock
// (SELECT FOR UPDATE), agrega el movimiento al libro y actualiza el índice en la misma transacción.
type RegisterMovementUseCase struct {
	txRunner       TxRunner
	publisher      EventPublisher
	publishTimeout time.Duration
	log            *logger.Logger
	tracer         trace.Tracer
	now            func() time.Time
}

// NewRegisterMovementUseCase construye el caso de uso. publisher y log pueden ser nil.
func NewRegisterMovementUseCase(txRunner TxRunner, publisher EventPublisher, log *logger.Logger) *RegisterMovementUseCase {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RegisterMovementUseCase{
		txRunner:       txRunner,
		publisher:      publisher,
		publishTimeout: DefaultPublishTimeout,
		log:            log,
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
	}
}

// SetPublishTimeout cambia el tope de publicación de eventos (d <= 0 lo ignora).
func (uc *RegisterMovementUseCase) SetPublishTimeout(d time.Duration) {
	if d > 0 {
		uc.publishTimeout = d
	}
}

// MovementInput entrada del motor. OriginID vacío = entrada, DestinationID vacío = salida,
// ambos = tramo de transferencia.
type MovementInput struct {
	ProductID     string
	OriginID      string
	DestinationID string
	Quantity      decimal.Decimal
	DocumentKind  string
	DocumentID    string
	Notes         string
	UserID        string
}

// RecordMovement registra un movimiento en una sola unidad de trabajo.
// Errores: ErrInvalidInput, NotFoundError, ErrInvalidState, InsufficientStockError o PersistenceError.
func (uc *RegisterMovementUseCase) RecordMovement(ctx context.Context, input MovementInput) (*entity.Movement, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.RecordMovement", trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.String("movement.origin_id", input.OriginID),
		attribute.String("movement.destination_id", input.DestinationID),
		attribute.String("movement.quantity", input.Quantity.String()),
	))
	defer span.End()

	var mov *entity.Movement
	err := uc.txRunner.Run(ctx, func(repos Repositories) error {
		route, err := uc.prepare(ctx, repos, input)
		if err != nil {
			return err
		}
		mov, err = uc.apply(ctx, repos, input, route, uc.now())
		return err
	})
	if err != nil {
		return nil, uc.fail(span, "registrar movimiento", err)
	}
	span.SetAttributes(attribute.String("movement.id", mov.ID), attribute.String("movement.kind", string(mov.Kind())))
	span.SetStatus(codes.Ok, "")
	uc.committed(ctx, mov)
	return mov, nil
}

// prepare aplica las validaciones 1–5 en orden (cantidad, producto, almacenable, ruta, bodegas).
func (uc *RegisterMovementUseCase) prepare(ctx context.Context, repos Repositories, input MovementInput) (entity.Route, error) {
	if !entity.ValidQuantity(input.Quantity) {
		return entity.Route{}, fmt.Errorf("%w: la cantidad debe ser mayor a 0 con máximo %d enteros y %d decimales", domain.ErrInvalidInput, entity.QuantityIntegerDigits, entity.QuantityScale)
	}
	if !entity.ValidDocumentKind(input.DocumentKind) {
		return entity.Route{}, fmt.Errorf("%w: tipo de documento origen desconocido %q", domain.ErrInvalidInput, input.DocumentKind)
	}
	if input.ProductID == "" {
		return entity.Route{}, fmt.Errorf("%w: product_id es requerido", domain.ErrInvalidInput)
	}

	product, err := repos.Products.GetByID(ctx, input.ProductID)
	if err != nil {
		return entity.Route{}, err
	}
	if product == nil {
		return entity.Route{}, domain.NewNotFound("producto", input.ProductID)
	}
	if !product.Active {
		return entity.Route{}, fmt.Errorf("%w: el producto %s está inactivo", domain.ErrInvalidState, product.Name)
	}
	if !product.IsStorable() {
		return entity.Route{}, fmt.Errorf("%w: el producto %s no es almacenable (tipo: %s)", domain.ErrInvalidState, product.Name, product.Type)
	}

	route, err := entity.NewRoute(input.OriginID, input.DestinationID)
	if err != nil {
		return entity.Route{}, err
	}

	if route.Origin() != "" {
		if err := requireWarehouse(ctx, repos, route.Origin(), "bodega de origen"); err != nil {
			return entity.Route{}, err
		}
	}
	if route.Destination() != "" {
		if err := requireWarehouse(ctx, repos, route.Destination(), "bodega de destino"); err != nil {
			return entity.Route{}, err
		}
	}
	return route, nil
}

// apply bloquea las filas de stock, verifica disponibilidad en origen, agrega el movimiento
// y actualiza el índice. Debe ejecutarse dentro de TxRunner.Run.
func (uc *RegisterMovementUseCase) apply(
	ctx context.Context,
	repos Repositories,
	input MovementInput,
	route entity.Route,
	now time.Time,
) (*entity.Movement, error) {
	levels, err := lockLevels(ctx, repos, input.ProductID, route.Warehouses()...)
	if err != nil {
		return nil, err
	}

	if route.Withdraws() {
		origin := levels[route.Origin()]
		if !origin.Covers(input.Quantity) {
			return nil, &domain.InsufficientStockError{
				ProductID:   input.ProductID,
				WarehouseID: route.Origin(),
				Available:   origin.Quantity,
				Requested:   input.Quantity,
			}
		}
	}

	mov := &entity.Movement{
		ID:           uuid.New().String(),
		ProductID:    input.ProductID,
		Route:        route,
		Quantity:     input.Quantity,
		MovedAt:      now,
		CreatedAt:    now,
		DocumentKind: input.DocumentKind,
		DocumentID:   input.DocumentID,
		Notes:        input.Notes,
		CreatedBy:    input.UserID,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}

	if route.Withdraws() {
		origin := levels[route.Origin()]
		origin.Quantity = origin.Quantity.Sub(input.Quantity)
		origin.UpdatedAt = now
		if err := repos.Stock.Upsert(ctx, origin); err != nil {
			return nil, err
		}
	}
	if route.Deposits() {
		dest := levels[route.Destination()]
		dest.Quantity = dest.Quantity.Add(input.Quantity)
		dest.UpdatedAt = now
		if err := repos.Stock.Upsert(ctx, dest); err != nil {
			return nil, err
		}
	}
	return mov, nil
}

// lockLevels bloquea los niveles de stock en orden ascendente de bodega para que dos
// transacciones que tocan el mismo par de bodegas no se bloqueen mutuamente.
func lockLevels(ctx context.Context, repos Repositories, productID string, warehouseIDs ...string) (map[string]*entity.StockLevel, error) {
	ids := append([]string(nil), warehouseIDs...)
	sort.Strings(ids)
	levels := make(map[string]*entity.StockLevel, len(ids))
	for _, id := range ids {
		level, err := repos.Stock.GetForUpdate(ctx, productID, id)
		if err != nil {
			return nil, err
		}
		levels[id] = level
	}
	return levels, nil
}

func requireWarehouse(ctx context.Context, repos Repositories, id, label string) error {
	wh, err := repos.Warehouses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.NewNotFound(label, id)
	}
	return nil
}

// committed publica el evento del movimiento ya confirmado. Un fallo del broker no revierte nada
// y la espera queda acotada por publishTimeout, sin heredar la cancelación de la petición.
func (uc *RegisterMovementUseCase) committed(ctx context.Context, mov *entity.Movement) {
	uc.log.Debug().
		Str("movement_id", mov.ID).
		Str("product_id", mov.ProductID).
		Str("kind", string(mov.Kind())).
		Str("quantity", mov.Quantity.String()).
		Msg("movimiento registrado")
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.publishTimeout)
	defer cancel()
	if err := uc.publisher.PublishMovementRecorded(ctx, NewMovementRecordedEvent(mov)); err != nil {
		uc.log.Warn().Err(err).Str("movement_id", mov.ID).Msg("publicar evento de movimiento")
	}
}

func (uc *RegisterMovementUseCase) fail(span trace.Span, op string, err error) error {
	err = domain.WrapPersistence(op, err)
	span.RecordError(err)
	span.SetStatus(codes.Error, domain.ErrorCode(err))
	return err
}
