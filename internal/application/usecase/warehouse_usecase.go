package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// WarehouseUseCase casos de uso CRUD para bodegas.
type WarehouseUseCase struct {
	repo      repository.WarehouseRepository
	movements repository.MovementRepository
	stock     repository.StockLevelRepository
	now       func() time.Time
}

// NewWarehouseUseCase construye el caso de uso. movements y stock se usan para proteger el borrado.
func NewWarehouseUseCase(
	repo repository.WarehouseRepository,
	movements repository.MovementRepository,
	stock repository.StockLevelRepository,
) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, movements: movements, stock: stock, now: time.Now}
}

// Create crea una nueva bodega.
func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	name, err := validWarehouseName(in.Name)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      name,
		AddressID: strings.TrimSpace(in.AddressID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, warehouse); err != nil {
		return nil, domain.WrapPersistence("crear bodega", err)
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// Exists reporta si la bodega existe.
func (uc *WarehouseUseCase) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return false, domain.WrapPersistence("verificar bodega", err)
	}
	return warehouse != nil, nil
}

// Update actualiza una bodega.
func (uc *WarehouseUseCase) Update(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name, err := validWarehouseName(*in.Name)
		if err != nil {
			return nil, err
		}
		warehouse.Name = name
	}
	if in.AddressID != nil {
		warehouse.AddressID = strings.TrimSpace(*in.AddressID)
	}
	warehouse.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, warehouse); err != nil {
		return nil, domain.WrapPersistence("actualizar bodega", err)
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista bodegas con paginación.
func (uc *WarehouseUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.WarehouseListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, domain.WrapPersistence("listar bodegas", err)
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Delete elimina una bodega sin movimientos ni niveles de stock.
// Si el libro la referencia devuelve ConflictError.
func (uc *WarehouseUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.get(ctx, id); err != nil {
		return err
	}
	movs, err := uc.movements.CountByWarehouse(ctx, id)
	if err != nil {
		return domain.WrapPersistence("eliminar bodega", err)
	}
	if movs > 0 {
		return &domain.ConflictError{Entity: "bodega", ID: id, Reason: fmt.Sprintf("tiene %d movimientos registrados", movs)}
	}
	levels, err := uc.stock.CountByWarehouse(ctx, id)
	if err != nil {
		return domain.WrapPersistence("eliminar bodega", err)
	}
	if levels > 0 {
		return &domain.ConflictError{Entity: "bodega", ID: id, Reason: "tiene niveles de stock"}
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return domain.WrapPersistence("eliminar bodega", err)
	}
	return nil
}

func (uc *WarehouseUseCase) get(ctx context.Context, id string) (*entity.Warehouse, error) {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.WrapPersistence("obtener bodega", err)
	}
	if warehouse == nil {
		return nil, domain.NewNotFound("bodega", id)
	}
	return warehouse, nil
}

func validWarehouseName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: el nombre de la bodega es requerido", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > entity.WarehouseNameMaxLen {
		return "", fmt.Errorf("%w: el nombre de la bodega no puede superar %d caracteres", domain.ErrInvalidInput, entity.WarehouseNameMaxLen)
	}
	return name, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		Name:      w.Name,
		AddressID: w.AddressID,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
