package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// NotFoundError indica que la entidad referenciada no existe.
type NotFoundError struct {
	Entity string // producto, bodega, movimiento
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s no encontrado", e.Entity)
	}
	return fmt.Sprintf("%s con ID %s no encontrado", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound construye un NotFoundError.
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientStockError reporta la cantidad disponible y la solicitada en la bodega de origen.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente. Disponible: %s, Solicitado: %s",
		e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ConflictError indica que la entidad no puede eliminarse porque tiene dependientes.
type ConflictError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("no se puede eliminar %s %s: %s", e.Entity, e.ID, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// PersistenceError envuelve un error inesperado del almacenamiento.
// Es el único error del núcleo que envuelve un error de infraestructura.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrPersistence) sin perder la cadena original.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// WrapPersistence envuelve err como PersistenceError salvo que ya sea un error de dominio conocido.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsDomainError reporta si err pertenece a la taxonomía esperada (recuperable por el llamador).
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrInvalidState, ErrInsufficientStock,
		ErrConflict, ErrDuplicate, ErrPersistence, ErrForbidden, ErrUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
