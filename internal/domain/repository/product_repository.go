package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ProductRepository puerto de lectura al catálogo de productos (propiedad de otro módulo).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
