package entity

import "time"

// Tipos de producto. Solo los almacenables participan en movimientos de inventario.
const (
	ProductTypeStorable   = "STORABLE"
	ProductTypeConsumable = "CONSUMABLE"
	ProductTypeService    = "SERVICE"
)

// Product vista de solo lectura del catálogo de productos (colaborador externo al núcleo).
type Product struct {
	ID        string
	SKU       string
	Name      string
	Type      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsStorable reporta si el producto puede tener stock.
func (p *Product) IsStorable() bool { return p.Type == ProductTypeStorable }
