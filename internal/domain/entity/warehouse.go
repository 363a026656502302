package entity

import "time"

// WarehouseNameMaxLen longitud máxima del nombre de una bodega.
const WarehouseNameMaxLen = 100

// Warehouse representa una bodega donde se almacena inventario.
type Warehouse struct {
	ID        string
	Name      string
	AddressID string // opcional
	CreatedAt time.Time
	UpdatedAt time.Time
}
