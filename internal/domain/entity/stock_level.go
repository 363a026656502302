package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel stock actual de un producto en una bodega (índice materializado sobre el libro de movimientos).
// Clave compuesta (ProductID, WarehouseID). Se crea en el primer movimiento y nunca se elimina.
type StockLevel struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}

// NewStockLevel fila en cero para un par producto/bodega aún no tocado.
func NewStockLevel(productID, warehouseID string) *StockLevel {
	return &StockLevel{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}
}

// Covers reporta si hay al menos qty disponible.
func (s *StockLevel) Covers(qty decimal.Decimal) bool {
	return s.Quantity.GreaterThanOrEqual(qty)
}
