package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuantityScale dígitos decimales admitidos en cantidades (decimal(18,4)).
const QuantityScale = 4

// QuantityIntegerDigits dígitos enteros que caben en decimal(18,4).
const QuantityIntegerDigits = 14

var quantityLimit = decimal.New(1, QuantityIntegerDigits)

// Tipos de documento origen de un movimiento (trazabilidad al documento de negocio).
const (
	DocumentKindTransfer        = "TRANSFER"
	DocumentKindAdjustment      = "ADJUSTMENT" // corrección manual
	DocumentKindSalesOrder      = "SALES_ORDER"
	DocumentKindPurchaseOrder   = "PURCHASE_ORDER"
	DocumentKindSalesInvoice    = "SALES_INVOICE"
	DocumentKindPurchaseInvoice = "PURCHASE_INVOICE"
)

// ValidDocumentKind reporta si kind es vacío o uno de los tipos conocidos.
func ValidDocumentKind(kind string) bool {
	switch kind {
	case "", DocumentKindTransfer, DocumentKindAdjustment, DocumentKindSalesOrder,
		DocumentKindPurchaseOrder, DocumentKindSalesInvoice, DocumentKindPurchaseInvoice:
		return true
	}
	return false
}

// Movement es un registro inmutable del libro de movimientos (entrada, salida o tramo de transferencia).
// Las correcciones son movimientos compensatorios nuevos, nunca ediciones.
type Movement struct {
	ID           string
	ProductID    string
	Route        Route
	Quantity     decimal.Decimal // siempre positiva; el signo lo da la ruta
	MovedAt      time.Time
	CreatedAt    time.Time
	DocumentKind string
	DocumentID   string
	Notes        string
	CreatedBy    string
}

// Kind atajo a Route.Kind().
func (m *Movement) Kind() MovementKind { return m.Route.Kind() }

// OriginID bodega de origen ("" en entradas).
func (m *Movement) OriginID() string { return m.Route.Origin() }

// DestinationID bodega de destino ("" en salidas).
func (m *Movement) DestinationID() string { return m.Route.Destination() }

// SignedQuantityAt cantidad con signo que el movimiento aporta a warehouseID:
// positiva si es destino, negativa si es origen, cero si no la referencia.
func (m *Movement) SignedQuantityAt(warehouseID string) decimal.Decimal {
	if warehouseID == "" {
		return decimal.Zero
	}
	switch warehouseID {
	case m.Route.Destination():
		return m.Quantity
	case m.Route.Origin():
		return m.Quantity.Neg()
	}
	return decimal.Zero
}

// ValidQuantity reporta si q es positiva, tiene como máximo QuantityScale decimales
// y cabe en QuantityIntegerDigits dígitos enteros.
func ValidQuantity(q decimal.Decimal) bool {
	if !q.IsPositive() || !QuantityFits(q) {
		return false
	}
	return q.Equal(q.Truncate(QuantityScale))
}

// QuantityFits reporta si |q| cabe en la columna de cantidades.
func QuantityFits(q decimal.Decimal) bool {
	return q.Abs().LessThan(quantityLimit)
}
