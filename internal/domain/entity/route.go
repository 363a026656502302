package entity

import (
	"errors"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// MovementKind clase de movimiento derivada de su ruta.
type MovementKind string

const (
	MovementKindEntry       MovementKind = "ENTRY"        // solo destino
	MovementKindExit        MovementKind = "EXIT"         // solo origen
	MovementKindTransferLeg MovementKind = "TRANSFER_LEG" // origen y destino
)

var (
	errNoLocation   = errors.New("debe especificar al menos una bodega (origen para salida, destino para entrada, o ambas para transferencia)")
	errSameLocation = errors.New("la bodega de origen y destino no pueden ser la misma")
)

// Route variante etiquetada Entry{destino} | Exit{origen} | TransferLeg{origen, destino}.
// Los campos no son exportados: una Route solo se obtiene por sus constructores,
// por lo que "sin bodegas" u "origen == destino" no son representables.
type Route struct {
	kind        MovementKind
	origin      string
	destination string
}

// EntryTo ruta de entrada a destination.
func EntryTo(destination string) (Route, error) {
	return NewRoute("", destination)
}

// ExitFrom ruta de salida desde origin.
func ExitFrom(origin string) (Route, error) {
	return NewRoute(origin, "")
}

// NewTransferLeg ruta con origen y destino.
func NewTransferLeg(origin, destination string) (Route, error) {
	if origin == "" || destination == "" {
		return Route{}, fmt.Errorf("%w: un tramo de transferencia requiere bodega de origen y destino", domain.ErrInvalidState)
	}
	return NewRoute(origin, destination)
}

// NewRoute deriva la clase de movimiento a partir de bodegas opcionales.
func NewRoute(origin, destination string) (Route, error) {
	switch {
	case origin == "" && destination == "":
		return Route{}, fmt.Errorf("%w: %v", domain.ErrInvalidState, errNoLocation)
	case origin == destination:
		return Route{}, fmt.Errorf("%w: %v", domain.ErrInvalidState, errSameLocation)
	case origin == "":
		return Route{kind: MovementKindEntry, destination: destination}, nil
	case destination == "":
		return Route{kind: MovementKindExit, origin: origin}, nil
	default:
		return Route{kind: MovementKindTransferLeg, origin: origin, destination: destination}, nil
	}
}

// Kind clase de movimiento.
func (r Route) Kind() MovementKind { return r.kind }

// Origin bodega de origen ("" si es entrada).
func (r Route) Origin() string { return r.origin }

// Destination bodega de destino ("" si es salida).
func (r Route) Destination() string { return r.destination }

// IsZero reporta si la ruta no fue construida.
func (r Route) IsZero() bool { return r.kind == "" }

// Withdraws reporta si la ruta resta stock del origen (salida o tramo).
func (r Route) Withdraws() bool {
	return r.kind == MovementKindExit || r.kind == MovementKindTransferLeg
}

// Deposits reporta si la ruta suma stock al destino (entrada o tramo).
func (r Route) Deposits() bool {
	return r.kind == MovementKindEntry || r.kind == MovementKindTransferLeg
}

// Warehouses bodegas referenciadas, origen primero.
func (r Route) Warehouses() []string {
	out := make([]string, 0, 2)
	if r.origin != "" {
		out = append(out, r.origin)
	}
	if r.destination != "" {
		out = append(out, r.destination)
	}
	return out
}
