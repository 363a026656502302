package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// RecordMovementRequest body para POST /api/inventory/movements.
// origin_id vacío = entrada, destination_id vacío = salida, ambos = tramo de transferencia.
type RecordMovementRequest struct {
	ProductID     string          `json:"product_id"`
	OriginID      string          `json:"origin_id,omitempty"`
	DestinationID string          `json:"destination_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	DocumentKind  string          `json:"document_kind,omitempty"`
	DocumentID    string          `json:"document_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID     string          `json:"product_id"`
	OriginID      string          `json:"origin_id"`
	DestinationID string          `json:"destination_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Notes         string          `json:"notes,omitempty"`
}

// AdjustmentRequest body para POST /api/inventory/adjustments.
type AdjustmentRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Direction   string          `json:"direction"` // ENTRY | EXIT
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason,omitempty"`
}

// AvailabilityRequest body para POST /api/inventory/availability.
type AvailabilityRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	Kind          string          `json:"kind"`
	OriginID      string          `json:"origin_id,omitempty"`
	DestinationID string          `json:"destination_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	MovedAt       time.Time       `json:"moved_at"`
	CreatedAt     time.Time       `json:"created_at"`
	DocumentKind  string          `json:"document_kind,omitempty"`
	DocumentID    string          `json:"document_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// TransferResponse par de movimientos de un traslado.
type TransferResponse struct {
	ExitMovement  MovementResponse `json:"exit_movement"`
	EntryMovement MovementResponse `json:"entry_movement"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockLevelResponse salida de un nivel de stock.
type StockLevelResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity_available"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StockLevelListResponse lista paginada de niveles.
type StockLevelListResponse struct {
	Items []StockLevelResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// ConsolidatedStockResponse stock de un producto en todas las bodegas.
type ConsolidatedStockResponse struct {
	ProductID        string               `json:"product_id"`
	SKU              string               `json:"sku,omitempty"`
	Name             string               `json:"name,omitempty"`
	StockByWarehouse []StockLevelResponse `json:"stock_by_warehouse"`
	Total            decimal.Decimal      `json:"total"`
}

// AvailabilityResponse resultado de la validación de stock.
type AvailabilityResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id,omitempty"`
	Available   decimal.Decimal `json:"available"`
	Required    decimal.Decimal `json:"required"`
	Sufficient  bool            `json:"sufficient"`
	Message     string          `json:"message"`
}

// LevelAuditResponse comparación índice vs libro.
type LevelAuditResponse struct {
	ProductID      string          `json:"product_id"`
	WarehouseID    string          `json:"warehouse_id"`
	IndexQuantity  decimal.Decimal `json:"index_quantity"`
	LedgerQuantity decimal.Decimal `json:"ledger_quantity"`
	Consistent     bool            `json:"consistent"`
}

// FromMovement mapea la entidad al DTO de salida.
func FromMovement(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Kind:          string(m.Kind()),
		OriginID:      m.OriginID(),
		DestinationID: m.DestinationID(),
		Quantity:      m.Quantity,
		MovedAt:       m.MovedAt,
		CreatedAt:     m.CreatedAt,
		DocumentKind:  m.DocumentKind,
		DocumentID:    m.DocumentID,
		Notes:         m.Notes,
		CreatedBy:     m.CreatedBy,
	}
}

// FromMovements mapea una lista de movimientos.
func FromMovements(list []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromMovement(m))
	}
	return out
}

// FromStockLevels mapea una lista de niveles.
func FromStockLevels(list []*entity.StockLevel) []StockLevelResponse {
	out := make([]StockLevelResponse, 0, len(list))
	for _, l := range list {
		out = append(out, StockLevelResponse{
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			Quantity:    l.Quantity,
			UpdatedAt:   l.UpdatedAt,
		})
	}
	return out
}
