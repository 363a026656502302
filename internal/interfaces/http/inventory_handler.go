package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP de movimientos y stock (protegido).
type InventoryHandler struct {
	engine   *inventory.RegisterMovementUseCase
	transfer *inventory.TransferUseCase
	adjust   *inventory.AdjustmentUseCase
	query    *inventory.StockQueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	engine *inventory.RegisterMovementUseCase,
	transfer *inventory.TransferUseCase,
	adjust *inventory.AdjustmentUseCase,
	query *inventory.StockQueryUseCase,
) *InventoryHandler {
	return &InventoryHandler{engine: engine, transfer: transfer, adjust: adjust, query: query}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Sin origin_id es una entrada, sin destination_id una salida, con ambos un tramo de transferencia.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "product_id, origin_id y/o destination_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	mov, err := h.engine.RecordMovementFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(mov))
}

// Transfer godoc
// @Summary      Trasladar stock entre bodegas
// @Description  Registra la salida en origen y la entrada en destino en una sola transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, origin_id, destination_id, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.transfer.TransferFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		ExitMovement:  dto.FromMovement(res.Exit),
		EntryMovement: dto.FromMovement(res.Entry),
	})
}

// Adjust godoc
// @Summary      Ajuste de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "direction ENTRY|EXIT"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	mov, err := h.adjust.AdjustFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(mov))
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	mov, err := h.query.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromMovement(mov))
}

// ListMovements godoc
// @Summary      Listar movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id      query  string  false  "Producto"
// @Param        origin_id       query  string  false  "Bodega de origen"
// @Param        destination_id  query  string  false  "Bodega de destino"
// @Param        document_kind   query  string  false  "Tipo de documento origen"
// @Param        document_id     query  string  false  "ID del documento origen"
// @Param        from            query  string  false  "Desde (RFC3339)"
// @Param        to              query  string  false  "Hasta (RFC3339)"
// @Param        limit           query  int     false  "Límite"  default(50)
// @Param        offset          query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return badRequest(c, "VALIDATION", "from debe ser RFC3339")
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return badRequest(c, "VALIDATION", "to debe ser RFC3339")
	}
	limit, offset := pageParams(c)
	filter := repository.MovementFilter{
		ProductID:     c.Query("product_id"),
		OriginID:      c.Query("origin_id"),
		DestinationID: c.Query("destination_id"),
		DocumentKind:  c.Query("document_kind"),
		DocumentID:    c.Query("document_id"),
		From:          from,
		To:            to,
		Limit:         limit,
		Offset:        offset,
	}
	list, total, err := h.query.ListMovements(c.UserContext(), filter)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: dto.FromMovements(list),
		Page:  dto.PageResponse{Limit: effectiveLimit(limit), Offset: offset, Total: total},
	})
}

// ListStockLevels godoc
// @Summary      Listar niveles de stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        limit         query  int     false  "Límite"  default(50)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.StockLevelListResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) ListStockLevels(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	list, total, err := h.query.ListStockLevels(c.UserContext(), repository.StockFilter{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.StockLevelListResponse{
		Items: dto.FromStockLevels(list),
		Page:  dto.PageResponse{Limit: effectiveLimit(limit), Offset: offset, Total: total},
	})
}

// ConsolidatedStock godoc
// @Summary      Stock consolidado de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ConsolidatedStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock [get]
func (h *InventoryHandler) ConsolidatedStock(c *fiber.Ctx) error {
	out, err := h.query.ConsolidatedStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.ConsolidatedStockResponse{
		ProductID:        out.Product.ID,
		SKU:              out.Product.SKU,
		Name:             out.Product.Name,
		StockByWarehouse: dto.FromStockLevels(out.Levels),
		Total:            out.Total,
	})
}

// MovementHistory godoc
// @Summary      Historial de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del producto"
// @Param        limit  query  int     false  "Límite (máx. 500)"  default(50)
// @Success      200  {array}   dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/movements [get]
func (h *InventoryHandler) MovementHistory(c *fiber.Ctx) error {
	list, err := h.query.MovementHistory(c.UserContext(), c.Params("id"), c.QueryInt("limit", 0))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromMovements(list))
}

// StockAtWarehouse godoc
// @Summary      Stock de una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id             path   string  true   "ID de la bodega"
// @Param        only_positive  query  bool    false  "Solo cantidades > 0"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/stock [get]
func (h *InventoryHandler) StockAtWarehouse(c *fiber.Ctx) error {
	onlyPositive, _ := strconv.ParseBool(c.Query("only_positive", "false"))
	list, err := h.query.StockAtWarehouse(c.UserContext(), c.Params("id"), onlyPositive)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.FromStockLevels(list))
}

// StockSheetPDF godoc
// @Summary      Hoja de conteo físico (PDF)
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/stock/pdf [get]
func (h *InventoryHandler) StockSheetPDF(c *fiber.Ctx) error {
	id := c.Params("id")
	out, err := h.query.StockSheetPDF(c.UserContext(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="conteo-`+id+`.pdf"`)
	return c.Send(out)
}

// CheckAvailability godoc
// @Summary      Validar disponibilidad de stock
// @Description  Sin warehouse_id suma todas las bodegas.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AvailabilityRequest  true  "product_id, warehouse_id opcional, quantity"
// @Success      200   {object}  dto.AvailabilityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/availability [post]
func (h *InventoryHandler) CheckAvailability(c *fiber.Ctx) error {
	var in dto.AvailabilityRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.query.CheckAvailability(c.UserContext(), in.ProductID, in.WarehouseID, in.Quantity)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{
		ProductID:   out.ProductID,
		WarehouseID: out.WarehouseID,
		Available:   out.Available,
		Required:    out.Required,
		Sufficient:  out.Sufficient,
		Message:     out.Message,
	})
}

// AuditStockLevel godoc
// @Summary      Auditar nivel de stock contra el libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "Producto"
// @Param        warehouse_id  query  string  true  "Bodega"
// @Success      200  {object}  dto.LevelAuditResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/audit [get]
func (h *InventoryHandler) AuditStockLevel(c *fiber.Ctx) error {
	out, err := h.query.AuditStockLevel(c.UserContext(), c.Query("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(dto.LevelAuditResponse{
		ProductID:      out.ProductID,
		WarehouseID:    out.WarehouseID,
		IndexQuantity:  out.IndexQuantity,
		LedgerQuantity: out.LedgerQuantity,
		Consistent:     out.Consistent,
	})
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 0)
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func effectiveLimit(limit int) int {
	switch {
	case limit <= 0:
		return inventory.DefaultHistoryLimit
	case limit > inventory.MaxHistoryLimit:
		return inventory.MaxHistoryLimit
	}
	return limit
}
