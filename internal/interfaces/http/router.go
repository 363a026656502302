package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	WarehouseUC      *usecase.WarehouseUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Transfer         *inventory.TransferUseCase
	Adjustment       *inventory.AdjustmentUseCase
	Query            *inventory.StockQueryUseCase
	JWTSecret        string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	canWrite := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)

	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.Transfer, deps.Adjustment, deps.Query)

	// Warehouses
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Get("/:id/stock", inventoryHandler.StockAtWarehouse)
	warehouses.Get("/:id/stock/pdf", inventoryHandler.StockSheetPDF)
	warehouses.Post("/", RequireRole(jwt.RoleAdmin), warehouseHandler.Create)
	warehouses.Put("/:id", RequireRole(jwt.RoleAdmin), warehouseHandler.Update)
	warehouses.Delete("/:id", RequireRole(jwt.RoleAdmin), warehouseHandler.Delete)

	// Inventory: libro de movimientos e índice de stock
	invGroup := protected.Group("/inventory")
	invGroup.Post("/movements", canWrite, inventoryHandler.RecordMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/movements/:id", inventoryHandler.GetMovement)
	invGroup.Post("/transfers", canWrite, inventoryHandler.Transfer)
	invGroup.Post("/adjustments", canWrite, inventoryHandler.Adjust)
	invGroup.Get("/stock", inventoryHandler.ListStockLevels)
	invGroup.Post("/availability", inventoryHandler.CheckAvailability)
	invGroup.Get("/audit", inventoryHandler.AuditStockLevel)
	invGroup.Get("/products/:id/stock", inventoryHandler.ConsolidatedStock)
	invGroup.Get("/products/:id/movements", inventoryHandler.MovementHistory)
}
