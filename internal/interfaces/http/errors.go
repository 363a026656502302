package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// statusByCode traduce el código estable del dominio a HTTP.
var statusByCode = map[string]int{
	domain.CodeNotFound:          fiber.StatusNotFound,
	domain.CodeValidation:        fiber.StatusBadRequest,
	domain.CodeInvalidState:      fiber.StatusBadRequest,
	domain.CodeInsufficientStock: fiber.StatusBadRequest,
	domain.CodeConflict:          fiber.StatusConflict,
	domain.CodeDuplicate:         fiber.StatusConflict,
	domain.CodeUnauthorized:      fiber.StatusUnauthorized,
	domain.CodeForbidden:         fiber.StatusForbidden,
	domain.CodePersistence:       fiber.StatusInternalServerError,
}

// errorResponse escribe el error de un caso de uso como dto.ErrorResponse.
// Los errores de persistencia no exponen el detalle del almacenamiento.
func errorResponse(c *fiber.Ctx, err error) error {
	code := domain.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	body := dto.ErrorResponse{Code: code, Message: err.Error()}
	if code == domain.CodePersistence {
		body.Message = "error interno al acceder al almacenamiento"
	}

	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		body.Details = map[string]any{
			"product_id":   insufficient.ProductID,
			"warehouse_id": insufficient.WarehouseID,
			"available":    insufficient.Available.String(),
			"requested":    insufficient.Requested.String(),
		}
	}
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		body.Details = map[string]any{"entity": notFound.Entity, "id": notFound.ID}
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: message})
}
