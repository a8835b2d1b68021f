package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/application/stock"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// actorHeader identifica al actor de la mutación (sistema upstream o usuario).
const actorHeader = "X-Actor"

// StockHandler maneja las peticiones HTTP de registros de stock y transacciones.
type StockHandler struct {
	uc *stock.UseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

func actorFrom(c *fiber.Ctx) string {
	if actor := c.Get(actorHeader); actor != "" {
		return actor
	}
	return "system"
}

// mapDomainError traduce errores de dominio a respuestas HTTP.
func mapDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "stock insuficiente para la salida"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "registro de stock no encontrado"})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrVersionConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto con el estado actual del registro"})
	case errors.Is(err, domain.ErrDataPersistence):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "DATA_PERSISTENCE", Message: "la operación no afectó filas"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func toStockResponse(r *entity.StockRecord) dto.StockResponse {
	return dto.StockResponse{
		ID:            r.ID,
		ProductName:   r.ProductName,
		Quantity:      r.Quantity,
		MinQuantity:   r.MinQuantity,
		Version:       r.Version,
		IsDeleted:     r.IsDeleted,
		LastUpdatedBy: r.LastUpdatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// Create godoc
// @Summary      Registrar línea de producto
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockRequest  true  "product_name, quantity, min_quantity"
// @Success      201  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stocks [post]
func (h *StockHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	record, err := h.uc.Create(c.Context(), in, actorFrom(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockResponse(record))
}

// GetByID godoc
// @Summary      Consultar registro de stock
// @Tags         stocks
// @Produce      json
// @Param        id  path  string  true  "ID del registro"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	record, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toStockResponse(record))
}

// GetByName consulta por nombre de producto (índice byname en caché).
func (h *StockHandler) GetByName(c *fiber.Ctx) error {
	name := c.Query("product_name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_name es obligatorio"})
	}
	record, err := h.uc.GetByName(c.Context(), name)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toStockResponse(record))
}

// Update godoc
// @Summary      Actualizar metadatos del registro (nombre, mínimo)
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del registro"
// @Param        body  body  dto.UpdateStockRequest  true  "product_name, min_quantity"
// @Success      200  {object}  dto.StockResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id} [put]
func (h *StockHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	record, err := h.uc.Update(c.Context(), c.Params("id"), in, actorFrom(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toStockResponse(record))
}

// Import godoc
// @Summary      Registrar entrada de mercancía
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del registro"
// @Param        body  body  dto.TransactionRequest  true  "quantity > 0"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/import [post]
func (h *StockHandler) Import(c *fiber.Ctx) error {
	return h.transaction(c, entity.TxTypeImport)
}

// Export godoc
// @Summary      Registrar salida de mercancía
// @Tags         stocks
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del registro"
// @Param        body  body  dto.TransactionRequest  true  "quantity > 0, <= stock actual"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/export [post]
func (h *StockHandler) Export(c *fiber.Ctx) error {
	return h.transaction(c, entity.TxTypeExport)
}

func (h *StockHandler) transaction(c *fiber.Ctx, txType string) error {
	var in dto.TransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	record, err := h.uc.ProcessTransaction(c.Context(), c.Params("id"), in.Quantity, txType, actorFrom(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toStockResponse(record))
}

// SoftDelete marca el registro como eliminado (borrado lógico).
func (h *StockHandler) SoftDelete(c *fiber.Ctx) error {
	if err := h.uc.SoftDelete(c.Context(), c.Params("id"), actorFrom(c)); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "registro eliminado"})
}

// Restore limpia la marca de borrado; la cantidad queda intacta.
func (h *StockHandler) Restore(c *fiber.Ctx) error {
	record, err := h.uc.Restore(c.Context(), c.Params("id"), actorFrom(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toStockResponse(record))
}

// PermanentDelete purga físicamente el registro.
func (h *StockHandler) PermanentDelete(c *fiber.Ctx) error {
	if err := h.uc.PermanentDelete(c.Context(), c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "registro purgado"})
}

// LedgerSummary godoc
// @Summary      Totales del libro de movimientos de un registro
// @Description  Con from/to/type (RFC3339 + IMPORT|EXPORT) incluye la suma del rango.
// @Tags         stocks
// @Produce      json
// @Param        id    path   string  true   "ID del registro"
// @Param        type  query  string  false  "IMPORT | EXPORT"
// @Param        from  query  string  false  "inicio del rango (RFC3339)"
// @Param        to    query  string  false  "fin del rango (RFC3339)"
// @Success      200  {object}  dto.LedgerSummaryResponse
// @Router       /api/stocks/{id}/ledger [get]
func (h *StockHandler) LedgerSummary(c *fiber.Ctx) error {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido (RFC3339)"})
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido (RFC3339)"})
		}
		to = &t
	}
	summary, err := h.uc.LedgerSummary(c.Context(), c.Params("id"), c.Query("type"), from, to)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(summary)
}

// Dashboard devuelve los contadores agregados del tablero.
func (h *StockHandler) Dashboard(c *fiber.Ctx) error {
	resp, err := h.uc.Dashboard(c.Context())
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(resp)
}
