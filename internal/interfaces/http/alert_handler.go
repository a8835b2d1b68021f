package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/almacen-api/internal/application/alert"
	"github.com/jhoicas/almacen-api/internal/application/dto"
)

// AlertHandler maneja la consulta paginada de alertas y el disparo manual.
type AlertHandler struct {
	aggregator *alert.Aggregator
	publisher  *alert.Publisher
}

// NewAlertHandler construye el handler.
func NewAlertHandler(aggregator *alert.Aggregator, publisher *alert.Publisher) *AlertHandler {
	return &AlertHandler{aggregator: aggregator, publisher: publisher}
}

// List godoc
// @Summary      Listar alertas de stock
// @Tags         alerts
// @Produce      json
// @Param        page  query  int     false  "página cero-based"      default(0)
// @Param        size  query  int     false  "tamaño de página"       default(20)
// @Param        type  query  string  false  "BELOW_MINIMUM | OUT_OF_STOCK | ALL"  default(ALL)
// @Success      200  {object}  dto.AlertListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", 20)
	mode := c.Query("type", dto.AlertModeAll)

	resp, err := h.aggregator.GetAlerts(c.Context(), page, size, mode)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(resp)
}

// Trigger godoc
// @Summary      Disparar ciclo de alertas bajo demanda
// @Description  Publica las alertas vigentes al broker y devuelve los mensajes entregados.
// @Tags         alerts
// @Produce      json
// @Success      200  {object}  map[string]int
// @Router       /api/alerts/trigger [post]
func (h *AlertHandler) Trigger(c *fiber.Ctx) error {
	sent, err := h.publisher.TriggerAlertCheck(c.Context())
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"sent": sent})
}
