package dto

import "github.com/jhoicas/almacen-api/internal/domain/alert"

// Modos de consulta de alertas.
const (
	AlertModeBelowMinimum = "BELOW_MINIMUM"
	AlertModeOutOfStock   = "OUT_OF_STOCK"
	AlertModeAll          = "ALL"
)

// AlertListResponse página de alertas clasificadas.
// En modo ALL, TotalItems es la suma de los dos contadores independientes
// (aproximación intencional: el conteo global exacto requeriría full scan).
type AlertListResponse struct {
	Items      []alert.Item `json:"items"`
	TotalItems int64        `json:"total_items"`
	Page       int          `json:"page"`
	Size       int          `json:"size"`
	AlertType  string       `json:"alert_type"`
}
