package alert

import (
	"fmt"
	"time"

	"github.com/jhoicas/almacen-api/internal/domain/entity"
)

// Severidades de una alerta de stock.
const (
	SeverityCritical = "CRITICAL" // cantidad en cero
	SeverityWarning  = "WARNING"  // por debajo del mínimo, sin llegar a cero
	SeverityInfo     = "INFO"     // nivel normal; se filtra antes de las vistas de alerta
)

// Item vista puntual del estado de salud de un registro de stock.
// Se construye fresco en cada clasificación; nunca se cachea como entidad
// (solo las listas envueltas pueden cachearse aguas arriba).
type Item struct {
	ID              string    `json:"id"`
	ProductName     string    `json:"product_name"`
	CurrentQuantity int64     `json:"current_quantity"`
	MinQuantity     int64     `json:"min_quantity"`
	Deficit         int64     `json:"deficit"` // min_quantity - current_quantity
	Severity        string    `json:"severity"`
	Message         string    `json:"message"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Classify clasifica un snapshot de stock en su tier de severidad.
// Función pura: sin I/O ni efectos; el mismo snapshot produce siempre el mismo Item.
// Cantidad cero siempre es CRITICAL, incluso con mínimo cero; cantidad igual
// al mínimo ya se considera nivel normal (INFO).
func Classify(stock *entity.StockRecord) Item {
	item := Item{
		ID:              stock.ID,
		ProductName:     stock.ProductName,
		CurrentQuantity: stock.Quantity,
		MinQuantity:     stock.MinQuantity,
		Deficit:         stock.MinQuantity - stock.Quantity,
		UpdatedAt:       stock.UpdatedAt,
	}

	switch {
	case stock.Quantity == 0:
		item.Severity = SeverityCritical
		item.Message = fmt.Sprintf("Producto '%s' agotado: sin existencias en bodega", stock.ProductName)
	case stock.Quantity < stock.MinQuantity:
		item.Severity = SeverityWarning
		item.Message = fmt.Sprintf("Producto '%s' por debajo del mínimo: déficit de %d unidades", stock.ProductName, item.Deficit)
	default:
		item.Severity = SeverityInfo
		item.Message = fmt.Sprintf("Producto '%s' con nivel de stock normal", stock.ProductName)
	}
	return item
}
