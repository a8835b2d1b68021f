package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/almacen-api/internal/domain/alert"
)

// Message payload publicado al broker por cada alerta (un mensaje por item).
type Message struct {
	MessageID       string `json:"messageId"` // id fresco por envío
	ProductID       string `json:"productId"`
	ProductName     string `json:"productName"`
	CurrentQuantity int64  `json:"currentQuantity"`
	Threshold       int64  `json:"threshold"`
	Level           string `json:"level"` // CRITICAL | WARNING
	Message         string `json:"message"`
	Timestamp       int64  `json:"timestamp"` // epoch millis
}

// NewMessage construye el payload a partir de un item clasificado.
func NewMessage(item alert.Item) Message {
	action := "programar reposición antes de agotar existencias"
	if item.Severity == alert.SeverityCritical {
		action = "reponer de inmediato, hay demanda sin cubrir"
	}
	body := fmt.Sprintf(
		"[%s] %s | Current: %d | Minimum: %d | Deficit: %d units | Acción recomendada: %s",
		item.Severity, item.Message, item.CurrentQuantity, item.MinQuantity, item.Deficit, action,
	)
	return Message{
		MessageID:       uuid.New().String(),
		ProductID:       item.ID,
		ProductName:     item.ProductName,
		CurrentQuantity: item.CurrentQuantity,
		Threshold:       item.MinQuantity,
		Level:           item.Severity,
		Message:         body,
		Timestamp:       time.Now().UnixMilli(),
	}
}
