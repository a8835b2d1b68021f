package alert

import (
	"context"

	"github.com/jhoicas/almacen-api/internal/application/dto"
)

// Lister abstrae la fuente paginada de alertas para el publicador
// (implementada por Aggregator; los tests inyectan fakes).
type Lister interface {
	GetAlerts(ctx context.Context, page, size int, mode string) (*dto.AlertListResponse, error)
}

// Sender define el puerto hacia el broker de mensajes. La entrega es
// best-effort: el cliente puede reintentar internamente, pero el pipeline
// no añade bucles de reintento propios.
type Sender interface {
	// Send publica un mensaje con key = id del registro de stock.
	Send(ctx context.Context, key string, msg Message) error
}
