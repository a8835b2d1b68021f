package ports

import "context"

// Regiones lógicas de caché. Las regiones por registro se invalidan por clave;
// las agregadas/derivadas se vacían completas en cada escritura (full-flush:
// recalcular el delta no compensa la complejidad frente al TTL corto).
const (
	RegionStockDetail   = "stock:detail"   // por id
	RegionStockByName   = "stock:byname"   // índice por nombre de producto
	RegionLedgerSummary = "ledger:summary" // totales del libro por id
	RegionLedgerStats   = "ledger:stats"   // sumas por tipo y ventana de fechas
	RegionAlerts        = "alerts"         // listas de alertas envueltas
	RegionDashboard     = "dashboard"      // contadores agregados
)

// Cache define el puerto de la capa de coherencia de caché (key/value con TTL
// por región). Las implementaciones deben tolerar caídas del store: un fallo
// de caché nunca debe impedir la operación de negocio.
type Cache interface {
	// Get deserializa en dest y devuelve si la clave existía.
	Get(ctx context.Context, region, key string, dest any) (bool, error)
	Set(ctx context.Context, region, key string, value any) error
	Evict(ctx context.Context, region string, keys ...string) error
	// EvictRegion elimina todas las claves de la región.
	EvictRegion(ctx context.Context, region string) error
}
